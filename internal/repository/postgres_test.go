package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentsdomain "transit/internal/domain/payments"
	ticketsdomain "transit/internal/domain/tickets"
	"transit/internal/entities"
)

var testDB *sqlx.DB
var getDBOnce sync.Once

func getDB(t *testing.T) *sqlx.DB {
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL not set, skipping integration test")
	}

	getDBOnce.Do(func() {
		var err error
		testDB, err = sqlx.Open("postgres", url)
		if err != nil {
			panic(err)
		}
		if err := InitializeDBSchema(testDB); err != nil {
			panic(err)
		}
	})
	return testDB
}

func cleanupDB(t *testing.T) {
	_, err := getDB(t).Exec("TRUNCATE TABLE tickets, payments")
	require.NoError(t, err)
}

func testTicket(t *testing.T) *ticketsdomain.Ticket {
	t.Helper()
	price := entities.NewMoney(decimal.RequireFromString("2.50"), "USD")

	return ticketsdomain.NewTicket(
		uuid.New(), uuid.New(),
		ticketsdomain.ClassSingle, price,
		"TKT-"+uuid.NewString(),
		time.Now().UTC(),
	)
}

func TestTicketsRepo_Integration(t *testing.T) {
	db := getDB(t)
	t.Cleanup(func() { cleanupDB(t) })

	repo := NewTicketsRepo(db)
	ctx := context.Background()

	t.Run("create and read back by id and scan token", func(t *testing.T) {
		ticket := testTicket(t)
		require.NoError(t, repo.Create(ctx, ticket))

		byID, err := repo.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, ticket.ID, byID.ID)
		assert.Equal(t, ticketsdomain.StatusPurchased, byID.Status)
		assert.True(t, byID.Price.Amount.Equal(ticket.Price.Amount))
		assert.Nil(t, byID.ValidityEnd)

		byToken, err := repo.GetByScanToken(ctx, ticket.ScanToken)
		require.NoError(t, err)
		assert.Equal(t, ticket.ID, byToken.ID)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("batch insert is atomic", func(t *testing.T) {
		first := testTicket(t)
		second := testTicket(t)
		second.ID = first.ID // violates the primary key

		err := repo.CreateBatch(ctx, []*ticketsdomain.Ticket{first, second})
		require.Error(t, err)

		_, err = repo.GetByID(ctx, first.ID)
		assert.ErrorIs(t, err, ErrNotFound, "no ticket of a failed batch may persist")
	})

	t.Run("compare and set update rejects a stale writer", func(t *testing.T) {
		ticket := testTicket(t)
		require.NoError(t, repo.Create(ctx, ticket))

		prevRemaining := ticket.RemainingValidations
		require.NoError(t, ticket.Activate(time.Now().UTC()))
		require.NoError(t, repo.Update(ctx, ticket,
			ticketsdomain.StatusPurchased, prevRemaining))

		// a second writer still holding the PURCHASED snapshot must lose
		err := repo.Update(ctx, ticket, ticketsdomain.StatusPurchased, 0)
		assert.ErrorIs(t, err, ErrNotFound)

		stored, err := repo.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, ticketsdomain.StatusActive, stored.Status)
		require.NotNil(t, stored.ValidityEnd)
	})

	t.Run("payment status is recorded on all tickets of the order", func(t *testing.T) {
		first := testTicket(t)
		second := testTicket(t)
		second.OrderID = first.OrderID
		require.NoError(t, repo.CreateBatch(ctx, []*ticketsdomain.Ticket{first, second}))

		require.NoError(t, repo.UpdatePaymentStatusByOrder(ctx, first.OrderID, "COMPLETED"))

		ts, err := repo.ListByOrder(ctx, first.OrderID)
		require.NoError(t, err)
		require.Len(t, ts, 2)
		for _, ticket := range ts {
			assert.Equal(t, "COMPLETED", ticket.PaymentStatus)
		}
	})
}

func TestPaymentsRepo_Integration(t *testing.T) {
	db := getDB(t)
	t.Cleanup(func() { cleanupDB(t) })

	repo := NewPaymentsRepo(db)
	ctx := context.Background()

	newPayment := func() *paymentsdomain.Payment {
		return paymentsdomain.NewPayment(
			uuid.New(), uuid.New(), uuid.New(),
			decimal.RequireFromString("35.00"), "USD",
			paymentsdomain.MethodCreditCard,
			time.Now().UTC(),
		)
	}

	t.Run("second payment for the same order is rejected", func(t *testing.T) {
		payment := newPayment()
		require.NoError(t, repo.Create(ctx, payment))

		dup := newPayment()
		dup.OrderID = payment.OrderID
		assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateOrder)
	})

	t.Run("settlement outcome round trips", func(t *testing.T) {
		payment := newPayment()
		require.NoError(t, repo.Create(ctx, payment))

		now := time.Now().UTC()
		require.NoError(t, payment.MarkProcessing(now))
		require.NoError(t, payment.MarkCompleted(now))
		require.NoError(t, repo.Update(ctx, payment))

		stored, err := repo.GetByOrderID(ctx, payment.OrderID)
		require.NoError(t, err)
		assert.Equal(t, paymentsdomain.StatusCompleted, stored.Status)
		require.NotNil(t, stored.CompletedAt)

		byTxn, err := repo.GetByTransactionID(ctx, payment.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, payment.ID, byTxn.ID)
	})

	t.Run("stats count only completed revenue", func(t *testing.T) {
		_, err := db.Exec("TRUNCATE TABLE payments")
		require.NoError(t, err)

		now := time.Now().UTC()
		completed := newPayment()
		require.NoError(t, completed.MarkProcessing(now))
		require.NoError(t, completed.MarkCompleted(now))
		require.NoError(t, repo.Create(ctx, completed))

		failed := newPayment()
		require.NoError(t, failed.MarkProcessing(now))
		require.NoError(t, failed.MarkFailed("Simulated payment failure", now))
		require.NoError(t, repo.Create(ctx, failed))

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.Total)
		assert.EqualValues(t, 1, stats.Completed)
		assert.EqualValues(t, 1, stats.Failed)
		assert.True(t, stats.Revenue.Equal(completed.Amount))
	})
}
