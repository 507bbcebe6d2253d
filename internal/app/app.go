package app

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"transit/internal/application/services"
	"transit/internal/config"
	domain "transit/internal/domain/tickets"
	"transit/internal/infrastructure/event_publisher"
	"transit/internal/infrastructure/gateway"
	"transit/internal/interfaces/events"
	"transit/internal/interfaces/http"
	"transit/internal/repository"
)

type App struct {
	watermillLogger watermill.LoggerAdapter
	logger          zerolog.Logger
	router          *message.Router
	srv             *http.Server
	db              *sqlx.DB
}

func NewApp(
	cfg config.Config,
	watermillLogger watermill.LoggerAdapter,
	redisClient *redis.Client,
	db *sqlx.DB,
) (*App, error) {
	ticketsRepo := repository.NewTicketsRepo(db)
	paymentsRepo := repository.NewPaymentsRepo(db)

	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	var publisher message.Publisher
	publisher, err = redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: redisClient,
	}, watermillLogger)
	if err != nil {
		return nil, err
	}

	publisher = event_publisher.CorrelationPublisherDecorator{
		Publisher: publisher,
	}
	eventBus, err := events.NewEventBus(publisher, cfg.Bus.TopicPrefix, watermillLogger)
	if err != nil {
		return nil, err
	}

	pricingCfg, err := pricingConfig(cfg.Pricing)
	if err != nil {
		return nil, err
	}
	calculator := domain.NewCalculator(pricingCfg)

	ticketLocks := services.NewKeyedMutex()

	purchaseService := services.NewPurchaseService(calculator, ticketsRepo, eventBus)
	ticketsService := services.NewTicketsService(ticketsRepo, eventBus, ticketLocks)
	validationService := services.NewValidationService(ticketsRepo, eventBus, ticketLocks)
	paymentsService := services.NewPaymentsService(paymentsRepo)

	paymentGateway := gateway.WithBreaker(gateway.NewSimulated(gateway.Config{
		SuccessRatePercent: cfg.Gateway.SuccessRatePercent,
		Delay:              time.Duration(cfg.Gateway.DelayMs) * time.Millisecond,
	}, rand.NewSource(time.Now().UnixNano())))

	e := commonHTTP.NewEcho()
	srv := http.NewServer(
		e,
		cfg.HTTP.Addr,
		purchaseService,
		ticketsService,
		validationService,
		paymentsService,
		router.IsRunning,
	)

	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.CorrelationIDMiddleware)
	router.AddMiddleware(events.LoggingMiddleware)

	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)

	// skip marshalling errors before retrying
	router.AddMiddleware(events.SkipMarshallingErrorsMiddleware)

	marshaler := cqrs.JSONMarshaler{
		GenerateName: cqrs.StructName,
	}
	processor, err := events.NewEventProcessor(router, redisClient, cfg.Bus, marshaler, watermillLogger)
	if err != nil {
		return nil, err
	}

	err = processor.AddHandlers(
		events.TicketPurchasedHandler(paymentGateway, paymentsRepo, eventBus),
		events.PaymentProcessedHandler(ticketsRepo),
	)
	if err != nil {
		return nil, err
	}

	return &App{
		watermillLogger: watermillLogger,
		logger:          zerolog.New(os.Stdout),
		router:          router,
		srv:             srv,
		db:              db,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := repository.InitializeDBSchema(a.db)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info().Msg("starting router")

		return a.router.Run(ctx)
	})

	g.Go(func() error {
		<-a.router.Running()
		a.logger.Info().Msg("router is running")

		a.logger.Info().Msg("starting server")
		return a.srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()

		err := a.srv.Stop(ctx)
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}

		return err
	})

	return g.Wait()
}

func pricingConfig(cfg config.Pricing) (domain.PricingConfig, error) {
	prices := map[domain.Class]string{
		domain.ClassSingle:  cfg.SinglePrice,
		domain.ClassDaily:   cfg.DailyPrice,
		domain.ClassWeekly:  cfg.WeeklyPrice,
		domain.ClassMonthly: cfg.MonthlyPrice,
	}

	base := make(map[domain.Class]decimal.Decimal, len(prices))
	for class, raw := range prices {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.PricingConfig{}, fmt.Errorf("invalid base price for %s: %w", class, err)
		}
		base[class] = price
	}

	return domain.PricingConfig{
		BasePrices:   base,
		Currency:     cfg.Currency,
		SmallQty:     cfg.SmallDiscountQty,
		SmallPercent: cfg.SmallDiscountPercent,
		BulkQty:      cfg.BulkDiscountQty,
		BulkPercent:  cfg.BulkDiscountPercent,
	}, nil
}
