package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("record not found")

func InitializeDBSchema(db *sqlx.DB) error {
	_, err := db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS tickets (
	ticket_id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	order_id UUID NOT NULL,
	class VARCHAR(10) NOT NULL,
	status VARCHAR(10) NOT NULL,
	price_amount NUMERIC(10, 2) NOT NULL,
	price_currency CHAR(3) NOT NULL,
	validity_start TIMESTAMP WITH TIME ZONE,
	validity_end TIMESTAMP WITH TIME ZONE,
	remaining_validations INTEGER NOT NULL DEFAULT 0,
	purchased_at TIMESTAMP WITH TIME ZONE NOT NULL,
	activated_at TIMESTAMP WITH TIME ZONE,
	scan_token VARCHAR(64) NOT NULL UNIQUE,
	payment_status VARCHAR(20) NOT NULL DEFAULT 'PENDING'
);
CREATE INDEX IF NOT EXISTS idx_tickets_order_id ON tickets (order_id);
CREATE INDEX IF NOT EXISTS idx_tickets_user_id ON tickets (user_id);`)
	if err != nil {
		return fmt.Errorf("failed to create tickets table: %w", err)
	}

	_, err = db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS payments (
	payment_id UUID PRIMARY KEY,
	order_id UUID NOT NULL UNIQUE,
	user_id UUID NOT NULL,
	ticket_id UUID,
	amount NUMERIC(10, 2) NOT NULL,
	currency CHAR(3) NOT NULL,
	status VARCHAR(20) NOT NULL,
	payment_method VARCHAR(20) NOT NULL,
	transaction_id VARCHAR(64) NOT NULL UNIQUE,
	payment_type VARCHAR(50) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	failure_reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
	completed_at TIMESTAMP WITH TIME ZONE
);
CREATE INDEX IF NOT EXISTS idx_payments_user_id ON payments (user_id);
CREATE INDEX IF NOT EXISTS idx_payments_status ON payments (status);`)
	if err != nil {
		return fmt.Errorf("failed to create payments table: %w", err)
	}

	return nil
}
