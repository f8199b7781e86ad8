package payment_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/models/shared_models"
)

var ErrTransactionNotFound = errors.New("gateway transaction not found")

// GatewayTransaction is the bookkeeping row for one gateway order. The
// booking's own ledger is authoritative for money; this row exists so the
// webhook handler can recognize repeats and reconcile gateway state.
type GatewayTransaction struct {
	ID               uuid.UUID                   `json:"id"`
	BookingID        uuid.UUID                   `json:"booking_id"`
	ExternalRef      string                      `json:"external_ref"`
	Amount           int64                       `json:"amount"`
	Method           shared_models.PaymentMethod `json:"method"`
	Status           string                      `json:"status"` // "recorded", "duplicate"
	CapturedAt       *time.Time                  `json:"captured_at,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	ErrorDescription *string                     `json:"error_description,omitempty"`
}

// NewGatewayTransaction builds a record for a confirmed gateway charge.
func NewGatewayTransaction(bookingID uuid.UUID, externalRef string, amount int64, method shared_models.PaymentMethod, status string) (*GatewayTransaction, error) {
	id, err := shared_models.GenerateUUIDv7()
	if err != nil {
		return nil, err
	}
	return &GatewayTransaction{
		ID:          id,
		BookingID:   bookingID,
		ExternalRef: externalRef,
		Amount:      amount,
		Method:      method,
		Status:      status,
		CreatedAt:   time.Now(),
	}, nil
}

// CreateGatewayTransaction inserts the record.
func CreateGatewayTransaction(ctx context.Context, db *pgxpool.Pool, tx *GatewayTransaction) error {
	_, err := db.Exec(ctx, `
		INSERT INTO payment_transactions (id, booking_id, external_ref, amount, method, status, captured_at, created_at, error_description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tx.ID, tx.BookingID, tx.ExternalRef, tx.Amount, tx.Method, tx.Status, tx.CapturedAt, tx.CreatedAt, tx.ErrorDescription,
	)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to insert gateway transaction %s for booking %s: %v", tx.ExternalRef, tx.BookingID, err)
		return fmt.Errorf("failed to record gateway transaction: %w", err)
	}
	return nil
}

// GetGatewayTransactionByExternalRef fetches by the gateway's payment id.
func GetGatewayTransactionByExternalRef(ctx context.Context, db *pgxpool.Pool, externalRef string) (*GatewayTransaction, error) {
	tx := &GatewayTransaction{}
	err := db.QueryRow(ctx, `
		SELECT id, booking_id, external_ref, amount, method, status, captured_at, created_at, error_description
		FROM payment_transactions
		WHERE external_ref = $1`,
		externalRef,
	).Scan(&tx.ID, &tx.BookingID, &tx.ExternalRef, &tx.Amount, &tx.Method, &tx.Status, &tx.CapturedAt, &tx.CreatedAt, &tx.ErrorDescription)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("database error fetching gateway transaction: %w", err)
	}
	return tx, nil
}
