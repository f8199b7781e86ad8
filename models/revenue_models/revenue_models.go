package revenue_models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/models/shared_models"
)

// RevenueEntry is what the reporting collaborator receives for cash and
// card payments. Mobile-money settlement is reconciled by the gateway
// adapter separately and never lands here.
type RevenueEntry struct {
	ID        uuid.UUID                   `json:"id"`
	BookingID uuid.UUID                   `json:"booking_id"`
	Amount    int64                       `json:"amount"`
	Method    shared_models.PaymentMethod `json:"method"`
	Date      string                      `json:"date"`
	CreatedAt time.Time                   `json:"created_at"`
}

// Recorder is the reporting collaborator's inbox.
type Recorder interface {
	Record(ctx context.Context, entry RevenueEntry) error
}

// PostgresRecorder appends revenue rows to the ledger table.
type PostgresRecorder struct {
	db *pgxpool.Pool
}

func NewPostgresRecorder(db *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

func (r *PostgresRecorder) Record(ctx context.Context, entry RevenueEntry) error {
	if entry.ID == uuid.Nil {
		id, err := shared_models.GenerateUUIDv7()
		if err != nil {
			return err
		}
		entry.ID = id
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO revenue_entries (id, booking_id, amount, method, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.BookingID, entry.Amount, entry.Method, entry.Date, entry.CreatedAt,
	)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to record revenue for booking %s: %v", entry.BookingID, err)
		return fmt.Errorf("failed to record revenue entry: %w", err)
	}
	return nil
}
