package booking_models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cate-nduta/Lash-Business-sub009/logger"
)

// Store is the durable keyed storage for bookings. Update must serialize
// concurrent mutations of the same booking; Create must claim the (date,
// slot) pair atomically with its conflict check.
type Store interface {
	Create(ctx context.Context, booking *Booking) error
	Get(ctx context.Context, id uuid.UUID) (*Booking, error)
	Update(ctx context.Context, id uuid.UUID, mutate func(*Booking) error) (*Booking, error)
	FindBySlot(ctx context.Context, date, timeSlot string) (*Booking, error)
	LastCompletedVisit(ctx context.Context, customerEmail string) (*time.Time, error)
}

// PostgresStore keeps bookings in a single table with a version column.
// Writes are optimistic: the mutator runs on a fresh read and the UPDATE is
// guarded by the version it was read at, retrying on conflict.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const casMaxAttempts = 5

const bookingColumns = `
	id, customer_name, customer_email, customer_phone, service, date, time_slot,
	original_price, discount, discount_source, final_price,
	additional_services, fine, payments, deposit_paid, paid_in_full_at,
	status, cancellation, reschedule_history, version, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, booking *Booking) error {
	logger.InfoLogger.Infof("Creating booking %s for slot %s %s", booking.ID, booking.Date, booking.TimeSlot)

	additional, fine, payments, cancellation, history, err := marshalJSONFields(booking)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err = s.db.Exec(ctx, query,
		booking.ID, booking.CustomerName, booking.CustomerEmail, booking.CustomerPhone,
		booking.Service, booking.Date, booking.TimeSlot,
		booking.OriginalPrice, booking.Discount, booking.DiscountSource, booking.FinalPrice,
		additional, fine, payments, booking.DepositPaid, booking.PaidInFullAt,
		booking.Status, cancellation, history, booking.Version, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 on the partial unique slot index means an active booking got
		// there first; the loser sees SlotConflict.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			logger.WarnLogger.Warnf("Slot %s %s already claimed, booking %s rejected", booking.Date, booking.TimeSlot, booking.ID)
			return ErrSlotConflict
		}
		logger.ErrorLogger.Errorf("Failed to insert booking %s: %v", booking.ID, err)
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		logger.ErrorLogger.Errorf("Failed to fetch booking %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching booking: %w", err)
	}
	return booking, nil
}

// Update runs the mutator under optimistic concurrency. Business-rule
// failures from the mutator abort without writing, so a failed operation
// leaves the booking exactly as it was.
func (s *PostgresStore) Update(ctx context.Context, id uuid.UUID, mutate func(*Booking) error) (*Booking, error) {
	for attempt := 1; attempt <= casMaxAttempts; attempt++ {
		booking, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		readVersion := booking.Version
		if err := mutate(booking); err != nil {
			return nil, err
		}
		booking.Version = readVersion + 1

		additional, fine, payments, cancellation, history, err := marshalJSONFields(booking)
		if err != nil {
			return nil, err
		}

		query := `
			UPDATE bookings SET
				service = $2, date = $3, time_slot = $4,
				original_price = $5, discount = $6, discount_source = $7, final_price = $8,
				additional_services = $9, fine = $10, payments = $11,
				deposit_paid = $12, paid_in_full_at = $13,
				status = $14, cancellation = $15, reschedule_history = $16,
				version = $17, updated_at = $18
			WHERE id = $1 AND version = $19`

		tag, err := s.db.Exec(ctx, query,
			booking.ID, booking.Service, booking.Date, booking.TimeSlot,
			booking.OriginalPrice, booking.Discount, booking.DiscountSource, booking.FinalPrice,
			additional, fine, payments,
			booking.DepositPaid, booking.PaidInFullAt,
			booking.Status, cancellation, history,
			booking.Version, booking.UpdatedAt, readVersion,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				// Reschedule landed on a slot another booking just took.
				return nil, ErrSlotConflict
			}
			logger.ErrorLogger.Errorf("Failed to update booking %s: %v", id, err)
			return nil, fmt.Errorf("failed to update booking: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return booking, nil
		}

		logger.WarnLogger.Warnf("Version conflict updating booking %s (attempt %d/%d), retrying", id, attempt, casMaxAttempts)
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrVersionConflict, casMaxAttempts)
}

// FindBySlot returns the active booking holding the slot, or nil.
// Cancelled bookings do not hold slots.
func (s *PostgresStore) FindBySlot(ctx context.Context, date, timeSlot string) (*Booking, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE date = $1 AND time_slot = $2 AND status <> 'cancelled'`,
		date, timeSlot)
	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error finding slot: %w", err)
	}
	return booking, nil
}

// LastCompletedVisit returns when the client's most recent completed, fully
// paid appointment took place. Merely confirmed bookings never count.
func (s *PostgresStore) LastCompletedVisit(ctx context.Context, customerEmail string) (*time.Time, error) {
	var last *time.Time
	err := s.db.QueryRow(ctx, `
		SELECT MAX((date || ' ' || time_slot)::timestamp)
		FROM bookings
		WHERE customer_email = $1
		  AND status = 'completed'
		  AND paid_in_full_at IS NOT NULL`,
		customerEmail).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("database error fetching visit history: %w", err)
	}
	return last, nil
}

func marshalJSONFields(b *Booking) (additional, fine, payments, cancellation, history []byte, err error) {
	if additional, err = json.Marshal(b.AdditionalServices); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal additional services: %w", err)
	}
	if fine, err = json.Marshal(b.Fine); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal fine: %w", err)
	}
	if payments, err = json.Marshal(b.Payments); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal payments: %w", err)
	}
	if cancellation, err = json.Marshal(b.Cancellation); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal cancellation: %w", err)
	}
	if history, err = json.Marshal(b.RescheduleHistory); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal reschedule history: %w", err)
	}
	return additional, fine, payments, cancellation, history, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b            Booking
		additional   []byte
		fine         []byte
		payments     []byte
		cancellation []byte
		history      []byte
	)
	err := row.Scan(
		&b.ID, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.Service, &b.Date, &b.TimeSlot,
		&b.OriginalPrice, &b.Discount, &b.DiscountSource, &b.FinalPrice,
		&additional, &fine, &payments, &b.DepositPaid, &b.PaidInFullAt,
		&b.Status, &cancellation, &history, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(additional, &b.AdditionalServices); err != nil {
		return nil, fmt.Errorf("unmarshal additional services: %w", err)
	}
	if err := json.Unmarshal(fine, &b.Fine); err != nil {
		return nil, fmt.Errorf("unmarshal fine: %w", err)
	}
	if err := json.Unmarshal(payments, &b.Payments); err != nil {
		return nil, fmt.Errorf("unmarshal payments: %w", err)
	}
	if err := json.Unmarshal(cancellation, &b.Cancellation); err != nil {
		return nil, fmt.Errorf("unmarshal cancellation: %w", err)
	}
	if err := json.Unmarshal(history, &b.RescheduleHistory); err != nil {
		return nil, fmt.Errorf("unmarshal reschedule history: %w", err)
	}
	return &b, nil
}
