package payment_controller

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cate-nduta/Lash-Business-sub009/events"
	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/models/booking_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/revenue_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/shared_models"
)

func TestMain(m *testing.M) {
	logger.InitLoggers()
	os.Exit(m.Run())
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingNotifier) Notify(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []revenue_models.RevenueEntry
}

func (m *memoryRecorder) Record(_ context.Context, entry revenue_models.RevenueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func seedBooking(t *testing.T, store *booking_models.MemoryStore, price int64) *booking_models.Booking {
	t.Helper()
	b, err := booking_models.NewBooking("Zawadi", "zawadi@example.com", "+254700000030",
		"Classic Full Set", "2026-09-15", "10:00", price, 0, "")
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), b))
	return b
}

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("CrossingThresholdFiresOnce", func(t *testing.T) {
		store := booking_models.NewMemoryStore()
		notifier := &recordingNotifier{}
		revenue := &memoryRecorder{}
		svc := NewPaymentService(store, notifier, revenue, nil)

		b := seedBooking(t, store, 5000)

		result, err := svc.RecordPayment(ctx, b.ID, 3000, shared_models.PaymentMethodCash, "")
		require.NoError(t, err)
		assert.False(t, result.JustCompletedPayment)

		result, err = svc.RecordPayment(ctx, b.ID, 2000, shared_models.PaymentMethodCard, "pay_xyz")
		require.NoError(t, err)
		assert.True(t, result.JustCompletedPayment)
		assert.Equal(t, shared_models.BookingStatusPaid, result.Booking.Status)

		require.Len(t, notifier.events, 1)
		assert.Equal(t, events.PaidInFull, notifier.events[0].Name)

		// Overpayment later never re-fires the event.
		result, err = svc.RecordPayment(ctx, b.ID, 500, shared_models.PaymentMethodCash, "")
		require.NoError(t, err)
		assert.False(t, result.JustCompletedPayment)
		assert.Len(t, notifier.events, 1)
	})

	t.Run("DuplicateWebhookIsNoOp", func(t *testing.T) {
		store := booking_models.NewMemoryStore()
		revenue := &memoryRecorder{}
		svc := NewPaymentService(store, nil, revenue, nil)

		b := seedBooking(t, store, 5000)

		first, err := svc.RecordPayment(ctx, b.ID, 2000, shared_models.PaymentMethodCard, "pay_retry")
		require.NoError(t, err)
		assert.False(t, first.Duplicate)

		second, err := svc.RecordPayment(ctx, b.ID, 2000, shared_models.PaymentMethodCard, "pay_retry")
		require.NoError(t, err)
		assert.True(t, second.Duplicate)
		assert.Equal(t, int64(2000), second.Booking.DepositPaid)

		// the duplicate never reaches the revenue ledger
		assert.Len(t, revenue.entries, 1)
	})

	t.Run("RevenueRecordedForCashAndCardOnly", func(t *testing.T) {
		store := booking_models.NewMemoryStore()
		revenue := &memoryRecorder{}
		svc := NewPaymentService(store, nil, revenue, nil)

		b := seedBooking(t, store, 9000)

		_, err := svc.RecordPayment(ctx, b.ID, 1000, shared_models.PaymentMethodCash, "")
		require.NoError(t, err)
		_, err = svc.RecordPayment(ctx, b.ID, 1000, shared_models.PaymentMethodCard, "pay_1")
		require.NoError(t, err)
		_, err = svc.RecordPayment(ctx, b.ID, 1000, shared_models.PaymentMethodMobileMoney, "mm_1")
		require.NoError(t, err)

		require.Len(t, revenue.entries, 2)
		assert.Equal(t, shared_models.PaymentMethodCash, revenue.entries[0].Method)
		assert.Equal(t, shared_models.PaymentMethodCard, revenue.entries[1].Method)
	})

	t.Run("ConcurrentWebhookRetries", func(t *testing.T) {
		store := booking_models.NewMemoryStore()
		svc := NewPaymentService(store, nil, nil, nil)

		b := seedBooking(t, store, 50000)

		const retries = 25
		var wg sync.WaitGroup
		for i := 0; i < retries; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.RecordPayment(ctx, b.ID, 5000, shared_models.PaymentMethodCard, "pay_same_ref")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := store.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), got.DepositPaid, "retries never inflate the deposit")
		assert.Len(t, got.Payments, 1)
	})

	t.Run("CancelledBookingRejectsPayment", func(t *testing.T) {
		store := booking_models.NewMemoryStore()
		svc := NewPaymentService(store, nil, nil, nil)

		b := seedBooking(t, store, 5000)
		_, err := store.Update(ctx, b.ID, func(b *booking_models.Booking) error {
			_, err := b.ApplyCancellation(shared_models.CancelledByAdmin, "",
				shared_models.DispositionRetain, shared_models.RefundNotRequired, 0, time.Now())
			return err
		})
		require.NoError(t, err)

		_, err = svc.RecordPayment(ctx, b.ID, 1000, shared_models.PaymentMethodCash, "")
		assert.ErrorIs(t, err, booking_models.ErrInvalidState)
	})
}
