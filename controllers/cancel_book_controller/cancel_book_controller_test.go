package cancel_book_controller

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cate-nduta/Lash-Business-sub009/config"
	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/models/booking_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/cancel_booking_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/shared_models"
)

func TestMain(m *testing.M) {
	logger.InitLoggers()
	os.Exit(m.Run())
}

func seedBooking(t *testing.T, store *booking_models.MemoryStore, start time.Time, deposit int64) *booking_models.Booking {
	t.Helper()
	b, err := booking_models.NewBooking("Atieno", "atieno@example.com", "+254700000020",
		"Mega Volume", start.Format("2006-01-02"), start.Format("15:04"), 8000, 0, "")
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), b))
	if deposit > 0 {
		_, err = store.Update(context.Background(), b.ID, func(b *booking_models.Booking) error {
			_, err := b.ApplyPayment(deposit, shared_models.PaymentMethodCash, "", time.Now())
			return err
		})
		require.NoError(t, err)
	}
	return b
}

func amount(v int64) *int64 { return &v }

func TestCancel(t *testing.T) {
	ctx := context.Background()
	policy := config.DefaultBookingPolicy()

	t.Run("LateCancellationRetainsDeposit", func(t *testing.T) {
		store := booking_models.NewMemoryStore()
		cb, err := NewCancelBookController(store, policy, nil)
		require.NoError(t, err)

		b := seedBooking(t, store, time.Now().Add(3*time.Hour), 1500)

		result, err := cb.Cancel(ctx, &cancel_booking_models.CancelBookingRequest{
			BookingID:   b.ID,
			Reason:      "client no-show risk",
			Disposition: shared_models.DispositionRetain,
		}, shared_models.CancelledByAdmin)
		require.NoError(t, err)

		assert.True(t, result.IsLate)
		assert.True(t, result.SlotReleased)
		require.NotNil(t, result.Booking.Cancellation)
		assert.Equal(t, shared_models.RefundRetained, result.Booking.Cancellation.RefundStatus)
		assert.Equal(t, int64(0), result.Booking.Cancellation.RefundAmount)
		assert.Equal(t, shared_models.BookingStatusCancelled, result.Booking.Status)
	})

	t.Run("RepeatCancelIsNoOp", func(t *testing.T) {
		store := booking_models.NewMemoryStore()
		cb, err := NewCancelBookController(store, policy, nil)
		require.NoError(t, err)

		b := seedBooking(t, store, time.Now().Add(96*time.Hour), 1500)
		req := &cancel_booking_models.CancelBookingRequest{
			BookingID:   b.ID,
			Disposition: shared_models.DispositionRefundNow,
		}

		first, err := cb.Cancel(ctx, req, shared_models.CancelledByClient)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), first.Booking.Cancellation.RefundAmount)

		// A repeat with a different disposition changes nothing, even when it
		// carries a refund amount that would be rejected on a live booking.
		req.Disposition = shared_models.DispositionRefundPending
		req.RefundAmount = amount(99999)
		second, err := cb.Cancel(ctx, req, shared_models.CancelledByAdmin)
		require.NoError(t, err)
		assert.True(t, second.AlreadyCancelled)
		assert.Equal(t, shared_models.RefundRefunded, second.Booking.Cancellation.RefundStatus)
		assert.Equal(t, int64(1500), second.Booking.Cancellation.RefundAmount)
	})

	t.Run("NothingPaid", func(t *testing.T) {
		store := booking_models.NewMemoryStore()
		cb, err := NewCancelBookController(store, policy, nil)
		require.NoError(t, err)

		b := seedBooking(t, store, time.Now().Add(96*time.Hour), 0)
		result, err := cb.Cancel(ctx, &cancel_booking_models.CancelBookingRequest{
			BookingID:   b.ID,
			Disposition: shared_models.DispositionRefundNow,
		}, shared_models.CancelledByClient)
		require.NoError(t, err)
		assert.Equal(t, shared_models.RefundNotRequired, result.Booking.Cancellation.RefundStatus)
	})

	t.Run("RefundBeyondDepositRejected", func(t *testing.T) {
		store := booking_models.NewMemoryStore()
		cb, err := NewCancelBookController(store, policy, nil)
		require.NoError(t, err)

		b := seedBooking(t, store, time.Now().Add(96*time.Hour), 1000)
		_, err = cb.Cancel(ctx, &cancel_booking_models.CancelBookingRequest{
			BookingID:    b.ID,
			Disposition:  shared_models.DispositionRefundNow,
			RefundAmount: amount(5000),
		}, shared_models.CancelledByAdmin)
		assert.ErrorIs(t, err, ErrInvalidRefund)

		// untouched
		got, err := store.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, shared_models.BookingStatusConfirmed, got.Status)
	})

	t.Run("InvalidDisposition", func(t *testing.T) {
		store := booking_models.NewMemoryStore()
		cb, err := NewCancelBookController(store, policy, nil)
		require.NoError(t, err)

		b := seedBooking(t, store, time.Now().Add(96*time.Hour), 0)
		_, err = cb.Cancel(ctx, &cancel_booking_models.CancelBookingRequest{
			BookingID:   b.ID,
			Disposition: shared_models.RefundDisposition("maybe"),
		}, shared_models.CancelledByAdmin)
		assert.ErrorIs(t, err, ErrInvalidDisposition)
	})

	t.Run("UnknownBooking", func(t *testing.T) {
		store := booking_models.NewMemoryStore()
		cb, err := NewCancelBookController(store, policy, nil)
		require.NoError(t, err)

		_, err = cb.Cancel(ctx, &cancel_booking_models.CancelBookingRequest{
			BookingID:   uuid.New(),
			Disposition: shared_models.DispositionRetain,
		}, shared_models.CancelledByAdmin)
		assert.ErrorIs(t, err, booking_models.ErrBookingNotFound)
	})
}
