package cancel_book_controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cate-nduta/Lash-Business-sub009/config"
	"github.com/cate-nduta/Lash-Business-sub009/events"
	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/models/booking_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/cancel_booking_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/shared_models"
)

// CancelBookController owns the cancellation operation. Cancelling is
// idempotent: a repeat on an already-cancelled booking succeeds with a
// notice and never re-applies a refund.
type CancelBookController struct {
	store    booking_models.Store
	policy   config.BookingPolicy
	notifier events.Notifier
	now      func() time.Time
}

func NewCancelBookController(store booking_models.Store, policy config.BookingPolicy, notifier events.Notifier) (*CancelBookController, error) {
	if store == nil {
		return nil, errors.New("booking store cannot be nil")
	}
	if notifier == nil {
		notifier = events.NopNotifier{}
	}
	return &CancelBookController{
		store:    store,
		policy:   policy,
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// CancelResult is the operation outcome returned to callers.
type CancelResult struct {
	Booking          *booking_models.Booking
	AlreadyCancelled bool
	IsLate           bool
	SlotReleased     bool
}

// Cancel evaluates the refund policy and applies the terminal transition in
// one serialized write. Any failure leaves the booking untouched.
func (cb *CancelBookController) Cancel(ctx context.Context, req *cancel_booking_models.CancelBookingRequest, by shared_models.CancelledBy) (*CancelResult, error) {
	if !req.Disposition.Valid() {
		return nil, ErrInvalidDisposition
	}

	result := &CancelResult{}
	booking, err := cb.store.Update(ctx, req.BookingID, func(b *booking_models.Booking) error {
		now := cb.now()
		ev := cancel_booking_models.EvaluateCancellation(b, now, cb.policy, req.Disposition, req.RefundAmount)
		result.IsLate = ev.IsLate

		// Skip on a repeat: an already-cancelled booking stays a no-op no
		// matter what amount the retry carries.
		if b.Status != shared_models.BookingStatusCancelled &&
			(ev.RefundAmount < 0 || ev.RefundAmount > b.DepositPaid) {
			return ErrInvalidRefund
		}

		out, err := b.ApplyCancellation(by, req.Reason, req.Disposition, ev.RefundStatus, ev.RefundAmount, now)
		if err != nil {
			return err
		}
		result.AlreadyCancelled = out.AlreadyCancelled
		result.SlotReleased = out.SlotReleased
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Booking = booking

	if result.AlreadyCancelled {
		logger.InfoLogger.Infof("Booking %s was already cancelled; repeat treated as no-op", booking.ID)
		return result, nil
	}

	detail := ""
	if booking.Cancellation != nil {
		switch booking.Cancellation.RefundStatus {
		case shared_models.RefundRefunded:
			detail = "Your deposit refund is on its way."
		case shared_models.RefundPending:
			detail = "Your deposit refund is being processed."
		case shared_models.RefundRetained:
			detail = "As per our cancellation policy, the deposit has been retained."
		}
	}
	cb.notifier.Notify(ctx, events.Event{
		Name:          events.Cancelled,
		BookingID:     booking.ID,
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		Service:       booking.Service,
		Date:          booking.Date,
		TimeSlot:      booking.TimeSlot,
		Amount:        booking.Cancellation.RefundAmount,
		Detail:        detail,
	})
	return result, nil
}

// CancelBook handles POST /admin/bookings/cancel.
func (cb *CancelBookController) CancelBook(c *gin.Context) {
	logger.InfoLogger.Info("CancelBook controller hit...")

	var req cancel_booking_models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, cancel_booking_models.CancelBookingResponse{
			Success: false,
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	result, err := cb.Cancel(c.Request.Context(), &req, shared_models.CancelledByAdmin)
	if err != nil {
		logger.WarnLogger.Warnf("Failed to cancel booking %s: %v", req.BookingID, err)

		switch {
		case errors.Is(err, booking_models.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, cancel_booking_models.CancelBookingResponse{
				Success: false,
				Message: "Booking not found",
			})
		case errors.Is(err, ErrInvalidDisposition), errors.Is(err, ErrInvalidRefund), errors.Is(err, booking_models.ErrValidation):
			c.JSON(http.StatusBadRequest, cancel_booking_models.CancelBookingResponse{
				Success: false,
				Message: err.Error(),
			})
		case errors.Is(err, booking_models.ErrInvalidState):
			c.JSON(http.StatusConflict, cancel_booking_models.CancelBookingResponse{
				Success: false,
				Message: err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, cancel_booking_models.CancelBookingResponse{
				Success: false,
				Message: "Failed to cancel booking",
			})
		}
		return
	}

	message := "Booking cancelled successfully"
	if result.AlreadyCancelled {
		message = "Booking was already cancelled"
	}
	c.JSON(http.StatusOK, cancel_booking_models.CancelBookingResponse{
		Success:               true,
		Message:               message,
		Booking:               result.Booking,
		IsLateCancellation:    result.IsLate,
		CalendarEventReleased: result.SlotReleased,
	})
}
