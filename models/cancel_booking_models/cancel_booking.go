package cancel_booking_models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cate-nduta/Lash-Business-sub009/config"
	"github.com/cate-nduta/Lash-Business-sub009/models/booking_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/shared_models"
)

// CancelBookingRequest is the admin console's cancellation payload.
type CancelBookingRequest struct {
	BookingID    uuid.UUID                       `json:"booking_id" binding:"required"`
	Reason       string                          `json:"reason"`
	Disposition  shared_models.RefundDisposition `json:"disposition" binding:"required"`
	RefundAmount *int64                          `json:"refund_amount"`
	Notes        string                          `json:"notes"`
}

// CancelBookingResponse reports the outcome, including the advisory
// lateness signal and whether the calendar slot was released.
type CancelBookingResponse struct {
	Success               bool                    `json:"success"`
	Message               string                  `json:"message"`
	Booking               *booking_models.Booking `json:"booking,omitempty"`
	IsLateCancellation    bool                    `json:"is_late_cancellation"`
	CalendarEventReleased bool                    `json:"calendar_event_released"`
}

// Evaluation is the refund policy's verdict for one cancellation.
type Evaluation struct {
	RefundStatus shared_models.RefundStatus
	RefundAmount int64
	IsLate       bool
}

// IsLateCancellation computes only the lateness signal. An unparseable
// appointment time counts as already past — the conservative reading.
func IsLateCancellation(b *booking_models.Booking, now time.Time, policy config.BookingPolicy) bool {
	start, err := b.AppointmentStart(now.Location())
	if err != nil {
		return true
	}
	hoursUntil := start.Sub(now).Hours()
	return hoursUntil < float64(policy.LateCancellationThresholdHours)
}

// EvaluateCancellation is a pure function from booking state, clock, policy
// and the admin's chosen disposition to the refund outcome. The lateness
// signal is advisory input to the disposition decision; it never forces
// one, which keeps goodwill exceptions possible.
//
// When nothing was paid there is nothing to decide: not_required, zero.
// Otherwise the disposition maps directly — retain forfeits everything,
// refund_now pays out the requested amount (default: full deposit),
// refund_pending records the amount with the payout deferred.
func EvaluateCancellation(b *booking_models.Booking, now time.Time, policy config.BookingPolicy, disposition shared_models.RefundDisposition, requestedAmount *int64) Evaluation {
	ev := Evaluation{IsLate: IsLateCancellation(b, now, policy)}

	if b.DepositPaid == 0 {
		ev.RefundStatus = shared_models.RefundNotRequired
		ev.RefundAmount = 0
		return ev
	}

	amount := b.DepositPaid
	if requestedAmount != nil {
		amount = *requestedAmount
	}

	switch disposition {
	case shared_models.DispositionRetain:
		ev.RefundStatus = shared_models.RefundRetained
		ev.RefundAmount = 0
	case shared_models.DispositionRefundNow:
		ev.RefundStatus = shared_models.RefundRefunded
		ev.RefundAmount = amount
	case shared_models.DispositionRefundPending:
		ev.RefundStatus = shared_models.RefundPending
		ev.RefundAmount = amount
	}
	return ev
}
