package shared_models

import (
	"fmt"

	"github.com/google/uuid"
)

// BookingStatus is the closed set of booking lifecycle states.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// validTransitions encodes confirmed → paid → completed, with cancelled
// reachable from confirmed or paid. Cancelled and completed are terminal.
// Paid can fall back to confirmed: a later service or fine that raises the
// price above what has been paid reopens the ledger.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusConfirmed: {BookingStatusPaid, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusPaid:      {BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

// CanTransition reports whether moving from s to next is a legal lifecycle step.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

func (s BookingStatus) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// PaymentMethod identifies how money arrived against a booking.
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "cash"
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodMobileMoney PaymentMethod = "mobileMoney"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodMobileMoney:
		return true
	}
	return false
}

// RefundStatus records the disposition of a cancelled booking's deposit.
type RefundStatus string

const (
	RefundNotRequired RefundStatus = "not_required"
	RefundRetained    RefundStatus = "retained"
	RefundRefunded    RefundStatus = "refunded"
	RefundPending     RefundStatus = "pending"
)

// CancelledBy identifies who initiated a cancellation.
type CancelledBy string

const (
	CancelledByAdmin  CancelledBy = "admin"
	CancelledByClient CancelledBy = "client"
)

func (c CancelledBy) Valid() bool {
	return c == CancelledByAdmin || c == CancelledByClient
}

// RefundDisposition is the admin's choice of what happens to an accumulated
// deposit on cancellation. The lateness signal is advisory input to this
// choice; it never forces one.
type RefundDisposition string

const (
	DispositionRetain        RefundDisposition = "retain"
	DispositionRefundNow     RefundDisposition = "refund_now"
	DispositionRefundPending RefundDisposition = "refund_pending"
)

func (d RefundDisposition) Valid() bool {
	switch d {
	case DispositionRetain, DispositionRefundNow, DispositionRefundPending:
		return true
	}
	return false
}

// GenerateUUIDv7 generates a new UUIDv7.
func GenerateUUIDv7() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate UUIDv7: %w", err)
	}
	return id, nil
}
