package booking_models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cate-nduta/Lash-Business-sub009/models/shared_models"
)

// Booking is one requested appointment at the studio, together with its
// full money history. The record is never physically deleted; cancellation
// is a status, not a removal.
type Booking struct {
	ID uuid.UUID `json:"id"`

	// Client identity.
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`

	// Schedule. Date is "2006-01-02", TimeSlot is the 24h start "15:04".
	// A slot holds at most one non-cancelled booking.
	Service  string `json:"service"`
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`

	// Pricing. FinalPrice must always equal
	// OriginalPrice - Discount + sum(AdditionalServices) + Fine.
	OriginalPrice      int64               `json:"original_price"`
	Discount           int64               `json:"discount"`
	DiscountSource     string              `json:"discount_source,omitempty"`
	FinalPrice         int64               `json:"final_price"`
	AdditionalServices []AdditionalService `json:"additional_services,omitempty"`
	Fine               *Fine               `json:"fine,omitempty"`

	// Ledger. Payments is append-only; DepositPaid is the running sum.
	Payments     []PaymentEntry `json:"payments,omitempty"`
	DepositPaid  int64          `json:"deposit_paid"`
	PaidInFullAt *time.Time     `json:"paid_in_full_at,omitempty"`

	Status       shared_models.BookingStatus `json:"status"`
	Cancellation *Cancellation               `json:"cancellation,omitempty"`

	RescheduleHistory []Reschedule `json:"reschedule_history,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdditionalService is an extra line item added after booking (e.g. a lash
// bath or an extended fill).
type AdditionalService struct {
	Name    string    `json:"name"`
	Price   int64     `json:"price"`
	AddedAt time.Time `json:"added_at"`
}

// Fine is a one-time surcharge, at most one per booking.
type Fine struct {
	Amount  int64     `json:"amount"`
	Reason  string    `json:"reason"`
	AddedAt time.Time `json:"added_at"`
}

// PaymentEntry is immutable once appended. The engine never edits or
// removes entries; refunds are recorded on the cancellation, not by
// rewriting history.
type PaymentEntry struct {
	Amount      int64                       `json:"amount"`
	Method      shared_models.PaymentMethod `json:"method"`
	At          time.Time                   `json:"at"`
	ExternalRef string                      `json:"external_ref,omitempty"`
}

// Cancellation is present only once a booking is cancelled.
type Cancellation struct {
	CancelledAt  time.Time                       `json:"cancelled_at"`
	CancelledBy  shared_models.CancelledBy       `json:"cancelled_by"`
	Reason       string                          `json:"reason,omitempty"`
	RefundStatus shared_models.RefundStatus      `json:"refund_status"`
	RefundAmount int64                           `json:"refund_amount"`
	Disposition  shared_models.RefundDisposition `json:"disposition,omitempty"`
}

// Reschedule is one entry of the append-only reschedule history.
type Reschedule struct {
	FromDate string                    `json:"from_date"`
	FromSlot string                    `json:"from_slot"`
	ToDate   string                    `json:"to_date"`
	ToSlot   string                    `json:"to_slot"`
	At       time.Time                 `json:"at"`
	By       shared_models.CancelledBy `json:"by"`
	Notes    string                    `json:"notes,omitempty"`
}

const (
	dateLayout = "2006-01-02"
	slotLayout = "15:04"
)

// NewBooking builds a confirmed booking with consistent pricing.
func NewBooking(name, email, phone, service, date, timeSlot string, originalPrice, discount int64, discountSource string) (*Booking, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(phone) == "" {
		return nil, fmt.Errorf("%w: name, email and phone are required", ErrValidation)
	}
	if strings.TrimSpace(service) == "" {
		return nil, fmt.Errorf("%w: service is required", ErrValidation)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	if _, err := time.Parse(slotLayout, timeSlot); err != nil {
		return nil, fmt.Errorf("%w: time slot must be HH:MM", ErrValidation)
	}
	if originalPrice <= 0 {
		return nil, fmt.Errorf("%w: original price must be positive", ErrValidation)
	}
	if discount < 0 || discount > originalPrice {
		return nil, fmt.Errorf("%w: discount out of range", ErrValidation)
	}

	id, err := shared_models.GenerateUUIDv7()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	b := &Booking{
		ID:             id,
		CustomerName:   strings.TrimSpace(name),
		CustomerEmail:  strings.ToLower(strings.TrimSpace(email)),
		CustomerPhone:  strings.TrimSpace(phone),
		Service:        service,
		Date:           date,
		TimeSlot:       timeSlot,
		OriginalPrice:  originalPrice,
		Discount:       discount,
		DiscountSource: discountSource,
		Status:         shared_models.BookingStatusConfirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	b.recomputeFinalPrice()
	return b, nil
}

// AppointmentStart resolves the booking's date and slot to an instant in the
// given location. An error here means the schedule fields are corrupt, which
// the cancellation evaluator treats as "already past".
func (b *Booking) AppointmentStart(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(dateLayout+" "+slotLayout, b.Date+" "+b.TimeSlot, loc)
}

// recomputeFinalPrice re-establishes the pricing invariant. Every mutation
// that touches the right-hand side calls this in the same operation.
func (b *Booking) recomputeFinalPrice() {
	total := b.OriginalPrice - b.Discount
	for _, s := range b.AdditionalServices {
		total += s.Price
	}
	if b.Fine != nil {
		total += b.Fine.Amount
	}
	b.FinalPrice = total
}

// PricingConsistent reports whether the final price matches its components.
func (b *Booking) PricingConsistent() bool {
	total := b.OriginalPrice - b.Discount
	for _, s := range b.AdditionalServices {
		total += s.Price
	}
	if b.Fine != nil {
		total += b.Fine.Amount
	}
	return b.FinalPrice == total
}

// PaymentOutcome describes what a ledger append actually did.
type PaymentOutcome struct {
	// Duplicate is true when the entry matched a previously recorded
	// externalRef and the call was a no-op.
	Duplicate bool
	// JustCompletedPayment is true only on the call that first crossed the
	// paid-in-full threshold. It is the trigger for aftercare notification
	// and revenue recording, which the caller performs.
	JustCompletedPayment bool
}

// ApplyPayment appends a ledger entry and recomputes the running deposit.
// Duplicate gateway notifications (same externalRef) short-circuit to a
// no-op rather than being appended twice, so DepositPaid never decreases
// and never double-counts.
func (b *Booking) ApplyPayment(amount int64, method shared_models.PaymentMethod, externalRef string, now time.Time) (PaymentOutcome, error) {
	if !method.Valid() {
		return PaymentOutcome{}, fmt.Errorf("%w: unknown payment method %q", ErrValidation, method)
	}
	if b.Status == shared_models.BookingStatusCancelled {
		return PaymentOutcome{}, fmt.Errorf("%w: booking is cancelled", ErrInvalidState)
	}
	if amount < 0 {
		return PaymentOutcome{}, ErrInvalidAmount
	}
	// A zero amount is only meaningful as a gateway notification record.
	if amount == 0 && (method == shared_models.PaymentMethodCash || externalRef == "") {
		return PaymentOutcome{}, ErrInvalidAmount
	}

	if externalRef != "" {
		for _, p := range b.Payments {
			if p.ExternalRef == externalRef {
				return PaymentOutcome{Duplicate: true}, nil
			}
		}
	}

	b.Payments = append(b.Payments, PaymentEntry{
		Amount:      amount,
		Method:      method,
		At:          now,
		ExternalRef: externalRef,
	})
	b.DepositPaid += amount
	b.UpdatedAt = now

	out := PaymentOutcome{}
	if b.DepositPaid >= b.FinalPrice && b.PaidInFullAt == nil {
		stamp := now
		b.PaidInFullAt = &stamp
		if b.Status == shared_models.BookingStatusConfirmed {
			b.Status = shared_models.BookingStatusPaid
		}
		out.JustCompletedPayment = true
	}
	return out, nil
}

// AddService appends an extra line item and updates the final price in the
// same step.
func (b *Booking) AddService(name string, price int64, now time.Time) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: service name is required", ErrValidation)
	}
	if price <= 0 {
		return fmt.Errorf("%w: service price must be positive", ErrValidation)
	}
	if b.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot add a service to a %s booking", ErrInvalidState, b.Status)
	}

	b.AdditionalServices = append(b.AdditionalServices, AdditionalService{
		Name:    name,
		Price:   price,
		AddedAt: now,
	})
	b.recomputeFinalPrice()
	b.UpdatedAt = now
	// Raising the price can reopen the ledger: if the new total exceeds what
	// has been paid, the booking is no longer paid in full.
	if b.DepositPaid < b.FinalPrice && b.Status == shared_models.BookingStatusPaid {
		b.Status = shared_models.BookingStatusConfirmed
		b.PaidInFullAt = nil
	}
	return nil
}

// AddComplimentaryItem appends a zero-price line item, used when a redeemed
// code grants a free item rather than a discount. The final price is
// unchanged; the entry exists so the grant is visible on the record.
func (b *Booking) AddComplimentaryItem(name string, now time.Time) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: item name is required", ErrValidation)
	}
	if b.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot add an item to a %s booking", ErrInvalidState, b.Status)
	}

	b.AdditionalServices = append(b.AdditionalServices, AdditionalService{
		Name:    name,
		Price:   0,
		AddedAt: now,
	})
	b.UpdatedAt = now
	return nil
}

// ApplyFine records the one allowed fine and updates the final price.
func (b *Booking) ApplyFine(amount int64, reason string, now time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("%w: fine amount must be positive", ErrValidation)
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: fine reason is required", ErrValidation)
	}
	if b.Status == shared_models.BookingStatusCancelled {
		return fmt.Errorf("%w: cannot fine a cancelled booking", ErrInvalidState)
	}
	if b.Fine != nil {
		return ErrAlreadyFined
	}

	b.Fine = &Fine{Amount: amount, Reason: reason, AddedAt: now}
	b.recomputeFinalPrice()
	b.UpdatedAt = now
	if b.DepositPaid < b.FinalPrice && b.Status == shared_models.BookingStatusPaid {
		b.Status = shared_models.BookingStatusConfirmed
		b.PaidInFullAt = nil
	}
	return nil
}

// CancelOutcome reports what a cancellation application did.
type CancelOutcome struct {
	// AlreadyCancelled is true when the booking was cancelled before this
	// call; the repeat is a success-with-notice, never a double refund.
	AlreadyCancelled bool
	// SlotReleased signals the caller to free the calendar reservation.
	SlotReleased bool
}

// ApplyCancellation moves the booking to its terminal cancelled state and
// records the refund outcome decided by the caller. Idempotent: a repeat
// call leaves the original cancellation untouched.
func (b *Booking) ApplyCancellation(by shared_models.CancelledBy, reason string, disposition shared_models.RefundDisposition, refundStatus shared_models.RefundStatus, refundAmount int64, now time.Time) (CancelOutcome, error) {
	if !by.Valid() {
		return CancelOutcome{}, fmt.Errorf("%w: unknown canceller %q", ErrValidation, by)
	}
	if b.Status == shared_models.BookingStatusCancelled {
		return CancelOutcome{AlreadyCancelled: true}, nil
	}
	if !b.Status.CanTransition(shared_models.BookingStatusCancelled) {
		return CancelOutcome{}, fmt.Errorf("%w: cannot cancel a %s booking", ErrInvalidState, b.Status)
	}
	if refundAmount < 0 || refundAmount > b.DepositPaid {
		return CancelOutcome{}, fmt.Errorf("%w: refund amount out of range", ErrValidation)
	}

	b.Status = shared_models.BookingStatusCancelled
	b.Cancellation = &Cancellation{
		CancelledAt:  now,
		CancelledBy:  by,
		Reason:       reason,
		RefundStatus: refundStatus,
		RefundAmount: refundAmount,
		Disposition:  disposition,
	}
	b.UpdatedAt = now
	return CancelOutcome{SlotReleased: true}, nil
}

// ApplyReschedule moves the appointment and appends a history entry.
// Pricing and payment history are untouched.
func (b *Booking) ApplyReschedule(newDate, newSlot string, by shared_models.CancelledBy, notes string, now time.Time) error {
	if _, err := time.Parse(dateLayout, newDate); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	if _, err := time.Parse(slotLayout, newSlot); err != nil {
		return fmt.Errorf("%w: time slot must be HH:MM", ErrValidation)
	}
	if b.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot reschedule a %s booking", ErrInvalidState, b.Status)
	}

	b.RescheduleHistory = append(b.RescheduleHistory, Reschedule{
		FromDate: b.Date,
		FromSlot: b.TimeSlot,
		ToDate:   newDate,
		ToSlot:   newSlot,
		At:       now,
		By:       by,
		Notes:    notes,
	})
	b.Date = newDate
	b.TimeSlot = newSlot
	b.UpdatedAt = now
	return nil
}

// MarkCompleted closes out a finished appointment.
func (b *Booking) MarkCompleted(now time.Time) error {
	if !b.Status.CanTransition(shared_models.BookingStatusCompleted) {
		return fmt.Errorf("%w: cannot complete a %s booking", ErrInvalidState, b.Status)
	}
	b.Status = shared_models.BookingStatusCompleted
	b.UpdatedAt = now
	return nil
}

// Clone returns a deep copy so mutators can run on a scratch value.
func (b *Booking) Clone() *Booking {
	c := *b
	c.AdditionalServices = append([]AdditionalService(nil), b.AdditionalServices...)
	c.Payments = append([]PaymentEntry(nil), b.Payments...)
	c.RescheduleHistory = append([]Reschedule(nil), b.RescheduleHistory...)
	if b.Fine != nil {
		f := *b.Fine
		c.Fine = &f
	}
	if b.Cancellation != nil {
		cc := *b.Cancellation
		c.Cancellation = &cc
	}
	if b.PaidInFullAt != nil {
		t := *b.PaidInFullAt
		c.PaidInFullAt = &t
	}
	return &c
}
