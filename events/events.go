package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/cate-nduta/Lash-Business-sub009/logger"
)

// Name identifies a booking lifecycle transition the outside world may want
// to react to. The engine only names transitions; composing emails or
// touching calendars is the collaborator's business.
type Name string

const (
	BookingCreated     Name = "booking_created"
	PaidInFull         Name = "paid_in_full"
	Cancelled          Name = "cancelled"
	ServiceAdded       Name = "service_added"
	BookingRescheduled Name = "booking_rescheduled"
)

// Event carries enough booking context for a collaborator to act without
// reading the store.
type Event struct {
	Name          Name
	BookingID     uuid.UUID
	CustomerName  string
	CustomerEmail string
	Service       string
	Date          string
	TimeSlot      string
	Amount        int64 // payment amount, refund amount or service price, by event
	Detail        string
}

// Notifier receives transition events. Implementations must tolerate
// duplicate delivery; the engine's own idempotence guards ensure a repeated
// webhook never re-fires PaidInFull, but callers may still retry sends.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NopNotifier drops events; used where no collaborator is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}

// MultiNotifier fans an event out to several collaborators.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, event Event) {
	for _, n := range m {
		n.Notify(ctx, event)
	}
}

// LogNotifier writes each transition to the application log, so lifecycle
// events stay traceable even when email delivery is down.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, event Event) {
	logger.InfoLogger.Infof("Event %s: booking %s, %s on %s %s",
		event.Name, event.BookingID, event.Service, event.Date, event.TimeSlot)
}
