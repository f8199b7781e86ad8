package booking_models

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used in tests and local development.
// A single mutex plays the role the version column plays in Postgres: the
// slot check-and-claim and every read-mutate-write cycle run atomically.
type MemoryStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*Booking
	slots    map[string]uuid.UUID // "date|slot" -> active booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[uuid.UUID]*Booking),
		slots:    make(map[string]uuid.UUID),
	}
}

func slotKey(date, timeSlot string) string {
	return date + "|" + timeSlot
}

func (s *MemoryStore) Create(_ context.Context, booking *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey(booking.Date, booking.TimeSlot)
	if _, taken := s.slots[key]; taken {
		return ErrSlotConflict
	}
	s.slots[key] = booking.ID
	s.bookings[booking.ID] = booking.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, mutate func(*Booking) error) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}

	// Mutate a scratch copy; a failing mutator leaves the stored record
	// untouched.
	scratch := current.Clone()
	oldKey := slotKey(scratch.Date, scratch.TimeSlot)
	if err := mutate(scratch); err != nil {
		return nil, err
	}

	newKey := slotKey(scratch.Date, scratch.TimeSlot)
	if newKey != oldKey {
		if holder, taken := s.slots[newKey]; taken && holder != id {
			return nil, ErrSlotConflict
		}
		delete(s.slots, oldKey)
		s.slots[newKey] = id
	}
	if scratch.Status.IsTerminal() && scratch.Cancellation != nil {
		// Cancelled bookings release their slot for reuse.
		if s.slots[newKey] == id {
			delete(s.slots, newKey)
		}
	}

	scratch.Version = current.Version + 1
	s.bookings[id] = scratch
	return scratch.Clone(), nil
}

func (s *MemoryStore) FindBySlot(_ context.Context, date, timeSlot string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.slots[slotKey(date, timeSlot)]
	if !ok {
		return nil, nil
	}
	return s.bookings[id].Clone(), nil
}

func (s *MemoryStore) LastCompletedVisit(_ context.Context, customerEmail string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last *time.Time
	for _, b := range s.bookings {
		if b.CustomerEmail != customerEmail {
			continue
		}
		if b.Status != "completed" || b.PaidInFullAt == nil {
			continue
		}
		start, err := b.AppointmentStart(time.UTC)
		if err != nil {
			continue
		}
		if last == nil || start.After(*last) {
			t := start
			last = &t
		}
	}
	return last, nil
}
