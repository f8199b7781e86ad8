package booking_controller

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cate-nduta/Lash-Business-sub009/config"
	"github.com/cate-nduta/Lash-Business-sub009/events"
	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/models/booking_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/code_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/revenue_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/shared_models"
)

func TestMain(m *testing.M) {
	logger.InitLoggers()
	os.Exit(m.Run())
}

// recordingNotifier captures events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingNotifier) Notify(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingNotifier) names() []events.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []events.Name
	for _, e := range r.events {
		names = append(names, e.Name)
	}
	return names
}

// memoryRecorder captures revenue entries for assertions.
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

// staticCatalog is a fixed price list.
type staticCatalog map[string]int64

func (c staticCatalog) PriceFor(_ context.Context, name string) (int64, error) {
	price, ok := c[name]
	if !ok {
		return 0, fmt.Errorf("no such service")
	}
	return price, nil
}

func newTestService(notifier events.Notifier) (*BookingService, *booking_models.MemoryStore, *code_models.MemoryRegistry) {
	store := booking_models.NewMemoryStore()
	registry := code_models.NewMemoryRegistry()
	catalog := staticCatalog{"Classic Full Set": 5000, "Volume Set": 7000}
	svc := NewBookingService(store, registry, catalog, config.DefaultBookingPolicy(), notifier, nil, nil)
	return svc, store, registry
}

func createRequest(email string) *CreateBookingRequest {
	return &CreateBookingRequest{
		Name:     "Wambui",
		Email:    email,
		Phone:    "+254700000010",
		Service:  "Classic Full Set",
		Date:     "2026-09-15",
		TimeSlot: "10:00",
	}
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("CatalogPriceAndRequestedDeposit", func(t *testing.T) {
		notifier := &recordingNotifier{}
		svc, _, _ := newTestService(notifier)

		result, err := svc.Create(ctx, createRequest("wambui@example.com"))
		require.NoError(t, err)

		assert.Equal(t, int64(5000), result.Booking.OriginalPrice)
		assert.Equal(t, int64(5000), result.Booking.FinalPrice)
		assert.Equal(t, shared_models.BookingStatusConfirmed, result.Booking.Status)
		// default policy asks for a 30% deposit
		assert.Equal(t, int64(1500), result.RequestedDeposit)
		assert.Equal(t, []events.Name{events.BookingCreated}, notifier.names())
	})

	t.Run("SlotConflict", func(t *testing.T) {
		svc, _, _ := newTestService(&recordingNotifier{})

		_, err := svc.Create(ctx, createRequest("first@example.com"))
		require.NoError(t, err)

		_, err = svc.Create(ctx, createRequest("second@example.com"))
		assert.ErrorIs(t, err, booking_models.ErrSlotConflict)
	})

	t.Run("PromoCodeDiscount", func(t *testing.T) {
		svc, _, registry := newTestService(&recordingNotifier{})
		rc, err := registry.Issue(ctx, "friend@example.com", code_models.CodeTypePrize,
			code_models.Effect{Kind: code_models.EffectPercentDiscount, Percent: 10}, 0)
		require.NoError(t, err)

		req := createRequest("wambui@example.com")
		req.PromoCode = rc.Code
		result, err := svc.Create(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, int64(500), result.Booking.Discount)
		assert.Equal(t, int64(4500), result.Booking.FinalPrice)
		assert.Equal(t, "redeemable_code", result.Booking.DiscountSource)

		// consumed exactly once
		got, err := registry.Get(ctx, rc.Code)
		require.NoError(t, err)
		assert.False(t, got.Active)
	})

	t.Run("FreeItemCodeGrantsComplimentaryItem", func(t *testing.T) {
		svc, _, registry := newTestService(&recordingNotifier{})
		rc, err := registry.Issue(ctx, "winner@example.com", code_models.CodeTypePrize,
			code_models.Effect{Kind: code_models.EffectFreeItem, ItemName: "lash serum"}, 0)
		require.NoError(t, err)

		req := createRequest("wambui@example.com")
		req.PromoCode = rc.Code
		result, err := svc.Create(ctx, req)
		require.NoError(t, err)

		// the granted item rides on the booking at zero price
		require.Len(t, result.Booking.AdditionalServices, 1)
		assert.Equal(t, "lash serum", result.Booking.AdditionalServices[0].Name)
		assert.Equal(t, int64(0), result.Booking.AdditionalServices[0].Price)
		assert.Equal(t, int64(0), result.Booking.Discount)
		assert.Equal(t, int64(5000), result.Booking.FinalPrice)
		assert.Equal(t, "redeemable_code", result.Booking.DiscountSource)
		assert.True(t, result.Booking.PricingConsistent())

		got, err := registry.Get(ctx, rc.Code)
		require.NoError(t, err)
		assert.False(t, got.Active)
	})

	t.Run("SelfReferralRejectedBeforeAnythingMutates", func(t *testing.T) {
		svc, store, registry := newTestService(&recordingNotifier{})
		rc, err := registry.Issue(ctx, "wambui@example.com", code_models.CodeTypeReferral,
			code_models.Effect{Kind: code_models.EffectPercentDiscount, Percent: 10}, 0)
		require.NoError(t, err)

		req := createRequest("wambui@example.com")
		req.ReferralCode = rc.Code
		_, err = svc.Create(ctx, req)
		assert.ErrorIs(t, err, code_models.ErrSelfUse)

		// code untouched, slot still free
		got, err := registry.Get(ctx, rc.Code)
		require.NoError(t, err)
		assert.True(t, got.Active)
		free, err := store.FindBySlot(ctx, req.Date, req.TimeSlot)
		require.NoError(t, err)
		assert.Nil(t, free)
	})

	t.Run("LoyaltyTierApplied", func(t *testing.T) {
		notifier := &recordingNotifier{}
		svc, store, _ := newTestService(notifier)
		svc.Now = func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) }

		// A completed, fully paid visit 15 days before "now".
		prior, err := booking_models.NewBooking("Wambui", "wambui@example.com", "+254700000010",
			"Classic Full Set", "2026-08-10", "12:00", 5000, 0, "")
		require.NoError(t, err)
		require.NoError(t, store.Create(ctx, prior))
		_, err = store.Update(ctx, prior.ID, func(b *booking_models.Booking) error {
			if _, err := b.ApplyPayment(5000, shared_models.PaymentMethodCash, "", time.Now()); err != nil {
				return err
			}
			return b.MarkCompleted(time.Now())
		})
		require.NoError(t, err)

		result, err := svc.Create(ctx, createRequest("wambui@example.com"))
		require.NoError(t, err)

		assert.Equal(t, int64(350), result.Booking.Discount) // 7% of 5000
		assert.Equal(t, "loyalty_tier_30", result.Booking.DiscountSource)
	})

	t.Run("InitialDepositCrossesThreshold", func(t *testing.T) {
		notifier := &recordingNotifier{}
		svc, _, _ := newTestService(notifier)

		req := createRequest("wambui@example.com")
		req.DepositAmount = 5000
		req.DepositMethod = shared_models.PaymentMethodCard
		req.ExternalRef = "pay_full"

		result, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, shared_models.BookingStatusPaid, result.Booking.Status)
		require.NotNil(t, result.Booking.PaidInFullAt)
		assert.Equal(t, []events.Name{events.BookingCreated, events.PaidInFull}, notifier.names())
	})

	t.Run("CardDepositReachesRevenueLedger", func(t *testing.T) {
		svc, store, _ := newTestService(&recordingNotifier{})
		revenue := &memoryRecorder{}
		svc.Revenue = revenue

		req := createRequest("wambui@example.com")
		req.DepositAmount = 1500
		req.DepositMethod = shared_models.PaymentMethodCard
		req.ExternalRef = "pay_deposit_1"

		result, err := svc.Create(ctx, req)
		require.NoError(t, err)

		require.Len(t, revenue.entries, 1)
		assert.Equal(t, result.Booking.ID, revenue.entries[0].BookingID)
		assert.Equal(t, int64(1500), revenue.entries[0].Amount)
		assert.Equal(t, shared_models.PaymentMethodCard, revenue.entries[0].Method)

		// the gateway replaying the same charge dedupes in the ledger and
		// adds nothing to reporting
		_, err = store.Update(ctx, result.Booking.ID, func(b *booking_models.Booking) error {
			out, err := b.ApplyPayment(1500, shared_models.PaymentMethodCard, "pay_deposit_1", time.Now())
			require.True(t, out.Duplicate)
			return err
		})
		require.NoError(t, err)
		assert.Len(t, revenue.entries, 1)
	})

	t.Run("MobileMoneyDepositSkipsRevenueLedger", func(t *testing.T) {
		svc, _, _ := newTestService(&recordingNotifier{})
		revenue := &memoryRecorder{}
		svc.Revenue = revenue

		req := createRequest("wambui@example.com")
		req.DepositAmount = 1500
		req.DepositMethod = shared_models.PaymentMethodMobileMoney
		req.ExternalRef = "mm_deposit_1"

		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Empty(t, revenue.entries)
	})

	t.Run("UnknownServiceWithoutPrice", func(t *testing.T) {
		svc, _, _ := newTestService(&recordingNotifier{})
		req := createRequest("wambui@example.com")
		req.Service = "Brow Lamination"
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, booking_models.ErrValidation)
	})
}

func TestAddServiceAndFine(t *testing.T) {
	ctx := context.Background()

	t.Run("ServiceReopensLedger", func(t *testing.T) {
		notifier := &recordingNotifier{}
		svc, _, _ := newTestService(notifier)

		req := createRequest("wambui@example.com")
		req.DepositAmount = 5000
		req.DepositMethod = shared_models.PaymentMethodCash
		result, err := svc.Create(ctx, req)
		require.NoError(t, err)
		require.Equal(t, shared_models.BookingStatusPaid, result.Booking.Status)

		booking, err := svc.AddService(ctx, result.Booking.ID, "Lash Bath", 800)
		require.NoError(t, err)
		assert.Equal(t, int64(5800), booking.FinalPrice)
		assert.Equal(t, shared_models.BookingStatusConfirmed, booking.Status)
		assert.Nil(t, booking.PaidInFullAt)
	})

	t.Run("FineOnlyOnce", func(t *testing.T) {
		svc, _, _ := newTestService(&recordingNotifier{})
		result, err := svc.Create(ctx, createRequest("wambui@example.com"))
		require.NoError(t, err)

		_, err = svc.AddFine(ctx, result.Booking.ID, 500, "late arrival")
		require.NoError(t, err)
		_, err = svc.AddFine(ctx, result.Booking.ID, 500, "late again")
		assert.ErrorIs(t, err, booking_models.ErrAlreadyFined)
	})
}

func TestReschedule(t *testing.T) {
	ctx := context.Background()

	t.Run("MoveToFreeSlot", func(t *testing.T) {
		svc, _, _ := newTestService(&recordingNotifier{})
		result, err := svc.Create(ctx, createRequest("wambui@example.com"))
		require.NoError(t, err)

		booking, err := svc.Reschedule(ctx, result.Booking.ID, "2026-09-20", "14:00", shared_models.CancelledByClient, "client asked")
		require.NoError(t, err)
		assert.Equal(t, "2026-09-20", booking.Date)
		require.Len(t, booking.RescheduleHistory, 1)
	})

	t.Run("OccupiedSlotRejected", func(t *testing.T) {
		svc, _, _ := newTestService(&recordingNotifier{})
		first, err := svc.Create(ctx, createRequest("first@example.com"))
		require.NoError(t, err)

		other := createRequest("second@example.com")
		other.TimeSlot = "14:00"
		second, err := svc.Create(ctx, other)
		require.NoError(t, err)

		_, err = svc.Reschedule(ctx, second.Booking.ID, first.Booking.Date, first.Booking.TimeSlot, shared_models.CancelledByAdmin, "")
		assert.ErrorIs(t, err, booking_models.ErrSlotConflict)
	})

	t.Run("SameSlotIsFine", func(t *testing.T) {
		svc, _, _ := newTestService(&recordingNotifier{})
		result, err := svc.Create(ctx, createRequest("wambui@example.com"))
		require.NoError(t, err)

		_, err = svc.Reschedule(ctx, result.Booking.ID, result.Booking.Date, result.Booking.TimeSlot, shared_models.CancelledByAdmin, "no-op move")
		assert.NoError(t, err)
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(&recordingNotifier{})

	result, err := svc.Create(ctx, createRequest("wambui@example.com"))
	require.NoError(t, err)

	booking, err := svc.Complete(ctx, result.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, shared_models.BookingStatusCompleted, booking.Status)

	// terminal: nothing further
	_, err = svc.AddService(ctx, booking.ID, "Lash Bath", 800)
	assert.ErrorIs(t, err, booking_models.ErrInvalidState)
}
