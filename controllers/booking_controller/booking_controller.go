package booking_controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cate-nduta/Lash-Business-sub009/config"
	"github.com/cate-nduta/Lash-Business-sub009/events"
	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/models/booking_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/code_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/discount_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/revenue_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/shared_models"
)

// Redis slot holds: advisory reservation while a client finishes the form.
// The authoritative claim is still the store's atomic create.
const (
	redisSlotHoldPrefix = "slot_hold:"
	redisSlotHoldExpiry = 10 * time.Minute
)

// Catalog resolves a service's menu price.
type Catalog interface {
	PriceFor(ctx context.Context, name string) (int64, error)
}

// BookingService orchestrates the booking lifecycle: it loads records from
// the store, consults the discount calculator and code registry, applies
// the ledger or refund policy, and writes back. All single-booking
// mutations go through Store.Update, which serializes them per id.
type BookingService struct {
	Store    booking_models.Store
	Registry code_models.Registry
	Catalog  Catalog
	Policy   config.BookingPolicy
	Notifier events.Notifier
	Revenue  revenue_models.Recorder // optional
	Redis    *redis.Client           // optional
	Now      func() time.Time
}

func NewBookingService(store booking_models.Store, registry code_models.Registry, catalog Catalog, policy config.BookingPolicy, notifier events.Notifier, revenue revenue_models.Recorder, rdb *redis.Client) *BookingService {
	if notifier == nil {
		notifier = events.NopNotifier{}
	}
	return &BookingService{
		Store:    store,
		Registry: registry,
		Catalog:  catalog,
		Policy:   policy,
		Notifier: notifier,
		Revenue:  revenue,
		Redis:    rdb,
		Now:      time.Now,
	}
}

// CreateBookingRequest is the public booking form payload.
type CreateBookingRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone" binding:"required"`
	Service       string `json:"service" binding:"required"`
	Date          string `json:"date" binding:"required"`
	TimeSlot      string `json:"time_slot" binding:"required"`
	OriginalPrice int64  `json:"original_price"`
	PromoCode     string `json:"promo_code"`
	ReferralCode  string `json:"referral_code"`

	// Optional initial deposit recorded in the same operation.
	DepositAmount int64                       `json:"deposit_amount"`
	DepositMethod shared_models.PaymentMethod `json:"deposit_method"`
	ExternalRef   string                      `json:"external_ref"`
}

// CreateBookingResult is what the form gets back.
type CreateBookingResult struct {
	Booking          *booking_models.Booking
	RequestedDeposit int64
}

// Create validates the request, resolves pricing (catalog price, then a
// single discount source: redeemable code first, else loyalty tier), and
// claims the slot. The slot check and insert are one atomic step in the
// store; the loser of a race sees ErrSlotConflict.
func (s *BookingService) Create(ctx context.Context, req *CreateBookingRequest) (*CreateBookingResult, error) {
	originalPrice := req.OriginalPrice
	if originalPrice <= 0 {
		if s.Catalog == nil {
			return nil, fmt.Errorf("%w: original price is required", booking_models.ErrValidation)
		}
		price, err := s.Catalog.PriceFor(ctx, req.Service)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown service %q", booking_models.ErrValidation, req.Service)
		}
		originalPrice = price
	}

	code := req.ReferralCode
	if code == "" {
		code = req.PromoCode
	}

	// Preflight the code so a doomed request fails before anything mutates.
	if code != "" {
		if err := s.Registry.Validate(ctx, code, req.Email, code_models.ContextCheckout); err != nil {
			return nil, err
		}
	}

	if err := s.holdSlot(ctx, req.Date, req.TimeSlot, req.Email); err != nil {
		return nil, err
	}

	// Pick exactly one discount source: a valid redeemable code wins, else
	// the returning-client tier.
	dctx := discount_models.Context{}
	var redeemed *code_models.Effect
	if code != "" {
		effect, err := s.Registry.Redeem(ctx, code, req.Email, code_models.ContextCheckout)
		if err != nil {
			s.releaseSlot(ctx, req.Date, req.TimeSlot, req.Email)
			return nil, err
		}
		redeemed = &effect
		dctx.CodeEffect = &effect
	} else {
		days, err := s.daysSinceLastVisit(ctx, req.Email)
		if err != nil {
			logger.WarnLogger.Warnf("Could not load visit history for %s: %v", req.Email, err)
		} else {
			dctx.DaysSinceLastCompleted = days
		}
	}

	discount := discount_models.ComputeDiscount(dctx, s.Policy)
	discountAmount := discount.Amount(originalPrice)

	booking, err := booking_models.NewBooking(
		req.Name, req.Email, req.Phone, req.Service, req.Date, req.TimeSlot,
		originalPrice, discountAmount, string(discount.Source),
	)
	if err != nil {
		s.releaseSlot(ctx, req.Date, req.TimeSlot, req.Email)
		return nil, err
	}
	// A free-item code grants a line item, not a discount; the item rides
	// along at zero price so the grant is on the record it paid for.
	if redeemed != nil && redeemed.Kind == code_models.EffectFreeItem {
		if err := booking.AddComplimentaryItem(redeemed.ItemName, s.Now()); err != nil {
			s.releaseSlot(ctx, req.Date, req.TimeSlot, req.Email)
			return nil, err
		}
		booking.DiscountSource = string(discount_models.SourceRedeemableCode)
	}

	var paidInFull bool
	if req.DepositAmount > 0 {
		out, err := booking.ApplyPayment(req.DepositAmount, req.DepositMethod, req.ExternalRef, s.Now())
		if err != nil {
			s.releaseSlot(ctx, req.Date, req.TimeSlot, req.Email)
			return nil, err
		}
		paidInFull = out.JustCompletedPayment
	}

	if err := s.Store.Create(ctx, booking); err != nil {
		s.releaseSlot(ctx, req.Date, req.TimeSlot, req.Email)
		if redeemed != nil {
			// The code was burnt against a booking that never landed; this
			// needs an operator's eyes, not silent reactivation.
			logger.ErrorLogger.Errorf("Code %s redeemed but booking create failed for %s: %v", code, req.Email, err)
		}
		return nil, err
	}

	// A create-time deposit never reaches the payment service, so the
	// reporting entry for cash and card is emitted here. The gateway webhook
	// replaying the same charge dedupes on externalRef and records nothing.
	if req.DepositAmount > 0 && req.DepositMethod != shared_models.PaymentMethodMobileMoney && s.Revenue != nil {
		entry := revenue_models.RevenueEntry{
			BookingID: booking.ID,
			Amount:    req.DepositAmount,
			Method:    req.DepositMethod,
			Date:      s.Now().Format("2006-01-02"),
		}
		if err := s.Revenue.Record(ctx, entry); err != nil {
			logger.ErrorLogger.Errorf("Failed to record revenue for booking %s: %v", booking.ID, err)
		}
	}

	s.Notifier.Notify(ctx, events.Event{
		Name:          events.BookingCreated,
		BookingID:     booking.ID,
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		Service:       booking.Service,
		Date:          booking.Date,
		TimeSlot:      booking.TimeSlot,
		Amount:        booking.FinalPrice,
	})
	if paidInFull {
		s.Notifier.Notify(ctx, events.Event{
			Name:          events.PaidInFull,
			BookingID:     booking.ID,
			CustomerName:  booking.CustomerName,
			CustomerEmail: booking.CustomerEmail,
			Service:       booking.Service,
			Date:          booking.Date,
			TimeSlot:      booking.TimeSlot,
			Amount:        req.DepositAmount,
		})
	}

	requested := booking.FinalPrice * int64(s.Policy.DepositPercent) / 100
	return &CreateBookingResult{Booking: booking, RequestedDeposit: requested}, nil
}

// AddService appends an extra line item; the final price moves in the same
// write.
func (s *BookingService) AddService(ctx context.Context, bookingID uuid.UUID, name string, price int64) (*booking_models.Booking, error) {
	booking, err := s.Store.Update(ctx, bookingID, func(b *booking_models.Booking) error {
		return b.AddService(name, price, s.Now())
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, events.Event{
		Name:          events.ServiceAdded,
		BookingID:     booking.ID,
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		Service:       booking.Service,
		Date:          booking.Date,
		TimeSlot:      booking.TimeSlot,
		Amount:        price,
		Detail:        name,
	})
	return booking, nil
}

// AddFine records the booking's one allowed fine.
func (s *BookingService) AddFine(ctx context.Context, bookingID uuid.UUID, amount int64, reason string) (*booking_models.Booking, error) {
	return s.Store.Update(ctx, bookingID, func(b *booking_models.Booking) error {
		return b.ApplyFine(amount, reason, s.Now())
	})
}

// Reschedule moves the appointment to a free slot. Pricing and payments
// are untouched; the move is appended to the history.
func (s *BookingService) Reschedule(ctx context.Context, bookingID uuid.UUID, newDate, newSlot string, by shared_models.CancelledBy, notes string) (*booking_models.Booking, error) {
	existing, err := s.Store.FindBySlot(ctx, newDate, newSlot)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != bookingID {
		return nil, booking_models.ErrSlotConflict
	}

	booking, err := s.Store.Update(ctx, bookingID, func(b *booking_models.Booking) error {
		return b.ApplyReschedule(newDate, newSlot, by, notes, s.Now())
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, events.Event{
		Name:          events.BookingRescheduled,
		BookingID:     booking.ID,
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		Service:       booking.Service,
		Date:          booking.Date,
		TimeSlot:      booking.TimeSlot,
		Detail:        notes,
	})
	return booking, nil
}

// Complete closes out a finished appointment, making it count toward the
// client's loyalty tier from now on.
func (s *BookingService) Complete(ctx context.Context, bookingID uuid.UUID) (*booking_models.Booking, error) {
	return s.Store.Update(ctx, bookingID, func(b *booking_models.Booking) error {
		return b.MarkCompleted(s.Now())
	})
}

func (s *BookingService) daysSinceLastVisit(ctx context.Context, email string) (*int, error) {
	last, err := s.Store.LastCompletedVisit(ctx, email)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, nil
	}
	days := int(s.Now().Sub(*last).Hours() / 24)
	return &days, nil
}

func slotHoldKey(date, timeSlot string) string {
	return fmt.Sprintf("%s%s:%s", redisSlotHoldPrefix, date, timeSlot)
}

func (s *BookingService) holdSlot(ctx context.Context, date, timeSlot, email string) error {
	if s.Redis == nil {
		return nil
	}
	key := slotHoldKey(date, timeSlot)

	holder, err := s.Redis.Get(ctx, key).Result()
	if err == nil && holder == email {
		return nil // already held by this client
	} else if err != nil && !errors.Is(err, redis.Nil) {
		logger.ErrorLogger.Errorf("Redis error checking slot hold %s: %v", key, err)
		return fmt.Errorf("failed to check slot hold: %w", err)
	}

	set, err := s.Redis.SetNX(ctx, key, email, redisSlotHoldExpiry).Result()
	if err != nil {
		logger.ErrorLogger.Errorf("Redis error holding slot %s: %v", key, err)
		return fmt.Errorf("failed to hold slot: %w", err)
	}
	if !set {
		return booking_models.ErrSlotConflict
	}
	return nil
}

func (s *BookingService) releaseSlot(ctx context.Context, date, timeSlot, email string) {
	if s.Redis == nil {
		return
	}
	key := slotHoldKey(date, timeSlot)
	if err := s.Redis.Del(ctx, key).Err(); err != nil {
		logger.ErrorLogger.Errorf("Failed to release slot hold %s: %v", key, err)
	}
}

// --- HTTP handlers ---

// BookingController exposes the service over gin.
type BookingController struct {
	Service *BookingService
}

func NewBookingController(service *BookingService) *BookingController {
	return &BookingController{Service: service}
}

// CreateBooking handles POST /bookings.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := bc.Service.Create(c.Request.Context(), &req)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking_id":  result.Booking.ID,
		"final_price": result.Booking.FinalPrice,
		"deposit":     result.RequestedDeposit,
	})
}

type addServiceRequest struct {
	Name  string `json:"name" binding:"required"`
	Price int64  `json:"price" binding:"required"`
}

// AddService handles POST /admin/bookings/:id/services.
func (bc *BookingController) AddService(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var req addServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	booking, err := bc.Service.AddService(c.Request.Context(), id, req.Name, req.Price)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type addFineRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// AddFine handles POST /admin/bookings/:id/fine.
func (bc *BookingController) AddFine(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var req addFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	booking, err := bc.Service.AddFine(c.Request.Context(), id, req.Amount, req.Reason)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type rescheduleRequest struct {
	Date     string                    `json:"date" binding:"required"`
	TimeSlot string                    `json:"time_slot" binding:"required"`
	By       shared_models.CancelledBy `json:"by" binding:"required"`
	Notes    string                    `json:"notes"`
}

// Reschedule handles POST /admin/bookings/:id/reschedule.
func (bc *BookingController) Reschedule(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	booking, err := bc.Service.Reschedule(c.Request.Context(), id, req.Date, req.TimeSlot, req.By, req.Notes)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// Complete handles POST /admin/bookings/:id/complete.
func (bc *BookingController) Complete(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	booking, err := bc.Service.Complete(c.Request.Context(), id)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// GetBooking handles GET /bookings/:id.
func (bc *BookingController) GetBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	booking, err := bc.Service.Store.Get(c.Request.Context(), id)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func bookingIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return uuid.Nil, false
	}
	return id, true
}

// respondBookingError maps the engine's error taxonomy to HTTP statuses.
func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking_models.ErrSlotConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "time slot is already booked, please pick another"})
	case errors.Is(err, booking_models.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	case errors.Is(err, booking_models.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking_models.ErrAlreadyFined):
		c.JSON(http.StatusConflict, gin.H{"error": "booking already has a fine"})
	case errors.Is(err, booking_models.ErrValidation), errors.Is(err, booking_models.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, code_models.ErrCodeNotFound),
		errors.Is(err, code_models.ErrCodeInactive),
		errors.Is(err, code_models.ErrCodeExpired),
		errors.Is(err, code_models.ErrWrongContext),
		errors.Is(err, code_models.ErrSelfUse),
		errors.Is(err, code_models.ErrAlreadyUsed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.ErrorLogger.Errorf("Unhandled booking error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
