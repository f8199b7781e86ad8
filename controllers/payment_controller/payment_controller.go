package payment_controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cate-nduta/Lash-Business-sub009/clients"
	"github.com/cate-nduta/Lash-Business-sub009/events"
	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/models/booking_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/payment_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/revenue_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/shared_models"
)

// PaymentService records payments against bookings. It owns no gateway
// traffic itself; adapters report confirmed outcomes to it, keyed by
// externalRef for de-duplication.
type PaymentService struct {
	Store    booking_models.Store
	Notifier events.Notifier
	Revenue  revenue_models.Recorder
	DB       *pgxpool.Pool // optional; gateway transaction bookkeeping
	Now      func() time.Time
}

func NewPaymentService(store booking_models.Store, notifier events.Notifier, revenue revenue_models.Recorder, db *pgxpool.Pool) *PaymentService {
	if notifier == nil {
		notifier = events.NopNotifier{}
	}
	return &PaymentService{
		Store:    store,
		Notifier: notifier,
		Revenue:  revenue,
		DB:       db,
		Now:      time.Now,
	}
}

// RecordResult reports what one payment call did.
type RecordResult struct {
	Booking              *booking_models.Booking
	Duplicate            bool
	JustCompletedPayment bool
}

// RecordPayment appends to the booking's ledger in one serialized write.
// A repeated externalRef is a success-with-notice no-op, so webhook
// retries never inflate DepositPaid. Crossing the paid-in-full threshold
// for the first time fires the PaidInFull event and, for cash and card,
// a revenue entry; the stamp on the booking guarantees it fires once.
func (s *PaymentService) RecordPayment(ctx context.Context, bookingID uuid.UUID, amount int64, method shared_models.PaymentMethod, externalRef string) (*RecordResult, error) {
	result := &RecordResult{}
	booking, err := s.Store.Update(ctx, bookingID, func(b *booking_models.Booking) error {
		out, err := b.ApplyPayment(amount, method, externalRef, s.Now())
		if err != nil {
			return err
		}
		result.Duplicate = out.Duplicate
		result.JustCompletedPayment = out.JustCompletedPayment
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Booking = booking

	if result.Duplicate {
		logger.InfoLogger.Infof("Duplicate payment notification %s for booking %s ignored", externalRef, bookingID)
		return result, nil
	}

	if method != shared_models.PaymentMethodMobileMoney && amount > 0 && s.Revenue != nil {
		entry := revenue_models.RevenueEntry{
			BookingID: booking.ID,
			Amount:    amount,
			Method:    method,
			Date:      s.Now().Format("2006-01-02"),
		}
		if err := s.Revenue.Record(ctx, entry); err != nil {
			// The booking ledger is already consistent; reporting is the
			// collaborator's problem to retry.
			logger.ErrorLogger.Errorf("Failed to record revenue for booking %s: %v", booking.ID, err)
		}
	}

	if result.JustCompletedPayment {
		s.Notifier.Notify(ctx, events.Event{
			Name:          events.PaidInFull,
			BookingID:     booking.ID,
			CustomerName:  booking.CustomerName,
			CustomerEmail: booking.CustomerEmail,
			Service:       booking.Service,
			Date:          booking.Date,
			TimeSlot:      booking.TimeSlot,
			Amount:        amount,
		})
	}
	return result, nil
}

// --- HTTP layer ---

// PaymentController exposes admin payment recording and the card-gateway
// webhook.
type PaymentController struct {
	Service       *PaymentService
	Gateway       clients.CardGateway
	WebhookSecret string
}

func NewPaymentController(service *PaymentService, gateway clients.CardGateway, webhookSecret string) *PaymentController {
	return &PaymentController{
		Service:       service,
		Gateway:       gateway,
		WebhookSecret: webhookSecret,
	}
}

type recordPaymentRequest struct {
	Amount      int64                       `json:"amount"`
	Method      shared_models.PaymentMethod `json:"method" binding:"required"`
	ExternalRef string                      `json:"external_ref"`
}

// RecordPayment handles POST /admin/bookings/:id/payments.
func (pc *PaymentController) RecordPayment(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := pc.Service.RecordPayment(c.Request.Context(), bookingID, req.Amount, req.Method, req.ExternalRef)
	if err != nil {
		switch {
		case errors.Is(err, booking_models.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		case errors.Is(err, booking_models.ErrInvalidAmount), errors.Is(err, booking_models.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, booking_models.ErrInvalidState):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.ErrorLogger.Errorf("Failed to record payment for booking %s: %v", bookingID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record payment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking":                result.Booking,
		"duplicate":              result.Duplicate,
		"just_completed_payment": result.JustCompletedPayment,
	})
}

// razorpayWebhookPayload is the slice of the gateway event we act on.
type razorpayWebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID     string `json:"id"`
				Amount int64  `json:"amount"`
				Notes  struct {
					BookingID string `json:"booking_id"`
				} `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook handles POST /webhooks/razorpay. The gateway's payment id
// is the de-duplication key all the way into the ledger.
func (pc *PaymentController) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if pc.Gateway == nil || !pc.Gateway.VerifyWebhookSignature(signature, string(body), pc.WebhookSecret) {
		logger.ErrorLogger.Error("Razorpay webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload razorpayWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if payload.Event != "payment.captured" {
		logger.InfoLogger.Infof("Ignoring razorpay event %s", payload.Event)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	entity := payload.Payload.Payment.Entity
	bookingID, err := uuid.Parse(entity.Notes.BookingID)
	if err != nil {
		logger.ErrorLogger.Errorf("Webhook payment %s carries no usable booking id: %v", entity.ID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing booking reference"})
		return
	}

	result, err := pc.Service.RecordPayment(c.Request.Context(), bookingID, entity.Amount, shared_models.PaymentMethodCard, entity.ID)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to apply webhook payment %s to booking %s: %v", entity.ID, bookingID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record payment"})
		return
	}

	pc.recordGatewayTransaction(c.Request.Context(), bookingID, entity.ID, entity.Amount, result.Duplicate)

	c.JSON(http.StatusOK, gin.H{"status": "ok", "duplicate": result.Duplicate})
}

func (pc *PaymentController) recordGatewayTransaction(ctx context.Context, bookingID uuid.UUID, externalRef string, amount int64, duplicate bool) {
	if pc.Service.DB == nil || duplicate {
		return
	}
	// Skip refs this table already holds; the unique index would reject the
	// insert anyway, but a lookup keeps redelivery out of the error log.
	if _, err := payment_models.GetGatewayTransactionByExternalRef(ctx, pc.Service.DB, externalRef); err == nil {
		return
	} else if !errors.Is(err, payment_models.ErrTransactionNotFound) {
		logger.ErrorLogger.Errorf("Failed to look up gateway transaction %s: %v", externalRef, err)
	}
	tx, err := payment_models.NewGatewayTransaction(bookingID, externalRef, amount, shared_models.PaymentMethodCard, "recorded")
	if err == nil {
		captured := pc.Service.Now()
		tx.CapturedAt = &captured
		err = payment_models.CreateGatewayTransaction(ctx, pc.Service.DB, tx)
	}
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to store gateway transaction %s: %v", externalRef, err)
	}
}
