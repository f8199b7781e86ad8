package code_controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/models/code_models"
)

// CodeController exposes the code registry: admin issuance and the public
// validate/redeem flows used by checkout and consultation booking.
type CodeController struct {
	Registry code_models.Registry
}

func NewCodeController(registry code_models.Registry) *CodeController {
	return &CodeController{Registry: registry}
}

type issueCodeRequest struct {
	OwnerIdentity string               `json:"owner_identity" binding:"required,email"`
	Type          code_models.CodeType `json:"type" binding:"required"`
	Effect        code_models.Effect   `json:"effect" binding:"required"`
	TTLDays       int                  `json:"ttl_days"`
}

// IssueCode handles POST /admin/codes — minting a referral code after a
// completed referred booking, or a prize code after a wheel spin.
func (cc *CodeController) IssueCode(c *gin.Context) {
	var req issueCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be referral or prize"})
		return
	}
	if err := req.Effect.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ttl := time.Duration(req.TTLDays) * 24 * time.Hour
	code, err := cc.Registry.Issue(c.Request.Context(), req.OwnerIdentity, req.Type, req.Effect, ttl)
	if err != nil {
		if errors.Is(err, code_models.ErrCodeGenerationExhausted) {
			// Operational: the caller may retry with backoff, or an
			// operator should look at registry saturation.
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		logger.ErrorLogger.Errorf("Failed to issue code for %s: %v", req.OwnerIdentity, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue code"})
		return
	}

	c.JSON(http.StatusCreated, code)
}

type validateCodeRequest struct {
	Code             string                    `json:"code" binding:"required"`
	RedeemerIdentity string                    `json:"redeemer_identity" binding:"required,email"`
	Context          code_models.RedeemContext `json:"context" binding:"required"`
}

// ValidateCode handles POST /codes/validate — the read-only preflight used
// by the checkout and consultation forms.
func (cc *CodeController) ValidateCode(c *gin.Context) {
	var req validateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if !req.Context.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "context must be checkout or consultation"})
		return
	}

	if err := cc.Registry.Validate(c.Request.Context(), req.Code, req.RedeemerIdentity, req.Context); err != nil {
		if reason, ok := validationReason(err); ok {
			c.JSON(http.StatusOK, gin.H{"valid": false, "reason": reason})
			return
		}
		logger.ErrorLogger.Errorf("Failed to validate code %s: %v", req.Code, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate code"})
		return
	}

	code, err := cc.Registry.Get(c.Request.Context(), req.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "effect": code.Effect})
}

// RedeemCode handles POST /codes/redeem — the consultation flow, where the
// effect is consumed immediately rather than at booking create.
func (cc *CodeController) RedeemCode(c *gin.Context) {
	var req validateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if !req.Context.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "context must be checkout or consultation"})
		return
	}

	effect, err := cc.Registry.Redeem(c.Request.Context(), req.Code, req.RedeemerIdentity, req.Context)
	if err != nil {
		if reason, ok := validationReason(err); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "reason": reason})
			return
		}
		logger.ErrorLogger.Errorf("Failed to redeem code %s: %v", req.Code, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to redeem code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "effect": effect})
}

// validationReason maps registry sentinels to caller-facing reasons.
func validationReason(err error) (string, bool) {
	switch {
	case errors.Is(err, code_models.ErrCodeNotFound):
		return "code not found", true
	case errors.Is(err, code_models.ErrCodeInactive):
		return "code is no longer active", true
	case errors.Is(err, code_models.ErrCodeExpired):
		return "code has expired", true
	case errors.Is(err, code_models.ErrWrongContext):
		return "code cannot be used in this context", true
	case errors.Is(err, code_models.ErrSelfUse):
		return "referral codes cannot be redeemed by their owner", true
	case errors.Is(err, code_models.ErrAlreadyUsed):
		return "code has already been used", true
	}
	return "", false
}
