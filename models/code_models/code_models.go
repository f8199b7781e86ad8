package code_models

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// CodeType distinguishes how a code came to exist.
type CodeType string

const (
	// CodeTypeReferral is issued to a client after a referred booking
	// completes; it cannot be redeemed by its own owner.
	CodeTypeReferral CodeType = "referral"
	// CodeTypePrize comes from the promotional prize wheel.
	CodeTypePrize CodeType = "prize"
)

func (t CodeType) Valid() bool {
	return t == CodeTypeReferral || t == CodeTypePrize
}

// RedeemContext is the flow in which a code is being presented.
type RedeemContext string

const (
	ContextCheckout     RedeemContext = "checkout"
	ContextConsultation RedeemContext = "consultation"
)

func (c RedeemContext) Valid() bool {
	return c == ContextCheckout || c == ContextConsultation
}

// EffectKind is what redeeming a code grants.
type EffectKind string

const (
	EffectPercentDiscount  EffectKind = "percent_discount"
	EffectFreeItem         EffectKind = "free_item"
	EffectFreeConsultation EffectKind = "free_consultation"
)

// Effect is the concrete benefit a code carries.
type Effect struct {
	Kind     EffectKind `json:"kind"`
	Percent  int        `json:"percent,omitempty"`
	ItemName string     `json:"item_name,omitempty"`
}

// Validate checks the effect is coherent before a single-use code is
// minted around it; a malformed effect caught at redemption would strand
// the customer's code.
func (e Effect) Validate() error {
	switch e.Kind {
	case EffectPercentDiscount:
		if e.Percent < 1 || e.Percent > 100 {
			return fmt.Errorf("discount percent must be between 1 and 100, got %d", e.Percent)
		}
	case EffectFreeItem:
		if strings.TrimSpace(e.ItemName) == "" {
			return fmt.Errorf("free item effect requires an item name")
		}
	case EffectFreeConsultation:
	default:
		return fmt.Errorf("unknown effect kind %q", e.Kind)
	}
	return nil
}

// allowedIn maps an effect to the flow it was minted for.
func (e Effect) allowedIn(ctx RedeemContext) bool {
	if e.Kind == EffectFreeConsultation {
		return ctx == ContextConsultation
	}
	return ctx == ContextCheckout
}

// RedeemableCode is a single-use token. It transitions to inactive exactly
// once, atomically with recording the redeemer, and is never reactivated.
type RedeemableCode struct {
	Code          string     `json:"code"`
	OwnerIdentity string     `json:"owner_identity"`
	Type          CodeType   `json:"type"`
	Effect        Effect     `json:"effect"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	UsedBy        string     `json:"used_by,omitempty"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	Active        bool       `json:"active"`
}

// CheckRedeemable runs the validation chain in its specified order:
// active, expiry, context fit, self-use, prior use. Existence is the
// registry's concern. Returns nil when the code may be redeemed.
func (rc *RedeemableCode) CheckRedeemable(redeemerIdentity string, ctx RedeemContext, now time.Time) error {
	if !rc.Active {
		return ErrCodeInactive
	}
	if rc.ExpiresAt != nil && now.After(*rc.ExpiresAt) {
		return ErrCodeExpired
	}
	if !rc.Effect.allowedIn(ctx) {
		return ErrWrongContext
	}
	if rc.Type == CodeTypeReferral && identitiesEqual(rc.OwnerIdentity, redeemerIdentity) {
		return ErrSelfUse
	}
	if rc.UsedBy != "" {
		return ErrAlreadyUsed
	}
	return nil
}

func identitiesEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// codeAlphabet omits lookalike characters; codes end up on printed cards
// and in SMS messages.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 8

// NewCode mints a candidate RedeemableCode. Uniqueness is the registry's
// job; this only produces the value and shape.
func NewCode(ownerIdentity string, codeType CodeType, effect Effect, ttl time.Duration) (*RedeemableCode, error) {
	if strings.TrimSpace(ownerIdentity) == "" {
		return nil, fmt.Errorf("owner identity is required")
	}
	if !codeType.Valid() {
		return nil, fmt.Errorf("unknown code type %q", codeType)
	}
	if err := effect.Validate(); err != nil {
		return nil, err
	}

	value, err := randomCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rc := &RedeemableCode{
		Code:          value,
		OwnerIdentity: strings.ToLower(strings.TrimSpace(ownerIdentity)),
		Type:          codeType,
		Effect:        effect,
		CreatedAt:     now,
		Active:        true,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		rc.ExpiresAt = &expires
	}
	return rc, nil
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return "LASH-" + string(buf), nil
}

// NormalizeCode canonicalizes user-typed code values.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
