package discount_models

import (
	"github.com/cate-nduta/Lash-Business-sub009/config"
	"github.com/cate-nduta/Lash-Business-sub009/models/code_models"
)

// Context carries everything the calculator may consider for one pricing
// request. It is computed per request and never persisted.
type Context struct {
	// DaysSinceLastCompleted is nil when the client has no prior completed,
	// fully paid appointment. Confirmed-only bookings never count.
	DaysSinceLastCompleted *int

	// CodeEffect is the already-validated effect of a redeemable code, if
	// one was presented.
	CodeEffect *code_models.Effect
}

// Source names where a discount percentage came from.
type Source string

const (
	SourceNone           Source = ""
	SourceRedeemableCode Source = "redeemable_code"
	SourceLoyaltyTier30  Source = "loyalty_tier_30"
	SourceLoyaltyTier45  Source = "loyalty_tier_45"
)

// Discount is the calculator's result.
type Discount struct {
	Percent int
	Source  Source
}

// ComputeDiscount resolves the single applicable discount. At most one
// source ever applies: a valid redeemable code wins outright, otherwise the
// returning-client tier. Tiers are exclusive windows, never summed.
func ComputeDiscount(ctx Context, policy config.BookingPolicy) Discount {
	if ctx.CodeEffect != nil && ctx.CodeEffect.Kind == code_models.EffectPercentDiscount {
		return Discount{Percent: ctx.CodeEffect.Percent, Source: SourceRedeemableCode}
	}

	if ctx.DaysSinceLastCompleted == nil {
		return Discount{}
	}
	d := *ctx.DaysSinceLastCompleted
	switch {
	case d >= 0 && d <= policy.Tier30Days:
		return Discount{Percent: policy.Tier30Percent, Source: SourceLoyaltyTier30}
	case d > policy.Tier30Days && d <= policy.Tier45Days:
		return Discount{Percent: policy.Tier45Percent, Source: SourceLoyaltyTier45}
	default:
		// Too long ago, or a clock anomaly put the last visit in the future.
		return Discount{}
	}
}

// Amount converts the percentage to an absolute discount on price,
// truncating toward zero.
func (d Discount) Amount(price int64) int64 {
	if d.Percent <= 0 {
		return 0
	}
	return price * int64(d.Percent) / 100
}
