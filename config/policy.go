package config

import (
	"os"
	"strconv"
)

// BookingPolicy is the single source of truth for the studio's pricing and
// cancellation rules. Both the discount calculator and the cancellation
// evaluator receive the same instance, so the late-cancellation window and
// the loyalty tiers cannot drift apart between code paths.
type BookingPolicy struct {
	// LateCancellationThresholdHours is the minimum notice, in hours, a
	// client must give to cancel without the deposit being at risk. This is
	// the value quoted to clients on the site.
	LateCancellationThresholdHours int

	// Returning-client loyalty tiers, bucketed by days since the client's
	// last completed, fully paid appointment. Tiers are exclusive, never
	// summed.
	Tier30Days    int // upper bound (inclusive) of the first tier window
	Tier30Percent int
	Tier45Days    int // upper bound (inclusive) of the second tier window
	Tier45Percent int

	// DepositPercent is the share of the final price requested up front on
	// the booking form. The ledger itself accepts any positive amount.
	DepositPercent int
}

// DefaultBookingPolicy mirrors what the studio advertises: free cancellation
// with 72 hours notice, 7% within 30 days of the last visit, 4% within 45.
func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		LateCancellationThresholdHours: 72,
		Tier30Days:                     30,
		Tier30Percent:                  7,
		Tier45Days:                     45,
		Tier45Percent:                  4,
		DepositPercent:                 30,
	}
}

// LoadBookingPolicy builds the policy from the environment, falling back to
// the defaults field by field.
func LoadBookingPolicy() BookingPolicy {
	p := DefaultBookingPolicy()
	p.LateCancellationThresholdHours = envInt("LATE_CANCELLATION_THRESHOLD_HOURS", p.LateCancellationThresholdHours)
	p.Tier30Days = envInt("LOYALTY_TIER30_DAYS", p.Tier30Days)
	p.Tier30Percent = envInt("LOYALTY_TIER30_PERCENT", p.Tier30Percent)
	p.Tier45Days = envInt("LOYALTY_TIER45_DAYS", p.Tier45Days)
	p.Tier45Percent = envInt("LOYALTY_TIER45_PERCENT", p.Tier45Percent)
	p.DepositPercent = envInt("BOOKING_DEPOSIT_PERCENT", p.DepositPercent)
	return p
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
