package code_models

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is the in-process Registry used in tests. The mutex makes
// validate-and-mark-used a single atomic step, matching the conditional
// UPDATE the Postgres registry relies on.
type MemoryRegistry struct {
	mu    sync.Mutex
	codes map[string]*RedeemableCode
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{codes: make(map[string]*RedeemableCode)}
}

func (r *MemoryRegistry) Issue(_ context.Context, ownerIdentity string, codeType CodeType, effect Effect, ttl time.Duration) (*RedeemableCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < issueMaxAttempts; attempt++ {
		rc, err := NewCode(ownerIdentity, codeType, effect, ttl)
		if err != nil {
			return nil, err
		}
		if _, exists := r.codes[rc.Code]; exists {
			continue
		}
		r.codes[rc.Code] = rc
		clone := *rc
		return &clone, nil
	}
	return nil, ErrCodeGenerationExhausted
}

func (r *MemoryRegistry) Get(_ context.Context, code string) (*RedeemableCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rc, ok := r.codes[NormalizeCode(code)]
	if !ok {
		return nil, ErrCodeNotFound
	}
	clone := *rc
	return &clone, nil
}

func (r *MemoryRegistry) Validate(_ context.Context, code, redeemerIdentity string, redeemCtx RedeemContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rc, ok := r.codes[NormalizeCode(code)]
	if !ok {
		return ErrCodeNotFound
	}
	return rc.CheckRedeemable(redeemerIdentity, redeemCtx, time.Now())
}

func (r *MemoryRegistry) Redeem(_ context.Context, code, redeemerIdentity string, redeemCtx RedeemContext) (Effect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rc, ok := r.codes[NormalizeCode(code)]
	if !ok {
		return Effect{}, ErrCodeNotFound
	}

	now := time.Now()
	if err := rc.CheckRedeemable(redeemerIdentity, redeemCtx, now); err != nil {
		return Effect{}, err
	}

	rc.Active = false
	rc.UsedBy = redeemerIdentity
	rc.UsedAt = &now
	return rc.Effect, nil
}

// Put seeds a code directly; test helper.
func (r *MemoryRegistry) Put(rc *RedeemableCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *rc
	r.codes[rc.Code] = &clone
}
