package code_models

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	t.Run("Shape", func(t *testing.T) {
		rc, err := NewCode("owner@example.com", CodeTypePrize, Effect{Kind: EffectPercentDiscount, Percent: 10}, 0)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(rc.Code, "LASH-"))
		assert.Len(t, rc.Code, len("LASH-")+8)
		assert.True(t, rc.Active)
		assert.Nil(t, rc.ExpiresAt)
		// unambiguous alphabet only
		for _, ch := range rc.Code[len("LASH-"):] {
			assert.Contains(t, codeAlphabet, string(ch))
		}
	})

	t.Run("TTLSetsExpiry", func(t *testing.T) {
		rc, err := NewCode("owner@example.com", CodeTypeReferral, Effect{Kind: EffectPercentDiscount, Percent: 5}, 30*24*time.Hour)
		require.NoError(t, err)
		require.NotNil(t, rc.ExpiresAt)
		assert.True(t, rc.ExpiresAt.After(time.Now().Add(29*24*time.Hour)))
	})

	t.Run("RejectsUnknownType", func(t *testing.T) {
		_, err := NewCode("owner@example.com", CodeType("golden"), Effect{}, 0)
		assert.Error(t, err)
	})

	t.Run("RejectsMalformedEffect", func(t *testing.T) {
		// a single-use code minted around a bad effect strands its holder
		_, err := NewCode("owner@example.com", CodeTypePrize, Effect{Kind: EffectPercentDiscount, Percent: 150}, 0)
		assert.Error(t, err)
		_, err = NewCode("owner@example.com", CodeTypePrize, Effect{Kind: EffectPercentDiscount, Percent: 0}, 0)
		assert.Error(t, err)
		_, err = NewCode("owner@example.com", CodeTypePrize, Effect{Kind: EffectPercentDiscount, Percent: -5}, 0)
		assert.Error(t, err)
		_, err = NewCode("owner@example.com", CodeTypePrize, Effect{Kind: EffectFreeItem}, 0)
		assert.Error(t, err)
		_, err = NewCode("owner@example.com", CodeTypePrize, Effect{Kind: EffectKind("mystery")}, 0)
		assert.Error(t, err)
	})

	t.Run("FreeConsultationNeedsNothingElse", func(t *testing.T) {
		_, err := NewCode("owner@example.com", CodeTypePrize, Effect{Kind: EffectFreeConsultation}, 0)
		assert.NoError(t, err)
	})
}

func TestCheckRedeemable(t *testing.T) {
	now := time.Now()
	base := func() *RedeemableCode {
		return &RedeemableCode{
			Code:          "LASH-TESTCODE",
			OwnerIdentity: "alice@example.com",
			Type:          CodeTypeReferral,
			Effect:        Effect{Kind: EffectPercentDiscount, Percent: 10},
			CreatedAt:     now,
			Active:        true,
		}
	}

	t.Run("Redeemable", func(t *testing.T) {
		assert.NoError(t, base().CheckRedeemable("bob@example.com", ContextCheckout, now))
	})

	t.Run("InactiveWins", func(t *testing.T) {
		rc := base()
		rc.Active = false
		rc.UsedBy = "someone@example.com" // inactive reported before prior use
		assert.ErrorIs(t, rc.CheckRedeemable("bob@example.com", ContextCheckout, now), ErrCodeInactive)
	})

	t.Run("Expired", func(t *testing.T) {
		rc := base()
		past := now.Add(-time.Hour)
		rc.ExpiresAt = &past
		assert.ErrorIs(t, rc.CheckRedeemable("bob@example.com", ContextCheckout, now), ErrCodeExpired)
	})

	t.Run("WrongContext", func(t *testing.T) {
		rc := base()
		assert.ErrorIs(t, rc.CheckRedeemable("bob@example.com", ContextConsultation, now), ErrWrongContext)

		consult := base()
		consult.Effect = Effect{Kind: EffectFreeConsultation}
		assert.ErrorIs(t, consult.CheckRedeemable("bob@example.com", ContextCheckout, now), ErrWrongContext)
		assert.NoError(t, consult.CheckRedeemable("bob@example.com", ContextConsultation, now))
	})

	t.Run("ReferralSelfUse", func(t *testing.T) {
		rc := base()
		assert.ErrorIs(t, rc.CheckRedeemable("alice@example.com", ContextCheckout, now), ErrSelfUse)
		// case and whitespace do not evade the check
		assert.ErrorIs(t, rc.CheckRedeemable("  ALICE@Example.com ", ContextCheckout, now), ErrSelfUse)
	})

	t.Run("PrizeSelfUseAllowed", func(t *testing.T) {
		rc := base()
		rc.Type = CodeTypePrize
		assert.NoError(t, rc.CheckRedeemable("alice@example.com", ContextCheckout, now))
	})

	t.Run("AlreadyUsed", func(t *testing.T) {
		rc := base()
		rc.UsedBy = "carol@example.com"
		assert.ErrorIs(t, rc.CheckRedeemable("bob@example.com", ContextCheckout, now), ErrAlreadyUsed)
	})
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "LASH-ABCD2345", NormalizeCode("  lash-abcd2345 "))
}

func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("IssueGetRedeem", func(t *testing.T) {
		r := NewMemoryRegistry()
		rc, err := r.Issue(ctx, "alice@example.com", CodeTypeReferral, Effect{Kind: EffectPercentDiscount, Percent: 10}, 0)
		require.NoError(t, err)

		require.NoError(t, r.Validate(ctx, rc.Code, "bob@example.com", ContextCheckout))

		effect, err := r.Redeem(ctx, rc.Code, "bob@example.com", ContextCheckout)
		require.NoError(t, err)
		assert.Equal(t, 10, effect.Percent)

		got, err := r.Get(ctx, rc.Code)
		require.NoError(t, err)
		assert.False(t, got.Active)
		assert.Equal(t, "bob@example.com", got.UsedBy)
		require.NotNil(t, got.UsedAt)
	})

	t.Run("UnknownCode", func(t *testing.T) {
		r := NewMemoryRegistry()
		err := r.Validate(ctx, "LASH-MISSING2", "bob@example.com", ContextCheckout)
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("SingleUseUnderContention", func(t *testing.T) {
		r := NewMemoryRegistry()
		rc, err := r.Issue(ctx, "alice@example.com", CodeTypePrize, Effect{Kind: EffectPercentDiscount, Percent: 15}, 0)
		require.NoError(t, err)

		const attempts = 50
		var wg sync.WaitGroup
		results := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = r.Redeem(ctx, rc.Code, "bob@example.com", ContextCheckout)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range results {
			if err == nil {
				succeeded++
			}
		}
		assert.Equal(t, 1, succeeded, "a code redeems exactly once")

		// No reactivation afterwards
		got, err := r.Get(ctx, rc.Code)
		require.NoError(t, err)
		assert.False(t, got.Active)
	})
}
