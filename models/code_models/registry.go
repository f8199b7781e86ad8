package code_models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cate-nduta/Lash-Business-sub009/logger"
)

const issueMaxAttempts = 10

// Registry is the durable store for referral and prize codes. Redeem is the
// only mutating call and must be atomic with its validation; a separate
// validate-then-redeem round trip would open a double-redemption window.
type Registry interface {
	Issue(ctx context.Context, ownerIdentity string, codeType CodeType, effect Effect, ttl time.Duration) (*RedeemableCode, error)
	Get(ctx context.Context, code string) (*RedeemableCode, error)
	Validate(ctx context.Context, code, redeemerIdentity string, redeemCtx RedeemContext) error
	Redeem(ctx context.Context, code, redeemerIdentity string, redeemCtx RedeemContext) (Effect, error)
}

// PostgresRegistry keeps codes in a table keyed by the code value. The
// redeem path is a single conditional UPDATE so two concurrent redemptions
// of the same code can never both succeed.
type PostgresRegistry struct {
	db *pgxpool.Pool
}

func NewPostgresRegistry(db *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

func (r *PostgresRegistry) Issue(ctx context.Context, ownerIdentity string, codeType CodeType, effect Effect, ttl time.Duration) (*RedeemableCode, error) {
	for attempt := 1; attempt <= issueMaxAttempts; attempt++ {
		rc, err := NewCode(ownerIdentity, codeType, effect, ttl)
		if err != nil {
			return nil, err
		}

		effectJSON, err := json.Marshal(rc.Effect)
		if err != nil {
			return nil, fmt.Errorf("marshal effect: %w", err)
		}

		_, err = r.db.Exec(ctx, `
			INSERT INTO redeemable_codes (code, owner_identity, type, effect, created_at, expires_at, active)
			VALUES ($1, $2, $3, $4, $5, $6, true)`,
			rc.Code, rc.OwnerIdentity, rc.Type, effectJSON, rc.CreatedAt, rc.ExpiresAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				logger.WarnLogger.Warnf("Code collision on attempt %d/%d, regenerating", attempt, issueMaxAttempts)
				continue
			}
			logger.ErrorLogger.Errorf("Failed to insert code for %s: %v", ownerIdentity, err)
			return nil, fmt.Errorf("failed to store code: %w", err)
		}

		logger.InfoLogger.Infof("Issued %s code %s to %s", rc.Type, rc.Code, rc.OwnerIdentity)
		return rc, nil
	}
	return nil, ErrCodeGenerationExhausted
}

func (r *PostgresRegistry) Get(ctx context.Context, code string) (*RedeemableCode, error) {
	rc := &RedeemableCode{}
	var effectJSON []byte
	err := r.db.QueryRow(ctx, `
		SELECT code, owner_identity, type, effect, created_at, expires_at, used_by, used_at, active
		FROM redeemable_codes WHERE code = $1`,
		NormalizeCode(code),
	).Scan(&rc.Code, &rc.OwnerIdentity, &rc.Type, &effectJSON, &rc.CreatedAt, &rc.ExpiresAt, &rc.UsedBy, &rc.UsedAt, &rc.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("database error fetching code: %w", err)
	}
	if err := json.Unmarshal(effectJSON, &rc.Effect); err != nil {
		return nil, fmt.Errorf("unmarshal effect: %w", err)
	}
	return rc, nil
}

// Validate is the read-only preflight used by checkout UIs. A passing
// result is advisory only; Redeem re-checks atomically.
func (r *PostgresRegistry) Validate(ctx context.Context, code, redeemerIdentity string, redeemCtx RedeemContext) error {
	rc, err := r.Get(ctx, code)
	if err != nil {
		return err
	}
	return rc.CheckRedeemable(redeemerIdentity, redeemCtx, time.Now())
}

// Redeem marks the code used in one conditional UPDATE. When the UPDATE
// matches no row, the current record is fetched to report the precise
// reason; a concurrent winner shows up here as ErrAlreadyUsed.
func (r *PostgresRegistry) Redeem(ctx context.Context, code, redeemerIdentity string, redeemCtx RedeemContext) (Effect, error) {
	normalized := NormalizeCode(code)

	// Cheap preflight so self-use and wrong-context report before any write.
	rc, err := r.Get(ctx, normalized)
	if err != nil {
		return Effect{}, err
	}
	if err := rc.CheckRedeemable(redeemerIdentity, redeemCtx, time.Now()); err != nil {
		return Effect{}, err
	}

	now := time.Now()
	tag, err := r.db.Exec(ctx, `
		UPDATE redeemable_codes
		SET active = false, used_by = $2, used_at = $3
		WHERE code = $1
		  AND active
		  AND used_by = ''
		  AND (expires_at IS NULL OR expires_at >= $3)`,
		normalized, redeemerIdentity, now,
	)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to redeem code %s: %v", normalized, err)
		return Effect{}, fmt.Errorf("failed to redeem code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the race, or expired between preflight and write.
		current, getErr := r.Get(ctx, normalized)
		if getErr != nil {
			return Effect{}, getErr
		}
		if checkErr := current.CheckRedeemable(redeemerIdentity, redeemCtx, time.Now()); checkErr != nil {
			return Effect{}, checkErr
		}
		return Effect{}, ErrAlreadyUsed
	}

	logger.InfoLogger.Infof("Code %s redeemed by %s", normalized, redeemerIdentity)
	return rc.Effect, nil
}
