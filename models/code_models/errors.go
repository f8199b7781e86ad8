package code_models

import "errors"

var (
	// ErrCodeNotFound means no code with that value exists.
	ErrCodeNotFound = errors.New("code not found")

	// ErrCodeInactive means the code was deactivated.
	ErrCodeInactive = errors.New("code is no longer active")

	// ErrCodeExpired means the code's expiry passed before redemption.
	ErrCodeExpired = errors.New("code has expired")

	// ErrWrongContext means the code was minted for a different flow, e.g.
	// a consultation code presented at checkout.
	ErrWrongContext = errors.New("code cannot be used in this context")

	// ErrSelfUse means a referral code was presented by its own owner.
	ErrSelfUse = errors.New("referral codes cannot be redeemed by their owner")

	// ErrAlreadyUsed means the code's single use was already spent.
	ErrAlreadyUsed = errors.New("code has already been used")

	// ErrCodeGenerationExhausted means the registry could not mint a unique
	// code within the attempt budget. Retriable by the caller with backoff.
	ErrCodeGenerationExhausted = errors.New("could not generate a unique code")
)
