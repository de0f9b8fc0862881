package domain

import "errors"

// Validation errors: caller input malformed, never retryable with the same input.
var (
	ErrInvalidGoal      = errors.New("goal must be positive")
	ErrInvalidDeadline  = errors.New("deadline must be in the future")
	ErrZeroContribution = errors.New("contribution must be positive")
)

// State-precondition errors: the caller must wait for or react to a state change.
var (
	ErrCampaignNotFound      = errors.New("campaign not found")
	ErrDeadlinePassed        = errors.New("campaign deadline has passed")
	ErrDeadlineNotReached    = errors.New("campaign deadline not reached")
	ErrCampaignCancelled     = errors.New("campaign cancelled")
	ErrAlreadyWithdrawn      = errors.New("funds already withdrawn")
	ErrGoalNotReached        = errors.New("campaign goal not reached")
	ErrCampaignWasSuccessful = errors.New("campaign not eligible for refunds")
	ErrNothingToRefund       = errors.New("nothing to refund")
)

// Authorization and transfer errors. Transfer errors guarantee full rollback:
// ledger state is exactly as it was before the call.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTransferFailed = errors.New("transfer to creator failed")
	ErrRefundFailed   = errors.New("refund transfer failed")
	ErrReentrantCall  = errors.New("reentrant call rejected")
)

// Infrastructure errors shared with adapters.
var (
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrInvalidInput          = errors.New("invalid input")
	ErrIdempotencyRequired   = errors.New("idempotency key required")
	ErrIdempotencyConflict   = errors.New("idempotency conflict")
	ErrInvalidEnvelope       = errors.New("invalid envelope")
	ErrUnsupportedEventType  = errors.New("unsupported event type")
	ErrUnsupportedEventClass = errors.New("unsupported event class")
)
