package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
)

func writeSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(contracts.SuccessResponse{Status: "success", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, statusCode int, code, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(contracts.ErrorResponse{
		Status: "error",
		Error:  contracts.ErrorPayload{Code: code, Message: message, RequestID: requestID},
	})
}

// mapDomainError converts domain sentinels into HTTP status codes plus stable
// machine-readable error codes.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidGoal):
		return http.StatusBadRequest, "invalid_goal"
	case errors.Is(err, domain.ErrInvalidDeadline):
		return http.StatusBadRequest, "invalid_deadline"
	case errors.Is(err, domain.ErrZeroContribution):
		return http.StatusBadRequest, "zero_contribution"
	case errors.Is(err, domain.ErrCampaignNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "campaign_not_found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, domain.ErrDeadlinePassed):
		return http.StatusConflict, "deadline_passed"
	case errors.Is(err, domain.ErrDeadlineNotReached):
		return http.StatusConflict, "deadline_not_reached"
	case errors.Is(err, domain.ErrCampaignCancelled):
		return http.StatusConflict, "campaign_cancelled"
	case errors.Is(err, domain.ErrAlreadyWithdrawn):
		return http.StatusConflict, "already_withdrawn"
	case errors.Is(err, domain.ErrGoalNotReached):
		return http.StatusConflict, "goal_not_reached"
	case errors.Is(err, domain.ErrCampaignWasSuccessful):
		return http.StatusConflict, "campaign_was_successful"
	case errors.Is(err, domain.ErrNothingToRefund):
		return http.StatusConflict, "nothing_to_refund"
	case errors.Is(err, domain.ErrReentrantCall):
		return http.StatusConflict, "reentrant_call"
	case errors.Is(err, domain.ErrTransferFailed):
		return http.StatusBadGateway, "transfer_failed"
	case errors.Is(err, domain.ErrRefundFailed):
		return http.StatusBadGateway, "refund_failed"
	case errors.Is(err, domain.ErrIdempotencyRequired):
		return http.StatusBadRequest, "idempotency_required"
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict, "idempotency_conflict"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
