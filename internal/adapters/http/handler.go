package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/contracts"
)

type Handler struct{ service *application.Service }

func NewHandler(service *application.Service) *Handler { return &Handler{service: service} }

func (h *Handler) createCampaign(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Deadline))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_deadline", "deadline must be RFC3339", requestIDFromContext(r.Context()))
		return
	}
	actor := actorFromContext(r.Context())
	campaign, err := h.service.CreateCampaign(r.Context(), actor, application.CreateCampaignInput{
		Title:       req.Title,
		Description: req.Description,
		Goal:        req.Goal,
		Deadline:    deadline,
	})
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "campaign created", toCampaignResponse(h.service.View(campaign)))
}

func (h *Handler) contribute(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	var req contracts.ContributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	actor := actorFromContext(r.Context())
	result, err := h.service.Contribute(r.Context(), actor, application.ContributeInput{CampaignID: campaignID, Amount: req.Amount})
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "contribution recorded", contracts.ContributionResponse{
		CampaignID:  result.CampaignID,
		Contributor: result.Contributor,
		Amount:      result.Amount,
		TotalRaised: result.NewTotalRaised,
	})
}

func (h *Handler) withdrawFunds(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	actor := actorFromContext(r.Context())
	result, err := h.service.WithdrawFunds(r.Context(), actor, campaignID)
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "withdrawal processed", contracts.WithdrawalResponse{
		CampaignID:    result.CampaignID,
		Creator:       result.Creator,
		CreatorAmount: result.CreatorAmount,
		PlatformFee:   result.PlatformFee,
		EventDelivery: "pending",
	})
}

func (h *Handler) claimRefund(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	actor := actorFromContext(r.Context())
	result, err := h.service.ClaimRefund(r.Context(), actor, campaignID)
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "refund processed", contracts.RefundResponse{
		CampaignID:    result.CampaignID,
		Contributor:   result.Contributor,
		Amount:        result.Amount,
		EventDelivery: "pending",
	})
}

func (h *Handler) cancelCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	actor := actorFromContext(r.Context())
	campaign, err := h.service.CancelCampaign(r.Context(), actor, campaignID)
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "campaign cancelled", toCampaignResponse(h.service.View(campaign)))
}

func (h *Handler) campaignDetails(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	campaign, err := h.service.GetCampaignDetails(r.Context(), campaignID)
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "campaign details", toCampaignResponse(h.service.View(campaign)))
}

func (h *Handler) campaignState(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	state, err := h.service.GetState(r.Context(), campaignID)
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "campaign state", map[string]any{"campaign_id": campaignID, "state": string(state)})
}

func (h *Handler) contribution(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	contributor := strings.TrimSpace(chi.URLParam(r, "contributor"))
	amount, err := h.service.GetContribution(r.Context(), campaignID, contributor)
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "contribution", contracts.ContributionResponse{
		CampaignID:  campaignID,
		Contributor: contributor,
		Amount:      amount,
	})
}

func (h *Handler) listCampaigns(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.GetAllCampaignIDs(r.Context())
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "campaigns", contracts.CampaignListResponse{CampaignIDs: ids, Total: int64(len(ids))})
}

func (h *Handler) ledgerStats(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.GetTotalCampaigns(r.Context())
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	feePool, err := h.service.GetPlatformFeePool(r.Context())
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "ledger stats", contracts.LedgerStatsResponse{TotalCampaigns: total, PlatformFeePool: feePool})
}

func campaignIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "campaignID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, "invalid_input", "campaign id must be a non-negative integer", requestIDFromContext(r.Context()))
		return 0, false
	}
	return id, true
}

func toCampaignResponse(view application.CampaignView) contracts.CampaignResponse {
	c := view.Campaign
	return contracts.CampaignResponse{
		CampaignID:    c.ID,
		Creator:       c.Creator,
		Title:         c.Title,
		Description:   c.Description,
		Goal:          c.Goal,
		Deadline:      c.Deadline.UTC().Format(time.RFC3339),
		AmountRaised:  c.AmountRaised,
		State:         string(view.State),
		GoalReached:   view.GoalReached,
		TimeRemaining: int64(view.TimeRemaining.Seconds()),
	}
}
