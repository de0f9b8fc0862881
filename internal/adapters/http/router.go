package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(handler *Handler, jwtSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready", nil) })
	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(jwtSecret))
			r.Post("/campaigns", handler.createCampaign)
			r.Get("/campaigns", handler.listCampaigns)
			r.Get("/campaigns/{campaignID}", handler.campaignDetails)
			r.Get("/campaigns/{campaignID}/state", handler.campaignState)
			r.Get("/campaigns/{campaignID}/contributions/{contributor}", handler.contribution)
			r.Post("/campaigns/{campaignID}/contributions", handler.contribute)
			r.Post("/campaigns/{campaignID}/withdrawal", handler.withdrawFunds)
			r.Post("/campaigns/{campaignID}/refund", handler.claimRefund)
			r.Post("/campaigns/{campaignID}/cancellation", handler.cancelCampaign)
			r.Get("/ledger/stats", handler.ledgerStats)
		})
	})
	return r
}
