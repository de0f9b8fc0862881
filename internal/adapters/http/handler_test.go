package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	httpadapter "github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/application"
)

func newServer(jwtSecret string) http.Handler {
	repos := memory.NewRepositories()
	svc := application.NewService(application.Dependencies{
		Campaigns:     repos.Campaigns,
		Contributions: repos.Contributions,
		Fees:          repos.Fees,
		Idempotency:   repos.Idempotency,
		Outbox:        repos.Outbox,
		Transfers:     memory.NewSettlementGateway(),
		Locks:         memory.NewCampaignLocker(),
	})
	return httpadapter.NewRouter(httpadapter.NewHandler(svc), jwtSecret)
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer, idemKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if envelope.Status != "success" {
		t.Fatalf("status = %s, body %s", envelope.Status, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, rec.Body.String())
	}
	return envelope.Error.Code
}

func TestCampaignLifecycleOverHTTP(t *testing.T) {
	router := newServer("")
	deadline := time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339)

	rec := doJSON(t, router, http.MethodPost, "/v1/campaigns", "user_creator", "idem_1", map[string]any{
		"title":    "Album pressing",
		"goal":     5_000_000,
		"deadline": deadline,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		CampaignID int64  `json:"campaign_id"`
		State      string `json:"state"`
	}
	decodeData(t, rec, &created)
	if created.CampaignID != 0 || created.State != "active" {
		t.Fatalf("created = %+v", created)
	}

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/campaigns/%d/contributions", created.CampaignID), "user_backer", "idem_2", map[string]any{"amount": 1_000_000})
	if rec.Code != http.StatusOK {
		t.Fatalf("contribute status = %d, body %s", rec.Code, rec.Body.String())
	}
	var contribution struct {
		TotalRaised int64 `json:"total_raised"`
	}
	decodeData(t, rec, &contribution)
	if contribution.TotalRaised != 1_000_000 {
		t.Fatalf("total raised = %d", contribution.TotalRaised)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/campaigns/%d", created.CampaignID), "user_anyone", "", nil)
	var details struct {
		AmountRaised int64 `json:"amount_raised"`
		GoalReached  bool  `json:"goal_reached"`
	}
	decodeData(t, rec, &details)
	if details.AmountRaised != 1_000_000 || details.GoalReached {
		t.Fatalf("details = %+v", details)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/campaigns/%d/contributions/user_backer", created.CampaignID), "user_anyone", "", nil)
	var entry struct {
		Amount int64 `json:"amount"`
	}
	decodeData(t, rec, &entry)
	if entry.Amount != 1_000_000 {
		t.Fatalf("entry = %d", entry.Amount)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/ledger/stats", "user_anyone", "", nil)
	var stats struct {
		TotalCampaigns int64 `json:"total_campaigns"`
	}
	decodeData(t, rec, &stats)
	if stats.TotalCampaigns != 1 {
		t.Fatalf("total campaigns = %d", stats.TotalCampaigns)
	}
}

func TestErrorMapping(t *testing.T) {
	router := newServer("")
	deadline := time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339)

	rec := doJSON(t, router, http.MethodPost, "/v1/campaigns", "", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no bearer: status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/campaigns", "user_1", "idem_1", map[string]any{"title": "x", "goal": 0, "deadline": deadline})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_goal" {
		t.Fatalf("zero goal: status = %d code = %s", rec.Code, errorCode(t, rec))
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/campaigns", "user_1", "idem_2", map[string]any{"title": "x", "goal": 10, "deadline": "not-a-date"})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_deadline" {
		t.Fatalf("bad deadline: status = %d code = %s", rec.Code, errorCode(t, rec))
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/campaigns/404", "user_1", "", nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "campaign_not_found" {
		t.Fatalf("unknown campaign: status = %d code = %s", rec.Code, errorCode(t, rec))
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/campaigns", "user_1", "idem_3", map[string]any{"title": "x", "goal": 10, "deadline": deadline})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/campaigns/0/withdrawal", "user_1", "", nil)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "deadline_not_reached" {
		t.Fatalf("early withdrawal: status = %d code = %s", rec.Code, errorCode(t, rec))
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/campaigns/0/cancellation", "user_other", "", nil)
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != "unauthorized" {
		t.Fatalf("foreign cancel: status = %d code = %s", rec.Code, errorCode(t, rec))
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/campaigns/abc/refund", "user_1", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id: status = %d", rec.Code)
	}
}

func TestJWTAuth(t *testing.T) {
	const secret = "test-secret"
	router := newServer(secret)
	deadline := time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_jwt",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rec := doJSON(t, router, http.MethodPost, "/v1/campaigns", token, "idem_1", map[string]any{"title": "x", "goal": 10, "deadline": deadline})
	if rec.Code != http.StatusCreated {
		t.Fatalf("valid token: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Creator string `json:"creator"`
	}
	decodeData(t, rec, &created)
	if created.Creator != "user_jwt" {
		t.Fatalf("creator = %s, want subject claim", created.Creator)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/campaigns", "garbage-token", "idem_2", map[string]any{"title": "x", "goal": 10, "deadline": deadline})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d", rec.Code)
	}
}
