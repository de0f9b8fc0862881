package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc     *application.Service
	repos   *memory.Repositories
	gateway *memory.SettlementGateway
	clock   *testClock
	idemSeq int
}

func newFixture() *fixture {
	f := &fixture{
		repos:   memory.NewRepositories(),
		gateway: memory.NewSettlementGateway(),
		clock:   &testClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.svc = application.NewService(application.Dependencies{
		Config:        application.Config{FeeRecipient: "acct_platform_treasury"},
		Campaigns:     f.repos.Campaigns,
		Contributions: f.repos.Contributions,
		Fees:          f.repos.Fees,
		Idempotency:   f.repos.Idempotency,
		Outbox:        f.repos.Outbox,
		Transfers:     f.gateway,
		Locks:         memory.NewCampaignLocker(),
		NowFn:         f.clock.Now,
	})
	return f
}

func (f *fixture) actor(subject string) application.Actor {
	f.idemSeq++
	return application.Actor{
		SubjectID:      subject,
		Role:           "member",
		RequestID:      fmt.Sprintf("req_%d", f.idemSeq),
		IdempotencyKey: fmt.Sprintf("idem_%d", f.idemSeq),
	}
}

func (f *fixture) createCampaign(t *testing.T, creator string, goal int64, ttl time.Duration) domain.Campaign {
	t.Helper()
	campaign, err := f.svc.CreateCampaign(context.Background(), f.actor(creator), application.CreateCampaignInput{
		Title:    "Creator fund",
		Goal:     goal,
		Deadline: f.clock.Now().Add(ttl),
	})
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}
	return campaign
}

func (f *fixture) contribute(t *testing.T, contributor string, campaignID, amount int64) application.ContributionResult {
	t.Helper()
	result, err := f.svc.Contribute(context.Background(), f.actor(contributor), application.ContributeInput{CampaignID: campaignID, Amount: amount})
	if err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	return result
}

func TestCreateCampaignAssignsSequentialIDs(t *testing.T) {
	f := newFixture()
	for i := int64(0); i < 3; i++ {
		campaign := f.createCampaign(t, fmt.Sprintf("user_%d", i), 1000, 72*time.Hour)
		if campaign.ID != i {
			t.Fatalf("campaign %d assigned id %d", i, campaign.ID)
		}
	}
	total, err := f.svc.GetTotalCampaigns(context.Background())
	if err != nil || total != 3 {
		t.Fatalf("GetTotalCampaigns = %d, %v", total, err)
	}
	ids, err := f.svc.GetAllCampaignIDs(context.Background())
	if err != nil || len(ids) != 3 || ids[0] != 0 || ids[2] != 2 {
		t.Fatalf("GetAllCampaignIDs = %v, %v", ids, err)
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	valid := application.CreateCampaignInput{Title: "x", Goal: 100, Deadline: f.clock.Now().Add(time.Hour)}

	if _, err := f.svc.CreateCampaign(ctx, application.Actor{IdempotencyKey: "k"}, valid); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("missing subject: got %v", err)
	}
	if _, err := f.svc.CreateCampaign(ctx, application.Actor{SubjectID: "user_1"}, valid); !errors.Is(err, domain.ErrIdempotencyRequired) {
		t.Fatalf("missing idempotency key: got %v", err)
	}
	if _, err := f.svc.CreateCampaign(ctx, f.actor("user_1"), application.CreateCampaignInput{Goal: 0, Deadline: valid.Deadline}); !errors.Is(err, domain.ErrInvalidGoal) {
		t.Fatalf("zero goal: got %v", err)
	}
	if _, err := f.svc.CreateCampaign(ctx, f.actor("user_1"), application.CreateCampaignInput{Goal: -5, Deadline: valid.Deadline}); !errors.Is(err, domain.ErrInvalidGoal) {
		t.Fatalf("negative goal: got %v", err)
	}
	if _, err := f.svc.CreateCampaign(ctx, f.actor("user_1"), application.CreateCampaignInput{Goal: 100, Deadline: f.clock.Now()}); !errors.Is(err, domain.ErrInvalidDeadline) {
		t.Fatalf("deadline at now: got %v", err)
	}
	if _, err := f.svc.CreateCampaign(ctx, f.actor("user_1"), application.CreateCampaignInput{Goal: 100, Deadline: f.clock.Now().Add(-time.Hour)}); !errors.Is(err, domain.ErrInvalidDeadline) {
		t.Fatalf("deadline in past: got %v", err)
	}
}

func TestCreateCampaignIdempotentReplay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	actor := application.Actor{SubjectID: "user_1", IdempotencyKey: "idem_create"}
	input := application.CreateCampaignInput{Title: "x", Goal: 100, Deadline: f.clock.Now().Add(time.Hour)}

	first, err := f.svc.CreateCampaign(ctx, actor, input)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := f.svc.CreateCampaign(ctx, actor, input)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("replay created a new campaign: %d vs %d", first.ID, second.ID)
	}
	total, _ := f.svc.GetTotalCampaigns(ctx)
	if total != 1 {
		t.Fatalf("replay must not create a second campaign, total = %d", total)
	}

	input.Goal = 999
	if _, err := f.svc.CreateCampaign(ctx, actor, input); !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("same key with different payload: got %v", err)
	}
}

func TestContributeAccumulates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	campaign := f.createCampaign(t, "user_creator", 5_000_000, 72*time.Hour)

	first := f.contribute(t, "user_a", campaign.ID, 1_000_000)
	if first.NewTotalRaised != 1_000_000 {
		t.Fatalf("first total = %d", first.NewTotalRaised)
	}
	second := f.contribute(t, "user_a", campaign.ID, 500_000)
	if second.NewTotalRaised != 1_500_000 {
		t.Fatalf("second total = %d", second.NewTotalRaised)
	}
	f.contribute(t, "user_b", campaign.ID, 2_000_000)

	entry, err := f.svc.GetContribution(ctx, campaign.ID, "user_a")
	if err != nil || entry != 1_500_000 {
		t.Fatalf("user_a entry = %d, %v", entry, err)
	}
	stored, err := f.svc.GetCampaignDetails(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("GetCampaignDetails: %v", err)
	}
	if stored.AmountRaised != 3_500_000 {
		t.Fatalf("amount raised = %d", stored.AmountRaised)
	}

	rows, err := f.repos.Contributions.ListByCampaignID(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("ListByCampaignID: %v", err)
	}
	var sum int64
	for _, row := range rows {
		sum += row.Amount
	}
	if sum != stored.AmountRaised {
		t.Fatalf("ledger out of balance: entries sum %d, amount raised %d", sum, stored.AmountRaised)
	}
}

func TestContributeRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	campaign := f.createCampaign(t, "user_creator", 1000, time.Hour)

	if _, err := f.svc.Contribute(ctx, f.actor("user_a"), application.ContributeInput{CampaignID: 404, Amount: 10}); !errors.Is(err, domain.ErrCampaignNotFound) {
		t.Fatalf("unknown campaign: got %v", err)
	}
	if _, err := f.svc.Contribute(ctx, f.actor("user_a"), application.ContributeInput{CampaignID: campaign.ID, Amount: 0}); !errors.Is(err, domain.ErrZeroContribution) {
		t.Fatalf("zero amount: got %v", err)
	}
	if _, err := f.svc.Contribute(ctx, f.actor("user_a"), application.ContributeInput{CampaignID: campaign.ID, Amount: -10}); !errors.Is(err, domain.ErrZeroContribution) {
		t.Fatalf("negative amount: got %v", err)
	}

	// A contribution at the deadline instant is already late.
	f.clock.Advance(time.Hour)
	if _, err := f.svc.Contribute(ctx, f.actor("user_a"), application.ContributeInput{CampaignID: campaign.ID, Amount: 10}); !errors.Is(err, domain.ErrDeadlinePassed) {
		t.Fatalf("at deadline: got %v", err)
	}
}

func TestContributeToCancelledCampaignRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	campaign := f.createCampaign(t, "user_creator", 1000, time.Hour)
	if _, err := f.svc.CancelCampaign(ctx, f.actor("user_creator"), campaign.ID); err != nil {
		t.Fatalf("CancelCampaign: %v", err)
	}
	if _, err := f.svc.Contribute(ctx, f.actor("user_a"), application.ContributeInput{CampaignID: campaign.ID, Amount: 10}); !errors.Is(err, domain.ErrCampaignCancelled) {
		t.Fatalf("cancelled campaign: got %v", err)
	}
}

func TestGetStateDerivedFromClock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	campaign := f.createCampaign(t, "user_creator", 1000, time.Hour)
	f.contribute(t, "user_a", campaign.ID, 1000)

	state, err := f.svc.GetState(ctx, campaign.ID)
	if err != nil || state != domain.StateActive {
		t.Fatalf("before deadline: %s, %v", state, err)
	}
	remaining, err := f.svc.GetTimeRemaining(ctx, campaign.ID)
	if err != nil || remaining != time.Hour {
		t.Fatalf("time remaining = %s, %v", remaining, err)
	}
	reached, err := f.svc.IsGoalReached(ctx, campaign.ID)
	if err != nil || !reached {
		t.Fatalf("goal reached = %v, %v", reached, err)
	}

	// Same stored facts, later clock: the derived state flips with no write.
	f.clock.Advance(time.Hour)
	state, err = f.svc.GetState(ctx, campaign.ID)
	if err != nil || state != domain.StateSuccessful {
		t.Fatalf("after deadline: %s, %v", state, err)
	}
	remaining, err = f.svc.GetTimeRemaining(ctx, campaign.ID)
	if err != nil || remaining != 0 {
		t.Fatalf("time remaining after deadline = %s, %v", remaining, err)
	}

	if _, err := f.svc.GetState(ctx, 404); !errors.Is(err, domain.ErrCampaignNotFound) {
		t.Fatalf("unknown campaign: got %v", err)
	}
}

func TestOutboxEventsEnqueued(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	campaign := f.createCampaign(t, "user_creator", 1000, time.Hour)
	f.contribute(t, "user_a", campaign.ID, 400)
	if _, err := f.svc.CancelCampaign(ctx, f.actor("user_creator"), campaign.ID); err != nil {
		t.Fatalf("CancelCampaign: %v", err)
	}

	pending, err := f.repos.Outbox.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending events, got %d", len(pending))
	}
	wantTypes := []string{domain.EventCampaignCreated, domain.EventContributionMade, domain.EventCampaignCancelled}
	for i, rec := range pending {
		if rec.Envelope.EventType != wantTypes[i] {
			t.Fatalf("event %d type = %s, want %s", i, rec.Envelope.EventType, wantTypes[i])
		}
		if rec.Envelope.PartitionKey != fmt.Sprintf("%d", campaign.ID) {
			t.Fatalf("event %d partition key = %s", i, rec.Envelope.PartitionKey)
		}
		if rec.EventClass != domain.CanonicalEventClass(rec.Envelope.EventType) {
			t.Fatalf("event %d class = %s", i, rec.EventClass)
		}
	}
}
