package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

type CampaignCreatedPayload struct {
	CampaignID int64  `json:"campaign_id"`
	Creator    string `json:"creator"`
	Title      string `json:"title"`
	Goal       int64  `json:"goal"`
	Deadline   string `json:"deadline"`
}

type ContributionMadePayload struct {
	CampaignID  int64  `json:"campaign_id"`
	Contributor string `json:"contributor"`
	Amount      int64  `json:"amount"`
	TotalRaised int64  `json:"total_raised"`
	MadeAt      string `json:"made_at"`
}

type FundsWithdrawnPayload struct {
	CampaignID    int64  `json:"campaign_id"`
	Creator       string `json:"creator"`
	CreatorAmount int64  `json:"creator_amount"`
	PlatformFee   int64  `json:"platform_fee"`
	WithdrawnAt   string `json:"withdrawn_at"`
}

type RefundClaimedPayload struct {
	CampaignID  int64  `json:"campaign_id"`
	Contributor string `json:"contributor"`
	Amount      int64  `json:"amount"`
	RefundedAt  string `json:"refunded_at"`
}

type CampaignCancelledPayload struct {
	CampaignID  int64  `json:"campaign_id"`
	Creator     string `json:"creator"`
	CancelledAt string `json:"cancelled_at"`
}
