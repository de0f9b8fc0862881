package postgres

import "time"

type campaignModel struct {
	CampaignID   int64     `gorm:"column:campaign_id;primaryKey"`
	Creator      string    `gorm:"column:creator"`
	Title        string    `gorm:"column:title"`
	Description  string    `gorm:"column:description"`
	Goal         int64     `gorm:"column:goal"`
	Deadline     time.Time `gorm:"column:deadline"`
	AmountRaised int64     `gorm:"column:amount_raised"`
	Withdrawn    bool      `gorm:"column:withdrawn"`
	Cancelled    bool      `gorm:"column:cancelled"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (campaignModel) TableName() string { return "campaigns" }

// counterModel backs dense sequential campaign id allocation. A BIGSERIAL is
// not used because ids must start at 0 and stay gapless even across failed
// inserts.
type counterModel struct {
	Name      string `gorm:"column:name;primaryKey"`
	NextValue int64  `gorm:"column:next_value"`
}

func (counterModel) TableName() string { return "ledger_counters" }

type contributionModel struct {
	CampaignID  int64     `gorm:"column:campaign_id;primaryKey"`
	Contributor string    `gorm:"column:contributor;primaryKey"`
	Amount      int64     `gorm:"column:amount"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (contributionModel) TableName() string { return "contributions" }

type feeEntryModel struct {
	EntryID    string    `gorm:"column:entry_id;primaryKey"`
	CampaignID int64     `gorm:"column:campaign_id"`
	Recipient  string    `gorm:"column:recipient"`
	Amount     int64     `gorm:"column:amount"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (feeEntryModel) TableName() string { return "platform_fee_ledger" }

type outboxModel struct {
	RecordID   string     `gorm:"column:record_id;primaryKey"`
	EventClass string     `gorm:"column:event_class"`
	EventType  string     `gorm:"column:event_type"`
	Envelope   string     `gorm:"column:envelope"`
	RetryCount int        `gorm:"column:retry_count"`
	LastError  string     `gorm:"column:last_error"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	SentAt     *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string { return "campaign_outbox" }

type idempotencyModel struct {
	Key          string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash  string    `gorm:"column:request_hash"`
	ResponseCode int       `gorm:"column:response_code"`
	ResponseBody []byte    `gorm:"column:response_body"`
	ExpiresAt    time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string { return "idempotency_records" }
