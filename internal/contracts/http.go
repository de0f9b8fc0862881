package contracts

type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type CreateCampaignRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Goal        int64  `json:"goal"`
	Deadline    string `json:"deadline"`
}

type ContributeRequest struct {
	Amount int64 `json:"amount"`
}

type CampaignResponse struct {
	CampaignID    int64  `json:"campaign_id"`
	Creator       string `json:"creator"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Goal          int64  `json:"goal"`
	Deadline      string `json:"deadline"`
	AmountRaised  int64  `json:"amount_raised"`
	State         string `json:"state"`
	GoalReached   bool   `json:"goal_reached"`
	TimeRemaining int64  `json:"time_remaining_seconds"`
}

type ContributionResponse struct {
	CampaignID  int64  `json:"campaign_id"`
	Contributor string `json:"contributor"`
	Amount      int64  `json:"amount"`
	TotalRaised int64  `json:"total_raised"`
}

type WithdrawalResponse struct {
	CampaignID    int64  `json:"campaign_id"`
	Creator       string `json:"creator"`
	CreatorAmount int64  `json:"creator_amount"`
	PlatformFee   int64  `json:"platform_fee"`
	EventDelivery string `json:"event_delivery,omitempty"`
}

type RefundResponse struct {
	CampaignID    int64  `json:"campaign_id"`
	Contributor   string `json:"contributor"`
	Amount        int64  `json:"amount"`
	EventDelivery string `json:"event_delivery,omitempty"`
}

type CampaignListResponse struct {
	CampaignIDs []int64 `json:"campaign_ids"`
	Total       int64   `json:"total"`
}

type LedgerStatsResponse struct {
	TotalCampaigns  int64 `json:"total_campaigns"`
	PlatformFeePool int64 `json:"platform_fee_pool"`
}
