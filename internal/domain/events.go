package domain

const (
	CanonicalEventClassDomain        = "domain"
	CanonicalEventClassAnalyticsOnly = "analytics_only"
	CanonicalEventClassOps           = "ops"
)

const (
	EventCampaignCreated   = "campaign.created"
	EventContributionMade  = "campaign.contribution_made"
	EventFundsWithdrawn    = "campaign.funds_withdrawn"
	EventRefundClaimed     = "campaign.refund_claimed"
	EventCampaignCancelled = "campaign.cancelled"
)

func IsCanonicalEmittedEvent(eventType string) bool {
	switch eventType {
	case EventCampaignCreated, EventContributionMade, EventFundsWithdrawn, EventRefundClaimed, EventCampaignCancelled:
		return true
	default:
		return false
	}
}

// CanonicalEventClass distinguishes money-moving notifications, which
// downstream financial services consume, from advisory analytics signals.
func CanonicalEventClass(eventType string) string {
	switch eventType {
	case EventFundsWithdrawn, EventRefundClaimed:
		return CanonicalEventClassDomain
	case EventCampaignCreated, EventContributionMade, EventCampaignCancelled:
		return CanonicalEventClassAnalyticsOnly
	default:
		return ""
	}
}

func CanonicalPartitionKeyPath(eventType string) string {
	if IsCanonicalEmittedEvent(eventType) {
		return "data.campaign_id"
	}
	return ""
}
