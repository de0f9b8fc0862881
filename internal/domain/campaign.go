package domain

import "time"

// State is the derived lifecycle state of a campaign. It is computed from
// stored facts plus the current time on every query and never persisted,
// so stored and derived truth cannot drift.
type State string

const (
	StateActive     State = "active"
	StateSuccessful State = "successful"
	StateFailed     State = "failed"
	StateWithdrawn  State = "withdrawn"
	StateCancelled  State = "cancelled"
)

// Platform fee: 200 basis points (2%) of the total raised, truncated toward zero.
const (
	FeeBps         int64 = 200
	BpsDenominator int64 = 10000
)

type Campaign struct {
	ID           int64
	Creator      string
	Title        string
	Description  string
	Goal         int64
	Deadline     time.Time
	AmountRaised int64
	Withdrawn    bool
	Cancelled    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contribution is the cumulative un-reclaimed amount one contributor has sent
// to one campaign. A refund zeroes the entry without touching AmountRaised:
// AmountRaised is a historical high-water mark used only for goal comparison.
type Contribution struct {
	CampaignID  int64
	Contributor string
	Amount      int64
	UpdatedAt   time.Time
}

// FeeEntry is one platform-fee accrual, appended when a withdrawal succeeds.
// The fee pool is the sum of all entries across campaigns.
type FeeEntry struct {
	EntryID    string
	CampaignID int64
	Recipient  string
	Amount     int64
	OccurredAt time.Time
}

// StateOf derives the campaign state. Evaluation order encodes priority among
// overlapping conditions: cancellation is terminal and overrides everything,
// including a goal reached afterwards; withdrawal comes next; only then does
// the deadline/goal comparison apply.
func StateOf(c Campaign, now time.Time) State {
	switch {
	case c.Cancelled:
		return StateCancelled
	case c.Withdrawn:
		return StateWithdrawn
	case !now.Before(c.Deadline):
		if c.AmountRaised >= c.Goal {
			return StateSuccessful
		}
		return StateFailed
	default:
		return StateActive
	}
}

// PlatformFee computes the fee withheld from a withdrawal. Integer division
// truncates toward zero, so the creator receives amountRaised - fee exactly.
func PlatformFee(amountRaised int64) int64 {
	return amountRaised * FeeBps / BpsDenominator
}

func GoalReached(c Campaign) bool {
	return c.AmountRaised >= c.Goal
}

// TimeRemaining reports the duration until the deadline, or zero once the
// deadline has been reached.
func TimeRemaining(c Campaign, now time.Time) time.Duration {
	if !now.Before(c.Deadline) {
		return 0
	}
	return c.Deadline.Sub(now)
}

// Refundable reports whether contributors may reclaim their entries: the
// campaign was cancelled, or its deadline passed without reaching the goal.
func Refundable(c Campaign, now time.Time) bool {
	if c.Cancelled {
		return true
	}
	return !now.Before(c.Deadline) && c.AmountRaised < c.Goal
}
