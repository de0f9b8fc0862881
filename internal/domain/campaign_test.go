package domain

import (
	"testing"
	"time"
)

var (
	deadline = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	before   = deadline.Add(-time.Hour)
	after    = deadline.Add(time.Hour)
)

func TestStateOfPriority(t *testing.T) {
	cases := []struct {
		name string
		c    Campaign
		now  time.Time
		want State
	}{
		{"active before deadline", Campaign{Goal: 100, Deadline: deadline}, before, StateActive},
		{"active even when goal reached early", Campaign{Goal: 100, AmountRaised: 500, Deadline: deadline}, before, StateActive},
		{"failed after deadline below goal", Campaign{Goal: 100, AmountRaised: 99, Deadline: deadline}, after, StateFailed},
		{"successful after deadline at goal", Campaign{Goal: 100, AmountRaised: 100, Deadline: deadline}, after, StateSuccessful},
		{"deadline instant is already past", Campaign{Goal: 100, AmountRaised: 100, Deadline: deadline}, deadline, StateSuccessful},
		{"withdrawn overrides successful", Campaign{Goal: 100, AmountRaised: 100, Deadline: deadline, Withdrawn: true}, after, StateWithdrawn},
		{"cancelled overrides goal reached", Campaign{Goal: 100, AmountRaised: 500, Deadline: deadline, Cancelled: true}, after, StateCancelled},
		{"cancelled overrides withdrawn flag", Campaign{Goal: 100, AmountRaised: 500, Deadline: deadline, Withdrawn: true, Cancelled: true}, after, StateCancelled},
		{"cancelled before deadline", Campaign{Goal: 100, Deadline: deadline, Cancelled: true}, before, StateCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StateOf(tc.c, tc.now); got != tc.want {
				t.Fatalf("StateOf = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestPlatformFeeTruncates(t *testing.T) {
	cases := []struct {
		raised int64
		want   int64
	}{
		{0, 0},
		{49, 0},   // 0.98 truncates to zero
		{50, 1},   // exactly 1
		{99, 1},   // 1.98 truncates
		{100, 2},  // 2% exact
		{5_000_000, 100_000},
		{12345, 246}, // 246.9 truncates
	}
	for _, tc := range cases {
		if got := PlatformFee(tc.raised); got != tc.want {
			t.Fatalf("PlatformFee(%d) = %d, want %d", tc.raised, got, tc.want)
		}
	}
}

func TestTimeRemaining(t *testing.T) {
	c := Campaign{Deadline: deadline}
	if got := TimeRemaining(c, before); got != time.Hour {
		t.Fatalf("before deadline: got %s, want 1h", got)
	}
	if got := TimeRemaining(c, deadline); got != 0 {
		t.Fatalf("at deadline: got %s, want 0", got)
	}
	if got := TimeRemaining(c, after); got != 0 {
		t.Fatalf("after deadline: got %s, want 0", got)
	}
}

func TestRefundable(t *testing.T) {
	failed := Campaign{Goal: 100, AmountRaised: 40, Deadline: deadline}
	if Refundable(failed, before) {
		t.Fatal("active campaign must not be refundable")
	}
	if !Refundable(failed, after) {
		t.Fatal("failed campaign must be refundable")
	}
	successful := Campaign{Goal: 100, AmountRaised: 150, Deadline: deadline}
	if Refundable(successful, after) {
		t.Fatal("successful campaign must not be refundable")
	}
	cancelled := Campaign{Goal: 100, AmountRaised: 150, Deadline: deadline, Cancelled: true}
	if !Refundable(cancelled, before) {
		t.Fatal("cancelled campaign must be refundable before its deadline")
	}
	if !Refundable(cancelled, after) {
		t.Fatal("cancelled campaign must be refundable after its deadline")
	}
}
