package presence

import (
	"testing"
	"time"
)

func TestHumanizeLastSeen(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{30 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{90 * time.Second, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{59*time.Minute + 59*time.Second, "59 minutes ago"},
		{time.Hour, "1 hour ago"},
		{7*time.Hour + 30*time.Minute, "7 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{10 * 24 * time.Hour, "10 days ago"},
		{45 * 24 * time.Hour, "1 month ago"},
		{200 * 24 * time.Hour, "6 months ago"},
		{400 * 24 * time.Hour, "1 year ago"},
		{3 * 365 * 24 * time.Hour, "3 years ago"},
	}
	for _, tc := range cases {
		if got := HumanizeLastSeen(now.Add(-tc.ago), now); got != tc.want {
			t.Errorf("HumanizeLastSeen(-%v) = %q, want %q", tc.ago, got, tc.want)
		}
	}
}

func TestHumanizeLastSeen_Never(t *testing.T) {
	if got := HumanizeLastSeen(time.Time{}, time.Now()); got != "never" {
		t.Fatalf("zero lastSeen = %q, want \"never\"", got)
	}
}

func TestHumanizeLastSeen_FutureClampsToJustNow(t *testing.T) {
	now := time.Now()
	if got := HumanizeLastSeen(now.Add(time.Minute), now); got != "just now" {
		t.Fatalf("future lastSeen = %q", got)
	}
}
