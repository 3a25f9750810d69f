package presence

import (
	"fmt"
	"time"
)

// HumanizeLastSeen renders an offline user's lastSeen as relative copy using
// fixed buckets: just now (<1m), minutes (<1h), hours (<24h), days (<30d),
// months (<365d), then years. A zero lastSeen (user never seen) renders as
// "never". Purely a presentation transform.
func HumanizeLastSeen(lastSeen, now time.Time) string {
	if lastSeen.IsZero() {
		return "never"
	}
	d := now.Sub(lastSeen)
	if d < 0 {
		d = 0
	}

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d.Hours()/24), "day")
	case d < 365*24*time.Hour:
		return plural(int(d.Hours()/(24*30)), "month")
	default:
		return plural(int(d.Hours()/(24*365)), "year")
	}
}

func plural(n int, unit string) string {
	if n <= 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
