package model

import (
	"fmt"
	"time"
)

// FormatSince renders the age of t relative to now the way the rider list
// shows it: "12 sec ago", "3 min ago", "2 hr ago", "1 day ago".
func FormatSince(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}

	secs := int64(diff / time.Second)
	mins := secs / 60
	hours := mins / 60
	days := hours / 24

	switch {
	case secs < 60:
		return fmt.Sprintf("%d sec ago", secs)
	case mins < 60:
		return fmt.Sprintf("%d min ago", mins)
	case hours < 24:
		return fmt.Sprintf("%d hr ago", hours)
	default:
		return fmt.Sprintf("%d day ago", days)
	}
}
