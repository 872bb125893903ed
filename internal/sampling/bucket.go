package sampling

import (
	"fmt"
	"strings"
	"time"
)

// Mode is a commit selection policy
type Mode string

const (
	ModeAll     Mode = "all"
	ModeWeekly  Mode = "weekly"
	ModeMonthly Mode = "monthly"
)

// ParseMode validates a mode name. The empty string means ModeAll.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeWeekly:
		return ModeWeekly, nil
	case ModeMonthly:
		return ModeMonthly, nil
	default:
		return "", fmt.Errorf("unknown sampling mode %q (want all, weekly or monthly)", s)
	}
}

// Periodic reports whether the mode buckets commits by date
func (m Mode) Periodic() bool {
	return m == ModeWeekly || m == ModeMonthly
}

// ParseAuthorDate reads an ISO-8601 author date. Strict RFC 3339 (with a
// trailing Z or numeric offset) is tried first; otherwise the leading
// YYYY-MM-DD is used, in UTC.
func ParseAuthorDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// WeekKey formats t as "YYYY-Www" using the ISO year and week, evaluated in
// t's own offset so a commit lands in the author's local week.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey formats t as "YYYY-MM"
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// BucketKey returns the bucket for t under a periodic mode
func BucketKey(mode Mode, t time.Time) string {
	if mode == ModeWeekly {
		return WeekKey(t)
	}
	return MonthKey(t)
}
