// Package timeutil holds wall-clock helpers for worklog entries. Times are
// plain "HH:MM" strings with no date or timezone component.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock parses a wall-clock string like "9:05" or "09:05" (an optional
// seconds part is accepted and ignored) into minutes since midnight.
func ParseClock(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// NormalizeClock canonicalizes a time string to zero-padded "HH:MM".
// Unparseable input is returned unchanged: the field is free-typed in the
// entry grid and rejecting here would block drafting.
func NormalizeClock(s string) string {
	mins, ok := ParseClock(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// DurationMinutes returns max(0, end-start) in minutes. Cross-midnight spans
// are not supported; a negative span clamps to 0. Unparseable endpoints
// yield 0.
func DurationMinutes(start, end string) int {
	s, okS := ParseClock(start)
	e, okE := ParseClock(end)
	if !okS || !okE {
		return 0
	}
	if e < s {
		return 0
	}
	return e - s
}

// FormatDuration renders minutes in JIRA's compact form: "2h 30m", "2h", "30m".
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	h := minutes / 60
	m := minutes % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}
