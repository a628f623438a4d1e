package plan

import (
	"strings"
	"time"
)

const day = 24 * time.Hour

// defaultTimeframe is used when the step's timeframe has no recognizable unit.
const defaultTimeframe = 14 * day

// maxMagnitudeDigits bounds the leading integer at 999 units; the largest
// product (999 months) still fits in time.Duration.
const maxMagnitudeDigits = 3

// ParseTimeframe converts a free-text timeframe ("2 weeks", "1 month") into a
// fixed duration. The leading integer is the magnitude (1 when absent or
// longer than three digits), the unit is matched by substring: week, then
// month, then day. Unrecognized text yields the two-week default. Never
// fails and never returns a negative duration.
func ParseTimeframe(text string) time.Duration {
	s := strings.ToLower(strings.TrimSpace(text))

	n := 0
	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		if digits < maxMagnitudeDigits {
			n = n*10 + int(s[digits]-'0')
		}
		digits++
	}
	if digits == 0 || digits > maxMagnitudeDigits {
		n = 1
	}

	switch {
	case strings.Contains(s, "week"):
		return time.Duration(n) * 7 * day
	case strings.Contains(s, "month"):
		return time.Duration(n) * 30 * day
	case strings.Contains(s, "day"):
		return time.Duration(n) * day
	}
	return defaultTimeframe
}
