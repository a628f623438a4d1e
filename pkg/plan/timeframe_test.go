package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		name string
		text string
		want time.Duration
	}{
		{"two weeks", "2 weeks", 14 * day},
		{"one week singular", "1 week", 7 * day},
		{"one month", "1 month", 30 * day},
		{"two months", "2 months", 60 * day},
		{"three days", "3 days", 3 * day},
		{"ten days", "10 days", 10 * day},
		{"unit without magnitude", "week", 7 * day},
		{"mixed case and padding", "  2 Weeks  ", 14 * day},
		{"magnitude glued to unit", "6weeks", 42 * day},
		{"week wins over day", "1 weekday", 7 * day},
		{"three-digit magnitude", "365 days", 365 * day},
		{"four-digit magnitude treated as one", "1000 days", day},
		{"overflow-length magnitude treated as one", "99999999999999999999 weeks", 7 * day},
		{"unrecognized text", "banana", defaultTimeframe},
		{"digits without unit", "14", defaultTimeframe},
		{"empty string", "", defaultTimeframe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTimeframe(tt.text))
		})
	}
}
