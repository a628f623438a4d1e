package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeProgress(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	started := func(ago time.Duration) *time.Time {
		ts := now.Add(-ago)
		return &ts
	}

	tests := []struct {
		name        string
		timeframe   string
		record      *StepProgress
		wantStatus  Status
		wantPercent int
	}{
		{
			name:        "no record",
			timeframe:   "2 weeks",
			record:      nil,
			wantStatus:  StatusNotStarted,
			wantPercent: 0,
		},
		{
			name:        "not started record",
			timeframe:   "2 weeks",
			record:      &StepProgress{Status: StatusNotStarted},
			wantStatus:  StatusNotStarted,
			wantPercent: 0,
		},
		{
			name:        "completed pins to 100",
			timeframe:   "2 weeks",
			record:      &StepProgress{Status: StatusCompleted, StartedAt: started(time.Hour)},
			wantStatus:  StatusCompleted,
			wantPercent: 100,
		},
		{
			name:        "halfway through two weeks",
			timeframe:   "2 weeks",
			record:      &StepProgress{Status: StatusInProgress, StartedAt: started(7 * 24 * time.Hour)},
			wantStatus:  StatusInProgress,
			wantPercent: 50,
		},
		{
			name:        "quarter of a month",
			timeframe:   "1 month",
			record:      &StepProgress{Status: StatusInProgress, StartedAt: started(7*24*time.Hour + 12*time.Hour)},
			wantStatus:  StatusInProgress,
			wantPercent: 25,
		},
		{
			name:        "overdue clamps to 100",
			timeframe:   "3 days",
			record:      &StepProgress{Status: StatusInProgress, StartedAt: started(30 * 24 * time.Hour)},
			wantStatus:  StatusInProgress,
			wantPercent: 100,
		},
		{
			name:        "just started",
			timeframe:   "1 week",
			record:      &StepProgress{Status: StatusInProgress, StartedAt: started(0)},
			wantStatus:  StatusInProgress,
			wantPercent: 0,
		},
		{
			name:        "start time in the future",
			timeframe:   "1 week",
			record:      &StepProgress{Status: StatusInProgress, StartedAt: started(-time.Hour)},
			wantStatus:  StatusInProgress,
			wantPercent: 0,
		},
		{
			name:        "in progress without start time",
			timeframe:   "1 week",
			record:      &StepProgress{Status: StatusInProgress},
			wantStatus:  StatusInProgress,
			wantPercent: 0,
		},
		{
			name:        "unrecognized timeframe uses two-week default",
			timeframe:   "когда-нибудь",
			record:      &StepProgress{Status: StatusInProgress, StartedAt: started(7 * 24 * time.Hour)},
			wantStatus:  StatusInProgress,
			wantPercent: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, percent := ComputeProgress(tt.timeframe, tt.record, now)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantPercent, percent)
		})
	}
}

func TestComputeProgress_MonotonicWhileInProgress(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := &StepProgress{Status: StatusInProgress, StartedAt: &start}

	prev := -1
	for d := time.Duration(0); d <= 20*24*time.Hour; d += 6 * time.Hour {
		_, percent := ComputeProgress("2 weeks", rec, start.Add(d))
		assert.GreaterOrEqual(t, percent, prev)
		assert.LessOrEqual(t, percent, 100)
		prev = percent
	}
	assert.Equal(t, 100, prev)
}
