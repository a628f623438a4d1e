package progress

import (
	"math"
	"time"

	"github.com/pathcraft/backend/pkg/plan"
)

// ComputeProgress derives the status label and timeline percent for a step.
// The percent is the elapsed fraction of the step's declared timeframe,
// clamped to [0, 100]; it is monotonic non-decreasing while the step stays
// in progress. Pure given now.
func ComputeProgress(timeframe string, p *StepProgress, now time.Time) (Status, int) {
	if p == nil || p.Status == StatusNotStarted {
		return StatusNotStarted, 0
	}
	if p.Status == StatusCompleted {
		return StatusCompleted, 100
	}
	if p.StartedAt == nil {
		// in_progress without a start time renders as just started
		return StatusInProgress, 0
	}

	duration := plan.ParseTimeframe(timeframe)
	if duration <= 0 {
		return StatusInProgress, 100
	}
	elapsed := now.Sub(*p.StartedAt)
	if elapsed <= 0 {
		return StatusInProgress, 0
	}
	percent := int(math.Round(float64(elapsed) / float64(duration) * 100))
	if percent > 100 {
		percent = 100
	}
	return StatusInProgress, percent
}
