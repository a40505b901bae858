package scoring

import (
	"math"

	"github.com/gridtrain/eval-api/internal/models"
)

// CycleOutcome is the derived state of a cycle given its events.
type CycleOutcome struct {
	Score    *float64
	Progress int
	Status   models.CycleStatus
	// Graded counts the pass/fail events that contributed to the score.
	Graded int
}

// EvaluateCycle derives score, progress and status from the cycle's events.
//
// The score is the weighted mean of score/maxScore over pass and fail events,
// expressed as a percentage. Non-positive weights count as 1. Skipped events
// are terminal but do not contribute. The score is only reported once every
// event is terminal.
func EvaluateCycle(events []models.Event, policy Policy) CycleOutcome {
	if len(events) == 0 {
		return CycleOutcome{Status: models.CycleStatusPending}
	}

	var terminal, graded int
	var weighted, weights float64
	for _, e := range events {
		if !e.Status.Terminal() {
			continue
		}
		terminal++
		if e.Status == models.EventStatusSkipped || e.Score == nil || e.MaxScore <= 0 {
			continue
		}
		w := e.Weight
		if w <= 0 {
			w = 1
		}
		weighted += w * (*e.Score / e.MaxScore)
		weights += w
		graded++
	}

	out := CycleOutcome{
		Progress: int(math.Round(100 * float64(terminal) / float64(len(events)))),
		Graded:   graded,
	}
	switch {
	case terminal == 0:
		out.Status = models.CycleStatusPending
	case terminal < len(events):
		out.Status = models.CycleStatusInProgress
	default:
		out.Status = models.CycleStatusCompleted
		if weights > 0 {
			out.Score = floatPtr(policy.Round(100 * weighted / weights))
		}
	}
	return out
}

// Approved reports the pass verdict: a completed cycle whose score reaches the
// minimum passing score. A zero minimum falls back to the policy default.
func Approved(status models.CycleStatus, score *float64, minPassing float64, policy Policy) bool {
	if status != models.CycleStatusCompleted || score == nil {
		return false
	}
	if minPassing <= 0 {
		minPassing = policy.DefaultMinPassing
	}
	return *score >= minPassing
}

// ApplyVerdict fills the derived Approved field on c.
func ApplyVerdict(c *models.Cycle, policy Policy) {
	if c == nil {
		return
	}
	c.Approved = Approved(c.Status, c.Score, c.MinPassingScore, policy)
}
