package scoring

import (
	"math"

	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

// EventInput is the raw grading input for an event.
type EventInput struct {
	RawScore      float64
	MaxScore      float64
	HasPenalty    bool
	AttemptNumber int
	// PenaltyAmount overrides the rate based deduction when set.
	PenaltyAmount *float64
}

// EventScore is the persisted outcome of grading an event.
type EventScore struct {
	Score         float64
	OriginalScore *float64
	PenaltyAmount *float64
	HasPenalty    bool
}

// ScoreEvent applies the re-attempt penalty. A penalty only applies to a
// re-attempt (attempt > 1) flagged with HasPenalty; the deduction defaults to
// PenaltyRate times the raw score and the result never drops below zero.
func ScoreEvent(in EventInput, policy Policy) (EventScore, error) {
	switch {
	case math.IsNaN(in.RawScore) || math.IsNaN(in.MaxScore):
		return EventScore{}, appErrors.Clone(appErrors.ErrValidation, "scores must be numbers")
	case in.MaxScore <= 0:
		return EventScore{}, appErrors.Clone(appErrors.ErrValidation, "max score must be positive")
	case in.RawScore < 0:
		return EventScore{}, appErrors.Clone(appErrors.ErrValidation, "raw score cannot be negative")
	case in.RawScore > in.MaxScore:
		return EventScore{}, appErrors.Clone(appErrors.ErrValidation, "raw score exceeds max score")
	case in.PenaltyAmount != nil && *in.PenaltyAmount < 0:
		return EventScore{}, appErrors.Clone(appErrors.ErrValidation, "penalty amount cannot be negative")
	}

	if in.AttemptNumber <= 1 || !in.HasPenalty {
		return EventScore{Score: policy.Round(in.RawScore)}, nil
	}

	penalty := policy.PenaltyRate * in.RawScore
	if in.PenaltyAmount != nil {
		penalty = *in.PenaltyAmount
	}
	penalty = policy.Round(penalty)
	return EventScore{
		Score:         policy.Round(math.Max(0, in.RawScore-penalty)),
		OriginalScore: floatPtr(in.RawScore),
		PenaltyAmount: floatPtr(penalty),
		HasPenalty:    true,
	}, nil
}
