package scoring

import (
	"sort"
	"time"

	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

// SessionGrade holds the aggregate metrics of a simulator session.
type SessionGrade struct {
	Score              float64
	MaxScore           float64
	Percentage         float64
	Attempted          int
	Correct            int
	ManeuverPrecision  float64
	ProcedureAdherence float64
	ResponseTime       float64
	TimeLimitExceeded  int
	CriticalFailure    bool
	Passed             bool
}

// GradeSession aggregates step results against the scenario's steps. Results
// for unknown steps are ignored. Any incorrect result on a critical step fails
// the session regardless of points.
func GradeSession(steps []models.ScenarioStep, results []models.SessionStepResult, passingScore float64, policy Policy) SessionGrade {
	byID := make(map[string]models.ScenarioStep, len(steps))
	var grade SessionGrade
	for _, s := range steps {
		byID[s.ID] = s
		grade.MaxScore += s.Points
	}

	ordered := make([]models.SessionStepResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
	})

	var totalResponse float64
	inOrder := 0
	prevOrder := -1 << 31
	for _, r := range ordered {
		step, ok := byID[r.StepID]
		if !ok {
			continue
		}
		grade.Attempted++
		grade.Score += r.PointsAwarded
		totalResponse += r.ResponseTime
		if r.IsCorrect {
			grade.Correct++
		} else if step.IsCritical {
			grade.CriticalFailure = true
		}
		if step.TimeLimit > 0 && r.ResponseTime > float64(step.TimeLimit) {
			grade.TimeLimitExceeded++
		}
		if step.StepOrder >= prevOrder {
			inOrder++
		}
		prevOrder = step.StepOrder
	}

	if grade.Attempted > 0 {
		n := float64(grade.Attempted)
		grade.ManeuverPrecision = policy.Round(100 * float64(grade.Correct) / n)
		grade.ProcedureAdherence = policy.Round(100 * float64(inOrder) / n)
		grade.ResponseTime = policy.Round(totalResponse / n)
	}
	if grade.MaxScore > 0 {
		grade.Percentage = policy.Round(100 * grade.Score / grade.MaxScore)
	}
	if passingScore <= 0 {
		passingScore = policy.SessionPassingScore
	}
	grade.Score = policy.Round(grade.Score)
	grade.Passed = !grade.CriticalFailure && grade.MaxScore > 0 && grade.Percentage >= passingScore
	return grade
}

// ApplyGrade copies grade metrics onto the session.
func ApplyGrade(s *models.SimulatorSession, g SessionGrade) {
	s.Score = floatPtr(g.Score)
	s.MaxScore = floatPtr(g.MaxScore)
	s.ManeuverPrecision = floatPtr(g.ManeuverPrecision)
	s.ProcedureAdherence = floatPtr(g.ProcedureAdherence)
	s.ResponseTime = floatPtr(g.ResponseTime)
	s.CriticalFailure = g.CriticalFailure
	passed := g.Passed
	s.Passed = &passed
}

// ValidateStepResult checks a result against its step before it is recorded.
func ValidateStepResult(step models.ScenarioStep, r models.SessionStepResult) error {
	switch {
	case r.PointsAwarded < 0:
		return appErrors.Clone(appErrors.ErrValidation, "points awarded cannot be negative")
	case r.PointsAwarded > step.Points:
		return appErrors.Clone(appErrors.ErrValidation, "points awarded exceed the step's points")
	case r.ResponseTime < 0:
		return appErrors.Clone(appErrors.ErrValidation, "response time cannot be negative")
	}
	return nil
}

// StartSession moves a not_started session to in_progress.
func StartSession(s *models.SimulatorSession, now time.Time) error {
	if s.Status != models.SessionStatusNotStarted {
		return invalidTransition(s.Status, models.SessionStatusInProgress)
	}
	start := now.UTC()
	s.StartTime = &start
	s.Status = models.SessionStatusInProgress
	return nil
}

// CanRecordResult reports whether results may be added to s.
func CanRecordResult(s *models.SimulatorSession) error {
	if s.Status != models.SessionStatusInProgress {
		return appErrors.Clone(appErrors.ErrInvalidState, "step results can only be recorded while the session is in progress")
	}
	return nil
}

// FinishSession ends an in-progress session. It completes when at least one
// result was recorded and is abandoned otherwise. The end time never precedes
// the start time.
func FinishSession(s *models.SimulatorSession, resultCount int, now time.Time) error {
	if s.Status != models.SessionStatusInProgress || s.StartTime == nil {
		return invalidTransition(s.Status, models.SessionStatusCompleted)
	}
	end := now.UTC()
	if end.Before(*s.StartTime) {
		end = *s.StartTime
	}
	duration := int64(end.Sub(*s.StartTime) / time.Second)
	s.EndTime = &end
	s.Duration = &duration
	if resultCount > 0 {
		s.Status = models.SessionStatusCompleted
	} else {
		s.Status = models.SessionStatusAbandoned
	}
	return nil
}

// AbandonSession ends a session that has not reached a terminal state.
func AbandonSession(s *models.SimulatorSession, now time.Time) error {
	switch s.Status {
	case models.SessionStatusNotStarted, models.SessionStatusInProgress:
	default:
		return invalidTransition(s.Status, models.SessionStatusAbandoned)
	}
	end := now.UTC()
	if s.StartTime != nil {
		if end.Before(*s.StartTime) {
			end = *s.StartTime
		}
		duration := int64(end.Sub(*s.StartTime) / time.Second)
		s.Duration = &duration
	}
	s.EndTime = &end
	s.Status = models.SessionStatusAbandoned
	return nil
}

func invalidTransition(from, to models.SessionStatus) error {
	return appErrors.Clone(appErrors.ErrInvalidState, "cannot move session from "+string(from)+" to "+string(to))
}
