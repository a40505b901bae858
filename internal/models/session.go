package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SessionStatus tracks a simulator session's lifecycle.
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "not_started"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusAbandoned  SessionStatus = "abandoned"
)

// SimulatorSession is one student's attempt at a scenario. Metric columns are
// populated when the session finishes.
type SimulatorSession struct {
	ID                 string        `db:"id" json:"id"`
	ScenarioID         string        `db:"scenario_id" json:"scenario_id"`
	StudentID          string        `db:"student_id" json:"student_id"`
	CompanyID          string        `db:"company_id" json:"company_id"`
	Status             SessionStatus `db:"status" json:"status"`
	StartTime          *time.Time    `db:"start_time" json:"start_time,omitempty"`
	EndTime            *time.Time    `db:"end_time" json:"end_time,omitempty"`
	Duration           *int64        `db:"duration" json:"duration,omitempty"`
	Score              *float64      `db:"score" json:"score"`
	MaxScore           *float64      `db:"max_score" json:"max_score,omitempty"`
	ResponseTime       *float64      `db:"response_time" json:"response_time"`
	ManeuverPrecision  *float64      `db:"maneuver_precision" json:"maneuver_precision"`
	ProcedureAdherence *float64      `db:"procedure_adherence" json:"procedure_adherence"`
	Passed             *bool         `db:"passed" json:"passed"`
	CriticalFailure    bool          `db:"critical_failure" json:"critical_failure"`
	Logs               StringList    `db:"logs" json:"logs"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`

	Results []SessionStepResult `db:"-" json:"results,omitempty"`
}

// SessionStepResult is the recorded outcome of one step in a session.
// ResponseTime is in seconds.
type SessionStepResult struct {
	ID            string    `db:"id" json:"id"`
	SessionID     string    `db:"session_id" json:"session_id"`
	StepID        string    `db:"step_id" json:"step_id"`
	IsCorrect     bool      `db:"is_correct" json:"is_correct"`
	PointsAwarded float64   `db:"points_awarded" json:"points_awarded"`
	ResponseTime  float64   `db:"response_time" json:"response_time"`
	ActionTaken   *string   `db:"action_taken" json:"action_taken,omitempty"`
	RecordedAt    time.Time `db:"recorded_at" json:"recorded_at"`
}

// SessionFilter scopes session listings.
type SessionFilter struct {
	CompanyID  string
	StudentID  string
	ScenarioID string
	Status     *SessionStatus
	Page       int
	PageSize   int
}

// StringList is a JSONB encoded list of strings.
type StringList []string

// Value marshals the list for persistence.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON array column.
func (l *StringList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal string list: %w", err)
	}
	*l = out
	return nil
}
