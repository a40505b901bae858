package models

import "time"

// EventStatus is the grading state of an event.
type EventStatus string

const (
	EventStatusPending EventStatus = "pending"
	EventStatusPass    EventStatus = "pass"
	EventStatusFail    EventStatus = "fail"
	EventStatusSkipped EventStatus = "skipped"
)

// Terminal reports whether the status no longer blocks cycle completion.
func (s EventStatus) Terminal() bool {
	return s == EventStatusPass || s == EventStatusFail || s == EventStatusSkipped
}

// Event is one gradable task within a cycle. When a penalty applies,
// OriginalScore holds the pre-penalty value.
type Event struct {
	ID            string      `db:"id" json:"id"`
	CycleID       string      `db:"cycle_id" json:"cycle_id"`
	Title         string      `db:"title" json:"title"`
	Sequence      int         `db:"sequence" json:"sequence"`
	Status        EventStatus `db:"status" json:"status"`
	Score         *float64    `db:"score" json:"score"`
	MaxScore      float64     `db:"max_score" json:"max_score"`
	Weight        float64     `db:"weight" json:"weight"`
	AttemptNumber int         `db:"attempt_number" json:"attempt_number"`
	HasPenalty    bool        `db:"has_penalty" json:"has_penalty"`
	PenaltyAmount *float64    `db:"penalty_amount" json:"penalty_amount"`
	OriginalScore *float64    `db:"original_score" json:"original_score"`
	Notes         *string     `db:"notes" json:"notes,omitempty"`
	EvaluatedAt   *time.Time  `db:"evaluated_at" json:"evaluated_at,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}
