package models

import "time"

// CycleStatus is derived from the statuses of a cycle's events.
type CycleStatus string

const (
	CycleStatusPending    CycleStatus = "pending"
	CycleStatusInProgress CycleStatus = "in_progress"
	CycleStatusCompleted  CycleStatus = "completed"
)

// CycleType distinguishes field from simulator training.
type CycleType string

const (
	CycleTypeField     CycleType = "field"
	CycleTypeSimulator CycleType = "simulator"
)

// Cycle is one operator's training engagement. Score is only set once the cycle
// is completed and Approved is computed on read.
type Cycle struct {
	ID              string      `db:"id" json:"id"`
	CompanyID       string      `db:"company_id" json:"company_id"`
	StudentID       string      `db:"student_id" json:"student_id"`
	TrainerID       string      `db:"trainer_id" json:"trainer_id"`
	Title           string      `db:"title" json:"title"`
	Type            CycleType   `db:"type" json:"type"`
	Status          CycleStatus `db:"status" json:"status"`
	Progress        int         `db:"progress" json:"progress"`
	Score           *float64    `db:"score" json:"score"`
	MinPassingScore float64     `db:"min_passing_score" json:"min_passing_score"`
	Notes           *string     `db:"notes" json:"notes,omitempty"`
	StartDate       *time.Time  `db:"start_date" json:"start_date,omitempty"`
	EndDate         *time.Time  `db:"end_date" json:"end_date,omitempty"`
	CompletedAt     *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`

	Approved bool    `db:"-" json:"approved"`
	Events   []Event `db:"-" json:"events,omitempty"`
}

// CycleFilter scopes cycle listings.
type CycleFilter struct {
	CompanyID string
	StudentID string
	TrainerID string
	Status    *CycleStatus
	Type      *CycleType
	Page      int
	PageSize  int
}
