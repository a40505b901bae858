package dto

import (
	"time"

	"github.com/gridtrain/eval-api/internal/models"
)

// CreateCycleRequest opens a training cycle for a student. CompanyID defaults
// to the caller's company.
type CreateCycleRequest struct {
	CompanyID       string           `json:"company_id"`
	StudentID       string           `json:"student_id" validate:"required"`
	TrainerID       string           `json:"trainer_id" validate:"required"`
	Title           string           `json:"title" validate:"required,max=255"`
	Type            models.CycleType `json:"type" validate:"required,oneof=field simulator"`
	MinPassingScore *float64         `json:"min_passing_score" validate:"omitempty,gt=0,lte=100"`
	Notes           *string          `json:"notes" validate:"omitempty,max=4000"`
	StartDate       *time.Time       `json:"start_date"`
	EndDate         *time.Time       `json:"end_date"`
}

// UpdateCycleRequest is a partial update. Status is derived from events and
// cannot be set directly.
type UpdateCycleRequest struct {
	Title           *string           `json:"title" validate:"omitempty,min=1,max=255"`
	Type            *models.CycleType `json:"type" validate:"omitempty,oneof=field simulator"`
	TrainerID       *string           `json:"trainer_id" validate:"omitempty,min=1"`
	MinPassingScore *float64          `json:"min_passing_score" validate:"omitempty,gt=0,lte=100"`
	Progress        *int              `json:"progress" validate:"omitempty,gte=0,lte=100"`
	Notes           *string           `json:"notes" validate:"omitempty,max=4000"`
	StartDate       *time.Time        `json:"start_date"`
	EndDate         *time.Time        `json:"end_date"`
}

// CreateEventRequest adds a gradable task to a cycle.
type CreateEventRequest struct {
	CycleID    string   `json:"cycle_id" validate:"required"`
	Title      string   `json:"title" validate:"required,max=255"`
	Sequence   *int     `json:"sequence" validate:"omitempty,gte=0"`
	MaxScore   float64  `json:"max_score" validate:"required,gt=0"`
	Weight     *float64 `json:"weight" validate:"omitempty,gt=0"`
	HasPenalty bool     `json:"has_penalty"`
	Notes      *string  `json:"notes" validate:"omitempty,max=4000"`
}

// UpdateEventRequest edits event metadata. Status may only reset an event to
// pending or mark it skipped; pass and fail come from grading.
type UpdateEventRequest struct {
	Title      *string             `json:"title" validate:"omitempty,min=1,max=255"`
	Sequence   *int                `json:"sequence" validate:"omitempty,gte=0"`
	MaxScore   *float64            `json:"max_score" validate:"omitempty,gt=0"`
	Weight     *float64            `json:"weight" validate:"omitempty,gt=0"`
	HasPenalty *bool               `json:"has_penalty"`
	Status     *models.EventStatus `json:"status" validate:"omitempty,oneof=pending skipped"`
	Notes      *string             `json:"notes" validate:"omitempty,max=4000"`
}

// GradeEventRequest records a grading attempt. Without an explicit status the
// verdict is derived from the cycle's minimum passing score.
type GradeEventRequest struct {
	RawScore      *float64            `json:"raw_score" validate:"required,gte=0"`
	Status        *models.EventStatus `json:"status" validate:"omitempty,oneof=pass fail"`
	HasPenalty    *bool               `json:"has_penalty"`
	PenaltyAmount *float64            `json:"penalty_amount" validate:"omitempty,gte=0"`
	Notes         *string             `json:"notes" validate:"omitempty,max=4000"`
}
