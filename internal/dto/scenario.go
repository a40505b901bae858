package dto

import "github.com/gridtrain/eval-api/internal/models"

// StepInput describes one step of a scenario.
type StepInput struct {
	StepOrder      int     `json:"step_order" validate:"required,gte=1"`
	Title          string  `json:"title" validate:"required,max=255"`
	Instruction    *string `json:"instruction" validate:"omitempty,max=4000"`
	ActionType     string  `json:"action_type" validate:"required,max=64"`
	ExpectedAction *string `json:"expected_action" validate:"omitempty,max=255"`
	Points         float64 `json:"points" validate:"gte=0"`
	IsCritical     bool    `json:"is_critical"`
	TimeLimit      int     `json:"time_limit" validate:"gte=0"`
}

// CreateScenarioRequest registers a scenario. A nil CompanyID from a super
// admin creates a global scenario; other callers always create for their own
// company.
type CreateScenarioRequest struct {
	CompanyID    *string                   `json:"company_id"`
	Title        string                    `json:"title" validate:"required,max=255"`
	Description  *string                   `json:"description" validate:"omitempty,max=4000"`
	Category     models.ScenarioCategory   `json:"category" validate:"required,oneof=Fault Maintenance Overload Topology"`
	Difficulty   models.ScenarioDifficulty `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	PassingScore *float64                  `json:"passing_score" validate:"omitempty,gt=0,lte=100"`
	Steps        []StepInput               `json:"steps" validate:"omitempty,dive"`
}

// UpdateScenarioRequest is a partial update of a scenario.
type UpdateScenarioRequest struct {
	Title        *string                    `json:"title" validate:"omitempty,min=1,max=255"`
	Description  *string                    `json:"description" validate:"omitempty,max=4000"`
	Category     *models.ScenarioCategory   `json:"category" validate:"omitempty,oneof=Fault Maintenance Overload Topology"`
	Difficulty   *models.ScenarioDifficulty `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	PassingScore *float64                   `json:"passing_score" validate:"omitempty,gt=0,lte=100"`
}

// CreateStepRequest adds a step to an existing scenario.
type CreateStepRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
	StepInput
}

// UpdateStepRequest is a partial update of a step.
type UpdateStepRequest struct {
	StepOrder      *int     `json:"step_order" validate:"omitempty,gte=1"`
	Title          *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Instruction    *string  `json:"instruction" validate:"omitempty,max=4000"`
	ActionType     *string  `json:"action_type" validate:"omitempty,min=1,max=64"`
	ExpectedAction *string  `json:"expected_action" validate:"omitempty,max=255"`
	Points         *float64 `json:"points" validate:"omitempty,gte=0"`
	IsCritical     *bool    `json:"is_critical"`
	TimeLimit      *int     `json:"time_limit" validate:"omitempty,gte=0"`
}
