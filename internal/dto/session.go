package dto

// CreateSessionRequest assigns a scenario attempt to a student.
type CreateSessionRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
	StudentID  string `json:"student_id" validate:"required"`
	CompanyID  string `json:"company_id"`
}

// UpdateSessionRequest appends operator log lines to a session.
type UpdateSessionRequest struct {
	Logs []string `json:"logs" validate:"required,min=1,dive,max=2000"`
}

// RecordStepResultRequest is the payload for POST /step-results.
type RecordStepResultRequest struct {
	SessionID     string   `json:"session_id" validate:"required"`
	StepID        string   `json:"step_id" validate:"required"`
	IsCorrect     bool     `json:"is_correct"`
	PointsAwarded *float64 `json:"points_awarded" validate:"required,gte=0"`
	ResponseTime  float64  `json:"response_time" validate:"gte=0"`
	ActionTaken   *string  `json:"action_taken" validate:"omitempty,max=255"`
}

