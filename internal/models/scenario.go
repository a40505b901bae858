package models

import "time"

// ScenarioCategory classifies simulator scenarios.
type ScenarioCategory string

const (
	CategoryFault       ScenarioCategory = "Fault"
	CategoryMaintenance ScenarioCategory = "Maintenance"
	CategoryOverload    ScenarioCategory = "Overload"
	CategoryTopology    ScenarioCategory = "Topology"
)

// ScenarioDifficulty grades scenario complexity.
type ScenarioDifficulty string

const (
	DifficultyEasy   ScenarioDifficulty = "Easy"
	DifficultyMedium ScenarioDifficulty = "Medium"
	DifficultyHard   ScenarioDifficulty = "Hard"
)

// SimulatorScenario is a reusable exercise template. A nil CompanyID marks a
// global scenario shared by every tenant.
type SimulatorScenario struct {
	ID           string             `db:"id" json:"id"`
	CompanyID    *string            `db:"company_id" json:"company_id"`
	Title        string             `db:"title" json:"title"`
	Description  *string            `db:"description" json:"description,omitempty"`
	Category     ScenarioCategory   `db:"category" json:"category"`
	Difficulty   ScenarioDifficulty `db:"difficulty" json:"difficulty"`
	PassingScore float64            `db:"passing_score" json:"passing_score"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`

	Steps []ScenarioStep `db:"-" json:"steps,omitempty"`
}

// Global reports whether the scenario is shared across tenants.
func (s *SimulatorScenario) Global() bool {
	return s.CompanyID == nil
}

// ScenarioStep is one ordered action within a scenario. TimeLimit is in seconds
// and zero means unlimited.
type ScenarioStep struct {
	ID             string    `db:"id" json:"id"`
	ScenarioID     string    `db:"scenario_id" json:"scenario_id"`
	StepOrder      int       `db:"step_order" json:"step_order"`
	Title          string    `db:"title" json:"title"`
	Instruction    *string   `db:"instruction" json:"instruction,omitempty"`
	ActionType     string    `db:"action_type" json:"action_type"`
	ExpectedAction *string   `db:"expected_action" json:"expected_action,omitempty"`
	Points         float64   `db:"points" json:"points"`
	IsCritical     bool      `db:"is_critical" json:"is_critical"`
	TimeLimit      int       `db:"time_limit" json:"time_limit"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ScenarioFilter scopes scenario listings. An empty CompanyID with AllCompanies
// set lists every scenario.
type ScenarioFilter struct {
	CompanyID    string
	AllCompanies bool
	Category     *ScenarioCategory
	Difficulty   *ScenarioDifficulty
	Page         int
	PageSize     int
}
