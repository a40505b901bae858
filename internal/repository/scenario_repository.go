package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gridtrain/eval-api/internal/models"
)

const (
	scenarioColumns = `id, company_id, title, description, category, difficulty, passing_score, created_at, updated_at`
	stepColumns     = `id, scenario_id, step_order, title, instruction, action_type, expected_action, points, is_critical, time_limit, created_at, updated_at`
)

// ScenarioRepository persists simulator scenarios and their steps.
type ScenarioRepository struct {
	db *sqlx.DB
}

// NewScenarioRepository constructs the repository.
func NewScenarioRepository(db *sqlx.DB) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

// FindByID returns a scenario without its steps.
func (r *ScenarioRepository) FindByID(ctx context.Context, id string) (*models.SimulatorScenario, error) {
	query := `SELECT ` + scenarioColumns + ` FROM simulator_scenarios WHERE id = $1`
	var scenario models.SimulatorScenario
	if err := r.db.GetContext(ctx, &scenario, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find scenario: %w", err)
	}
	return &scenario, nil
}

// List returns scenarios visible to a company: its own plus global ones.
func (r *ScenarioRepository) List(ctx context.Context, filter models.ScenarioFilter) ([]models.SimulatorScenario, int, error) {
	var where whereBuilder
	if !filter.AllCompanies {
		if filter.CompanyID != "" {
			where.add("(company_id = $%d OR company_id IS NULL)", filter.CompanyID)
		} else {
			where.conds = append(where.conds, "company_id IS NULL")
		}
	}
	if filter.Category != nil {
		where.add("category = $%d", *filter.Category)
	}
	if filter.Difficulty != nil {
		where.add("difficulty = $%d", *filter.Difficulty)
	}
	var scenarios []models.SimulatorScenario
	total, err := selectPage(ctx, r.db, &scenarios, pageQuery{
		table:    "simulator_scenarios",
		columns:  scenarioColumns,
		where:    where,
		orderBy:  "title ASC",
		page:     filter.Page,
		pageSize: filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return scenarios, total, nil
}

// Create inserts a scenario together with any steps it carries.
func (r *ScenarioRepository) Create(ctx context.Context, scenario *models.SimulatorScenario) error {
	if scenario.ID == "" {
		scenario.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	scenario.CreatedAt = now
	scenario.UpdatedAt = now
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO simulator_scenarios (id, company_id, title, description, category, difficulty, passing_score, created_at, updated_at)
VALUES (:id, :company_id, :title, :description, :category, :difficulty, :passing_score, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, scenario); err != nil {
			return fmt.Errorf("create scenario: %w", translateError(err))
		}
		for i := range scenario.Steps {
			scenario.Steps[i].ScenarioID = scenario.ID
			if err := insertStep(ctx, tx, &scenario.Steps[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update writes the scenario's mutable columns.
func (r *ScenarioRepository) Update(ctx context.Context, scenario *models.SimulatorScenario) error {
	scenario.UpdatedAt = time.Now().UTC()
	const query = `UPDATE simulator_scenarios SET title = :title, description = :description, category = :category, difficulty = :difficulty,
passing_score = :passing_score, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, scenario)
	if err != nil {
		return fmt.Errorf("update scenario: %w", translateError(err))
	}
	return expectOneRow(res)
}

// Delete removes a scenario and its steps atomically. Scenarios referenced by
// sessions are kept and ErrHasDependents is returned.
func (r *ScenarioRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var sessions int
		if err := tx.GetContext(ctx, &sessions, `SELECT COUNT(*) FROM simulator_sessions WHERE scenario_id = $1`, id); err != nil {
			return fmt.Errorf("count scenario sessions: %w", err)
		}
		if sessions > 0 {
			return ErrHasDependents
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM scenario_steps WHERE scenario_id = $1`, id); err != nil {
			return fmt.Errorf("delete scenario steps: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM simulator_scenarios WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete scenario: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// FindStep returns a single step.
func (r *ScenarioRepository) FindStep(ctx context.Context, id string) (*models.ScenarioStep, error) {
	query := `SELECT ` + stepColumns + ` FROM scenario_steps WHERE id = $1`
	var step models.ScenarioStep
	if err := r.db.GetContext(ctx, &step, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find step: %w", err)
	}
	return &step, nil
}

// ListSteps returns a scenario's steps ordered by step order.
func (r *ScenarioRepository) ListSteps(ctx context.Context, scenarioID string) ([]models.ScenarioStep, error) {
	query := `SELECT ` + stepColumns + ` FROM scenario_steps WHERE scenario_id = $1 ORDER BY step_order ASC`
	var steps []models.ScenarioStep
	if err := r.db.SelectContext(ctx, &steps, query, scenarioID); err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	return steps, nil
}

// StepOrderTaken reports whether another step of the scenario already uses order.
func (r *ScenarioRepository) StepOrderTaken(ctx context.Context, scenarioID string, order int, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM scenario_steps WHERE scenario_id = $1 AND step_order = $2 AND id <> $3)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, scenarioID, order, excludeID); err != nil {
		return false, fmt.Errorf("check step order: %w", err)
	}
	return taken, nil
}

// CreateStep inserts a step. A duplicate order yields ErrDuplicate.
func (r *ScenarioRepository) CreateStep(ctx context.Context, step *models.ScenarioStep) error {
	return insertStep(ctx, r.db, step)
}

// UpdateStep writes a step's mutable columns.
func (r *ScenarioRepository) UpdateStep(ctx context.Context, step *models.ScenarioStep) error {
	step.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scenario_steps SET step_order = :step_order, title = :title, instruction = :instruction, action_type = :action_type,
expected_action = :expected_action, points = :points, is_critical = :is_critical, time_limit = :time_limit, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, step)
	if err != nil {
		return fmt.Errorf("update step: %w", translateError(err))
	}
	return expectOneRow(res)
}

// MaxAwardedForStep returns the highest points_awarded recorded against the
// step across all sessions, or 0 when it has no results.
func (r *ScenarioRepository) MaxAwardedForStep(ctx context.Context, stepID string) (float64, error) {
	var awarded float64
	err := r.db.GetContext(ctx, &awarded, `SELECT COALESCE(MAX(points_awarded), 0) FROM session_step_results WHERE step_id = $1`, stepID)
	if err != nil {
		return 0, fmt.Errorf("max awarded for step: %w", err)
	}
	return awarded, nil
}

// DeleteStep removes a step. Steps with recorded results yield ErrHasDependents.
func (r *ScenarioRepository) DeleteStep(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scenario_steps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete step: %w", translateError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func insertStep(ctx context.Context, db sqlx.ExtContext, step *models.ScenarioStep) error {
	if step.ID == "" {
		step.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	step.CreatedAt = now
	step.UpdatedAt = now
	const query = `INSERT INTO scenario_steps (id, scenario_id, step_order, title, instruction, action_type, expected_action, points, is_critical, time_limit, created_at, updated_at)
VALUES (:id, :scenario_id, :step_order, :title, :instruction, :action_type, :expected_action, :points, :is_critical, :time_limit, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, db, query, step); err != nil {
		return fmt.Errorf("create step: %w", translateError(err))
	}
	return nil
}
