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
	sessionColumns = `id, scenario_id, student_id, company_id, status, start_time, end_time, duration, score, max_score, response_time,
maneuver_precision, procedure_adherence, passed, critical_failure, logs, created_at, updated_at`
	resultColumns = `id, session_id, step_id, is_correct, points_awarded, response_time, action_taken, recorded_at`
)

// SessionRepository persists simulator sessions and their step results.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindByID returns a session without its results.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.SimulatorSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM simulator_sessions WHERE id = $1`
	var session models.SimulatorSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// List returns sessions matching the filter, newest first.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.SimulatorSession, int, error) {
	var where whereBuilder
	if filter.CompanyID != "" {
		where.add("company_id = $%d", filter.CompanyID)
	}
	if filter.StudentID != "" {
		where.add("student_id = $%d", filter.StudentID)
	}
	if filter.ScenarioID != "" {
		where.add("scenario_id = $%d", filter.ScenarioID)
	}
	if filter.Status != nil {
		where.add("status = $%d", *filter.Status)
	}
	var sessions []models.SimulatorSession
	total, err := selectPage(ctx, r.db, &sessions, pageQuery{
		table:    "simulator_sessions",
		columns:  sessionColumns,
		where:    where,
		orderBy:  "created_at DESC",
		page:     filter.Page,
		pageSize: filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// Create inserts a session.
func (r *SessionRepository) Create(ctx context.Context, session *models.SimulatorSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Logs == nil {
		session.Logs = models.StringList{}
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	const query = `INSERT INTO simulator_sessions (id, scenario_id, student_id, company_id, status, start_time, end_time, duration, score, max_score,
response_time, maneuver_precision, procedure_adherence, passed, critical_failure, logs, created_at, updated_at)
VALUES (:id, :scenario_id, :student_id, :company_id, :status, :start_time, :end_time, :duration, :score, :max_score,
:response_time, :maneuver_precision, :procedure_adherence, :passed, :critical_failure, :logs, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", translateError(err))
	}
	return nil
}

// Update writes the session's lifecycle and metric columns.
func (r *SessionRepository) Update(ctx context.Context, session *models.SimulatorSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE simulator_sessions SET status = :status, start_time = :start_time, end_time = :end_time, duration = :duration, score = :score,
max_score = :max_score, response_time = :response_time, maneuver_precision = :maneuver_precision, procedure_adherence = :procedure_adherence,
passed = :passed, critical_failure = :critical_failure, logs = :logs, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a session and its step results in one transaction.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_step_results WHERE session_id = $1`, id); err != nil {
			return fmt.Errorf("delete session results: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM simulator_sessions WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// ListResults returns a session's step results in recording order.
func (r *SessionRepository) ListResults(ctx context.Context, sessionID string) ([]models.SessionStepResult, error) {
	query := `SELECT ` + resultColumns + ` FROM session_step_results WHERE session_id = $1 ORDER BY recorded_at ASC`
	var results []models.SessionStepResult
	if err := r.db.SelectContext(ctx, &results, query, sessionID); err != nil {
		return nil, fmt.Errorf("list step results: %w", err)
	}
	return results, nil
}

// CreateResult inserts a step result. A second result for the same step yields ErrDuplicate.
func (r *SessionRepository) CreateResult(ctx context.Context, result *models.SessionStepResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.RecordedAt.IsZero() {
		result.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO session_step_results (id, session_id, step_id, is_correct, points_awarded, response_time, action_taken, recorded_at)
VALUES (:id, :session_id, :step_id, :is_correct, :points_awarded, :response_time, :action_taken, :recorded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create step result: %w", translateError(err))
	}
	return nil
}
