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

const cycleColumns = `id, company_id, student_id, trainer_id, title, type, status, progress, score, min_passing_score, notes, start_date, end_date, completed_at, created_at, updated_at`

// CycleRepository persists training cycles.
type CycleRepository struct {
	db *sqlx.DB
}

// NewCycleRepository constructs the repository.
func NewCycleRepository(db *sqlx.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

// FindByID returns a cycle by identifier.
func (r *CycleRepository) FindByID(ctx context.Context, id string) (*models.Cycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM cycles WHERE id = $1`
	var cycle models.Cycle
	if err := r.db.GetContext(ctx, &cycle, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find cycle: %w", err)
	}
	return &cycle, nil
}

// List returns cycles matching the filter, newest first.
func (r *CycleRepository) List(ctx context.Context, filter models.CycleFilter) ([]models.Cycle, int, error) {
	var where whereBuilder
	if filter.CompanyID != "" {
		where.add("company_id = $%d", filter.CompanyID)
	}
	if filter.StudentID != "" {
		where.add("student_id = $%d", filter.StudentID)
	}
	if filter.TrainerID != "" {
		where.add("trainer_id = $%d", filter.TrainerID)
	}
	if filter.Status != nil {
		where.add("status = $%d", *filter.Status)
	}
	if filter.Type != nil {
		where.add("type = $%d", *filter.Type)
	}
	var cycles []models.Cycle
	total, err := selectPage(ctx, r.db, &cycles, pageQuery{
		table:    "cycles",
		columns:  cycleColumns,
		where:    where,
		orderBy:  "created_at DESC",
		page:     filter.Page,
		pageSize: filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return cycles, total, nil
}

// Create inserts a cycle.
func (r *CycleRepository) Create(ctx context.Context, cycle *models.Cycle) error {
	if cycle.ID == "" {
		cycle.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cycle.CreatedAt = now
	cycle.UpdatedAt = now
	const query = `INSERT INTO cycles (id, company_id, student_id, trainer_id, title, type, status, progress, score, min_passing_score, notes, start_date, end_date, completed_at, created_at, updated_at)
VALUES (:id, :company_id, :student_id, :trainer_id, :title, :type, :status, :progress, :score, :min_passing_score, :notes, :start_date, :end_date, :completed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cycle); err != nil {
		return fmt.Errorf("create cycle: %w", translateError(err))
	}
	return nil
}

// Update writes every mutable column of the cycle.
func (r *CycleRepository) Update(ctx context.Context, cycle *models.Cycle) error {
	return updateCycleTx(ctx, r.db, cycle)
}

// Delete removes a cycle and its events in one transaction, children first.
func (r *CycleRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE cycle_id = $1`, id); err != nil {
			return fmt.Errorf("delete cycle events: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM cycles WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete cycle: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

func updateCycleTx(ctx context.Context, db sqlx.ExtContext, cycle *models.Cycle) error {
	cycle.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cycles SET trainer_id = :trainer_id, title = :title, type = :type, status = :status, progress = :progress, score = :score,
min_passing_score = :min_passing_score, notes = :notes, start_date = :start_date, end_date = :end_date, completed_at = :completed_at, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, db, query, cycle)
	if err != nil {
		return fmt.Errorf("update cycle: %w", translateError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
