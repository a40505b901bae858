package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gridtrain/eval-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind the company dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// UsersByRole counts active users per role.
func (r *DashboardRepository) UsersByRole(ctx context.Context, companyID string) ([]models.CountByKey, error) {
	const query = `SELECT role AS key, COUNT(*) AS count FROM users WHERE company_id = $1 AND active = TRUE GROUP BY role ORDER BY role`
	var rows []models.CountByKey
	if err := r.db.SelectContext(ctx, &rows, query, companyID); err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	return rows, nil
}

// CyclesByStatus counts cycles per status.
func (r *DashboardRepository) CyclesByStatus(ctx context.Context, companyID string) ([]models.CountByKey, error) {
	const query = `SELECT status AS key, COUNT(*) AS count FROM cycles WHERE company_id = $1 GROUP BY status ORDER BY status`
	var rows []models.CountByKey
	if err := r.db.SelectContext(ctx, &rows, query, companyID); err != nil {
		return nil, fmt.Errorf("count cycles by status: %w", err)
	}
	return rows, nil
}

// CycleAggregate summarises completed cycles. Approval is evaluated against each
// cycle's own minimum passing score.
func (r *DashboardRepository) CycleAggregate(ctx context.Context, companyID string) (*models.CycleAggregate, error) {
	const query = `SELECT COUNT(*) AS completed,
COUNT(*) FILTER (WHERE score >= min_passing_score) AS approved,
AVG(score) AS average_score
FROM cycles WHERE company_id = $1 AND status = 'completed' AND score IS NOT NULL`
	var agg models.CycleAggregate
	if err := r.db.GetContext(ctx, &agg, query, companyID); err != nil {
		return nil, fmt.Errorf("aggregate cycles: %w", err)
	}
	return &agg, nil
}

// SessionsByStatus counts sessions per status.
func (r *DashboardRepository) SessionsByStatus(ctx context.Context, companyID string) ([]models.CountByKey, error) {
	const query = `SELECT status AS key, COUNT(*) AS count FROM simulator_sessions WHERE company_id = $1 GROUP BY status ORDER BY status`
	var rows []models.CountByKey
	if err := r.db.SelectContext(ctx, &rows, query, companyID); err != nil {
		return nil, fmt.Errorf("count sessions by status: %w", err)
	}
	return rows, nil
}

// SessionAggregate summarises completed sessions.
func (r *DashboardRepository) SessionAggregate(ctx context.Context, companyID string) (*models.SessionAggregate, error) {
	const query = `SELECT COUNT(*) AS finished,
COUNT(*) FILTER (WHERE passed) AS passed,
COUNT(*) FILTER (WHERE critical_failure) AS critical_failures,
AVG(score) AS average_score,
AVG(maneuver_precision) AS average_precision
FROM simulator_sessions WHERE company_id = $1 AND status = 'completed'`
	var agg models.SessionAggregate
	if err := r.db.GetContext(ctx, &agg, query, companyID); err != nil {
		return nil, fmt.Errorf("aggregate sessions: %w", err)
	}
	return &agg, nil
}
