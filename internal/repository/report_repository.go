package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gridtrain/eval-api/internal/models"
)

const reportColumns = `id, company_id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message`

// ReportRepository tracks asynchronous export jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository wraps db.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a job, defaulting it to QUEUED.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO report_jobs (`+reportColumns+`)
		VALUES (:id, :company_id, :type, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`, job)
	if err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// GetByID returns sql.ErrNoRows unwrapped when the job does not exist.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	err := r.db.GetContext(ctx, &job, `SELECT `+reportColumns+` FROM report_jobs WHERE id = $1`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("get report job: %w", err)
	}
	return &job, nil
}

// UpdateReportJobParams holds a partial update; nil fields are left alone.
type UpdateReportJobParams struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

func (p UpdateReportJobParams) assignments() (cols []string, args []interface{}) {
	add := func(column string, value interface{}) {
		args = append(args, value)
		cols = append(cols, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.Progress != nil {
		add("progress", *p.Progress)
	}
	if p.ResultURL != nil {
		add("result_url", *p.ResultURL)
	}
	if p.ErrorMessage != nil {
		add("error_message", *p.ErrorMessage)
	}
	if p.FinishedAt != nil {
		add("finished_at", *p.FinishedAt)
	}
	return cols, args
}

// Update applies the non-nil fields of params. An empty update is a no-op.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportJobParams) error {
	cols, args := params.assignments()
	if len(cols) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE report_jobs SET %s WHERE id = $%d", strings.Join(cols, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update report job %s: %w", id, err)
	}
	return nil
}

// ListQueued returns the oldest queued jobs so they can be re-enqueued after a restart.
func (r *ReportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	var jobs []models.ReportJob
	err := r.db.SelectContext(ctx, &jobs, `SELECT `+reportColumns+` FROM report_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2`, models.ReportStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("list queued report jobs: %w", err)
	}
	return jobs, nil
}

// ExpireFinishedBefore drops download links of jobs that finished before
// cutoff and reports how many were cleared.
func (r *ReportRepository) ExpireFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE report_jobs SET result_url = NULL WHERE status = $1 AND finished_at < $2 AND result_url IS NOT NULL`, models.ReportStatusFinished, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire report jobs: %w", err)
	}
	return res.RowsAffected()
}
