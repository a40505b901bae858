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
	"github.com/lib/pq"

	"github.com/gridtrain/eval-api/internal/models"
)

const companyColumns = `id, name, industry, description, active, created_at, updated_at`

// CompanyRepository provides database access for tenants.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository creates a new instance of CompanyRepository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// FindByID returns a company by identifier.
func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	var company models.Company
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find company: %w", err)
	}
	return &company, nil
}

// List returns companies matching the filter together with the total count.
func (r *CompanyRepository) List(ctx context.Context, filter models.CompanyFilter) ([]models.Company, int, error) {
	var where whereBuilder
	if len(filter.IDs) > 0 {
		where.add("id = ANY($%d)", pq.Array(filter.IDs))
	}
	if filter.Active != nil {
		where.add("active = $%d", *filter.Active)
	}
	if filter.Search != "" {
		where.add("LOWER(name) LIKE $%d", "%"+strings.ToLower(filter.Search)+"%")
	}
	var companies []models.Company
	total, err := selectPage(ctx, r.db, &companies, pageQuery{
		table:    "companies",
		columns:  companyColumns,
		where:    where,
		orderBy:  "name ASC",
		page:     filter.Page,
		pageSize: filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

// Create inserts a new company.
func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	company.CreatedAt = now
	company.UpdatedAt = now
	const query = `INSERT INTO companies (id, name, industry, description, active, created_at, updated_at) VALUES (:id, :name, :industry, :description, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("create company: %w", translateError(err))
	}
	return nil
}

// Update writes the mutable company fields.
func (r *CompanyRepository) Update(ctx context.Context, company *models.Company) error {
	company.UpdatedAt = time.Now().UTC()
	const query = `UPDATE companies SET name = :name, industry = :industry, description = :description, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("update company: %w", translateError(err))
	}
	return nil
}

// Deactivate soft deletes a company and disables its users in one transaction.
func (r *CompanyRepository) Deactivate(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE companies SET active = FALSE, updated_at = $2 WHERE id = $1`, id, now)
		if err != nil {
			return fmt.Errorf("deactivate company: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		if _, err := tx.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE revoked = FALSE AND user_id IN (SELECT id FROM users WHERE company_id = $1)`, id, now); err != nil {
			return fmt.Errorf("revoke company sessions: %w", err)
		}
		return nil
	})
}
