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

const userColumns = `id, company_id, name, email, password_hash, role, active, last_login, created_at, updated_at`

var userSortColumns = map[string]bool{"email": true, "name": true, "created_at": true, "updated_at": true}

// UserRepository stores accounts and their refresh sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository wraps db.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail looks an account up by its case-folded email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, "email", strings.ToLower(email))
}

// FindByID looks an account up by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, "id", id)
}

// getUser keeps sql.ErrNoRows unwrapped so services can map it to a 404.
func (r *UserRepository) getUser(ctx context.Context, column string, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1 LIMIT 1`
	var user models.User
	err := r.db.GetContext(ctx, &user, query, value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("find user by %s: %w", column, err)
	}
	return &user, nil
}

// UpdateLastLogin stamps a successful sign-in.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $2, updated_at = $3 WHERE id = $1`, id, ts, ts)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the bcrypt hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// List pages through accounts. Unknown sort keys fall back to newest first.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var where whereBuilder
	if filter.CompanyID != "" {
		where.add("company_id = $%d", filter.CompanyID)
	}
	if filter.Role != nil {
		where.add("role = $%d", *filter.Role)
	}
	if filter.Active != nil {
		where.add("active = $%d", *filter.Active)
	}
	if filter.Search != "" {
		where.add("(LOWER(email) LIKE $%[1]d OR LOWER(name) LIKE $%[1]d)", "%"+strings.ToLower(filter.Search)+"%")
	}

	var users []models.User
	total, err := selectPage(ctx, r.db, &users, pageQuery{
		table:    "users",
		columns:  userColumns,
		where:    where,
		orderBy:  userOrder(filter.SortBy, filter.SortOrder),
		page:     filter.Page,
		pageSize: filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func userOrder(sortBy, sortOrder string) string {
	if !userSortColumns[sortBy] {
		sortBy = "created_at"
	}
	sortOrder = strings.ToUpper(sortOrder)
	if sortOrder != "ASC" {
		sortOrder = "DESC"
	}
	return sortBy + " " + sortOrder
}

// Create inserts an account. A clash on the email index yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = strings.ToLower(user.Email)

	_, err := r.db.NamedExecContext(ctx, `INSERT INTO users (id, company_id, name, email, password_hash, role, active, created_at, updated_at)
		VALUES (:id, :company_id, :name, :email, :password_hash, :role, :active, :created_at, :updated_at)`, user)
	if err != nil {
		return fmt.Errorf("create user: %w", translateError(err))
	}
	return nil
}

// Update writes the mutable profile fields.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	user.Email = strings.ToLower(user.Email)
	_, err := r.db.NamedExecContext(ctx, `UPDATE users SET name = :name, email = :email, role = :role, active = :active, updated_at = :updated_at WHERE id = :id`, user)
	if err != nil {
		return fmt.Errorf("update user: %w", translateError(err))
	}
	return nil
}

// Delete deactivates the account and revokes its sessions in one transaction.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET active = FALSE, updated_at = $2 WHERE id = $1`, id, now); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return revokeSessions(ctx, tx, id, now)
	})
}

// CreateAuditLog lets the auth flow record logins without a separate repository.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return insertAuditLog(ctx, r.db, log)
}
