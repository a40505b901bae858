package models

import "time"

// UserRole represents the available roles for the capability policy.
type UserRole string

const (
	RoleSuperAdmin UserRole = "super_admin"
	RoleAdmin      UserRole = "admin"
	RoleTrainer    UserRole = "trainer"
	RoleStudent    UserRole = "student"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleTrainer, RoleStudent:
		return true
	}
	return false
}

// User represents an application user stored in the users table. CompanyID is
// nil only for super admins.
type User struct {
	ID           string     `db:"id" json:"id"`
	CompanyID    *string    `db:"company_id" json:"company_id,omitempty"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// CompanyIDValue returns the company id or an empty string.
func (u *User) CompanyIDValue() string {
	if u == nil || u.CompanyID == nil {
		return ""
	}
	return *u.CompanyID
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	CompanyID string
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NewPagination normalises page values the same way repositories do.
func NewPagination(page, pageSize, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
