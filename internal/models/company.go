package models

import "time"

// Company is the tenant root. Deactivating a company hides everything it owns.
type Company struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Industry    string    `db:"industry" json:"industry"`
	Description *string   `db:"description" json:"description,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CompanyFilter scopes company listings.
type CompanyFilter struct {
	IDs      []string
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
