package dto

// CreateCompanyRequest is the payload for registering a tenant.
type CreateCompanyRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Industry    string  `json:"industry" validate:"required,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// UpdateCompanyRequest is a partial update of a tenant.
type UpdateCompanyRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Industry    *string `json:"industry" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Active      *bool   `json:"active"`
}
