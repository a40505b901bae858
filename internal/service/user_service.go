package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// CreateUserRequest represents payload for creating users. CompanyID defaults
// to the caller's company and must be empty for super admins.
type CreateUserRequest struct {
	CompanyID *string         `json:"company_id" validate:"omitempty,uuid"`
	Name      string          `json:"name" validate:"required,max=255"`
	Email     string          `json:"email" validate:"required,email"`
	Role      models.UserRole `json:"role" validate:"required,oneof=super_admin admin trainer student"`
	Password  string          `json:"password" validate:"required,min=8"`
	Active    *bool           `json:"active"`
}

// UpdateUserRequest payload for updating users. Nil fields are left untouched.
type UpdateUserRequest struct {
	Name   *string          `json:"name" validate:"omitempty,max=255"`
	Email  *string          `json:"email" validate:"omitempty,email"`
	Role   *models.UserRole `json:"role" validate:"omitempty,oneof=super_admin admin trainer student"`
	Active *bool            `json:"active"`
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	companies companyLookup
	audit     auditTrail
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, companies companyLookup, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{
		repo:      repo,
		companies: companies,
		audit:     auditTrail{repo: audit, logger: logger},
		validator: validate,
		logger:    logger,
	}
}

// ListByCompany returns paginated users of a company.
func (s *UserService) ListByCompany(ctx context.Context, p authz.Principal, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	companyID, err := resolveCompany(p, filter.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	perm := authz.Perm(authz.ResourceUser, authz.ActionRead)
	if authz.OwnScopeOnly(p.Role, perm) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "role "+string(p.Role)+" may not list users")
	}
	if err := authz.Authorize(p, perm, authz.Target{CompanyID: companyID}); err != nil {
		return nil, nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, companyID, "company"); err != nil {
		return nil, nil, err
	}

	filter.CompanyID = companyID
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(appErrors.ErrInternal, err, "failed to list users")
	}
	return users, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, p authz.Principal, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "user")
	}
	target := authz.Target{CompanyID: user.CompanyIDValue(), UserID: user.ID}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceUser, authz.ActionRead), target); err != nil {
		return nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, user.CompanyIDValue(), "user"); err != nil {
		return nil, err
	}
	return user, nil
}

// Create adds a new user.
func (s *UserService) Create(ctx context.Context, p authz.Principal, req CreateUserRequest, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid create user payload")
	}
	if err := authz.CanAssignRole(p, req.Role); err != nil {
		return nil, err
	}

	var companyID string
	if req.Role == models.RoleSuperAdmin {
		if req.CompanyID != nil && *req.CompanyID != "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "super admins do not belong to a company")
		}
	} else {
		requested := ""
		if req.CompanyID != nil {
			requested = *req.CompanyID
		}
		resolved, err := resolveCompany(p, requested)
		if err != nil {
			return nil, err
		}
		companyID = resolved
	}

	if err := authz.Authorize(p, authz.Perm(authz.ResourceUser, authz.ActionCreate), authz.Target{CompanyID: companyID}); err != nil {
		return nil, err
	}
	if companyID != "" {
		company, err := s.companies.FindByID(ctx, companyID)
		if err != nil {
			return nil, loadError(err, "company")
		}
		if !company.Active {
			return nil, appErrors.Clone(appErrors.ErrValidation, "company is inactive")
		}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err, "failed to hash password")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	user := &models.User{
		ID:           uuid.NewString(),
		CompanyID:    optionalString(companyID),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Role:         req.Role,
		Active:       active,
		PasswordHash: string(passwordHash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, writeError(err, "user", "create")
	}

	s.audit.record(ctx, p, meta, models.AuditActionCreate, string(authz.ResourceUser), user.ID, nil, map[string]interface{}{"email": user.Email, "role": user.Role})
	return user, nil
}

// Update modifies the user attributes.
func (s *UserService) Update(ctx context.Context, p authz.Principal, id string, req UpdateUserRequest, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid update user payload")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "user")
	}
	target := authz.Target{CompanyID: user.CompanyIDValue(), UserID: user.ID}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceUser, authz.ActionUpdate), target); err != nil {
		return nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, user.CompanyIDValue(), "user"); err != nil {
		return nil, err
	}

	before := *user
	if req.Role != nil && *req.Role != user.Role {
		if err := authz.CanAssignRole(p, *req.Role); err != nil {
			return nil, err
		}
		if (*req.Role == models.RoleSuperAdmin) != (user.CompanyID == nil) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "role change would move the user across tenants")
		}
		user.Role = *req.Role
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Active != nil {
		if !*req.Active && user.ID == p.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "users may not deactivate themselves")
		}
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, writeError(err, "user", "update")
	}

	s.audit.record(ctx, p, meta, models.AuditActionUpdate, string(authz.ResourceUser), user.ID,
		map[string]interface{}{"name": before.Name, "email": before.Email, "role": before.Role, "active": before.Active},
		map[string]interface{}{"name": user.Name, "email": user.Email, "role": user.Role, "active": user.Active})
	return user, nil
}

// Delete deactivates a user and revokes its sessions.
func (s *UserService) Delete(ctx context.Context, p authz.Principal, id string, meta models.RequestMeta) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return loadError(err, "user")
	}
	target := authz.Target{CompanyID: user.CompanyIDValue(), UserID: user.ID}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceUser, authz.ActionDelete), target); err != nil {
		return err
	}
	if user.Role == models.RoleSuperAdmin && !p.IsSuperAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only super admins may delete super admins")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "user", "delete")
	}

	s.audit.record(ctx, p, meta, models.AuditActionDelete, string(authz.ResourceUser), user.ID, map[string]interface{}{"email": user.Email, "active": user.Active}, nil)
	return nil
}
