package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/dto"
	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

type companyRepository interface {
	FindByID(ctx context.Context, id string) (*models.Company, error)
	List(ctx context.Context, filter models.CompanyFilter) ([]models.Company, int, error)
	Create(ctx context.Context, company *models.Company) error
	Update(ctx context.Context, company *models.Company) error
	Deactivate(ctx context.Context, id string) error
}

// CompanyService manages tenants.
type CompanyService struct {
	repo       companyRepository
	audit      auditTrail
	dashboards dashboardInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCompanyService constructs a CompanyService.
func NewCompanyService(repo companyRepository, audit auditRecorder, dashboards dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *CompanyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CompanyService{
		repo:       repo,
		audit:      auditTrail{repo: audit, logger: logger},
		dashboards: dashboards,
		validator:  validate,
		logger:     logger,
	}
}

// List returns every company for super admins and the caller's own company otherwise.
func (s *CompanyService) List(ctx context.Context, p authz.Principal, filter models.CompanyFilter) ([]models.Company, *models.Pagination, error) {
	if !authz.Can(p.Role, authz.Perm(authz.ResourceCompany, authz.ActionRead)) {
		return nil, nil, appErrors.ErrForbidden
	}
	if !p.IsSuperAdmin() {
		if p.CompanyID == "" {
			return []models.Company{}, models.NewPagination(filter.Page, filter.PageSize, 0), nil
		}
		active := true
		filter.IDs = []string{p.CompanyID}
		filter.Active = &active
	}
	companies, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(appErrors.ErrInternal, err, "failed to list companies")
	}
	return companies, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single company.
func (s *CompanyService) Get(ctx context.Context, p authz.Principal, id string) (*models.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "company")
	}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceCompany, authz.ActionRead), authz.Target{CompanyID: company.ID}); err != nil {
		return nil, err
	}
	if !company.Active && !p.IsSuperAdmin() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
	}
	return company, nil
}

// Create registers a new tenant.
func (s *CompanyService) Create(ctx context.Context, p authz.Principal, req dto.CreateCompanyRequest, meta models.RequestMeta) (*models.Company, error) {
	if err := authz.Authorize(p, authz.Perm(authz.ResourceCompany, authz.ActionCreate), authz.Target{}); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid company payload")
	}
	company := &models.Company{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Industry:    strings.TrimSpace(req.Industry),
		Description: req.Description,
		Active:      true,
	}
	if err := s.repo.Create(ctx, company); err != nil {
		return nil, writeError(err, "company", "create")
	}
	s.audit.record(ctx, p, meta, models.AuditActionCreate, string(authz.ResourceCompany), company.ID, nil, company)
	return company, nil
}

// Update edits a company. Only super admins may toggle the active flag.
func (s *CompanyService) Update(ctx context.Context, p authz.Principal, id string, req dto.UpdateCompanyRequest, meta models.RequestMeta) (*models.Company, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid company payload")
	}
	company, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceCompany, authz.ActionUpdate), authz.Target{CompanyID: company.ID}); err != nil {
		return nil, err
	}

	before := *company
	if req.Name != nil {
		company.Name = strings.TrimSpace(*req.Name)
	}
	if req.Industry != nil {
		company.Industry = strings.TrimSpace(*req.Industry)
	}
	if req.Description != nil {
		company.Description = req.Description
	}
	if req.Active != nil && *req.Active != company.Active {
		if !p.IsSuperAdmin() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only super admins may change company status")
		}
		company.Active = *req.Active
	}

	if err := s.repo.Update(ctx, company); err != nil {
		return nil, writeError(err, "company", "update")
	}
	if before.Active != company.Active {
		invalidate(ctx, s.dashboards, company.ID)
	}
	s.audit.record(ctx, p, meta, models.AuditActionUpdate, string(authz.ResourceCompany), company.ID, before, company)
	return company, nil
}

// Delete deactivates a company. Its users lose their sessions and can no longer log in.
func (s *CompanyService) Delete(ctx context.Context, p authz.Principal, id string, meta models.RequestMeta) error {
	if err := authz.Authorize(p, authz.Perm(authz.ResourceCompany, authz.ActionDelete), authz.Target{CompanyID: id}); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return writeError(err, "company", "delete")
	}
	invalidate(ctx, s.dashboards, id)
	s.audit.record(ctx, p, meta, models.AuditActionDelete, string(authz.ResourceCompany), id, nil, map[string]bool{"active": false})
	return nil
}
