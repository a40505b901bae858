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
	"github.com/gridtrain/eval-api/internal/scoring"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

type cycleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Cycle, error)
	List(ctx context.Context, filter models.CycleFilter) ([]models.Cycle, int, error)
	Create(ctx context.Context, cycle *models.Cycle) error
	Update(ctx context.Context, cycle *models.Cycle) error
	Delete(ctx context.Context, id string) error
}

type cycleEventLister interface {
	ListByCycle(ctx context.Context, cycleID string) ([]models.Event, error)
}

// CycleService manages training cycles.
type CycleService struct {
	repo       cycleRepository
	events     cycleEventLister
	users      userLookup
	companies  companyLookup
	dashboards dashboardInvalidator
	audit      auditTrail
	policy     scoring.Policy
	validator  *validator.Validate
	logger     *zap.Logger
}

// CycleServiceParams groups the collaborators of CycleService.
type CycleServiceParams struct {
	Repo       cycleRepository
	Events     cycleEventLister
	Users      userLookup
	Companies  companyLookup
	Dashboards dashboardInvalidator
	Audit      auditRecorder
	Policy     scoring.Policy
	Validator  *validator.Validate
	Logger     *zap.Logger
}

// NewCycleService constructs a CycleService.
func NewCycleService(deps CycleServiceParams) *CycleService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	return &CycleService{
		repo:       deps.Repo,
		events:     deps.Events,
		users:      deps.Users,
		companies:  deps.Companies,
		dashboards: deps.Dashboards,
		audit:      auditTrail{repo: deps.Audit, logger: deps.Logger},
		policy:     deps.Policy,
		validator:  deps.Validator,
		logger:     deps.Logger,
	}
}

// Create opens a cycle for a student.
func (s *CycleService) Create(ctx context.Context, p authz.Principal, req dto.CreateCycleRequest, meta models.RequestMeta) (*models.Cycle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid cycle payload")
	}
	companyID, err := resolveCompany(p, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceCycle, authz.ActionCreate), authz.Target{CompanyID: companyID}); err != nil {
		return nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, companyID, "company"); err != nil {
		return nil, err
	}
	if err := checkMember(ctx, s.users, req.StudentID, companyID, "student", models.RoleStudent); err != nil {
		return nil, err
	}
	if err := checkMember(ctx, s.users, req.TrainerID, companyID, "trainer", models.RoleTrainer, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := checkDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	minPassing := s.policy.DefaultMinPassing
	if req.MinPassingScore != nil {
		minPassing = *req.MinPassingScore
	}
	cycle := &models.Cycle{
		ID:              uuid.NewString(),
		CompanyID:       companyID,
		StudentID:       req.StudentID,
		TrainerID:       req.TrainerID,
		Title:           strings.TrimSpace(req.Title),
		Type:            req.Type,
		Status:          models.CycleStatusPending,
		MinPassingScore: minPassing,
		Notes:           req.Notes,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
	}
	if err := s.repo.Create(ctx, cycle); err != nil {
		return nil, writeError(err, "cycle", "create")
	}
	invalidate(ctx, s.dashboards, companyID)
	s.audit.record(ctx, p, meta, models.AuditActionCreate, string(authz.ResourceCycle), cycle.ID, nil, cycle)
	scoring.ApplyVerdict(cycle, s.policy)
	return cycle, nil
}

// Get returns a cycle with its events and the computed verdict.
func (s *CycleService) Get(ctx context.Context, p authz.Principal, id string) (*models.Cycle, error) {
	cycle, err := s.load(ctx, p, id, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByCycle(ctx, cycle.ID)
	if err != nil {
		return nil, loadError(err, "events")
	}
	cycle.Events = events
	scoring.ApplyVerdict(cycle, s.policy)
	return cycle, nil
}

// ListByCompany lists a company's cycles. Students only see their own.
func (s *CycleService) ListByCompany(ctx context.Context, p authz.Principal, filter models.CycleFilter) ([]models.Cycle, *models.Pagination, error) {
	companyID, err := resolveCompany(p, filter.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	perm := authz.Perm(authz.ResourceCycle, authz.ActionRead)
	target := authz.Target{CompanyID: companyID}
	if authz.OwnScopeOnly(p.Role, perm) {
		filter.StudentID = p.UserID
		target.OwnerID = p.UserID
	}
	if err := authz.Authorize(p, perm, target); err != nil {
		return nil, nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, companyID, "company"); err != nil {
		return nil, nil, err
	}
	filter.CompanyID = companyID
	return s.list(ctx, filter)
}

// ListByStudent lists the cycles of one student.
func (s *CycleService) ListByStudent(ctx context.Context, p authz.Principal, studentID string, filter models.CycleFilter) ([]models.Cycle, *models.Pagination, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return nil, nil, loadError(err, "student")
	}
	target := authz.Target{CompanyID: student.CompanyIDValue(), OwnerID: student.ID}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceCycle, authz.ActionRead), target); err != nil {
		return nil, nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, student.CompanyIDValue(), "student"); err != nil {
		return nil, nil, err
	}
	filter.CompanyID = ""
	filter.StudentID = student.ID
	return s.list(ctx, filter)
}

// Update edits cycle metadata. Progress can only move forward.
func (s *CycleService) Update(ctx context.Context, p authz.Principal, id string, req dto.UpdateCycleRequest, meta models.RequestMeta) (*models.Cycle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid cycle payload")
	}
	cycle, err := s.load(ctx, p, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	before := *cycle

	if req.Title != nil {
		cycle.Title = strings.TrimSpace(*req.Title)
	}
	if req.Type != nil {
		cycle.Type = *req.Type
	}
	if req.TrainerID != nil && *req.TrainerID != cycle.TrainerID {
		if err := checkMember(ctx, s.users, *req.TrainerID, cycle.CompanyID, "trainer", models.RoleTrainer, models.RoleAdmin); err != nil {
			return nil, err
		}
		cycle.TrainerID = *req.TrainerID
	}
	if req.MinPassingScore != nil {
		cycle.MinPassingScore = *req.MinPassingScore
	}
	if req.Progress != nil {
		if *req.Progress < cycle.Progress {
			return nil, appErrors.Clone(appErrors.ErrValidation, "progress cannot decrease")
		}
		cycle.Progress = *req.Progress
	}
	if req.Notes != nil {
		cycle.Notes = req.Notes
	}
	if req.StartDate != nil {
		cycle.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		cycle.EndDate = req.EndDate
	}
	if err := checkDateRange(cycle.StartDate, cycle.EndDate); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, cycle); err != nil {
		return nil, writeError(err, "cycle", "update")
	}
	invalidate(ctx, s.dashboards, cycle.CompanyID)
	s.audit.record(ctx, p, meta, models.AuditActionUpdate, string(authz.ResourceCycle), cycle.ID, before, cycle)
	scoring.ApplyVerdict(cycle, s.policy)
	return cycle, nil
}

// Delete removes a cycle together with its events.
func (s *CycleService) Delete(ctx context.Context, p authz.Principal, id string, meta models.RequestMeta) error {
	cycle, err := s.load(ctx, p, id, authz.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, cycle.ID); err != nil {
		return writeError(err, "cycle", "delete")
	}
	invalidate(ctx, s.dashboards, cycle.CompanyID)
	s.audit.record(ctx, p, meta, models.AuditActionDelete, string(authz.ResourceCycle), cycle.ID, cycle, nil)
	return nil
}

func (s *CycleService) list(ctx context.Context, filter models.CycleFilter) ([]models.Cycle, *models.Pagination, error) {
	cycles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(appErrors.ErrInternal, err, "failed to list cycles")
	}
	for i := range cycles {
		scoring.ApplyVerdict(&cycles[i], s.policy)
	}
	return cycles, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// load fetches a cycle and checks action against it.
func (s *CycleService) load(ctx context.Context, p authz.Principal, id string, action authz.Action) (*models.Cycle, error) {
	cycle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "cycle")
	}
	target := authz.Target{CompanyID: cycle.CompanyID, OwnerID: cycle.StudentID}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceCycle, action), target); err != nil {
		return nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, cycle.CompanyID, "cycle"); err != nil {
		return nil, err
	}
	return cycle, nil
}
