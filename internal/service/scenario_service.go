package service

import (
	"context"
	"sort"
	"strconv"
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

type scenarioRepository interface {
	FindByID(ctx context.Context, id string) (*models.SimulatorScenario, error)
	List(ctx context.Context, filter models.ScenarioFilter) ([]models.SimulatorScenario, int, error)
	Create(ctx context.Context, scenario *models.SimulatorScenario) error
	Update(ctx context.Context, scenario *models.SimulatorScenario) error
	Delete(ctx context.Context, id string) error
	FindStep(ctx context.Context, id string) (*models.ScenarioStep, error)
	ListSteps(ctx context.Context, scenarioID string) ([]models.ScenarioStep, error)
	StepOrderTaken(ctx context.Context, scenarioID string, order int, excludeID string) (bool, error)
	CreateStep(ctx context.Context, step *models.ScenarioStep) error
	UpdateStep(ctx context.Context, step *models.ScenarioStep) error
	MaxAwardedForStep(ctx context.Context, stepID string) (float64, error)
	DeleteStep(ctx context.Context, id string) error
}

// ScenarioService manages simulator scenarios and their steps.
type ScenarioService struct {
	repo      scenarioRepository
	companies companyLookup
	audit     auditTrail
	policy    scoring.Policy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScenarioService constructs a ScenarioService.
func NewScenarioService(repo scenarioRepository, companies companyLookup, audit auditRecorder, policy scoring.Policy, validate *validator.Validate, logger *zap.Logger) *ScenarioService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScenarioService{
		repo:      repo,
		companies: companies,
		audit:     auditTrail{repo: audit, logger: logger},
		policy:    policy,
		validator: validate,
		logger:    logger,
	}
}

// Create registers a scenario with its initial steps.
func (s *ScenarioService) Create(ctx context.Context, p authz.Principal, req dto.CreateScenarioRequest, meta models.RequestMeta) (*models.SimulatorScenario, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid scenario payload")
	}

	target := authz.Target{Global: true}
	var companyID *string
	switch {
	case req.CompanyID != nil && *req.CompanyID != "":
		companyID = req.CompanyID
		target = authz.Target{CompanyID: *req.CompanyID}
	case !p.IsSuperAdmin():
		companyID = optionalString(p.CompanyID)
		target = authz.Target{CompanyID: p.CompanyID}
	}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceScenario, authz.ActionCreate), target); err != nil {
		return nil, err
	}
	if companyID != nil {
		if err := ensureTenantVisible(ctx, s.companies, p, *companyID, "company"); err != nil {
			return nil, err
		}
	}

	seen := make(map[int]bool, len(req.Steps))
	steps := make([]models.ScenarioStep, 0, len(req.Steps))
	for _, in := range req.Steps {
		if seen[in.StepOrder] {
			return nil, appErrors.Clone(appErrors.ErrConflict, "duplicate step order "+strconv.Itoa(in.StepOrder))
		}
		seen[in.StepOrder] = true
		steps = append(steps, stepFromInput(in))
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepOrder < steps[j].StepOrder })

	passing := s.policy.SessionPassingScore
	if req.PassingScore != nil {
		passing = *req.PassingScore
	}
	scenario := &models.SimulatorScenario{
		ID:           uuid.NewString(),
		CompanyID:    companyID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Category:     req.Category,
		Difficulty:   req.Difficulty,
		PassingScore: passing,
		Steps:        steps,
	}
	if err := s.repo.Create(ctx, scenario); err != nil {
		return nil, writeError(err, "scenario", "create")
	}
	s.audit.record(ctx, p, meta, models.AuditActionCreate, string(authz.ResourceScenario), scenario.ID, nil, map[string]interface{}{"title": scenario.Title, "steps": len(steps)})
	return scenario, nil
}

// List returns the caller's company scenarios plus the global ones.
func (s *ScenarioService) List(ctx context.Context, p authz.Principal, filter models.ScenarioFilter) ([]models.SimulatorScenario, *models.Pagination, error) {
	if !authz.Can(p.Role, authz.Perm(authz.ResourceScenario, authz.ActionRead)) {
		return nil, nil, appErrors.ErrForbidden
	}
	if p.IsSuperAdmin() {
		filter.AllCompanies = filter.CompanyID == ""
	} else {
		if err := ensureTenantVisible(ctx, s.companies, p, p.CompanyID, "company"); err != nil {
			return nil, nil, err
		}
		filter.CompanyID = p.CompanyID
		filter.AllCompanies = false
	}
	scenarios, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(appErrors.ErrInternal, err, "failed to list scenarios")
	}
	return scenarios, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a scenario with its steps ordered by step order.
func (s *ScenarioService) Get(ctx context.Context, p authz.Principal, id string) (*models.SimulatorScenario, error) {
	scenario, err := s.load(ctx, p, id, authz.ResourceScenario, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	steps, err := s.repo.ListSteps(ctx, scenario.ID)
	if err != nil {
		return nil, loadError(err, "steps")
	}
	scenario.Steps = steps
	return scenario, nil
}

// Update edits scenario metadata.
func (s *ScenarioService) Update(ctx context.Context, p authz.Principal, id string, req dto.UpdateScenarioRequest, meta models.RequestMeta) (*models.SimulatorScenario, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid scenario payload")
	}
	scenario, err := s.load(ctx, p, id, authz.ResourceScenario, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	before := *scenario
	if req.Title != nil {
		scenario.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		scenario.Description = req.Description
	}
	if req.Category != nil {
		scenario.Category = *req.Category
	}
	if req.Difficulty != nil {
		scenario.Difficulty = *req.Difficulty
	}
	if req.PassingScore != nil {
		scenario.PassingScore = *req.PassingScore
	}
	if err := s.repo.Update(ctx, scenario); err != nil {
		return nil, writeError(err, "scenario", "update")
	}
	s.audit.record(ctx, p, meta, models.AuditActionUpdate, string(authz.ResourceScenario), scenario.ID, before, scenario)
	return scenario, nil
}

// Delete removes a scenario and its steps. Scenarios with sessions are kept.
func (s *ScenarioService) Delete(ctx context.Context, p authz.Principal, id string, meta models.RequestMeta) error {
	scenario, err := s.load(ctx, p, id, authz.ResourceScenario, authz.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, scenario.ID); err != nil {
		return writeError(err, "scenario", "delete")
	}
	s.audit.record(ctx, p, meta, models.AuditActionDelete, string(authz.ResourceScenario), scenario.ID, map[string]string{"title": scenario.Title}, nil)
	return nil
}

// ListSteps returns the steps of a scenario.
func (s *ScenarioService) ListSteps(ctx context.Context, p authz.Principal, scenarioID string) ([]models.ScenarioStep, error) {
	scenario, err := s.load(ctx, p, scenarioID, authz.ResourceStep, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	steps, err := s.repo.ListSteps(ctx, scenario.ID)
	if err != nil {
		return nil, loadError(err, "steps")
	}
	if steps == nil {
		steps = []models.ScenarioStep{}
	}
	return steps, nil
}

// CreateStep appends a step. Step order is unique within a scenario.
func (s *ScenarioService) CreateStep(ctx context.Context, p authz.Principal, req dto.CreateStepRequest) (*models.ScenarioStep, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid step payload")
	}
	scenario, err := s.load(ctx, p, req.ScenarioID, authz.ResourceStep, authz.ActionCreate)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOrderFree(ctx, scenario.ID, req.StepOrder, ""); err != nil {
		return nil, err
	}
	step := stepFromInput(req.StepInput)
	step.ScenarioID = scenario.ID
	if err := s.repo.CreateStep(ctx, &step); err != nil {
		return nil, writeError(err, "step order", "create")
	}
	return &step, nil
}

// UpdateStep edits a step.
func (s *ScenarioService) UpdateStep(ctx context.Context, p authz.Principal, id string, req dto.UpdateStepRequest) (*models.ScenarioStep, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid step payload")
	}
	step, err := s.repo.FindStep(ctx, id)
	if err != nil {
		return nil, loadError(err, "step")
	}
	if _, err := s.load(ctx, p, step.ScenarioID, authz.ResourceStep, authz.ActionUpdate); err != nil {
		return nil, err
	}
	if req.StepOrder != nil && *req.StepOrder != step.StepOrder {
		if err := s.ensureOrderFree(ctx, step.ScenarioID, *req.StepOrder, step.ID); err != nil {
			return nil, err
		}
		step.StepOrder = *req.StepOrder
	}
	if req.Title != nil {
		step.Title = strings.TrimSpace(*req.Title)
	}
	if req.Instruction != nil {
		step.Instruction = req.Instruction
	}
	if req.ActionType != nil {
		step.ActionType = *req.ActionType
	}
	if req.ExpectedAction != nil {
		step.ExpectedAction = req.ExpectedAction
	}
	if req.Points != nil {
		if *req.Points < step.Points {
			awarded, err := s.repo.MaxAwardedForStep(ctx, step.ID)
			if err != nil {
				return nil, loadError(err, "step results")
			}
			if awarded > *req.Points {
				return nil, appErrors.Clone(appErrors.ErrConflict, "points cannot drop below points already awarded for this step")
			}
		}
		step.Points = *req.Points
	}
	if req.IsCritical != nil {
		step.IsCritical = *req.IsCritical
	}
	if req.TimeLimit != nil {
		step.TimeLimit = *req.TimeLimit
	}
	if err := s.repo.UpdateStep(ctx, step); err != nil {
		return nil, writeError(err, "step order", "update")
	}
	return step, nil
}

// DeleteStep removes a step that has no recorded results.
func (s *ScenarioService) DeleteStep(ctx context.Context, p authz.Principal, id string) error {
	step, err := s.repo.FindStep(ctx, id)
	if err != nil {
		return loadError(err, "step")
	}
	if _, err := s.load(ctx, p, step.ScenarioID, authz.ResourceStep, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.DeleteStep(ctx, step.ID); err != nil {
		return writeError(err, "step", "delete")
	}
	return nil
}

func (s *ScenarioService) ensureOrderFree(ctx context.Context, scenarioID string, order int, excludeID string) error {
	taken, err := s.repo.StepOrderTaken(ctx, scenarioID, order, excludeID)
	if err != nil {
		return appErrors.Wrap(appErrors.ErrInternal, err, "failed to check step order")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrConflict, "step order "+strconv.Itoa(order)+" is already used in this scenario")
	}
	return nil
}

func (s *ScenarioService) load(ctx context.Context, p authz.Principal, id string, resource authz.Resource, action authz.Action) (*models.SimulatorScenario, error) {
	scenario, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "scenario")
	}
	if err := authz.Authorize(p, authz.Perm(resource, action), scenarioTarget(scenario)); err != nil {
		return nil, err
	}
	if !scenario.Global() {
		if err := ensureTenantVisible(ctx, s.companies, p, *scenario.CompanyID, "scenario"); err != nil {
			return nil, err
		}
	}
	return scenario, nil
}

func scenarioTarget(sc *models.SimulatorScenario) authz.Target {
	if sc.Global() {
		return authz.Target{Global: true}
	}
	return authz.Target{CompanyID: *sc.CompanyID}
}

func stepFromInput(in dto.StepInput) models.ScenarioStep {
	return models.ScenarioStep{
		ID:             uuid.NewString(),
		StepOrder:      in.StepOrder,
		Title:          strings.TrimSpace(in.Title),
		Instruction:    in.Instruction,
		ActionType:     in.ActionType,
		ExpectedAction: in.ExpectedAction,
		Points:         in.Points,
		IsCritical:     in.IsCritical,
		TimeLimit:      in.TimeLimit,
	}
}
