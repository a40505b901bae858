package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/dto"
	"github.com/gridtrain/eval-api/internal/models"
	"github.com/gridtrain/eval-api/internal/realtime"
	"github.com/gridtrain/eval-api/internal/scoring"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

type sessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.SimulatorSession, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.SimulatorSession, int, error)
	Create(ctx context.Context, session *models.SimulatorSession) error
	Update(ctx context.Context, session *models.SimulatorSession) error
	Delete(ctx context.Context, id string) error
	ListResults(ctx context.Context, sessionID string) ([]models.SessionStepResult, error)
	CreateResult(ctx context.Context, result *models.SessionStepResult) error
}

type sessionScenarioLookup interface {
	FindByID(ctx context.Context, id string) (*models.SimulatorScenario, error)
	FindStep(ctx context.Context, id string) (*models.ScenarioStep, error)
	ListSteps(ctx context.Context, scenarioID string) ([]models.ScenarioStep, error)
}

type sessionMetrics interface {
	RecordSessionFinished(outcome string)
}

type livePublisher interface {
	Publish(msg realtime.Message)
}

// Session outcomes reported to metrics.
const (
	SessionOutcomePassed    = "passed"
	SessionOutcomeFailed    = "failed"
	SessionOutcomeAbandoned = "abandoned"
)

// SessionService runs simulator sessions and records their step results.
type SessionService struct {
	repo       sessionRepository
	scenarios  sessionScenarioLookup
	users      userLookup
	companies  companyLookup
	dashboards dashboardInvalidator
	audit      auditTrail
	metrics    sessionMetrics
	live       livePublisher
	policy     scoring.Policy
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// SessionServiceParams groups the collaborators of SessionService.
type SessionServiceParams struct {
	Repo       sessionRepository
	Scenarios  sessionScenarioLookup
	Users      userLookup
	Companies  companyLookup
	Dashboards dashboardInvalidator
	Audit      auditRecorder
	Metrics    sessionMetrics
	Live       livePublisher
	Policy     scoring.Policy
	Validator  *validator.Validate
	Logger     *zap.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(params SessionServiceParams) *SessionService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	return &SessionService{
		repo:       params.Repo,
		scenarios:  params.Scenarios,
		users:      params.Users,
		companies:  params.Companies,
		dashboards: params.Dashboards,
		audit:      auditTrail{repo: params.Audit, logger: params.Logger},
		metrics:    params.Metrics,
		live:       params.Live,
		policy:     params.Policy,
		validator:  params.Validator,
		logger:     params.Logger,
		now:        time.Now,
	}
}

// Create assigns a scenario attempt to a student of the company.
func (s *SessionService) Create(ctx context.Context, p authz.Principal, req dto.CreateSessionRequest) (*models.SimulatorSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid session payload")
	}
	companyID, err := resolveCompany(p, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceSession, authz.ActionCreate), authz.Target{CompanyID: companyID}); err != nil {
		return nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, companyID, "company"); err != nil {
		return nil, err
	}
	if err := checkMember(ctx, s.users, req.StudentID, companyID, "student", models.RoleStudent); err != nil {
		return nil, err
	}
	scenario, err := s.scenarios.FindByID(ctx, req.ScenarioID)
	if err != nil {
		return nil, loadError(err, "scenario")
	}
	if !scenario.Global() && *scenario.CompanyID != companyID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scenario belongs to another company")
	}

	session := &models.SimulatorSession{
		ID:         uuid.NewString(),
		ScenarioID: scenario.ID,
		StudentID:  req.StudentID,
		CompanyID:  companyID,
		Status:     models.SessionStatusNotStarted,
		Logs:       models.StringList{},
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, writeError(err, "session", "create")
	}
	invalidate(ctx, s.dashboards, companyID)
	return session, nil
}

// Get returns a session with its step results.
func (s *SessionService) Get(ctx context.Context, p authz.Principal, id string) (*models.SimulatorSession, error) {
	session, err := s.load(ctx, p, id, authz.ResourceSession, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.ListResults(ctx, session.ID)
	if err != nil {
		return nil, loadError(err, "step results")
	}
	session.Results = results
	return session, nil
}

// ListByCompany lists a company's sessions. Students only see their own.
func (s *SessionService) ListByCompany(ctx context.Context, p authz.Principal, filter models.SessionFilter) ([]models.SimulatorSession, *models.Pagination, error) {
	companyID, err := resolveCompany(p, filter.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	perm := authz.Perm(authz.ResourceSession, authz.ActionRead)
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

// ListByStudent lists the sessions of one student.
func (s *SessionService) ListByStudent(ctx context.Context, p authz.Principal, studentID string, filter models.SessionFilter) ([]models.SimulatorSession, *models.Pagination, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return nil, nil, loadError(err, "student")
	}
	target := authz.Target{CompanyID: student.CompanyIDValue(), OwnerID: student.ID}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceSession, authz.ActionRead), target); err != nil {
		return nil, nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, student.CompanyIDValue(), "student"); err != nil {
		return nil, nil, err
	}
	filter.CompanyID = ""
	filter.StudentID = student.ID
	return s.list(ctx, filter)
}

// Start moves a session into progress.
func (s *SessionService) Start(ctx context.Context, p authz.Principal, id string) (*models.SimulatorSession, error) {
	session, err := s.load(ctx, p, id, authz.ResourceSession, authz.ActionSubmit)
	if err != nil {
		return nil, err
	}
	if err := scoring.StartSession(session, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, writeError(err, "session", "start")
	}
	invalidate(ctx, s.dashboards, session.CompanyID)
	s.publish(realtime.TypeSessionStarted, session, map[string]interface{}{"start_time": session.StartTime})
	return session, nil
}

// RecordResult stores the outcome of one scenario step. Each step may be
// answered once per session.
func (s *SessionService) RecordResult(ctx context.Context, p authz.Principal, req dto.RecordStepResultRequest) (*models.SessionStepResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid step result payload")
	}
	session, err := s.load(ctx, p, req.SessionID, authz.ResourceStepResult, authz.ActionSubmit)
	if err != nil {
		return nil, err
	}
	if err := scoring.CanRecordResult(session); err != nil {
		return nil, err
	}
	step, err := s.scenarios.FindStep(ctx, req.StepID)
	if err != nil {
		return nil, loadError(err, "step")
	}
	if step.ScenarioID != session.ScenarioID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "step does not belong to the session's scenario")
	}

	result := &models.SessionStepResult{
		ID:            uuid.NewString(),
		SessionID:     session.ID,
		StepID:        step.ID,
		IsCorrect:     req.IsCorrect,
		PointsAwarded: *req.PointsAwarded,
		ResponseTime:  req.ResponseTime,
		ActionTaken:   req.ActionTaken,
		RecordedAt:    s.now().UTC(),
	}
	if err := scoring.ValidateStepResult(*step, *result); err != nil {
		return nil, err
	}
	if err := s.repo.CreateResult(ctx, result); err != nil {
		return nil, writeError(err, "step result", "record")
	}
	s.publish(realtime.TypeStepResult, session, result)
	return result, nil
}

// ListResults returns the step results of a session in recording order.
func (s *SessionService) ListResults(ctx context.Context, p authz.Principal, sessionID string) ([]models.SessionStepResult, error) {
	session, err := s.load(ctx, p, sessionID, authz.ResourceStepResult, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.ListResults(ctx, session.ID)
	if err != nil {
		return nil, loadError(err, "step results")
	}
	if results == nil {
		results = []models.SessionStepResult{}
	}
	return results, nil
}

// Finish ends an in-progress session and persists its grade. A session
// without any result is abandoned instead.
func (s *SessionService) Finish(ctx context.Context, p authz.Principal, id string) (*models.SimulatorSession, error) {
	session, err := s.load(ctx, p, id, authz.ResourceSession, authz.ActionSubmit)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.ListResults(ctx, session.ID)
	if err != nil {
		return nil, loadError(err, "step results")
	}
	if err := scoring.FinishSession(session, len(results), s.now()); err != nil {
		return nil, err
	}

	outcome := SessionOutcomeAbandoned
	if session.Status == models.SessionStatusCompleted {
		scenario, err := s.scenarios.FindByID(ctx, session.ScenarioID)
		if err != nil {
			return nil, loadError(err, "scenario")
		}
		steps, err := s.scenarios.ListSteps(ctx, scenario.ID)
		if err != nil {
			return nil, loadError(err, "steps")
		}
		grade := scoring.GradeSession(steps, results, scenario.PassingScore, s.policy)
		scoring.ApplyGrade(session, grade)
		outcome = SessionOutcomeFailed
		if grade.Passed {
			outcome = SessionOutcomePassed
		}
	}
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, writeError(err, "session", "finish")
	}
	session.Results = results
	s.finished(ctx, session, outcome)
	return session, nil
}

// Abandon ends a session that has not completed.
func (s *SessionService) Abandon(ctx context.Context, p authz.Principal, id string) (*models.SimulatorSession, error) {
	session, err := s.load(ctx, p, id, authz.ResourceSession, authz.ActionSubmit)
	if err != nil {
		return nil, err
	}
	if err := scoring.AbandonSession(session, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, writeError(err, "session", "abandon")
	}
	s.finished(ctx, session, SessionOutcomeAbandoned)
	return session, nil
}

// Update appends operator log lines to a session.
func (s *SessionService) Update(ctx context.Context, p authz.Principal, id string, req dto.UpdateSessionRequest) (*models.SimulatorSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid session payload")
	}
	session, err := s.load(ctx, p, id, authz.ResourceSession, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	session.Logs = append(session.Logs, req.Logs...)
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, writeError(err, "session", "update")
	}
	return session, nil
}

// Delete removes a session together with its step results.
func (s *SessionService) Delete(ctx context.Context, p authz.Principal, id string, meta models.RequestMeta) error {
	session, err := s.load(ctx, p, id, authz.ResourceSession, authz.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, session.ID); err != nil {
		return writeError(err, "session", "delete")
	}
	invalidate(ctx, s.dashboards, session.CompanyID)
	s.audit.record(ctx, p, meta, models.AuditActionDelete, string(authz.ResourceSession), session.ID, session, nil)
	return nil
}

// LiveSubscription authorises a live feed on one session.
func (s *SessionService) LiveSubscription(ctx context.Context, p authz.Principal, id string) (realtime.Subscription, error) {
	session, err := s.load(ctx, p, id, authz.ResourceSession, authz.ActionRead)
	if err != nil {
		return realtime.Subscription{}, err
	}
	return realtime.Subscription{CompanyID: session.CompanyID, SessionID: session.ID}, nil
}

func (s *SessionService) finished(ctx context.Context, session *models.SimulatorSession, outcome string) {
	invalidate(ctx, s.dashboards, session.CompanyID)
	if s.metrics != nil {
		s.metrics.RecordSessionFinished(outcome)
	}
	s.publish(realtime.TypeSessionFinished, session, map[string]interface{}{
		"status":           session.Status,
		"score":            session.Score,
		"passed":           session.Passed,
		"critical_failure": session.CriticalFailure,
	})
}

func (s *SessionService) publish(kind string, session *models.SimulatorSession, data interface{}) {
	if s.live == nil {
		return
	}
	s.live.Publish(realtime.Message{
		Type:      kind,
		SessionID: session.ID,
		CompanyID: session.CompanyID,
		Data:      data,
	})
}

func (s *SessionService) list(ctx context.Context, filter models.SessionFilter) ([]models.SimulatorSession, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(appErrors.ErrInternal, err, "failed to list sessions")
	}
	return sessions, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *SessionService) load(ctx context.Context, p authz.Principal, id string, resource authz.Resource, action authz.Action) (*models.SimulatorSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "session")
	}
	target := authz.Target{CompanyID: session.CompanyID, OwnerID: session.StudentID}
	if err := authz.Authorize(p, authz.Perm(resource, action), target); err != nil {
		return nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, session.CompanyID, "session"); err != nil {
		return nil, err
	}
	return session, nil
}
