package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/dto"
	"github.com/gridtrain/eval-api/internal/models"
	"github.com/gridtrain/eval-api/internal/repository"
	"github.com/gridtrain/eval-api/internal/scoring"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

type eventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	ListByCycle(ctx context.Context, cycleID string) ([]models.Event, error)
	CreateWithCycle(ctx context.Context, event *models.Event, recompute repository.CycleRecompute) (*models.Cycle, error)
	UpdateWithCycle(ctx context.Context, event *models.Event, recompute repository.CycleRecompute) (*models.Cycle, error)
	DeleteWithCycle(ctx context.Context, event *models.Event, recompute repository.CycleRecompute) (*models.Cycle, error)
}

type cycleLookup interface {
	FindByID(ctx context.Context, id string) (*models.Cycle, error)
}

type gradingMetrics interface {
	RecordEventGraded(status string, penalised bool)
}

// EventServiceParams groups the collaborators of EventService.
type EventServiceParams struct {
	Repo       eventRepository
	Cycles     cycleLookup
	Companies  companyLookup
	Dashboards dashboardInvalidator
	Audit      auditRecorder
	Metrics    gradingMetrics
	Policy     scoring.Policy
	Validator  *validator.Validate
	Logger     *zap.Logger
}

// EventService manages the gradable events of a cycle. Every mutation
// recomputes the owning cycle inside the write transaction.
type EventService struct {
	repo       eventRepository
	cycles     cycleLookup
	companies  companyLookup
	dashboards dashboardInvalidator
	audit      auditTrail
	metrics    gradingMetrics
	policy     scoring.Policy
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewEventService constructs an EventService.
func NewEventService(params EventServiceParams) *EventService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	return &EventService{
		repo:       params.Repo,
		cycles:     params.Cycles,
		companies:  params.Companies,
		dashboards: params.Dashboards,
		audit:      auditTrail{repo: params.Audit, logger: params.Logger},
		metrics:    params.Metrics,
		policy:     params.Policy,
		validator:  params.Validator,
		logger:     params.Logger,
		now:        time.Now,
	}
}

// Create adds an event to a cycle.
func (s *EventService) Create(ctx context.Context, p authz.Principal, req dto.CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid event payload")
	}
	cycle, err := s.loadCycle(ctx, p, req.CycleID, authz.ActionCreate)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.ListByCycle(ctx, cycle.ID)
	if err != nil {
		return nil, loadError(err, "events")
	}

	sequence := len(events) + 1
	if req.Sequence != nil {
		sequence = *req.Sequence
	}
	weight := 1.0
	if req.Weight != nil {
		weight = *req.Weight
	}
	event := &models.Event{
		ID:            uuid.NewString(),
		CycleID:       cycle.ID,
		Title:         strings.TrimSpace(req.Title),
		Sequence:      sequence,
		Status:        models.EventStatusPending,
		MaxScore:      req.MaxScore,
		Weight:        weight,
		AttemptNumber: 1,
		HasPenalty:    req.HasPenalty,
		Notes:         req.Notes,
	}

	if _, err := s.repo.CreateWithCycle(ctx, event, s.recompute); err != nil {
		return nil, writeError(err, "event", "create")
	}
	invalidate(ctx, s.dashboards, cycle.CompanyID)
	return event, nil
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, p authz.Principal, id string) (*models.Event, error) {
	event, _, err := s.load(ctx, p, id, authz.ActionRead)
	return event, err
}

// ListByCycle returns the events of a cycle in sequence order.
func (s *EventService) ListByCycle(ctx context.Context, p authz.Principal, cycleID string) ([]models.Event, error) {
	cycle, err := s.loadCycle(ctx, p, cycleID, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.ListByCycle(ctx, cycle.ID)
	if err != nil {
		return nil, loadError(err, "events")
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// Update edits event metadata. Resetting to pending clears the grade and
// skipping removes the event from the cycle score.
func (s *EventService) Update(ctx context.Context, p authz.Principal, id string, req dto.UpdateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid event payload")
	}
	event, _, err := s.load(ctx, p, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Sequence != nil {
		event.Sequence = *req.Sequence
	}
	if req.Weight != nil {
		event.Weight = *req.Weight
	}
	if req.Notes != nil {
		event.Notes = req.Notes
	}
	if req.MaxScore != nil {
		if event.Score != nil && *event.Score > *req.MaxScore {
			return nil, appErrors.Clone(appErrors.ErrValidation, "max score cannot drop below the recorded score")
		}
		if event.OriginalScore != nil && *event.OriginalScore > *req.MaxScore {
			return nil, appErrors.Clone(appErrors.ErrValidation, "max score cannot drop below the recorded score")
		}
		event.MaxScore = *req.MaxScore
	}
	if req.Status != nil && *req.Status != event.Status {
		clearGrade(event)
		event.Status = *req.Status
	}
	if req.HasPenalty != nil && event.Status == models.EventStatusPending {
		event.HasPenalty = *req.HasPenalty
	}

	if err := s.persist(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Grade records a grading attempt. Regrading a failed event counts as a new
// attempt and is subject to the re-attempt penalty. HasPenalty on the event is
// the eligibility flag; whether a deduction was applied shows in PenaltyAmount.
func (s *EventService) Grade(ctx context.Context, p authz.Principal, id string, req dto.GradeEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	event, cycle, err := s.load(ctx, p, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	attempt := event.AttemptNumber
	if attempt < 1 {
		attempt = 1
	}
	switch event.Status {
	case models.EventStatusSkipped:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "skipped events cannot be graded")
	case models.EventStatusFail:
		attempt++
	}

	eligible := event.HasPenalty
	if req.HasPenalty != nil {
		eligible = *req.HasPenalty
	}
	result, err := scoring.ScoreEvent(scoring.EventInput{
		RawScore:      *req.RawScore,
		MaxScore:      event.MaxScore,
		HasPenalty:    eligible,
		AttemptNumber: attempt,
		PenaltyAmount: req.PenaltyAmount,
	}, s.policy)
	if err != nil {
		return nil, err
	}

	status := models.EventStatusFail
	if req.Status != nil {
		status = *req.Status
	} else {
		minPassing := cycle.MinPassingScore
		if minPassing <= 0 {
			minPassing = s.policy.DefaultMinPassing
		}
		if 100*result.Score/event.MaxScore >= minPassing {
			status = models.EventStatusPass
		}
	}

	score := result.Score
	evaluatedAt := s.now().UTC()
	event.Status = status
	event.Score = &score
	event.OriginalScore = result.OriginalScore
	event.PenaltyAmount = result.PenaltyAmount
	event.HasPenalty = eligible
	event.AttemptNumber = attempt
	event.EvaluatedAt = &evaluatedAt
	if req.Notes != nil {
		event.Notes = req.Notes
	}

	if err := s.persist(ctx, event); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordEventGraded(string(status), result.HasPenalty)
	}
	s.logger.Debug("event graded",
		zap.String("event_id", event.ID),
		zap.String("cycle_id", cycle.ID),
		zap.String("status", string(status)),
		zap.Int("attempt", attempt),
	)
	return event, nil
}

// Delete removes an event and recomputes its cycle.
func (s *EventService) Delete(ctx context.Context, p authz.Principal, id string) error {
	event, cycle, err := s.load(ctx, p, id, authz.ActionDelete)
	if err != nil {
		return err
	}
	if _, err := s.repo.DeleteWithCycle(ctx, event, s.recompute); err != nil {
		return writeError(err, "event", "delete")
	}
	invalidate(ctx, s.dashboards, cycle.CompanyID)
	return nil
}

func (s *EventService) persist(ctx context.Context, event *models.Event) error {
	cycle, err := s.repo.UpdateWithCycle(ctx, event, s.recompute)
	if err != nil {
		return writeError(err, "event", "update")
	}
	invalidate(ctx, s.dashboards, cycle.CompanyID)
	return nil
}

// recompute applies the derived outcome of events onto cycle. Progress only
// moves forward, matching the rule enforced on manual edits.
func (s *EventService) recompute(cycle *models.Cycle, events []models.Event) {
	outcome := scoring.EvaluateCycle(events, s.policy)
	wasCompleted := cycle.Status == models.CycleStatusCompleted
	cycle.Status = outcome.Status
	if outcome.Progress > cycle.Progress {
		cycle.Progress = outcome.Progress
	}
	cycle.Score = outcome.Score
	switch {
	case outcome.Status != models.CycleStatusCompleted:
		cycle.CompletedAt = nil
	case !wasCompleted || cycle.CompletedAt == nil:
		completedAt := s.now().UTC()
		cycle.CompletedAt = &completedAt
	}
	scoring.ApplyVerdict(cycle, s.policy)
}

func (s *EventService) load(ctx context.Context, p authz.Principal, id string, action authz.Action) (*models.Event, *models.Cycle, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, loadError(err, "event")
	}
	cycle, err := s.loadCycle(ctx, p, event.CycleID, action)
	if err != nil {
		return nil, nil, err
	}
	return event, cycle, nil
}

func (s *EventService) loadCycle(ctx context.Context, p authz.Principal, cycleID string, action authz.Action) (*models.Cycle, error) {
	cycle, err := s.cycles.FindByID(ctx, cycleID)
	if err != nil {
		return nil, loadError(err, "cycle")
	}
	target := authz.Target{CompanyID: cycle.CompanyID, OwnerID: cycle.StudentID}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceEvent, action), target); err != nil {
		return nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, cycle.CompanyID, "cycle"); err != nil {
		return nil, err
	}
	return cycle, nil
}

func clearGrade(e *models.Event) {
	e.Score = nil
	e.OriginalScore = nil
	e.PenaltyAmount = nil
	e.EvaluatedAt = nil
}
