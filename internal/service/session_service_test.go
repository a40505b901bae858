package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/dto"
	"github.com/gridtrain/eval-api/internal/models"
	"github.com/gridtrain/eval-api/internal/realtime"
	"github.com/gridtrain/eval-api/internal/scoring"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

func (f *trainingFixture) sessionService() *SessionService {
	svc := NewSessionService(SessionServiceParams{
		Repo:       f.sessions,
		Scenarios:  f.scenarios,
		Users:      f.users,
		Companies:  f.companies,
		Dashboards: f.dash,
		Audit:      f.audit,
		Metrics:    f.outcomes,
		Live:       f.live,
		Policy:     scoring.DefaultPolicy(),
		Validator:  validator.New(),
		Logger:     zap.NewNop(),
	})
	clock := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc
}

func (f *trainingFixture) seedScenarios() {
	ctx := context.Background()
	_ = f.scenarios.Create(ctx, &models.SimulatorScenario{
		ID: "sc-1", CompanyID: strPtr("c1"), Title: "Feeder fault isolation", Category: models.CategoryFault,
		Difficulty: models.DifficultyMedium, PassingScore: 70,
		Steps: []models.ScenarioStep{
			{ID: "st-1", StepOrder: 1, Title: "Open breaker", ActionType: "switch", Points: 10, IsCritical: true},
			{ID: "st-2", StepOrder: 2, Title: "Verify isolation", ActionType: "check", Points: 10},
			{ID: "st-3", StepOrder: 3, Title: "Restore supply", ActionType: "switch", Points: 20, TimeLimit: 30},
		},
	})
	_ = f.scenarios.Create(ctx, &models.SimulatorScenario{
		ID: "sc-g", Title: "Global overload drill", Category: models.CategoryOverload, Difficulty: models.DifficultyEasy,
		PassingScore: 70, Steps: []models.ScenarioStep{{ID: "gst-1", StepOrder: 1, Title: "Shed load", ActionType: "switch", Points: 5}},
	})
	_ = f.scenarios.Create(ctx, &models.SimulatorScenario{
		ID: "sc-south", CompanyID: strPtr("c2"), Title: "South topology", Category: models.CategoryTopology,
		Difficulty: models.DifficultyHard, PassingScore: 70,
		Steps: []models.ScenarioStep{{ID: "sst-1", StepOrder: 1, Title: "Reconfigure", ActionType: "switch", Points: 5}},
	})
}

func (f *trainingFixture) startedSession(t *testing.T, svc *SessionService) *models.SimulatorSession {
	t.Helper()
	ctx := context.Background()
	session, err := svc.Create(ctx, northCoach, dto.CreateSessionRequest{ScenarioID: "sc-1", StudentID: "student-1"})
	require.NoError(t, err)
	_, err = svc.Start(ctx, northTrainee, session.ID)
	require.NoError(t, err)
	return session
}

func record(t *testing.T, svc *SessionService, p authz.Principal, sessionID, stepID string, correct bool, points, response float64) {
	t.Helper()
	_, err := svc.RecordResult(context.Background(), p, dto.RecordStepResultRequest{
		SessionID: sessionID, StepID: stepID, IsCorrect: correct, PointsAwarded: floatRef(points), ResponseTime: response,
	})
	require.NoError(t, err)
}

func TestSessionServiceCreate(t *testing.T) {
	f := newTrainingFixture()
	f.seedScenarios()
	svc := f.sessionService()
	ctx := context.Background()

	session, err := svc.Create(ctx, northCoach, dto.CreateSessionRequest{ScenarioID: "sc-1", StudentID: "student-1"})
	require.NoError(t, err)
	assert.Equal(t, "c1", session.CompanyID)
	assert.Equal(t, models.SessionStatusNotStarted, session.Status)
	assert.Nil(t, session.StartTime)
	assert.Equal(t, 1, f.dash.count())

	_, err = svc.Create(ctx, northCoach, dto.CreateSessionRequest{ScenarioID: "sc-g", StudentID: "student-1"})
	require.NoError(t, err)
}

func TestSessionServiceCreateValidatesParticipants(t *testing.T) {
	f := newTrainingFixture()
	f.seedScenarios()
	svc := f.sessionService()
	ctx := context.Background()

	cases := map[string]dto.CreateSessionRequest{
		"foreign scenario": {ScenarioID: "sc-south", StudentID: "student-1"},
		"foreign student":  {ScenarioID: "sc-1", StudentID: "student-2"},
		"not a student":    {ScenarioID: "sc-1", StudentID: "trainer-1"},
		"unknown student":  {ScenarioID: "sc-1", StudentID: "ghost"},
		"missing scenario": {StudentID: "student-1"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, northCoach, req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}

	_, err := svc.Create(ctx, northTrainee, dto.CreateSessionRequest{ScenarioID: "sc-1", StudentID: "student-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, northCoach, dto.CreateSessionRequest{ScenarioID: "missing", StudentID: "student-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceGradedRun(t *testing.T) {
	f := newTrainingFixture()
	f.seedScenarios()
	svc := f.sessionService()
	ctx := context.Background()

	session := f.startedSession(t, svc)
	record(t, svc, northTrainee, session.ID, "st-1", true, 10, 4)
	record(t, svc, northTrainee, session.ID, "st-2", true, 10, 6)
	record(t, svc, northTrainee, session.ID, "st-3", true, 15, 8)

	finished, err := svc.Finish(ctx, northTrainee, session.ID)
	require.NoError(t, err)

	assert.Equal(t, models.SessionStatusCompleted, finished.Status)
	require.NotNil(t, finished.Score)
	assert.Equal(t, 35.0, *finished.Score)
	assert.Equal(t, 40.0, *finished.MaxScore)
	assert.Equal(t, 100.0, *finished.ManeuverPrecision)
	assert.Equal(t, 100.0, *finished.ProcedureAdherence)
	assert.Equal(t, 6.0, *finished.ResponseTime)
	require.NotNil(t, finished.Passed)
	assert.True(t, *finished.Passed)
	assert.False(t, finished.CriticalFailure)
	require.NotNil(t, finished.Duration)
	assert.Equal(t, int64(4), *finished.Duration)
	assert.False(t, finished.EndTime.Before(*finished.StartTime))
	assert.Len(t, finished.Results, 3)

	assert.Equal(t, []string{SessionOutcomePassed}, f.outcomes.outcomes)
	assert.Equal(t, []string{
		realtime.TypeSessionStarted,
		realtime.TypeStepResult, realtime.TypeStepResult, realtime.TypeStepResult,
		realtime.TypeSessionFinished,
	}, f.live.types())
	for _, msg := range f.live.messages {
		assert.Equal(t, "c1", msg.CompanyID)
		assert.Equal(t, session.ID, msg.SessionID)
	}

	stored, err := svc.Get(ctx, northCoach, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, stored.Status)
	assert.Len(t, stored.Results, 3)
}

func TestSessionServiceCriticalFailureFailsSession(t *testing.T) {
	f := newTrainingFixture()
	f.seedScenarios()
	svc := f.sessionService()

	session := f.startedSession(t, svc)
	record(t, svc, northTrainee, session.ID, "st-1", false, 0, 3)
	record(t, svc, northTrainee, session.ID, "st-2", true, 10, 3)
	record(t, svc, northTrainee, session.ID, "st-3", true, 20, 3)

	finished, err := svc.Finish(context.Background(), northCoach, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, *finished.Score)
	assert.True(t, finished.CriticalFailure)
	assert.False(t, *finished.Passed)
	assert.Equal(t, []string{SessionOutcomeFailed}, f.outcomes.outcomes)
}

func TestSessionServiceRecordResultRules(t *testing.T) {
	f := newTrainingFixture()
	f.seedScenarios()
	svc := f.sessionService()
	ctx := context.Background()

	pending, err := svc.Create(ctx, northCoach, dto.CreateSessionRequest{ScenarioID: "sc-1", StudentID: "student-1"})
	require.NoError(t, err)
	_, err = svc.RecordResult(ctx, northTrainee, dto.RecordStepResultRequest{SessionID: pending.ID, StepID: "st-1", PointsAwarded: floatRef(1)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)

	session := f.startedSession(t, svc)

	_, err = svc.RecordResult(ctx, northTrainee, dto.RecordStepResultRequest{SessionID: session.ID, StepID: "gst-1", PointsAwarded: floatRef(1)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.RecordResult(ctx, northTrainee, dto.RecordStepResultRequest{SessionID: session.ID, StepID: "st-1", PointsAwarded: floatRef(11)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.RecordResult(ctx, northTrainee, dto.RecordStepResultRequest{SessionID: session.ID, StepID: "st-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	other := principalFor(models.RoleStudent, "student-9", "c1")
	_, err = svc.RecordResult(ctx, other, dto.RecordStepResultRequest{SessionID: session.ID, StepID: "st-1", PointsAwarded: floatRef(5)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	record(t, svc, northTrainee, session.ID, "st-1", true, 10, 2)
	_, err = svc.RecordResult(ctx, northCoach, dto.RecordStepResultRequest{SessionID: session.ID, StepID: "st-1", PointsAwarded: floatRef(5)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	results, err := svc.ListResults(ctx, northTrainee, session.ID)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSessionServiceFinishWithoutResultsAbandons(t *testing.T) {
	f := newTrainingFixture()
	f.seedScenarios()
	svc := f.sessionService()

	session := f.startedSession(t, svc)
	finished, err := svc.Finish(context.Background(), northTrainee, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusAbandoned, finished.Status)
	assert.Nil(t, finished.Score)
	assert.NotNil(t, finished.EndTime)
	assert.Equal(t, []string{SessionOutcomeAbandoned}, f.outcomes.outcomes)
}

func TestSessionServiceAbandon(t *testing.T) {
	f := newTrainingFixture()
	f.seedScenarios()
	svc := f.sessionService()
	ctx := context.Background()

	session, err := svc.Create(ctx, northCoach, dto.CreateSessionRequest{ScenarioID: "sc-1", StudentID: "student-1"})
	require.NoError(t, err)

	abandoned, err := svc.Abandon(ctx, northTrainee, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusAbandoned, abandoned.Status)
	assert.Nil(t, abandoned.Duration)

	_, err = svc.Abandon(ctx, northTrainee, session.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)

	_, err = svc.Start(ctx, northTrainee, session.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceUpdateAppendsLogs(t *testing.T) {
	f := newTrainingFixture()
	f.seedScenarios()
	svc := f.sessionService()
	ctx := context.Background()

	session := f.startedSession(t, svc)
	_, err := svc.Update(ctx, northCoach, session.ID, dto.UpdateSessionRequest{Logs: []string{"breaker 12 opened"}})
	require.NoError(t, err)
	updated, err := svc.Update(ctx, northCoach, session.ID, dto.UpdateSessionRequest{Logs: []string{"load shifted"}})
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"breaker 12 opened", "load shifted"}, updated.Logs)

	_, err = svc.Update(ctx, northTrainee, session.ID, dto.UpdateSessionRequest{Logs: []string{"x"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Update(ctx, northCoach, session.ID, dto.UpdateSessionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceDeleteCascades(t *testing.T) {
	f := newTrainingFixture()
	f.seedScenarios()
	svc := f.sessionService()
	ctx := context.Background()

	session := f.startedSession(t, svc)
	record(t, svc, northTrainee, session.ID, "st-1", true, 10, 2)

	err := svc.Delete(ctx, northCoach, session.ID, models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, northAdmin, session.ID, models.RequestMeta{IP: "10.0.0.1"}))
	assert.Equal(t, []string{session.ID}, f.sessions.deleted)
	assert.Empty(t, f.sessions.results[session.ID])
	assert.Equal(t, []string{"DELETE:sessions"}, f.audit.actions())

	_, err = svc.Get(ctx, northAdmin, session.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceListScopes(t *testing.T) {
	f := newTrainingFixture()
	f.seedScenarios()
	svc := f.sessionService()
	ctx := context.Background()

	_, err := svc.Create(ctx, northCoach, dto.CreateSessionRequest{ScenarioID: "sc-1", StudentID: "student-1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, northCoach, dto.CreateSessionRequest{ScenarioID: "sc-1", StudentID: "student-9"})
	require.NoError(t, err)

	all, page, err := svc.ListByCompany(ctx, northCoach, models.SessionFilter{CompanyID: "c1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, page.TotalCount)

	own, _, err := svc.ListByCompany(ctx, northTrainee, models.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "student-1", own[0].StudentID)
	assert.Equal(t, "student-1", f.sessions.listed.StudentID)

	_, _, err = svc.ListByCompany(ctx, southCoach, models.SessionFilter{CompanyID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, _, err = svc.ListByStudent(ctx, northTrainee, "student-9", models.SessionFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	mine, _, err := svc.ListByStudent(ctx, northTrainee, "student-1", models.SessionFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestSessionServiceLiveSubscription(t *testing.T) {
	f := newTrainingFixture()
	f.seedScenarios()
	svc := f.sessionService()
	ctx := context.Background()

	session := f.startedSession(t, svc)
	sub, err := svc.LiveSubscription(ctx, northCoach, session.ID)
	require.NoError(t, err)
	assert.Equal(t, realtime.Subscription{CompanyID: "c1", SessionID: session.ID}, sub)

	_, err = svc.LiveSubscription(ctx, southCoach, session.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceHidesInactiveCompany(t *testing.T) {
	f := newTrainingFixture()
	f.seedScenarios()
	svc := f.sessionService()
	require.NoError(t, f.sessions.Create(context.Background(), &models.SimulatorSession{
		ID: "closed-1", ScenarioID: "sc-g", StudentID: "student-x", CompanyID: "c3", Status: models.SessionStatusNotStarted,
	}))

	closedAdmin := principalFor(models.RoleAdmin, "admin-3", "c3")
	_, err := svc.Get(context.Background(), closedAdmin, "closed-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	found, err := svc.Get(context.Background(), superAdmin, "closed-1")
	require.NoError(t, err)
	assert.Equal(t, "c3", found.CompanyID)
}
