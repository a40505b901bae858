package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/models"
	"github.com/gridtrain/eval-api/internal/realtime"
	"github.com/gridtrain/eval-api/internal/repository"
)

func strPtr(v string) *string { return &v }

func floatRef(v float64) *float64 { return &v }

func principalFor(role models.UserRole, userID, companyID string) authz.Principal {
	return authz.Principal{UserID: userID, Role: role, CompanyID: companyID}
}

type mockCompanyRepo struct {
	mu        sync.Mutex
	companies map[string]*models.Company
	listed    models.CompanyFilter
}

func newMockCompanyRepo(companies ...*models.Company) *mockCompanyRepo {
	m := &mockCompanyRepo{companies: map[string]*models.Company{}}
	for _, c := range companies {
		m.companies[c.ID] = c
	}
	return m
}

func (m *mockCompanyRepo) FindByID(ctx context.Context, id string) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (m *mockCompanyRepo) List(ctx context.Context, filter models.CompanyFilter) ([]models.Company, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed = filter
	var out []models.Company
	for _, c := range m.companies {
		if len(filter.IDs) > 0 && !contains(filter.IDs, c.ID) {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockCompanyRepo) Create(ctx context.Context, company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if company.ID == "" {
		company.ID = "company-" + strings.ToLower(strings.ReplaceAll(company.Name, " ", "-"))
	}
	clone := *company
	m.companies[company.ID] = &clone
	return nil
}

func (m *mockCompanyRepo) Update(ctx context.Context, company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[company.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *company
	m.companies[company.ID] = &clone
	return nil
}

func (m *mockCompanyRepo) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Active = false
	return nil
}

type mockUserStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	deleted []string
	audits  []*models.AuditLog
	listed  models.UserFilter
}

func newMockUserStore(users ...*models.User) *mockUserStore {
	m := &mockUserStore{users: map[string]*models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserStore) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed = filter
	var out []models.User
	for _, u := range m.users {
		if filter.CompanyID != "" && u.CompanyIDValue() != filter.CompanyID {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserStore) Update(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID != user.ID && strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Active = false
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, log)
	return nil
}

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (m *mockAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, log)
	return nil
}

func (m *mockAuditRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action+":"+e.Resource)
	}
	return out
}

type recordingInvalidator struct {
	mu        sync.Mutex
	companies []string
}

func (r *recordingInvalidator) InvalidateCompany(ctx context.Context, companyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies = append(r.companies, companyID)
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.companies)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

type mockCycleRepo struct {
	mu      sync.Mutex
	cycles  map[string]*models.Cycle
	events  map[string]*models.Event
	deleted []string
	listed  models.CycleFilter
}

func newMockCycleRepo() *mockCycleRepo {
	return &mockCycleRepo{cycles: map[string]*models.Cycle{}, events: map[string]*models.Event{}}
}

func (m *mockCycleRepo) FindByID(ctx context.Context, id string) (*models.Cycle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cycles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (m *mockCycleRepo) List(ctx context.Context, filter models.CycleFilter) ([]models.Cycle, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed = filter
	var out []models.Cycle
	for _, c := range m.cycles {
		if filter.CompanyID != "" && c.CompanyID != filter.CompanyID {
			continue
		}
		if filter.StudentID != "" && c.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockCycleRepo) Create(ctx context.Context, cycle *models.Cycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *cycle
	m.cycles[cycle.ID] = &clone
	return nil
}

func (m *mockCycleRepo) Update(ctx context.Context, cycle *models.Cycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(cycle)
}

func (m *mockCycleRepo) updateLocked(cycle *models.Cycle) error {
	if _, ok := m.cycles[cycle.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *cycle
	clone.Events = nil
	m.cycles[cycle.ID] = &clone
	return nil
}

func (m *mockCycleRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cycles[id]; !ok {
		return sql.ErrNoRows
	}
	for eid, e := range m.events {
		if e.CycleID == id {
			delete(m.events, eid)
		}
	}
	delete(m.cycles, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockCycleRepo) addEvent(e models.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := e
	m.events[e.ID] = &clone
}

// mockEventRepo shares storage with mockCycleRepo. Writes hold the store lock
// while they recompute the cycle, as the row lock does in Postgres.
type mockEventRepo struct {
	cycles  *mockCycleRepo
	failTx  error
	created int
	// concurrent runs inside the write, standing in for a transaction that
	// committed between the service's read and this write.
	concurrent func(events map[string]*models.Event)
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	m.cycles.mu.Lock()
	defer m.cycles.mu.Unlock()
	e, ok := m.cycles.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *e
	return &clone, nil
}

func (m *mockEventRepo) ListByCycle(ctx context.Context, cycleID string) ([]models.Event, error) {
	m.cycles.mu.Lock()
	defer m.cycles.mu.Unlock()
	return m.listLocked(cycleID), nil
}

func (m *mockEventRepo) listLocked(cycleID string) []models.Event {
	var out []models.Event
	for _, e := range m.cycles.events {
		if e.CycleID == cycleID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

func (m *mockEventRepo) CreateWithCycle(ctx context.Context, event *models.Event, recompute repository.CycleRecompute) (*models.Cycle, error) {
	return m.write(event.CycleID, recompute, func(events map[string]*models.Event) error {
		clone := *event
		events[event.ID] = &clone
		m.created++
		return nil
	})
}

func (m *mockEventRepo) UpdateWithCycle(ctx context.Context, event *models.Event, recompute repository.CycleRecompute) (*models.Cycle, error) {
	return m.write(event.CycleID, recompute, func(events map[string]*models.Event) error {
		if _, ok := events[event.ID]; !ok {
			return sql.ErrNoRows
		}
		clone := *event
		events[event.ID] = &clone
		return nil
	})
}

func (m *mockEventRepo) DeleteWithCycle(ctx context.Context, event *models.Event, recompute repository.CycleRecompute) (*models.Cycle, error) {
	return m.write(event.CycleID, recompute, func(events map[string]*models.Event) error {
		if _, ok := events[event.ID]; !ok {
			return sql.ErrNoRows
		}
		delete(events, event.ID)
		return nil
	})
}

// write stages changes on a copy so a failure leaves the store untouched.
func (m *mockEventRepo) write(cycleID string, recompute repository.CycleRecompute, apply func(map[string]*models.Event) error) (*models.Cycle, error) {
	if m.failTx != nil {
		return nil, m.failTx
	}
	m.cycles.mu.Lock()
	defer m.cycles.mu.Unlock()
	stored, ok := m.cycles.cycles[cycleID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if m.concurrent != nil {
		m.concurrent(m.cycles.events)
	}
	staged := make(map[string]*models.Event, len(m.cycles.events))
	for id, e := range m.cycles.events {
		staged[id] = e
	}
	if err := apply(staged); err != nil {
		return nil, err
	}
	m.cycles.events = staged

	cycle := *stored
	recompute(&cycle, m.listLocked(cycleID))
	if err := m.cycles.updateLocked(&cycle); err != nil {
		return nil, err
	}
	return &cycle, nil
}

type recordingGradeMetrics struct {
	statuses []string
}

func (r *recordingGradeMetrics) RecordEventGraded(status string, penalised bool) {
	label := status
	if penalised {
		label += "+penalty"
	}
	r.statuses = append(r.statuses, label)
}

type mockScenarioRepo struct {
	mu        sync.Mutex
	scenarios map[string]*models.SimulatorScenario
	steps     map[string]*models.ScenarioStep
	inUse     map[string]bool
	answered  map[string]bool
	awarded   map[string]float64
	listed    models.ScenarioFilter
}

func newMockScenarioRepo() *mockScenarioRepo {
	return &mockScenarioRepo{
		scenarios: map[string]*models.SimulatorScenario{},
		steps:     map[string]*models.ScenarioStep{},
		inUse:     map[string]bool{},
		answered:  map[string]bool{},
		awarded:   map[string]float64{},
	}
}

func (m *mockScenarioRepo) FindByID(ctx context.Context, id string) (*models.SimulatorScenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.scenarios[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *sc
	clone.Steps = nil
	return &clone, nil
}

func (m *mockScenarioRepo) List(ctx context.Context, filter models.ScenarioFilter) ([]models.SimulatorScenario, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed = filter
	var out []models.SimulatorScenario
	for _, sc := range m.scenarios {
		switch {
		case filter.AllCompanies:
		case sc.Global():
		case filter.CompanyID != "" && *sc.CompanyID == filter.CompanyID:
		default:
			continue
		}
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockScenarioRepo) Create(ctx context.Context, scenario *models.SimulatorScenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *scenario
	clone.Steps = nil
	m.scenarios[scenario.ID] = &clone
	for i := range scenario.Steps {
		scenario.Steps[i].ScenarioID = scenario.ID
		step := scenario.Steps[i]
		m.steps[step.ID] = &step
	}
	return nil
}

func (m *mockScenarioRepo) Update(ctx context.Context, scenario *models.SimulatorScenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenarios[scenario.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *scenario
	clone.Steps = nil
	m.scenarios[scenario.ID] = &clone
	return nil
}

func (m *mockScenarioRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenarios[id]; !ok {
		return sql.ErrNoRows
	}
	if m.inUse[id] {
		return repository.ErrHasDependents
	}
	for sid, st := range m.steps {
		if st.ScenarioID == id {
			delete(m.steps, sid)
		}
	}
	delete(m.scenarios, id)
	return nil
}

func (m *mockScenarioRepo) FindStep(ctx context.Context, id string) (*models.ScenarioStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.steps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *st
	return &clone, nil
}

func (m *mockScenarioRepo) ListSteps(ctx context.Context, scenarioID string) ([]models.ScenarioStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ScenarioStep
	for _, st := range m.steps {
		if st.ScenarioID == scenarioID {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepOrder < out[j].StepOrder })
	return out, nil
}

func (m *mockScenarioRepo) StepOrderTaken(ctx context.Context, scenarioID string, order int, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.steps {
		if st.ScenarioID == scenarioID && st.StepOrder == order && st.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockScenarioRepo) CreateStep(ctx context.Context, step *models.ScenarioStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *step
	m.steps[step.ID] = &clone
	return nil
}

func (m *mockScenarioRepo) UpdateStep(ctx context.Context, step *models.ScenarioStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.steps[step.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *step
	m.steps[step.ID] = &clone
	return nil
}

func (m *mockScenarioRepo) MaxAwardedForStep(ctx context.Context, stepID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.awarded[stepID], nil
}

func (m *mockScenarioRepo) DeleteStep(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.steps[id]; !ok {
		return sql.ErrNoRows
	}
	if m.answered[id] {
		return repository.ErrHasDependents
	}
	delete(m.steps, id)
	return nil
}

type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.SimulatorSession
	results  map[string][]models.SessionStepResult
	listed   models.SessionFilter
	deleted  []string
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: map[string]*models.SimulatorSession{}, results: map[string][]models.SessionStepResult{}}
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.SimulatorSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	clone.Logs = append(models.StringList{}, s.Logs...)
	return &clone, nil
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.SimulatorSession, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed = filter
	var out []models.SimulatorSession
	for _, s := range m.sessions {
		if filter.CompanyID != "" && s.CompanyID != filter.CompanyID {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.SimulatorSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *session
	m.sessions[session.ID] = &clone
	return nil
}

func (m *mockSessionRepo) Update(ctx context.Context, session *models.SimulatorSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *session
	clone.Results = nil
	m.sessions[session.ID] = &clone
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.sessions, id)
	delete(m.results, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockSessionRepo) ListResults(ctx context.Context, sessionID string) ([]models.SessionStepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SessionStepResult(nil), m.results[sessionID]...), nil
}

func (m *mockSessionRepo) CreateResult(ctx context.Context, result *models.SessionStepResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.results[result.SessionID] {
		if r.StepID == result.StepID {
			return repository.ErrDuplicate
		}
	}
	m.results[result.SessionID] = append(m.results[result.SessionID], *result)
	return nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []realtime.Message
}

func (r *recordingPublisher) Publish(msg realtime.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, m.Type)
	}
	return out
}

type recordingSessionMetrics struct {
	outcomes []string
}

func (r *recordingSessionMetrics) RecordSessionFinished(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}
