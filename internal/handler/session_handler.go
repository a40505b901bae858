package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/dto"
	"github.com/gridtrain/eval-api/internal/models"
	"github.com/gridtrain/eval-api/internal/realtime"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
	"github.com/gridtrain/eval-api/pkg/response"
)

type sessionService interface {
	Create(ctx context.Context, p authz.Principal, req dto.CreateSessionRequest) (*models.SimulatorSession, error)
	Get(ctx context.Context, p authz.Principal, id string) (*models.SimulatorSession, error)
	ListByCompany(ctx context.Context, p authz.Principal, filter models.SessionFilter) ([]models.SimulatorSession, *models.Pagination, error)
	ListByStudent(ctx context.Context, p authz.Principal, studentID string, filter models.SessionFilter) ([]models.SimulatorSession, *models.Pagination, error)
	Start(ctx context.Context, p authz.Principal, id string) (*models.SimulatorSession, error)
	Finish(ctx context.Context, p authz.Principal, id string) (*models.SimulatorSession, error)
	Abandon(ctx context.Context, p authz.Principal, id string) (*models.SimulatorSession, error)
	Update(ctx context.Context, p authz.Principal, id string, req dto.UpdateSessionRequest) (*models.SimulatorSession, error)
	Delete(ctx context.Context, p authz.Principal, id string, meta models.RequestMeta) error
	RecordResult(ctx context.Context, p authz.Principal, req dto.RecordStepResultRequest) (*models.SessionStepResult, error)
	ListResults(ctx context.Context, p authz.Principal, sessionID string) ([]models.SessionStepResult, error)
	LiveSubscription(ctx context.Context, p authz.Principal, id string) (realtime.Subscription, error)
}

type liveServer interface {
	Serve(w http.ResponseWriter, r *http.Request, sub realtime.Subscription) error
}

// SessionHandler exposes simulator sessions, step results and the live feed.
type SessionHandler struct {
	service sessionService
	live    liveServer
	logger  *zap.Logger
}

// NewSessionHandler constructs the handler. A nil live server disables the
// websocket feed.
func NewSessionHandler(svc sessionService, live liveServer, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{service: svc, live: live, logger: logger}
}

// Create godoc
// @Summary Assign a scenario attempt to a student
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.CreateSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}
	session, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Get godoc
// @Summary Get session with results and grade
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	session, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// ListByCompany godoc
// @Summary List company sessions
// @Tags Sessions
// @Produce json
// @Param companyId path string true "Company ID"
// @Param status query string false "Status filter"
// @Param scenario_id query string false "Scenario filter"
// @Success 200 {object} response.Envelope
// @Router /sessions/company/{companyId} [get]
func (h *SessionHandler) ListByCompany(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	filter := sessionFilter(c)
	filter.CompanyID = c.Param("companyId")
	sessions, pagination, err := h.service.ListByCompany(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// ListByStudent godoc
// @Summary List a student's sessions
// @Tags Sessions
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/student/{studentId} [get]
func (h *SessionHandler) ListByStudent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessions, pagination, err := h.service.ListByStudent(c.Request.Context(), p, c.Param("studentId"), sessionFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Start godoc
// @Summary Start session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/start [post]
func (h *SessionHandler) Start(c *gin.Context) {
	h.transition(c, h.service.Start)
}

// Finish godoc
// @Summary Finish and grade session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/finish [post]
func (h *SessionHandler) Finish(c *gin.Context) {
	h.transition(c, h.service.Finish)
}

// Abandon godoc
// @Summary Abandon session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/abandon [post]
func (h *SessionHandler) Abandon(c *gin.Context) {
	h.transition(c, h.service.Abandon)
}

// Update godoc
// @Summary Append operator logs
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateSessionRequest true "Log lines"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [patch]
func (h *SessionHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.UpdateSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}
	session, err := h.service.Update(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Delete session and its step results
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), p, c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecordResult godoc
// @Summary Record a step result
// @Tags StepResults
// @Accept json
// @Produce json
// @Param payload body dto.RecordStepResultRequest true "Step result"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /step-results [post]
func (h *SessionHandler) RecordResult(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.RecordStepResultRequest
	if !bindJSON(c, &req, "invalid step result payload") {
		return
	}
	result, err := h.service.RecordResult(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListResults godoc
// @Summary List step results of a session
// @Tags StepResults
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /step-results/session/{sessionId} [get]
func (h *SessionHandler) ListResults(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	results, err := h.service.ListResults(c.Request.Context(), p, c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Live godoc
// @Summary Live session feed
// @Description Upgrades to a websocket streaming session_started, step_result and session_finished messages
// @Tags Sessions
// @Param id path string true "Session ID"
// @Param access_token query string false "Access token when no Authorization header can be sent"
// @Success 101
// @Router /sessions/{id}/live [get]
func (h *SessionHandler) Live(c *gin.Context) {
	if h.live == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "live sessions are disabled"))
		return
	}
	p, ok := principal(c)
	if !ok {
		return
	}
	sub, err := h.service.LiveSubscription(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.live.Serve(c.Writer, c.Request, sub); err != nil {
		h.logger.Warn("live feed upgrade failed", zap.String("session_id", sub.SessionID), zap.Error(err))
	}
}

func (h *SessionHandler) transition(c *gin.Context, fn func(context.Context, authz.Principal, string) (*models.SimulatorSession, error)) {
	p, ok := principal(c)
	if !ok {
		return
	}
	session, err := fn(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

func sessionFilter(c *gin.Context) models.SessionFilter {
	var filter models.SessionFilter
	filter.Page, filter.PageSize = pageParams(c)
	filter.ScenarioID = c.Query("scenario_id")
	if status := c.Query("status"); status != "" {
		s := models.SessionStatus(status)
		filter.Status = &s
	}
	return filter
}
