package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/dto"
	"github.com/gridtrain/eval-api/internal/models"
	"github.com/gridtrain/eval-api/pkg/response"
)

type scenarioService interface {
	Create(ctx context.Context, p authz.Principal, req dto.CreateScenarioRequest, meta models.RequestMeta) (*models.SimulatorScenario, error)
	List(ctx context.Context, p authz.Principal, filter models.ScenarioFilter) ([]models.SimulatorScenario, *models.Pagination, error)
	Get(ctx context.Context, p authz.Principal, id string) (*models.SimulatorScenario, error)
	Update(ctx context.Context, p authz.Principal, id string, req dto.UpdateScenarioRequest, meta models.RequestMeta) (*models.SimulatorScenario, error)
	Delete(ctx context.Context, p authz.Principal, id string, meta models.RequestMeta) error
	ListSteps(ctx context.Context, p authz.Principal, scenarioID string) ([]models.ScenarioStep, error)
	CreateStep(ctx context.Context, p authz.Principal, req dto.CreateStepRequest) (*models.ScenarioStep, error)
	UpdateStep(ctx context.Context, p authz.Principal, id string, req dto.UpdateStepRequest) (*models.ScenarioStep, error)
	DeleteStep(ctx context.Context, p authz.Principal, id string) error
}

// ScenarioHandler exposes simulator scenario and step endpoints.
type ScenarioHandler struct {
	service scenarioService
}

// NewScenarioHandler constructs the handler.
func NewScenarioHandler(svc scenarioService) *ScenarioHandler {
	return &ScenarioHandler{service: svc}
}

// Create godoc
// @Summary Create scenario
// @Description Super admins without company_id create a global scenario
// @Tags Scenarios
// @Accept json
// @Produce json
// @Param payload body dto.CreateScenarioRequest true "Scenario payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scenarios [post]
func (h *ScenarioHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.CreateScenarioRequest
	if !bindJSON(c, &req, "invalid scenario payload") {
		return
	}
	scenario, err := h.service.Create(c.Request.Context(), p, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, scenario)
}

// List godoc
// @Summary List scenarios
// @Description Own company scenarios plus global ones
// @Tags Scenarios
// @Produce json
// @Param category query string false "Fault, Maintenance, Overload or Topology"
// @Param difficulty query string false "Easy, Medium or Hard"
// @Success 200 {object} response.Envelope
// @Router /scenarios [get]
func (h *ScenarioHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	filter := models.ScenarioFilter{CompanyID: c.Query("company_id")}
	filter.Page, filter.PageSize = pageParams(c)
	if category := c.Query("category"); category != "" {
		v := models.ScenarioCategory(category)
		filter.Category = &v
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		v := models.ScenarioDifficulty(difficulty)
		filter.Difficulty = &v
	}
	scenarios, pagination, err := h.service.List(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scenarios, pagination)
}

// Get godoc
// @Summary Get scenario with ordered steps
// @Tags Scenarios
// @Produce json
// @Param id path string true "Scenario ID"
// @Success 200 {object} response.Envelope
// @Router /scenarios/{id} [get]
func (h *ScenarioHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	scenario, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scenario, nil)
}

// Update godoc
// @Summary Update scenario
// @Tags Scenarios
// @Accept json
// @Produce json
// @Param id path string true "Scenario ID"
// @Param payload body dto.UpdateScenarioRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /scenarios/{id} [patch]
func (h *ScenarioHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.UpdateScenarioRequest
	if !bindJSON(c, &req, "invalid scenario payload") {
		return
	}
	scenario, err := h.service.Update(c.Request.Context(), p, c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scenario, nil)
}

// Delete godoc
// @Summary Delete scenario and its steps
// @Tags Scenarios
// @Param id path string true "Scenario ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /scenarios/{id} [delete]
func (h *ScenarioHandler) Delete(c *gin.Context) {
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

// ListSteps godoc
// @Summary List steps of a scenario
// @Tags Steps
// @Produce json
// @Param scenarioId path string true "Scenario ID"
// @Success 200 {object} response.Envelope
// @Router /steps/scenario/{scenarioId} [get]
func (h *ScenarioHandler) ListSteps(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	steps, err := h.service.ListSteps(c.Request.Context(), p, c.Param("scenarioId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, steps, nil)
}

// CreateStep godoc
// @Summary Add a step to a scenario
// @Tags Steps
// @Accept json
// @Produce json
// @Param payload body dto.CreateStepRequest true "Step payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /steps [post]
func (h *ScenarioHandler) CreateStep(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.CreateStepRequest
	if !bindJSON(c, &req, "invalid step payload") {
		return
	}
	step, err := h.service.CreateStep(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, step)
}

// UpdateStep godoc
// @Summary Update step
// @Tags Steps
// @Accept json
// @Produce json
// @Param id path string true "Step ID"
// @Param payload body dto.UpdateStepRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /steps/{id} [patch]
func (h *ScenarioHandler) UpdateStep(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.UpdateStepRequest
	if !bindJSON(c, &req, "invalid step payload") {
		return
	}
	step, err := h.service.UpdateStep(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, step, nil)
}

// DeleteStep godoc
// @Summary Delete step
// @Tags Steps
// @Param id path string true "Step ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /steps/{id} [delete]
func (h *ScenarioHandler) DeleteStep(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.service.DeleteStep(c.Request.Context(), p, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
