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

type cycleService interface {
	Create(ctx context.Context, p authz.Principal, req dto.CreateCycleRequest, meta models.RequestMeta) (*models.Cycle, error)
	Get(ctx context.Context, p authz.Principal, id string) (*models.Cycle, error)
	ListByCompany(ctx context.Context, p authz.Principal, filter models.CycleFilter) ([]models.Cycle, *models.Pagination, error)
	ListByStudent(ctx context.Context, p authz.Principal, studentID string, filter models.CycleFilter) ([]models.Cycle, *models.Pagination, error)
	Update(ctx context.Context, p authz.Principal, id string, req dto.UpdateCycleRequest, meta models.RequestMeta) (*models.Cycle, error)
	Delete(ctx context.Context, p authz.Principal, id string, meta models.RequestMeta) error
}

// CycleHandler exposes training cycle endpoints.
type CycleHandler struct {
	service cycleService
}

// NewCycleHandler constructs the handler.
func NewCycleHandler(svc cycleService) *CycleHandler {
	return &CycleHandler{service: svc}
}

// Create godoc
// @Summary Open a training cycle
// @Tags Cycles
// @Accept json
// @Produce json
// @Param payload body dto.CreateCycleRequest true "Cycle payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /cycles [post]
func (h *CycleHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.CreateCycleRequest
	if !bindJSON(c, &req, "invalid cycle payload") {
		return
	}
	cycle, err := h.service.Create(c.Request.Context(), p, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cycle)
}

// Get godoc
// @Summary Get cycle with events and verdict
// @Tags Cycles
// @Produce json
// @Param id path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cycles/{id} [get]
func (h *CycleHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	cycle, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycle, nil)
}

// ListByCompany godoc
// @Summary List company cycles
// @Tags Cycles
// @Produce json
// @Param companyId path string true "Company ID"
// @Param status query string false "pending, in_progress or completed"
// @Param type query string false "field or simulator"
// @Param trainer_id query string false "Trainer filter"
// @Success 200 {object} response.Envelope
// @Router /cycles/company/{companyId} [get]
func (h *CycleHandler) ListByCompany(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	filter := cycleFilter(c)
	filter.CompanyID = c.Param("companyId")
	cycles, pagination, err := h.service.ListByCompany(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycles, pagination)
}

// ListByStudent godoc
// @Summary List a student's cycles
// @Tags Cycles
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /cycles/student/{studentId} [get]
func (h *CycleHandler) ListByStudent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	cycles, pagination, err := h.service.ListByStudent(c.Request.Context(), p, c.Param("studentId"), cycleFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycles, pagination)
}

// Update godoc
// @Summary Update cycle
// @Description Status is derived from events and cannot be set directly
// @Tags Cycles
// @Accept json
// @Produce json
// @Param id path string true "Cycle ID"
// @Param payload body dto.UpdateCycleRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /cycles/{id} [patch]
func (h *CycleHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.UpdateCycleRequest
	if !bindJSON(c, &req, "invalid cycle payload") {
		return
	}
	cycle, err := h.service.Update(c.Request.Context(), p, c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycle, nil)
}

// Delete godoc
// @Summary Delete cycle and its events
// @Tags Cycles
// @Param id path string true "Cycle ID"
// @Success 204
// @Router /cycles/{id} [delete]
func (h *CycleHandler) Delete(c *gin.Context) {
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

func cycleFilter(c *gin.Context) models.CycleFilter {
	var filter models.CycleFilter
	filter.Page, filter.PageSize = pageParams(c)
	filter.TrainerID = c.Query("trainer_id")
	if status := c.Query("status"); status != "" {
		s := models.CycleStatus(status)
		filter.Status = &s
	}
	if kind := c.Query("type"); kind != "" {
		t := models.CycleType(kind)
		filter.Type = &t
	}
	return filter
}
