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

type eventService interface {
	Create(ctx context.Context, p authz.Principal, req dto.CreateEventRequest) (*models.Event, error)
	Get(ctx context.Context, p authz.Principal, id string) (*models.Event, error)
	ListByCycle(ctx context.Context, p authz.Principal, cycleID string) ([]models.Event, error)
	Update(ctx context.Context, p authz.Principal, id string, req dto.UpdateEventRequest) (*models.Event, error)
	Grade(ctx context.Context, p authz.Principal, id string, req dto.GradeEventRequest) (*models.Event, error)
	Delete(ctx context.Context, p authz.Principal, id string) error
}

// EventHandler exposes cycle event endpoints.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs the handler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// Create godoc
// @Summary Add an event to a cycle
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.CreateEventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	event, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	event, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// ListByCycle godoc
// @Summary List events of a cycle
// @Tags Events
// @Produce json
// @Param cycleId path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Router /events/cycle/{cycleId} [get]
func (h *EventHandler) ListByCycle(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	events, err := h.service.ListByCycle(c.Request.Context(), p, c.Param("cycleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Update godoc
// @Summary Update event metadata
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.UpdateEventRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [patch]
func (h *EventHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.UpdateEventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	event, err := h.service.Update(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Grade godoc
// @Summary Grade an event
// @Description Records a grading attempt and recomputes the cycle outcome
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.GradeEventRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id}/grade [post]
func (h *EventHandler) Grade(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.GradeEventRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	event, err := h.service.Grade(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete event
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
