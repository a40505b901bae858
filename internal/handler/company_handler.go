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

type companyService interface {
	List(ctx context.Context, p authz.Principal, filter models.CompanyFilter) ([]models.Company, *models.Pagination, error)
	Get(ctx context.Context, p authz.Principal, id string) (*models.Company, error)
	Create(ctx context.Context, p authz.Principal, req dto.CreateCompanyRequest, meta models.RequestMeta) (*models.Company, error)
	Update(ctx context.Context, p authz.Principal, id string, req dto.UpdateCompanyRequest, meta models.RequestMeta) (*models.Company, error)
	Delete(ctx context.Context, p authz.Principal, id string, meta models.RequestMeta) error
}

// CompanyHandler exposes tenant management.
type CompanyHandler struct {
	service companyService
}

// NewCompanyHandler constructs the handler.
func NewCompanyHandler(svc companyService) *CompanyHandler {
	return &CompanyHandler{service: svc}
}

// List godoc
// @Summary List companies
// @Description Super admins see every company, other roles only their own
// @Tags Companies
// @Produce json
// @Param active query bool false "Active filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /companies [get]
func (h *CompanyHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	filter := models.CompanyFilter{Active: boolQuery(c, "active"), Search: c.Query("search")}
	filter.Page, filter.PageSize = pageParams(c)

	companies, pagination, err := h.service.List(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, companies, pagination)
}

// Get godoc
// @Summary Get company
// @Tags Companies
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /companies/{id} [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	company, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, company, nil)
}

// Create godoc
// @Summary Create company
// @Tags Companies
// @Accept json
// @Produce json
// @Param payload body dto.CreateCompanyRequest true "Company payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /companies [post]
func (h *CompanyHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.CreateCompanyRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	company, err := h.service.Create(c.Request.Context(), p, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, company)
}

// Update godoc
// @Summary Update company
// @Tags Companies
// @Accept json
// @Produce json
// @Param id path string true "Company ID"
// @Param payload body dto.UpdateCompanyRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /companies/{id} [patch]
func (h *CompanyHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.UpdateCompanyRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	company, err := h.service.Update(c.Request.Context(), p, c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, company, nil)
}

// Delete godoc
// @Summary Deactivate company
// @Description Soft delete: the company and everything under it become invisible
// @Tags Companies
// @Param id path string true "Company ID"
// @Success 204
// @Router /companies/{id} [delete]
func (h *CompanyHandler) Delete(c *gin.Context) {
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
