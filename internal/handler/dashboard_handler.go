package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/middleware"
	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
	"github.com/gridtrain/eval-api/pkg/response"
)

type dashboardService interface {
	Company(ctx context.Context, p authz.Principal, companyID string) (*models.CompanyDashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Company godoc
// @Summary Company training summary
// @Description Users by role, cycle and session outcomes. Defaults to the caller's company.
// @Tags Dashboard
// @Produce json
// @Param company_id query string false "Company ID (super admins)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Company(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	p, ok := principal(c)
	if !ok {
		return
	}
	summary, cacheHit, err := h.service.Company(c.Request.Context(), p, strings.TrimSpace(c.Query("company_id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}
