package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/models"
	"github.com/gridtrain/eval-api/internal/service"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
	"github.com/gridtrain/eval-api/pkg/response"
)

type userService interface {
	ListByCompany(ctx context.Context, p authz.Principal, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Get(ctx context.Context, p authz.Principal, id string) (*models.User, error)
	Create(ctx context.Context, p authz.Principal, req service.CreateUserRequest, meta models.RequestMeta) (*models.User, error)
	Update(ctx context.Context, p authz.Principal, id string, req service.UpdateUserRequest, meta models.RequestMeta) (*models.User, error)
	Delete(ctx context.Context, p authz.Principal, id string, meta models.RequestMeta) error
}

// UserHandler manages the people of a company: admins, trainers and students.
type UserHandler struct {
	service userService
}

func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

type userQuery struct {
	Role      string `form:"role" binding:"omitempty,oneof=super_admin admin trainer student"`
	Active    *bool  `form:"active"`
	Search    string `form:"search"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

func (q userQuery) filter(companyID string) models.UserFilter {
	f := models.UserFilter{CompanyID: companyID, Active: q.Active, Search: q.Search, SortBy: q.SortBy, SortOrder: q.SortOrder}
	if q.Role != "" {
		role := models.UserRole(q.Role)
		f.Role = &role
	}
	return f
}

// ListByCompany godoc
// @Summary Users of one company
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param companyId path string true "Company ID"
// @Param role query string false "super_admin, admin, trainer or student"
// @Param active query bool false "Only active or inactive users"
// @Param search query string false "Matches name or email"
// @Param sort_by query string false "name, email, created_at or updated_at"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page, from 1"
// @Param page_size query int false "Rows per page"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users/company/{companyId} [get]
func (h *UserHandler) ListByCompany(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var q userQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err, "invalid user filter"))
		return
	}
	filter := q.filter(c.Param("companyId"))
	filter.Page, filter.PageSize = pageParams(c)

	users, page, err := h.service.ListByCompany(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, page)
}

// Get godoc
// @Summary One user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	reply(c, http.StatusOK, user, err)
}

// Create godoc
// @Summary Register a user in a company
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateUserRequest true "New user"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req service.CreateUserRequest
	if !bindJSON(c, &req, "invalid user payload") {
		return
	}
	user, err := h.service.Create(c.Request.Context(), p, req, requestMeta(c))
	reply(c, http.StatusCreated, user, err)
}

// Update godoc
// @Summary Change profile, role or activation of a user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param payload body service.UpdateUserRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/{id} [patch]
func (h *UserHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if !bindJSON(c, &req, "invalid user payload") {
		return
	}
	user, err := h.service.Update(c.Request.Context(), p, c.Param("id"), req, requestMeta(c))
	reply(c, http.StatusOK, user, err)
}

// Delete godoc
// @Summary Deactivate a user and revoke their sessions
// @Tags Users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	reply(c, http.StatusNoContent, nil, h.service.Delete(c.Request.Context(), p, c.Param("id"), requestMeta(c)))
}
