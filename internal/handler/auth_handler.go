package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/models"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error)
	Logout(ctx context.Context, p authz.Principal, refreshToken string, meta models.RequestMeta) error
	ChangePassword(ctx context.Context, p authz.Principal, req models.ChangePasswordRequest, meta models.RequestMeta) error
	Me(ctx context.Context, p authz.Principal) (*models.UserInfo, error)
}

// AuthHandler serves the session endpoints under /auth.
type AuthHandler struct {
	service authService
}

func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// logoutRequest names the session to end; the caller must own it.
type logoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login godoc
// @Summary Exchange email and password for a token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	meta := requestMeta(c)
	req.IP, req.UserAgent = meta.IP, meta.UserAgent

	res, err := h.service.Login(c.Request.Context(), req)
	reply(c, http.StatusOK, res, err)
}

// Refresh godoc
// @Summary Rotate a refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if !bindJSON(c, &req, "invalid refresh payload") {
		return
	}
	meta := requestMeta(c)
	req.IP, req.UserAgent = meta.IP, meta.UserAgent

	res, err := h.service.RefreshToken(c.Request.Context(), req)
	reply(c, http.StatusOK, res, err)
}

// Logout godoc
// @Summary Revoke one refresh token of the caller
// @Tags Auth
// @Accept json
// @Security BearerAuth
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req logoutRequest
	if !bindJSON(c, &req, "refresh token required") {
		return
	}
	reply(c, http.StatusNoContent, nil, h.service.Logout(c.Request.Context(), p, req.RefreshToken, requestMeta(c)))
}

// ChangePassword godoc
// @Summary Change the caller's password and end every session
// @Tags Auth
// @Accept json
// @Security BearerAuth
// @Param payload body models.ChangePasswordRequest true "Old and new password"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req, "invalid password payload") {
		return
	}
	reply(c, http.StatusNoContent, nil, h.service.ChangePassword(c.Request.Context(), p, req, requestMeta(c)))
}

// Me godoc
// @Summary Profile of the authenticated caller
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	info, err := h.service.Me(c.Request.Context(), p)
	reply(c, http.StatusOK, info, err)
}
