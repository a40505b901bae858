package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

type authServiceStub struct {
	authService
	login     models.LoginRequest
	loginErr  error
	loggedOut string
	caller    authz.Principal
}

func (s *authServiceStub) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	s.login = req
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &models.LoginResponse{TokenPair: models.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}, User: models.UserInfo{ID: "trainer-1", Email: req.Email}}, nil
}

func (s *authServiceStub) Logout(_ context.Context, p authz.Principal, refreshToken string, _ models.RequestMeta) error {
	s.caller = p
	s.loggedOut = refreshToken
	return nil
}

func (s *authServiceStub) Me(_ context.Context, p authz.Principal) (*models.UserInfo, error) {
	return &models.UserInfo{ID: p.UserID, Role: p.Role, Name: "Dana"}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceStub{}
	h := NewAuthHandler(svc)

	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"email":"dana@grid.test","password":"s3cret-pass"}`))
	c.Request.Header.Set("User-Agent", "console/1.0")

	h.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dana@grid.test", svc.login.Email)
	assert.Equal(t, "console/1.0", svc.login.UserAgent)

	var body responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "access", body.Data["access_token"])
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&authServiceStub{loginErr: appErrors.ErrInvalidCredentials})

	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"email":"dana@grid.test","password":"wrong"}`))
	h.Login(c)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Status, w.Code)

	c, w = newGinContext(http.MethodPost, "/auth/login", []byte(`not json`))
	h.Login(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerLogout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceStub{}
	h := NewAuthHandler(svc)

	c, w := newGinContext(http.MethodPost, "/auth/logout", []byte(`{"refresh_token":"refresh"}`))
	h.Logout(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.loggedOut)

	c, w = newGinContext(http.MethodPost, "/auth/logout", []byte(`{}`))
	asCaller(c, trainerPrincipal)
	h.Logout(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodPost, "/auth/logout", []byte(`{"refresh_token":"refresh"}`))
	asCaller(c, trainerPrincipal)
	h.Logout(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "refresh", svc.loggedOut)
	assert.Equal(t, "trainer-1", svc.caller.UserID)
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&authServiceStub{})

	c, w := newGinContext(http.MethodGet, "/auth/me", nil)
	asCaller(c, trainerPrincipal)
	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "trainer", body.Data["role"])
}
