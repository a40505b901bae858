package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
	"github.com/gridtrain/eval-api/pkg/logger"
)

type stubValidator struct {
	claims map[string]*models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s.claims[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type auditSink struct {
	entries []*models.AuditLog
	err     error
}

func (a *auditSink) Create(ctx context.Context, log *models.AuditLog) error {
	a.entries = append(a.entries, log)
	return a.err
}

func testValidator() stubValidator {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))
	return stubValidator{claims: map[string]*models.JWTClaims{
		"trainer": {UserID: "trainer-1", Role: models.RoleTrainer, CompanyID: "c1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}},
		"student": {UserID: "student-1", Role: models.RoleStudent, CompanyID: "c1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}},
		"stale":   {UserID: "student-1", Role: models.RoleStudent, CompanyID: "c1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: past}},
		"rogue":   {UserID: "x", Role: "janitor"},
	}}
}

func serve(router *gin.Engine, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTAttachesPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(testValidator()))
	var seen authz.Principal
	var actor, tenant string
	router.GET("/me", func(c *gin.Context) {
		seen, _ = PrincipalFrom(c)
		actor, tenant = c.GetString(logger.ActorKey), c.GetString(logger.TenantKey)
		c.Status(http.StatusNoContent)
	})

	rec := serve(router, http.MethodGet, "/me", "trainer")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "trainer-1", seen.UserID)
	assert.Equal(t, "c1", seen.CompanyID)
	assert.Equal(t, "trainer-1", actor)
	assert.Equal(t, "c1", tenant)

	rec = serve(router, http.MethodGet, "/me?access_token=student", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.RoleStudent, seen.Role)
}

func TestJWTRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(testValidator()))
	router.GET("/me", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/me", "unknown").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/me", "stale").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/me", "rogue").Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePermission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(testValidator()))
	router.GET("/dashboard", Require(authz.ResourceDashboard, authz.ActionRead), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/dashboard", "trainer").Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/dashboard", "student").Code)

	bare := gin.New()
	bare.GET("/dashboard", Require(authz.ResourceDashboard, authz.ActionRead), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, serve(bare, http.MethodGet, "/dashboard", "").Code)
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sink := &auditSink{err: errors.New("db down")}
	router := gin.New()
	router.Use(JWT(testValidator()))
	router.POST("/reports/:id", Audit(sink, nil, models.AuditActionExport, "reports"), func(c *gin.Context) { c.Status(http.StatusAccepted) })
	router.POST("/fail/:id", Audit(sink, nil, models.AuditActionExport, "reports"), func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	assert.Equal(t, http.StatusAccepted, serve(router, http.MethodPost, "/reports/r-1", "trainer").Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/fail/r-2", "trainer").Code)

	require.Len(t, sink.entries, 1)
	entry := sink.entries[0]
	assert.Equal(t, models.AuditActionExport, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "trainer-1", *entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "r-1", *entry.ResourceID)
	assert.Contains(t, string(entry.NewValues), `"status":202`)
}
