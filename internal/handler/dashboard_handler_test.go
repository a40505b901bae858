package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

type fakeDashboardSrv struct {
	resp        *models.CompanyDashboard
	hit         bool
	err         error
	lastCompany string
}

func (f *fakeDashboardSrv) Company(_ context.Context, _ authz.Principal, companyID string) (*models.CompanyDashboard, bool, error) {
	f.lastCompany = companyID
	return f.resp, f.hit, f.err
}

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error string                 `json:"error"`
	Code  string                 `json:"code"`
}

func TestDashboardHandlerCompanySuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{resp: &models.CompanyDashboard{CompanyID: "c1"}, hit: true}
	handler := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard?company_id=c1", nil)
	asCaller(c, trainerPrincipal)

	handler.Company(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, "c1", envelope.Data["company_id"])
	assert.Equal(t, "c1", srv.lastCompany)
}

func TestDashboardHandlerPropagatesForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.Clone(appErrors.ErrForbidden, "role student may not read dashboard")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	asCaller(c, authz.Principal{UserID: "student-1", Role: models.RoleStudent, CompanyID: "c1"})

	handler.Company(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "role student may not read dashboard", envelope.Error)
	assert.Equal(t, appErrors.ErrForbidden.Code, envelope.Code)
}

func TestDashboardHandlerRequiresCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Company(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
