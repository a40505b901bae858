package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/handler"
	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

type tokenTable map[string]*models.JWTClaims

func (t tokenTable) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
	tokens := tokenTable{
		"trainer": {UserID: "trainer-1", Role: models.RoleTrainer, CompanyID: "c1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}},
		"student": {UserID: "student-1", Role: models.RoleStudent, CompanyID: "c1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}},
	}

	r := gin.New()
	Register(r, "/api", Handlers{
		Auth:      handler.NewAuthHandler(nil),
		Users:     handler.NewUserHandler(nil),
		Companies: handler.NewCompanyHandler(nil),
		Cycles:    handler.NewCycleHandler(nil),
		Events:    handler.NewEventHandler(nil),
		Scenarios: handler.NewScenarioHandler(nil),
		Sessions:  handler.NewSessionHandler(nil, nil, zap.NewNop()),
		Dashboard: handler.NewDashboardHandler(nil),
		Metrics:   handler.NewMetricsHandler(nil, nil),
	}, Deps{Tokens: tokens, Logger: zap.NewNop()})
	return r
}

func call(r *gin.Engine, method, target, token string) int {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRegisterRouteGuards(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		name   string
		method string
		target string
		token  string
		want   int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"cycles need a token", http.MethodGet, "/api/cycles/cy-1", "", http.StatusUnauthorized},
		{"unknown token", http.MethodGet, "/api/cycles/cy-1", "forged", http.StatusUnauthorized},
		{"students cannot grade", http.MethodPost, "/api/events/ev-1/grade", "student", http.StatusForbidden},
		{"students have no dashboard", http.MethodGet, "/api/dashboard?company_id=c1", "student", http.StatusForbidden},
		{"trainers cannot delete cycles", http.MethodDelete, "/api/cycles/cy-1", "trainer", http.StatusForbidden},
		{"trainers cannot create scenarios", http.MethodPost, "/api/scenarios", "trainer", http.StatusForbidden},
		{"live feed disabled", http.MethodGet, "/api/sessions/ss-1/live", "trainer", http.StatusNotFound},
		{"reports disabled", http.MethodPost, "/api/reports", "trainer", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, call(r, tc.method, tc.target, tc.token))
		})
	}
}
