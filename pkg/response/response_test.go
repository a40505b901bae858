package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

func TestErrorWritesMessageAndCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrConflict, "email already exists"))

	require.Equal(t, http.StatusConflict, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "email already exists", body["error"])
	assert.Equal(t, "CONFLICT", body["code"])
	assert.NotContains(t, body, "data")
}

func TestJSONIncludesMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	JSON(c, http.StatusOK, gin.H{"id": "c1"}, nil, map[string]interface{}{"cache_hit": true})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"data":{"id":"c1"},"meta":{"cache_hit":true}}`, w.Body.String())
}

func TestErrorHidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-7")

	Error(c, errors.New("pq: relation \"cycles\" does not exist"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error","code":"INTERNAL_ERROR","request_id":"req-7"}`, w.Body.String())
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors.String(), "does not exist")
}
