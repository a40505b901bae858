package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/middleware"
	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
	"github.com/gridtrain/eval-api/pkg/response"
)

// principal returns the caller or writes a 401 and reports false.
func principal(c *gin.Context) (authz.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return authz.Principal{}, false
	}
	return p, true
}

// reply writes data under status, or the error envelope when err is set.
func reply(c *gin.Context, status int, data interface{}, err error) {
	switch {
	case err != nil:
		response.Error(c, err)
	case status == http.StatusNoContent:
		response.NoContent(c)
	default:
		response.JSON(c, status, data, nil)
	}
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func bindJSON(c *gin.Context, dest interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err, msg))
		return false
	}
	return true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, size
}

func boolQuery(c *gin.Context, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &val
}
