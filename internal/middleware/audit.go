package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/models"
)

// AuditWriter persists audit rows.
type AuditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit row after successful requests. The :id path
// parameter becomes the resource id.
func Audit(repo AuditWriter, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		actor := models.AuditActor{Meta: models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}}
		if p, ok := PrincipalFrom(c); ok {
			actor.UserID = p.UserID
			actor.CompanyID = p.CompanyID
		}
		entry := models.NewAuditLog(actor, action, resource, c.Param("id")).WithValues(nil, map[string]interface{}{
			"route":      c.FullPath(),
			"method":     c.Request.Method,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})

		if err := repo.Create(c.Request.Context(), entry); err != nil {
			logger.Warn("failed to write audit log", zap.String("action", action), zap.String("resource", resource), zap.Error(err))
		}
	}
}
