package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gridtrain/eval-api/pkg/config"
	"github.com/gridtrain/eval-api/pkg/middleware/requestid"
)

// Gin context keys the auth layer fills so access logs can attribute requests.
const (
	ActorKey  = "actor_id"
	TenantKey = "tenant_id"
)

var quietRoutes = map[string]bool{"/health": true, "/ready": true, "/metrics": true}

// New builds the process logger. Production emits JSON at info level unless
// LOG_LEVEL says otherwise; other environments default to debug.
func New(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	}

	zapCfg.Encoding = "json"
	if cfg.Log.Format == "console" {
		zapCfg.Encoding = "console"
	}
	if cfg.Log.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			level = zapcore.InfoLevel
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.InitialFields = map[string]interface{}{
		"service": "grid-training-eval",
		"env":     cfg.Env,
	}

	return zapCfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// GinMiddleware writes one access log line per request. Probe routes are
// logged at debug so they stay out of production logs.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if id := requestid.Value(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if actor := c.GetString(ActorKey); actor != "" {
			fields = append(fields, zap.String("actor_id", actor))
		}
		if tenant := c.GetString(TenantKey); tenant != "" {
			fields = append(fields, zap.String("tenant_id", tenant))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			l.Error("http_request", fields...)
		case status >= 400:
			l.Warn("http_request", fields...)
		case quietRoutes[route]:
			l.Debug("http_request", fields...)
		default:
			l.Info("http_request", fields...)
		}
	}
}
