package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	Header    = "X-Request-ID"
	ginKey    = "request_id"
	maxLength = 128
)

type ctxKey struct{}

// Middleware tags every request with an id, echoed in the response header and
// carried on both the gin context and the request context. A caller supplied
// id is reused when it is short and printable.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !acceptable(id) {
			id = uuid.NewString()
		}
		c.Set(ginKey, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKey{}, id))
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the id stored on the gin context.
func Value(c *gin.Context) string {
	return c.GetString(ginKey)
}

// FromContext returns the id carried by a request context, for code below the
// handler layer.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func acceptable(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
