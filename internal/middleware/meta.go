package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gridtrain/eval-api/pkg/middleware/requestid"
)

const responseMetaKey = "response_meta"

// responseMeta collects values a handler wants echoed under the envelope's
// meta key.
type responseMeta struct {
	started time.Time
	values  map[string]interface{}
}

// WithResponseMeta starts the processing clock for the request.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{started: time.Now(), values: map[string]interface{}{}})
		c.Next()
	}
}

// SetCacheHit marks whether the payload came from the cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, "cache_hit", hit)
}

// SetMeta stores a single meta value for the current request.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if m := metaFrom(c); m != nil {
		m.values[key] = value
	}
}

// ExtractMeta snapshots the collected values together with the elapsed
// processing time and the request id.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	m := metaFrom(c)
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m.values)+2)
	for k, v := range m.values {
		out[k] = v
	}
	out["processing_time_ms"] = time.Since(m.started).Milliseconds()
	if id := requestid.Value(c); id != "" {
		out["request_id"] = id
	}
	return out
}

func metaFrom(c *gin.Context) *responseMeta {
	if c == nil {
		return nil
	}
	if v, ok := c.Get(responseMetaKey); ok {
		if m, ok := v.(*responseMeta); ok {
			return m
		}
	}
	// Handlers mounted without WithResponseMeta still get a clock from here on.
	m := &responseMeta{started: time.Now(), values: map[string]interface{}{}}
	c.Set(responseMetaKey, m)
	return m
}
