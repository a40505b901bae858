package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders  = "Authorization, Content-Type, X-Request-ID"
	allowMethods  = "GET, POST, PATCH, DELETE, OPTIONS"
	exposeHeaders = "X-Request-ID, Content-Disposition"
)

// policy matches origins exactly or against "scheme://*.domain" patterns.
type policy struct {
	any      bool
	exact    map[string]struct{}
	suffixes []string
}

func newPolicy(origins []string) policy {
	p := policy{any: len(origins) == 0, exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case o == "*":
			p.any = true
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "://*")
			p.suffixes = append(p.suffixes, scheme+"://|"+host)
		case o != "":
			p.exact[o] = struct{}{}
		}
	}
	return p
}

func (p policy) listed(origin string) bool {
	origin = strings.TrimRight(origin, "/")
	if _, ok := p.exact[origin]; ok {
		return true
	}
	for _, s := range p.suffixes {
		scheme, domain, _ := strings.Cut(s, "|")
		if strings.HasPrefix(origin, scheme) && strings.HasSuffix(origin, domain) && len(origin) > len(scheme)+len(domain) {
			return true
		}
	}
	return false
}

// New answers preflights and decorates responses for the configured origins.
// An empty list or "*" admits any origin without credentials, which is meant
// for local development; listed origins may send cookies and auth headers.
func New(allowedOrigins []string) gin.HandlerFunc {
	p := newPolicy(allowedOrigins)
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && p.listed(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		case p.any:
			h.Set("Access-Control-Allow-Origin", "*")
		}

		if h.Get("Access-Control-Allow-Origin") != "" {
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Expose-Headers", exposeHeaders)
			h.Set("Access-Control-Max-Age", "600")
		}

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
