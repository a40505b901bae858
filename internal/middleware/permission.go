package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/gridtrain/eval-api/internal/authz"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
	"github.com/gridtrain/eval-api/pkg/response"
)

// Require rejects callers whose role never holds the permission. Tenant and
// ownership checks stay in the services, which see the target entity.
func Require(resource authz.Resource, action authz.Action) gin.HandlerFunc {
	perm := authz.Perm(resource, action)
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !authz.Can(p.Role, perm) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(p.Role)+" may not "+string(action)+" "+string(resource)))
			c.Abort()
			return
		}
		c.Next()
	}
}
