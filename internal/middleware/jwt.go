package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
	"github.com/gridtrain/eval-api/pkg/logger"
	"github.com/gridtrain/eval-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the authenticated caller.
const ContextPrincipalKey = "principal"

// accessTokenQuery carries the token for websocket upgrades where browsers
// cannot set an Authorization header.
const accessTokenQuery = "access_token"

// TokenValidator resolves an access token into claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		principal := authz.FromClaims(claims)
		if !principal.Valid(time.Now()) {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims"))
			c.Abort()
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Set(logger.ActorKey, principal.UserID)
		if principal.CompanyID != "" {
			c.Set(logger.TenantKey, principal.CompanyID)
		}
		c.Next()
	}
}

// PrincipalFrom returns the caller attached by JWT.
func PrincipalFrom(c *gin.Context) (authz.Principal, bool) {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return authz.Principal{}, false
	}
	p, ok := value.(authz.Principal)
	return p, ok
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query(accessTokenQuery); token != "" {
			return token, nil
		}
		return "", appErrors.ErrUnauthorized
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
