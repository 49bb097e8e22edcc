package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
	"github.com/noah-isme/academy-inventory-api/pkg/logger"
	"github.com/noah-isme/academy-inventory-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the authenticated principal.
const ContextPrincipalKey = "currentPrincipal"

// TokenQueryParam carries the bearer token on links opened outside of API clients.
const TokenQueryParam = "token"

// PrincipalResolver turns an access token into the principal it was issued to.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (models.Principal, error)
}

// JWT protects routes by requiring a valid access token whose account still exists and is active.
func JWT(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			response.Abort(c, err)
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextPrincipalKey, principal)
		logger.SetActor(c, principal.Email(), string(principal.Kind))
		c.Next()
	}
}

// OptionalJWT attaches the principal when a valid token is present but does not block.
func OptionalJWT(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.Next()
			return
		}
		if principal, err := resolver.Resolve(c.Request.Context(), token); err == nil {
			c.Set(ContextPrincipalKey, principal)
			logger.SetActor(c, principal.Email(), string(principal.Kind))
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by JWT.
func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return models.Principal{}, false
	}
	principal, ok := value.(models.Principal)
	return principal, ok
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := strings.TrimSpace(c.Query(TokenQueryParam)); token != "" {
			return token, nil
		}
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "missing access token")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
