package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
	"github.com/noah-isme/academy-inventory-api/pkg/response"
)

// RequireRoles admits staff accounts holding one of the given roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		if !principal.IsUser() {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "staff account required"))
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[principal.User.Role]; !ok {
				response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient role"))
				return
			}
		}
		c.Next()
	}
}

// RequireUser admits any staff account.
func RequireUser() gin.HandlerFunc {
	return RequireRoles()
}

// RequireAdmin admits administrators only.
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}

// RequireInstructor admits instructor portal sessions only.
func RequireInstructor() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		if !principal.IsInstructor() {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "instructor account required"))
			return
		}
		c.Next()
	}
}
