package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-inventory-api/internal/middleware"
	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
	"github.com/noah-isme/academy-inventory-api/pkg/response"
)

// principal returns the authenticated principal or writes 401.
func principal(c *gin.Context) (models.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Principal{}, false
	}
	return p, true
}

// actor returns the audit actor of the request or writes 401.
func actor(c *gin.Context) (models.Actor, bool) {
	p, ok := principal(c)
	if !ok {
		return models.Actor{}, false
	}
	return models.ActorFrom(p, c.ClientIP()), true
}

// bindJSON decodes the body into dst, writing a validation error on failure.
func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
