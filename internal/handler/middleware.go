package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prodev-shop/backend/internal/domain/auth"
	"github.com/prodev-shop/backend/internal/domain/user"
)

const identityKey = "identity"

// Authenticate returns middleware that verifies the Bearer token and stores
// the resolved claims on the request context.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			fail(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			fail(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(identityKey, claims)
		c.Next()
	}
}

// RequireAdmin returns middleware that rejects non-admin callers. It must
// run after Authenticate.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := identity(c)
		if claims == nil || claims.Role != user.RoleAdmin {
			fail(c, http.StatusForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

// identity returns the authenticated caller's claims, or nil.
func identity(c *gin.Context) *auth.Claims {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
