package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetflow/internal/auth"
)

const claimsContextKey = "auth.claims"

// AuthMiddleware verifies role tokens and gates routes by capability.
type AuthMiddleware struct {
	tokens *auth.Service
}

// NewAuthMiddleware creates the middleware. With a nil token service every
// request is treated as a manager, which is how AUTH_ENABLED=false runs.
func NewAuthMiddleware(tokens *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate validates the bearer token and stores its claims on the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.tokens == nil {
			c.Set(claimsContextKey, &auth.Claims{Subject: "anonymous", Role: auth.RoleManager})
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		claims, err := m.tokens.ValidateToken(header)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// Require rejects requests whose role lacks the capability.
func (m *AuthMiddleware) Require(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		if !claims.Role.Can(capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "role '" + string(claims.Role) + "' is not authorized to access this route",
			})
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Authenticate.
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
