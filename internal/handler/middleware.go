package handler

import (
	"net/http"
	"strings"

	"github.com/confera/auth-service/internal/domain"
	"github.com/confera/auth-service/internal/dto"
	"github.com/confera/auth-service/internal/reqctx"
	"github.com/confera/auth-service/internal/service"
	"github.com/gin-gonic/gin"
)

// ContextMiddleware establishes the request context on every route: a
// fresh correlation id and timestamp, plus identity claims when a valid
// access token happens to be present. It degrades to an anonymous
// context on any verification failure and never rejects a request;
// rejection is AuthMiddleware's job.
func ContextMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := reqctx.New()

		if token, ok := bearerToken(c); ok {
			if claims, err := authService.VerifyAccessToken(c.Request.Context(), token); err == nil {
				rc.SetClaims(claims)
			}
		}

		c.Header("X-Correlation-ID", rc.CorrelationID)
		c.Request = c.Request.WithContext(reqctx.With(c.Request.Context(), rc))
		c.Next()
	}
}

// AuthMiddleware gates protected routes. It requires a Bearer access
// token and re-checks the user's current state against the store, so a
// suspension or deletion takes effect mid-session. The full user record
// is cached on the request context for downstream handlers.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authorization header is required"})
			c.Abort()
			return
		}

		user, err := authService.AuthorizeRequest(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		rc, found := reqctx.From(c.Request.Context())
		if !found {
			rc = reqctx.New()
			c.Request = c.Request.WithContext(reqctx.With(c.Request.Context(), rc))
		}
		rc.SetIdentity(user)

		c.Next()
	}
}

// RequireRole rejects the request unless the identity established by
// AuthMiddleware has the given role. The role is read from the
// re-fetched user record, not the token claim, so a role revocation
// applies to tokens issued before it.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, found := reqctx.From(c.Request.Context())
		if !found || rc.User == nil {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication required"})
			c.Abort()
			return
		}

		if rc.User.Role != role {
			c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// InternalServiceMiddleware gates service-to-service routes on the
// X-Internal-Service header allow-list instead of end-user auth.
func InternalServiceMiddleware(allowedServices []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedServices))
	for _, name := range allowedServices {
		allowed[strings.TrimSpace(name)] = true
	}

	return func(c *gin.Context) {
		name := c.GetHeader("X-Internal-Service")
		if name == "" || !allowed[name] {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "internal access only"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}
