package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appauth "github.com/eduserv/ledger/internal/app/auth"
	"github.com/eduserv/ledger/internal/app/models/dto"
	"github.com/eduserv/ledger/internal/pkg/auth"
)

// SessionKey is the gin context key holding the verified auth.Session.
const SessionKey = "session"

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	authz      *appauth.AuthorizationService
	enabled    bool
}

// NewAuthMiddleware creates a new AuthMiddleware. When enabled is false every
// request runs as the system session.
func NewAuthMiddleware(jwtService *auth.JWTService, authz *appauth.AuthorizationService, enabled bool) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		authz:      authz,
		enabled:    enabled,
	}
}

// JWTAuth verifies the bearer token and stores the resulting Session.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Set(SessionKey, auth.SystemSession())
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			authHeader = c.Query("token")
		}
		if authHeader == "" {
			detail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewAPIError(detail))
			return
		}

		tokenString, err := auth.ExtractBearerToken(strings.Trim(authHeader, "\"'"))
		if err != nil {
			detail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewAPIError(detail))
			return
		}

		sess, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			code := dto.ErrorCodeInvalidToken
			details := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrorCodeExpiredToken
				details = "Token has expired"
			}
			detail := dto.NewErrorDetail(code, "Authentication failed").WithDetails(details)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewAPIError(detail))
			return
		}

		c.Set(SessionKey, sess)
		c.Next()
	}
}

// RequireWriter rejects sessions whose role is read-only.
func (m *AuthMiddleware) RequireWriter() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.authz.CanWrite(SessionFrom(c)); err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFrom returns the request's session, or the zero Session.
func SessionFrom(c *gin.Context) auth.Session {
	if v, ok := c.Get(SessionKey); ok {
		if sess, ok := v.(auth.Session); ok {
			return sess
		}
	}
	return auth.Session{}
}
