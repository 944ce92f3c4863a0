package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	xhttp "github.com/annuu1/autozonexnxt-sub000/pkg/http"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "user_role"

	RoleAdmin = "admin"
)

// Middleware authenticates requests via a Bearer token and stores the
// claims on the echo context.
func Middleware(m *Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return xhttp.UnauthorizedResponse(c, "missing authorization header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return xhttp.UnauthorizedResponse(c, "invalid authorization header format")
			}

			claims, err := m.ValidateAccessToken(parts[1])
			if err != nil {
				return xhttp.UnauthorizedResponse(c, err.Error())
			}

			c.Set(ContextKeyUserID, claims.UserID)
			c.Set(ContextKeyRole, claims.Role)
			return next(c)
		}
	}
}

// RequireRole gates a route to one role.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r, _ := c.Get(ContextKeyRole).(string); r != role {
				return xhttp.ForbiddenResponse(c, role+" access required")
			}
			return next(c)
		}
	}
}

// UserID extracts the authenticated user id from the context.
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextKeyUserID).(string)
	return id
}
