package middleware

import (
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// RBAC lets the request through only when the authenticated role is one of
// roles. It must run after Auth.
func RBAC(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if !slices.Contains(roles, role) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
