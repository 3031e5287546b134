package middleware

import (
	"net/http"

	"github.com/frontenddevmichael/openrole-connect/internal/authz"

	"github.com/labstack/echo/v4"
)

// RequireRole guards a dashboard namespace: the handler never runs unless
// the session's effective role satisfies required. Admin passes every check.
func RequireRole(required authz.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := SnapshotFrom(c)
			if authz.CanAccess(snap, required) {
				return next(c)
			}
			return denied(c, authz.EffectiveRole(snap))
		}
	}
}

// RequireOwner guards owner-only views (profile management): it demands a
// real profile of the required role, so the admin shortcut is refused.
func RequireOwner(required authz.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := SnapshotFrom(c)
			if authz.CanAccessOwner(snap, required) {
				return next(c)
			}
			return denied(c, authz.EffectiveRole(snap))
		}
	}
}

func denied(c echo.Context, role authz.Role) error {
	if role == authz.RoleAnonymous {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated", "redirect": "/login"})
	}
	return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
}
