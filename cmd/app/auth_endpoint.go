package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/frontenddevmichael/openrole-connect/internal/authgate"
	"github.com/frontenddevmichael/openrole-connect/internal/authz"
	"github.com/frontenddevmichael/openrole-connect/internal/metrics"
	"github.com/frontenddevmichael/openrole-connect/internal/middleware"
	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/session"

	"github.com/labstack/echo/v4"
)

// profileWaitTimeout bounds how long sign-in waits for the freshly scheduled
// profile fetch before answering. The response carries the effective role and
// dashboard, so it must not be built from a still-loading session.
const profileWaitTimeout = 5 * time.Second

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Role     string `json:"role"`
	FullName string `json:"full_name,omitempty"`
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func signUpHandler(mgr *session.Manager, gw *authgate.Gateway, m *metrics.Collector) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(signUpRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}

		store := mgr.Create()
		err := store.SignUp(c.Request().Context(), req.Email, req.Password, req.Username,
			model.Role(req.Role), req.FullName)
		if err != nil {
			mgr.Remove(store.ID())
			return sessionErrorResponse(c, err)
		}

		snap := store.Snapshot()
		token, err := gw.IssueToken(snap.SessionID, snap.Identity, false)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create token"})
		}
		m.SignUp()

		return c.JSON(http.StatusCreated, echo.Map{
			"token":     token,
			"profile":   snap.Profile,
			"dashboard": authz.DashboardPath(snap),
		})
	}
}

func signInHandler(mgr *session.Manager, gw *authgate.Gateway, m *metrics.Collector) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(signInRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}

		store := mgr.Create()
		if err := store.SignIn(c.Request().Context(), req.Username, req.Password); err != nil {
			mgr.Remove(store.ID())
			if errors.Is(err, session.ErrInvalidCredentials) {
				m.SignIn("invalid")
			} else {
				m.SignIn("error")
			}
			return sessionErrorResponse(c, err)
		}

		// The profile fetch scheduled by sign-in is asynchronous; the role and
		// dashboard below must come from the settled session, not a snapshot
		// taken mid-fetch.
		waitCtx, cancel := context.WithTimeout(c.Request().Context(), profileWaitTimeout)
		err := store.WaitReady(waitCtx)
		cancel()
		if err != nil {
			mgr.Remove(store.ID())
			m.SignIn("error")
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session not ready"})
		}

		snap := store.Snapshot()
		token, err := gw.IssueToken(snap.SessionID, snap.Identity, snap.IsAdmin)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create token"})
		}
		if snap.IsAdmin {
			m.SignIn("admin")
		} else {
			m.SignIn("success")
		}

		return c.JSON(http.StatusOK, echo.Map{
			"token":     token,
			"role":      authz.EffectiveRole(snap),
			"dashboard": authz.DashboardPath(snap),
		})
	}
}

func signOutHandler(mgr *session.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		store := middleware.StoreFrom(c)
		if store == nil {
			return c.JSON(http.StatusOK, echo.Map{"message": "signed out"})
		}
		err := store.SignOut(c.Request().Context())
		mgr.Remove(store.ID())
		if err != nil {
			return sessionErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "signed out"})
	}
}

// meHandler returns the resolved session: the useSession() accessor of the
// HTTP surface.
func meHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := middleware.SnapshotFrom(c)
		return c.JSON(http.StatusOK, echo.Map{
			"identity":   snap.Identity,
			"profile":    snap.Profile,
			"is_admin":   snap.IsAdmin,
			"is_loading": snap.IsLoading,
			"role":       authz.EffectiveRole(snap),
			"dashboard":  authz.DashboardPath(snap),
		})
	}
}

func refreshProfileHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		store := middleware.StoreFrom(c)
		if store == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
		}
		store.RefreshProfile(c.Request().Context())
		if err := store.WaitReady(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "profile refresh timed out"})
		}
		return c.JSON(http.StatusOK, echo.Map{"profile": store.Snapshot().Profile})
	}
}

// sessionErrorResponse maps the session error taxonomy onto HTTP statuses.
// InconsistentState carries its own code so clients can offer a retry path.
func sessionErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": session.ErrInvalidCredentials.Error()})
	case errors.Is(err, session.ErrDuplicateIdentity):
		return c.JSON(http.StatusConflict, echo.Map{"error": session.ErrDuplicateIdentity.Error()})
	case errors.Is(err, session.ErrDuplicateProfile):
		return c.JSON(http.StatusConflict, echo.Map{"error": session.ErrDuplicateProfile.Error()})
	case errors.Is(err, session.ErrInconsistentState):
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "account created but profile setup failed",
			"code":  "inconsistent_state",
		})
	case errors.Is(err, session.ErrServiceUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service temporarily unavailable"})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
}

func registerAuthRoutes(g *echo.Group, mgr *session.Manager, gw *authgate.Gateway,
	m *metrics.Collector, limiter *middleware.RateLimiter) {
	auth := g.Group("/auth")
	auth.Use(limiter.Middleware())

	// public
	auth.POST("/signup", signUpHandler(mgr, gw, m))
	auth.POST("/login", signInHandler(mgr, gw, m))

	// session-bearing
	auth.POST("/logout", signOutHandler(mgr))
	auth.GET("/me", meHandler())
	auth.POST("/refresh-profile", refreshProfileHandler())
}
