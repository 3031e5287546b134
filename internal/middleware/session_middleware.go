package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/frontenddevmichael/openrole-connect/internal/authgate"
	"github.com/frontenddevmichael/openrole-connect/internal/session"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	snapshotKey = "session_snapshot"
	storeKey    = "session_store"

	// resolveTimeout bounds how long a request waits for a restoring
	// session's profile fetch before giving up on it.
	resolveTimeout = 5 * time.Second
)

// Session resolves the bearer token to a live session store, restoring one
// on a cache miss, and attaches both the store and a settled snapshot to the
// request context. Requests without a usable token proceed anonymously.
func Session(mgr *session.Manager, gw *authgate.Gateway) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			claims := gw.ParseToken(token)
			if claims == nil {
				return next(c)
			}
			sid, err := uuid.Parse(claims.SessionID)
			if err != nil {
				return next(c)
			}

			store, ok := mgr.Get(sid)
			if !ok {
				store = mgr.GetOrCreate(sid)
				store.Restore(c.Request().Context(), token)
			}

			// Never act on a half-restored session: wait for the profile
			// fetch to settle instead of serving partial state.
			waitCtx, cancel := context.WithTimeout(c.Request().Context(), resolveTimeout)
			err = store.WaitReady(waitCtx)
			cancel()
			if err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session not ready"})
			}

			c.Set(storeKey, store)
			c.Set(snapshotKey, store.Snapshot())
			return next(c)
		}
	}
}

// SnapshotFrom returns the resolved session snapshot; anonymous when the
// request carried no session.
func SnapshotFrom(c echo.Context) session.Snapshot {
	if v, ok := c.Get(snapshotKey).(session.Snapshot); ok {
		return v
	}
	return session.Snapshot{}
}

// StoreFrom returns the live store behind the request, or nil.
func StoreFrom(c echo.Context) *session.Store {
	if v, ok := c.Get(storeKey).(*session.Store); ok {
		return v
	}
	return nil
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.Fields(auth)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
