package session

import (
	"context"

	"github.com/frontenddevmichael/openrole-connect/internal/model"

	"github.com/google/uuid"
)

// Identity is the credential subsystem's view of a user: an opaque id and the
// email it was registered with. A Store holds at most one.
type Identity struct {
	ID    uuid.UUID
	Email string
}

// RemoteSession is what the credential subsystem hands back when an existing
// session (a still-valid token) is restored. Admin sessions carry no
// identity; identity-bearing sessions are never admin.
type RemoteSession struct {
	SessionID uuid.UUID
	Identity  *Identity
	Admin     bool
}

// AuthChange is broadcast whenever the credential subsystem's state for a
// session transitions: sign-in elsewhere, token refresh, sign-out. A nil
// Identity means the session ended.
type AuthChange struct {
	SessionID uuid.UUID
	Identity  *Identity
}

// AuthGateway is the credential subsystem. Implementations translate their
// own failures into this package's sentinel errors: ErrDuplicateIdentity,
// ErrInvalidCredentials, ErrServiceUnavailable.
type AuthGateway interface {
	CreateCredential(ctx context.Context, email, password string) (*Identity, error)
	VerifyCredential(ctx context.Context, email, password string) (*Identity, error)
	// CurrentSession validates token and returns the session behind it, or
	// (nil, nil) when the token does not identify a live session.
	CurrentSession(ctx context.Context, token string) (*RemoteSession, error)
	DestroySession(ctx context.Context, sessionID uuid.UUID) error
	// Subscribe registers for auth state transitions and returns an
	// unsubscribe handle, invoked at Store teardown.
	Subscribe(fn func(AuthChange)) (unsubscribe func())
}

// ProfileSource is the profiles table. Implementations map "no such row" to
// ErrInvalidCredentials for EmailByUsername (the miss must look exactly like
// a wrong password) and duplicates to ErrDuplicateProfile.
type ProfileSource interface {
	ProfileByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	CreateProfile(ctx context.Context, p *model.Profile) error
	EmailByUsername(ctx context.Context, username string) (string, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// Metrics is the slice of the metrics collector the session core reports to.
type Metrics interface {
	ProfileFetchDiscarded()
	ProfileFetchFailed()
}

type nopMetrics struct{}

func (nopMetrics) ProfileFetchDiscarded() {}
func (nopMetrics) ProfileFetchFailed()    {}
