// Package authgate implements the credential subsystem behind the session
// store: bcrypt credential storage, HS256 bearer tokens, and the auth-change
// feed stores subscribe to.
package authgate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/frontenddevmichael/openrole-connect/internal/repository"
	"github.com/frontenddevmichael/openrole-connect/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload. Admin tokens carry no identity; identity tokens
// are never admin.
type Claims struct {
	SessionID  string `json:"sid"`
	IdentityID string `json:"identity_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Admin      bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

type Gateway struct {
	creds  *repository.CredentialRepository
	secret []byte
	ttl    time.Duration

	mu      sync.Mutex
	subs    map[int]func(session.AuthChange)
	nextSub int
}

func New(creds *repository.CredentialRepository, secret string, ttl time.Duration) *Gateway {
	return &Gateway{
		creds:  creds,
		secret: []byte(secret),
		ttl:    ttl,
		subs:   make(map[int]func(session.AuthChange)),
	}
}

// CreateCredential registers email with a bcrypt hash of password.
func (g *Gateway) CreateCredential(ctx context.Context, email, password string) (*session.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hashing password: %v", session.ErrServiceUnavailable, err)
	}
	id, err := g.creds.Create(ctx, email, string(hash))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, session.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("%w: creating credential: %v", session.ErrServiceUnavailable, err)
	}
	return &session.Identity{ID: id, Email: email}, nil
}

// VerifyCredential checks email+password. A missing email and a wrong
// password are indistinguishable to the caller.
func (g *Gateway) VerifyCredential(ctx context.Context, email, password string) (*session.Identity, error) {
	cred, err := g.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, session.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: loading credential: %v", session.ErrServiceUnavailable, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, session.ErrInvalidCredentials
	}
	return &session.Identity{ID: cred.ID, Email: cred.Email}, nil
}

// IssueToken signs a bearer token for the session. ident is nil for the
// admin shortcut.
func (g *Gateway) IssueToken(sessionID uuid.UUID, ident *session.Identity, admin bool) (string, error) {
	claims := &Claims{
		SessionID: sessionID.String(),
		Admin:     admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(g.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "openrole-api",
		},
	}
	if ident != nil {
		claims.IdentityID = ident.ID.String()
		claims.Email = ident.Email
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(g.secret)
}

// ParseToken validates a bearer token and returns its claims, or nil when
// the token is absent, malformed or expired.
func (g *Gateway) ParseToken(token string) *Claims {
	if token == "" {
		return nil
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// CurrentSession resolves token to the session behind it. A bad token is
// (nil, nil): no session, not a failure. For identity tokens the credential
// is re-checked so banned accounts stop restoring.
func (g *Gateway) CurrentSession(ctx context.Context, token string) (*session.RemoteSession, error) {
	claims := g.ParseToken(token)
	if claims == nil {
		return nil, nil
	}
	sid, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, nil
	}
	if claims.Admin {
		return &session.RemoteSession{SessionID: sid, Admin: true}, nil
	}

	identID, err := uuid.Parse(claims.IdentityID)
	if err != nil {
		return nil, nil
	}
	cred, err := g.creds.GetByID(ctx, identID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: loading credential: %v", session.ErrServiceUnavailable, err)
	}
	return &session.RemoteSession{
		SessionID: sid,
		Identity:  &session.Identity{ID: cred.ID, Email: cred.Email},
	}, nil
}

// DestroySession notifies subscribers that the session ended. Tokens are
// stateless and short-lived; the server-side session state is dropped by the
// session manager.
func (g *Gateway) DestroySession(_ context.Context, sessionID uuid.UUID) error {
	g.broadcast(session.AuthChange{SessionID: sessionID, Identity: nil})
	return nil
}

// Subscribe registers fn on the auth-change feed and returns its
// unsubscribe handle.
func (g *Gateway) Subscribe(fn func(session.AuthChange)) func() {
	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

func (g *Gateway) broadcast(ev session.AuthChange) {
	g.mu.Lock()
	fns := make([]func(session.AuthChange), 0, len(g.subs))
	for _, fn := range g.subs {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
