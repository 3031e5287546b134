// Package session holds the authority for "who is currently using the
// application": one Store per signed-in principal, restored from a token,
// kept current by an auth-change subscription, and guarded against stale
// asynchronous profile fetches with a generation counter.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/frontenddevmichael/openrole-connect/internal/model"

	"github.com/google/uuid"
)

const (
	MinPasswordLen = 6
	MinUsernameLen = 3

	profileFetchTimeout = 10 * time.Second
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)
)

// AdminPair is the reserved administrative sign-in shortcut. Matching it
// grants the session-local admin flag without touching the credential store;
// admin is not a profile row.
type AdminPair struct {
	Username string
	Password string
}

// Snapshot is a point-in-time copy of a Store's state, safe to read after
// the store has moved on. The useSession() accessor of the HTTP layer.
type Snapshot struct {
	SessionID  uuid.UUID
	Identity   *Identity
	Profile    *model.Profile
	IsAdmin    bool
	IsLoading  bool
	Generation uint64
}

// Store manages one session's lifecycle: anonymous, restoring, or
// authenticated as a student, an organization, or the admin shortcut.
// All operations return errors; none panic and none block on profile loads,
// which run in their own goroutine and are discarded on arrival when their
// generation no longer matches.
type Store struct {
	id       uuid.UUID
	gateway  AuthGateway
	profiles ProfileSource
	admin    AdminPair
	logger   *slog.Logger
	metrics  Metrics

	mu       sync.Mutex
	identity *Identity
	profile  *model.Profile
	isAdmin  bool
	loading  bool
	gen      uint64
	settled  chan struct{}
	unsub    func()
	closed   bool
}

// NewStore builds an anonymous store and subscribes it to the gateway's
// auth-change feed. Close releases the subscription.
func NewStore(id uuid.UUID, gw AuthGateway, profiles ProfileSource, admin AdminPair, logger *slog.Logger, m Metrics) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = nopMetrics{}
	}
	s := &Store{
		id:       id,
		gateway:  gw,
		profiles: profiles,
		admin:    admin,
		logger:   logger.With(slog.String("session_id", id.String())),
		metrics:  m,
		settled:  closedChan(),
	}
	s.unsub = gw.Subscribe(s.onAuthChange)
	return s
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// ID returns the session id the store was created with.
func (s *Store) ID() uuid.UUID { return s.id }

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID:  s.id,
		Identity:   s.identity,
		Profile:    s.profile,
		IsAdmin:    s.isAdmin,
		IsLoading:  s.loading,
		Generation: s.gen,
	}
}

// Restore asks the gateway whether token still identifies a live session and,
// if so, installs its identity and schedules a profile fetch. An invalid or
// expired token, or a gateway failure, leaves the store anonymous without an
// error: startup must not crash on a bad cookie.
func (s *Store) Restore(ctx context.Context, token string) {
	remote, err := s.gateway.CurrentSession(ctx, token)
	if err != nil {
		s.logger.Warn("session restore failed, staying anonymous", slog.Any("error", err))
		return
	}
	if remote == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if remote.Admin {
		s.gen++
		s.isAdmin = true
		s.identity = nil
		s.profile = nil
		s.loading = false
		s.settled = closedChan()
		return
	}
	s.installIdentityLocked(remote.Identity)
}

// SignUp creates the credential first and exactly one profile row after it.
// Any failure leaves the session unchanged. A profile insert failing after
// the credential was created surfaces as ErrInconsistentState so a retry
// path can be offered.
func (s *Store) SignUp(ctx context.Context, email, password, username string, role model.Role, fullName string) error {
	if err := validateSignUp(email, password, username, role); err != nil {
		return err
	}

	taken, err := s.profiles.UsernameExists(ctx, username)
	if err != nil {
		return fmt.Errorf("%w: checking username: %v", ErrServiceUnavailable, err)
	}
	if taken {
		return ErrDuplicateProfile
	}

	ident, err := s.gateway.CreateCredential(ctx, email, password)
	if err != nil {
		return err
	}

	profile := &model.Profile{
		ID:       ident.ID,
		Username: username,
		Email:    email,
		Role:     role,
	}
	if fullName != "" {
		profile.FullName = &fullName
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		// The credential exists without a profile now. Detectable, not silent.
		return fmt.Errorf("%w: %v", ErrInconsistentState, err)
	}

	s.mu.Lock()
	s.gen++
	s.identity = ident
	s.profile = profile
	s.isAdmin = false
	s.loading = false
	s.settled = closedChan()
	s.mu.Unlock()
	return nil
}

// SignIn resolves in two phases: the reserved admin pair grants the admin
// flag synchronously with no credential call and no profile fetch; anything
// else resolves the username to an email and delegates verification. An
// unknown username fails with the same error as a wrong password.
func (s *Store) SignIn(ctx context.Context, username, password string) error {
	if username == s.admin.Username && password == s.admin.Password {
		s.mu.Lock()
		s.gen++
		s.isAdmin = true
		s.identity = nil
		s.profile = nil
		s.loading = false
		s.settled = closedChan()
		s.mu.Unlock()
		return nil
	}

	email, err := s.profiles.EmailByUsername(ctx, username)
	if err != nil {
		return err
	}
	ident, err := s.gateway.VerifyCredential(ctx, email, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.installIdentityLocked(ident)
	s.mu.Unlock()
	return nil
}

// SignOut clears the admin flag and profile, orphans any fetch in flight,
// delegates to the gateway, and clears the identity only once the delegation
// has settled. The session ends up anonymous even when the gateway call
// fails; the error is still reported.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.isAdmin = false
	s.profile = nil
	s.gen++ // a fetch resolving after this point must not repopulate
	s.loading = false
	s.settled = closedChan()
	s.mu.Unlock()

	err := s.gateway.DestroySession(ctx, s.id)

	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: destroying session: %v", ErrServiceUnavailable, err)
	}
	return nil
}

// RefreshProfile schedules a fresh fetch for the current identity. No-op
// when the session is anonymous or admin.
func (s *Store) RefreshProfile(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return
	}
	s.startFetchLocked(s.identity.ID)
}

// WaitReady blocks the caller, never the store, until the pending profile
// fetch settles or ctx expires. Guards call this so protected handlers never
// run against a half-restored session.
func (s *Store) WaitReady(ctx context.Context) error {
	s.mu.Lock()
	ch := s.settled
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the auth-change subscription. Idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.closed = true
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// onAuthChange consumes the gateway feed. Only the latest notification's
// identity may win: installing bumps the generation, so a profile fetch in
// flight for a stale identity is discarded on arrival.
func (s *Store) onAuthChange(ev AuthChange) {
	if ev.SessionID != s.id {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if ev.Identity == nil {
		s.gen++
		s.identity = nil
		s.profile = nil
		s.isAdmin = false
		s.loading = false
		s.settled = closedChan()
		return
	}
	s.installIdentityLocked(ev.Identity)
}

// installIdentityLocked atomically replaces the identity, bumps the
// generation and schedules a profile fetch. Caller holds s.mu.
func (s *Store) installIdentityLocked(ident *Identity) {
	s.gen++
	s.identity = ident
	s.profile = nil
	s.isAdmin = false
	s.startFetchLocked(ident.ID)
}

// startFetchLocked launches an asynchronous profile fetch tagged with the
// current generation. Caller holds s.mu.
func (s *Store) startFetchLocked(id uuid.UUID) {
	gen := s.gen
	ch := make(chan struct{})
	s.loading = true
	s.settled = ch

	go func() {
		defer close(ch)

		ctx, cancel := context.WithTimeout(context.Background(), profileFetchTimeout)
		defer cancel()
		p, err := s.profiles.ProfileByID(ctx, id)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen || s.settled != ch {
			// A newer identity, a sign-out, or a newer refresh owns the
			// session now; only the fetch behind the current settled channel
			// may write profile and loading.
			s.metrics.ProfileFetchDiscarded()
			return
		}
		if err != nil {
			s.metrics.ProfileFetchFailed()
			s.logger.Warn("profile fetch failed", slog.Any("error", err))
		} else {
			s.profile = p
		}
		s.loading = false
	}()
}

func validateSignUp(email, password, username string, role model.Role) error {
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password too short: must be at least %d characters", MinPasswordLen)
	}
	if len(username) < MinUsernameLen || !usernameRegex.MatchString(username) {
		return errors.New("invalid username")
	}
	if !role.Valid() {
		return errors.New("role must be student or organization")
	}
	return nil
}
