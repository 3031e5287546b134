package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/frontenddevmichael/openrole-connect/internal/authz"
	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/session"

	"github.com/google/uuid"
)

var testAdmin = session.AdminPair{Username: "admin", Password: "admin"}

// --- fakes ---

type fakeGateway struct {
	createFn  func(ctx context.Context, email, password string) (*session.Identity, error)
	verifyFn  func(ctx context.Context, email, password string) (*session.Identity, error)
	currentFn func(ctx context.Context, token string) (*session.RemoteSession, error)
	destroyFn func(ctx context.Context, sessionID uuid.UUID) error

	mu      sync.Mutex
	handler func(session.AuthChange)

	verifyCalls  int
	destroyCalls int
}

func (g *fakeGateway) CreateCredential(ctx context.Context, email, password string) (*session.Identity, error) {
	if g.createFn != nil {
		return g.createFn(ctx, email, password)
	}
	return &session.Identity{ID: uuid.New(), Email: email}, nil
}

func (g *fakeGateway) VerifyCredential(ctx context.Context, email, password string) (*session.Identity, error) {
	g.mu.Lock()
	g.verifyCalls++
	g.mu.Unlock()
	if g.verifyFn != nil {
		return g.verifyFn(ctx, email, password)
	}
	return &session.Identity{ID: uuid.New(), Email: email}, nil
}

func (g *fakeGateway) CurrentSession(ctx context.Context, token string) (*session.RemoteSession, error) {
	if g.currentFn != nil {
		return g.currentFn(ctx, token)
	}
	return nil, nil
}

func (g *fakeGateway) DestroySession(ctx context.Context, sessionID uuid.UUID) error {
	g.mu.Lock()
	g.destroyCalls++
	g.mu.Unlock()
	if g.destroyFn != nil {
		return g.destroyFn(ctx, sessionID)
	}
	return nil
}

func (g *fakeGateway) Subscribe(fn func(session.AuthChange)) func() {
	g.mu.Lock()
	g.handler = fn
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		g.handler = nil
		g.mu.Unlock()
	}
}

func (g *fakeGateway) emit(ev session.AuthChange) {
	g.mu.Lock()
	fn := g.handler
	g.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

type fakeProfiles struct {
	profileByIDFn     func(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	createProfileFn   func(ctx context.Context, p *model.Profile) error
	emailByUsernameFn func(ctx context.Context, username string) (string, error)
	usernameExistsFn  func(ctx context.Context, username string) (bool, error)

	mu         sync.Mutex
	fetchCalls int
}

func (p *fakeProfiles) ProfileByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	p.mu.Lock()
	p.fetchCalls++
	p.mu.Unlock()
	if p.profileByIDFn != nil {
		return p.profileByIDFn(ctx, id)
	}
	return &model.Profile{ID: id, Role: model.RoleStudent}, nil
}

func (p *fakeProfiles) CreateProfile(ctx context.Context, prof *model.Profile) error {
	if p.createProfileFn != nil {
		return p.createProfileFn(ctx, prof)
	}
	return nil
}

func (p *fakeProfiles) EmailByUsername(ctx context.Context, username string) (string, error) {
	if p.emailByUsernameFn != nil {
		return p.emailByUsernameFn(ctx, username)
	}
	return "", session.ErrInvalidCredentials
}

func (p *fakeProfiles) UsernameExists(ctx context.Context, username string) (bool, error) {
	if p.usernameExistsFn != nil {
		return p.usernameExistsFn(ctx, username)
	}
	return false, nil
}

func (p *fakeProfiles) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchCalls
}

type fakeMetrics struct {
	mu        sync.Mutex
	discarded int
	failed    int
	signal    chan struct{}
}

func (m *fakeMetrics) ProfileFetchDiscarded() {
	m.mu.Lock()
	m.discarded++
	m.mu.Unlock()
	if m.signal != nil {
		m.signal <- struct{}{}
	}
}

func (m *fakeMetrics) ProfileFetchFailed() {
	m.mu.Lock()
	m.failed++
	m.mu.Unlock()
}

func newTestStore(gw *fakeGateway, profiles *fakeProfiles, m session.Metrics) *session.Store {
	return session.NewStore(uuid.New(), gw, profiles, testAdmin, nil, m)
}

func waitSettled(t *testing.T, s *session.Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
}

// --- tests ---

func TestAdminShortcutNeverTouchesCredentialsOrProfiles(t *testing.T) {
	gw := &fakeGateway{}
	profiles := &fakeProfiles{}
	s := newTestStore(gw, profiles, nil)
	defer s.Close()

	if err := s.SignIn(context.Background(), "admin", "admin"); err != nil {
		t.Fatalf("admin sign-in: %v", err)
	}

	snap := s.Snapshot()
	if !snap.IsAdmin {
		t.Fatal("admin flag not set")
	}
	if snap.Identity != nil || snap.Profile != nil {
		t.Fatal("admin session must not carry an identity or profile")
	}
	if snap.IsLoading {
		t.Fatal("admin sign-in must be synchronous")
	}
	if gw.verifyCalls != 0 {
		t.Fatal("admin shortcut must not call the credential store")
	}
	if profiles.calls() != 0 {
		t.Fatal("admin shortcut must not fetch a profile")
	}
	if got := authz.EffectiveRole(snap); got != authz.RoleAdmin {
		t.Fatalf("effective role = %s, want admin", got)
	}
}

func TestSignInUnknownUsernameMatchesWrongPasswordShape(t *testing.T) {
	gw := &fakeGateway{
		verifyFn: func(context.Context, string, string) (*session.Identity, error) {
			return nil, session.ErrInvalidCredentials
		},
	}
	profiles := &fakeProfiles{
		emailByUsernameFn: func(_ context.Context, username string) (string, error) {
			if username == "real-user" {
				return "real@example.com", nil
			}
			return "", session.ErrInvalidCredentials
		},
	}
	s := newTestStore(gw, profiles, nil)
	defer s.Close()

	missErr := s.SignIn(context.Background(), "no-such-user", "whatever1")
	wrongErr := s.SignIn(context.Background(), "real-user", "wrongpass1")

	if !errors.Is(missErr, session.ErrInvalidCredentials) {
		t.Fatalf("unknown username error = %v, want ErrInvalidCredentials", missErr)
	}
	if !errors.Is(wrongErr, session.ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v, want ErrInvalidCredentials", wrongErr)
	}
	if missErr.Error() != wrongErr.Error() {
		t.Fatalf("errors must be identical in shape: %q vs %q", missErr, wrongErr)
	}
	if snap := s.Snapshot(); snap.Identity != nil || snap.IsAdmin {
		t.Fatal("failed sign-in must leave the session unchanged")
	}
}

func TestSignInPopulatesProfile(t *testing.T) {
	identID := uuid.New()
	gw := &fakeGateway{
		verifyFn: func(_ context.Context, email, _ string) (*session.Identity, error) {
			return &session.Identity{ID: identID, Email: email}, nil
		},
	}
	profiles := &fakeProfiles{
		emailByUsernameFn: func(context.Context, string) (string, error) {
			return "alice@example.com", nil
		},
		profileByIDFn: func(_ context.Context, id uuid.UUID) (*model.Profile, error) {
			return &model.Profile{ID: id, Username: "alice", Role: model.RoleOrganization}, nil
		},
	}
	s := newTestStore(gw, profiles, nil)
	defer s.Close()

	if err := s.SignIn(context.Background(), "alice", "secret12"); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	waitSettled(t, s)

	snap := s.Snapshot()
	if snap.Identity == nil || snap.Identity.ID != identID {
		t.Fatal("identity not installed")
	}
	if snap.Profile == nil || snap.Profile.Role != model.RoleOrganization {
		t.Fatal("profile not populated")
	}
	if got := authz.DashboardPath(snap); got != authz.OrganizationDashboard {
		t.Fatalf("dashboard = %q, want %q", got, authz.OrganizationDashboard)
	}
}

func TestSignUpStudentEndsAtStudentDashboard(t *testing.T) {
	gw := &fakeGateway{}
	profiles := &fakeProfiles{}
	s := newTestStore(gw, profiles, nil)
	defer s.Close()

	err := s.SignUp(context.Background(), "a@x.com", "secret1", "alice", model.RoleStudent, "Alice A")
	if err != nil {
		t.Fatalf("sign-up: %v", err)
	}

	snap := s.Snapshot()
	if snap.Profile == nil || snap.Profile.Role != model.RoleStudent {
		t.Fatal("session must end with a student profile")
	}
	if snap.Profile.Username != "alice" {
		t.Fatalf("username = %q, want alice", snap.Profile.Username)
	}
	if got := authz.DashboardPath(snap); got != authz.StudentDashboard {
		t.Fatalf("dashboard = %q, want %q", got, authz.StudentDashboard)
	}
}

func TestSignUpDuplicateUsernameLeavesSessionUntouched(t *testing.T) {
	gw := &fakeGateway{
		createFn: func(context.Context, string, string) (*session.Identity, error) {
			t.Fatal("credential must not be created when the username is taken")
			return nil, nil
		},
	}
	profiles := &fakeProfiles{
		usernameExistsFn: func(context.Context, string) (bool, error) { return true, nil },
	}
	s := newTestStore(gw, profiles, nil)
	defer s.Close()

	err := s.SignUp(context.Background(), "b@x.com", "secret12", "alice", model.RoleStudent, "")
	if !errors.Is(err, session.ErrDuplicateProfile) {
		t.Fatalf("error = %v, want ErrDuplicateProfile", err)
	}
	if snap := s.Snapshot(); snap.Identity != nil || snap.Profile != nil {
		t.Fatal("failed sign-up must leave the session unchanged")
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	gw := &fakeGateway{
		createFn: func(context.Context, string, string) (*session.Identity, error) {
			return nil, session.ErrDuplicateIdentity
		},
	}
	s := newTestStore(gw, &fakeProfiles{}, nil)
	defer s.Close()

	err := s.SignUp(context.Background(), "a@x.com", "secret12", "bob", model.RoleStudent, "")
	if !errors.Is(err, session.ErrDuplicateIdentity) {
		t.Fatalf("error = %v, want ErrDuplicateIdentity", err)
	}
	if snap := s.Snapshot(); snap.Identity != nil {
		t.Fatal("failed sign-up must leave the session unchanged")
	}
}

func TestSignUpProfileFailureSurfacesInconsistentState(t *testing.T) {
	gw := &fakeGateway{}
	profiles := &fakeProfiles{
		createProfileFn: func(context.Context, *model.Profile) error {
			return errors.New("insert failed")
		},
	}
	s := newTestStore(gw, profiles, nil)
	defer s.Close()

	err := s.SignUp(context.Background(), "a@x.com", "secret12", "carol", model.RoleOrganization, "")
	if !errors.Is(err, session.ErrInconsistentState) {
		t.Fatalf("error = %v, want ErrInconsistentState", err)
	}
	if errors.Is(err, session.ErrServiceUnavailable) {
		t.Fatal("inconsistent state must stay distinguishable from generic failure")
	}
}

func TestStaleProfileFetchIsDiscardedByGeneration(t *testing.T) {
	idA, idB := uuid.New(), uuid.New()
	releaseA := make(chan struct{})

	profiles := &fakeProfiles{
		profileByIDFn: func(_ context.Context, id uuid.UUID) (*model.Profile, error) {
			if id == idA {
				<-releaseA // A's fetch resolves after B's
				return &model.Profile{ID: idA, Username: "a", Role: model.RoleStudent}, nil
			}
			return &model.Profile{ID: idB, Username: "b", Role: model.RoleStudent}, nil
		},
	}
	m := &fakeMetrics{signal: make(chan struct{}, 1)}
	gw := &fakeGateway{}
	sid := uuid.New()
	s := session.NewStore(sid, gw, profiles, testAdmin, nil, m)
	defer s.Close()

	gw.emit(session.AuthChange{SessionID: sid, Identity: &session.Identity{ID: idA, Email: "a@x.com"}})
	gw.emit(session.AuthChange{SessionID: sid, Identity: &session.Identity{ID: idB, Email: "b@x.com"}})
	waitSettled(t, s)

	close(releaseA)
	select {
	case <-m.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("stale fetch was never discarded")
	}

	snap := s.Snapshot()
	if snap.Profile == nil || snap.Profile.ID != idB {
		t.Fatal("final profile must belong to the newest identity")
	}
}

func TestOverlappingRefreshKeepsLoadingUntilCurrentFetchSettles(t *testing.T) {
	identID := uuid.New()
	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})

	var calls int
	var callMu sync.Mutex
	gw := &fakeGateway{
		verifyFn: func(_ context.Context, email, _ string) (*session.Identity, error) {
			return &session.Identity{ID: identID, Email: email}, nil
		},
	}
	profiles := &fakeProfiles{
		emailByUsernameFn: func(context.Context, string) (string, error) { return "e@x.com", nil },
		profileByIDFn: func(_ context.Context, id uuid.UUID) (*model.Profile, error) {
			callMu.Lock()
			calls++
			n := calls
			callMu.Unlock()
			if n == 1 {
				<-releaseFirst
				stale := "stale"
				return &model.Profile{ID: id, Role: model.RoleStudent, FullName: &stale}, nil
			}
			<-releaseSecond
			fresh := "fresh"
			return &model.Profile{ID: id, Role: model.RoleStudent, FullName: &fresh}, nil
		},
	}
	m := &fakeMetrics{signal: make(chan struct{}, 2)}
	s := session.NewStore(uuid.New(), gw, profiles, testAdmin, nil, m)
	defer s.Close()

	if err := s.SignIn(context.Background(), "erin", "secret12"); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	// Second fetch for the same generation supersedes the first.
	s.RefreshProfile(context.Background())

	// The superseded fetch resolving must neither clear loading nor write
	// its profile while the refresh is still pending.
	close(releaseFirst)
	select {
	case <-m.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded fetch was never discarded")
	}
	snap := s.Snapshot()
	if !snap.IsLoading {
		t.Fatal("session must stay loading until the current fetch settles")
	}
	if snap.Profile != nil {
		t.Fatal("a superseded fetch must not write its profile")
	}

	close(releaseSecond)
	waitSettled(t, s)
	snap = s.Snapshot()
	if snap.IsLoading {
		t.Fatal("settled session must not read as loading")
	}
	if snap.Profile == nil || snap.Profile.FullName == nil || *snap.Profile.FullName != "fresh" {
		t.Fatal("final profile must come from the newest fetch")
	}
}

func TestSignOutClearsEverythingAndBlocksInFlightFetch(t *testing.T) {
	identID := uuid.New()
	release := make(chan struct{})

	gw := &fakeGateway{
		verifyFn: func(_ context.Context, email, _ string) (*session.Identity, error) {
			return &session.Identity{ID: identID, Email: email}, nil
		},
	}
	profiles := &fakeProfiles{
		emailByUsernameFn: func(context.Context, string) (string, error) { return "d@x.com", nil },
		profileByIDFn: func(_ context.Context, id uuid.UUID) (*model.Profile, error) {
			<-release
			return &model.Profile{ID: id, Role: model.RoleStudent}, nil
		},
	}
	m := &fakeMetrics{signal: make(chan struct{}, 1)}
	s := session.NewStore(uuid.New(), gw, profiles, testAdmin, nil, m)
	defer s.Close()

	if err := s.SignIn(context.Background(), "dave", "secret12"); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	if err := s.SignOut(context.Background()); err != nil {
		t.Fatalf("sign-out: %v", err)
	}

	snap := s.Snapshot()
	if snap.Identity != nil || snap.Profile != nil || snap.IsAdmin {
		t.Fatal("sign-out must clear identity, profile and admin flag")
	}
	if gw.destroyCalls != 1 {
		t.Fatal("sign-out must delegate to the gateway")
	}

	// The fetch that was in flight before sign-out resolves now and must
	// not repopulate the profile.
	close(release)
	select {
	case <-m.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight fetch was never discarded")
	}
	if snap := s.Snapshot(); snap.Profile != nil {
		t.Fatal("a fetch resolving after sign-out must not repopulate the profile")
	}
}

func TestRestoreWithBadTokenStaysAnonymous(t *testing.T) {
	gw := &fakeGateway{
		currentFn: func(context.Context, string) (*session.RemoteSession, error) { return nil, nil },
	}
	s := newTestStore(gw, &fakeProfiles{}, nil)
	defer s.Close()

	s.Restore(context.Background(), "garbage")
	if snap := s.Snapshot(); snap.Identity != nil || snap.IsAdmin || snap.IsLoading {
		t.Fatal("bad token must leave the session anonymous")
	}
}

func TestRestoreGatewayFailureStaysAnonymous(t *testing.T) {
	gw := &fakeGateway{
		currentFn: func(context.Context, string) (*session.RemoteSession, error) {
			return nil, errors.New("connection refused")
		},
	}
	s := newTestStore(gw, &fakeProfiles{}, nil)
	defer s.Close()

	s.Restore(context.Background(), "token")
	if snap := s.Snapshot(); snap.Identity != nil {
		t.Fatal("restore failure must leave the session anonymous, not crash")
	}
}

func TestRestoreAdminToken(t *testing.T) {
	sid := uuid.New()
	gw := &fakeGateway{
		currentFn: func(context.Context, string) (*session.RemoteSession, error) {
			return &session.RemoteSession{SessionID: sid, Admin: true}, nil
		},
	}
	profiles := &fakeProfiles{}
	s := session.NewStore(sid, gw, profiles, testAdmin, nil, nil)
	defer s.Close()

	s.Restore(context.Background(), "admin-token")
	snap := s.Snapshot()
	if !snap.IsAdmin || snap.Identity != nil {
		t.Fatal("admin restore must set the flag and nothing else")
	}
	if profiles.calls() != 0 {
		t.Fatal("admin restore must not fetch a profile")
	}
}

func TestRefreshProfileIsNoOpWhenAnonymous(t *testing.T) {
	profiles := &fakeProfiles{}
	s := newTestStore(&fakeGateway{}, profiles, nil)
	defer s.Close()

	s.RefreshProfile(context.Background())
	waitSettled(t, s)
	if profiles.calls() != 0 {
		t.Fatal("refresh without an identity must not fetch")
	}
}

func TestAuthChangeForOtherSessionIsIgnored(t *testing.T) {
	profiles := &fakeProfiles{}
	gw := &fakeGateway{}
	s := newTestStore(gw, profiles, nil)
	defer s.Close()

	gw.emit(session.AuthChange{SessionID: uuid.New(), Identity: &session.Identity{ID: uuid.New()}})
	waitSettled(t, s)
	if snap := s.Snapshot(); snap.Identity != nil {
		t.Fatal("another session's auth change must not leak in")
	}
	if profiles.calls() != 0 {
		t.Fatal("another session's auth change must not trigger a fetch")
	}
}

func TestSignUpValidation(t *testing.T) {
	s := newTestStore(&fakeGateway{}, &fakeProfiles{}, nil)
	defer s.Close()
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		username string
		role     model.Role
	}{
		{"bad email", "not-an-email", "secret12", "alice", model.RoleStudent},
		{"short password", "a@x.com", "short", "alice", model.RoleStudent},
		{"bad username", "a@x.com", "secret12", "a!", model.RoleStudent},
		{"bad role", "a@x.com", "secret12", "alice", model.Role("admin")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.SignUp(ctx, tc.email, tc.password, tc.username, tc.role, ""); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
