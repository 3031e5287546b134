package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/frontenddevmichael/openrole-connect/internal/authgate"
	"github.com/frontenddevmichael/openrole-connect/internal/authz"
	"github.com/frontenddevmichael/openrole-connect/internal/metrics"
	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/session"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type fakeAuthGateway struct {
	identity *session.Identity
}

func (g *fakeAuthGateway) CreateCredential(_ context.Context, email, _ string) (*session.Identity, error) {
	return &session.Identity{ID: uuid.New(), Email: email}, nil
}

func (g *fakeAuthGateway) VerifyCredential(context.Context, string, string) (*session.Identity, error) {
	return g.identity, nil
}

func (g *fakeAuthGateway) CurrentSession(context.Context, string) (*session.RemoteSession, error) {
	return nil, nil
}

func (g *fakeAuthGateway) DestroySession(context.Context, uuid.UUID) error { return nil }

func (g *fakeAuthGateway) Subscribe(func(session.AuthChange)) func() { return func() {} }

// slowProfiles answers profile fetches only after delay, so a handler that
// snapshots without waiting sees a still-loading session.
type slowProfiles struct {
	profile *model.Profile
	delay   time.Duration
}

func (p *slowProfiles) ProfileByID(context.Context, uuid.UUID) (*model.Profile, error) {
	time.Sleep(p.delay)
	return p.profile, nil
}

func (p *slowProfiles) CreateProfile(context.Context, *model.Profile) error { return nil }

func (p *slowProfiles) EmailByUsername(context.Context, string) (string, error) {
	return p.profile.Email, nil
}

func (p *slowProfiles) UsernameExists(context.Context, string) (bool, error) { return false, nil }

func TestSignInResponseWaitsForProfileFetch(t *testing.T) {
	identID := uuid.New()
	gw := &fakeAuthGateway{identity: &session.Identity{ID: identID, Email: "alice@x.com"}}
	profiles := &slowProfiles{
		profile: &model.Profile{ID: identID, Username: "alice", Email: "alice@x.com", Role: model.RoleStudent},
		delay:   100 * time.Millisecond,
	}
	mgr := session.NewManager(gw, profiles, session.AdminPair{Username: "admin", Password: "admin"},
		time.Hour, nil, nil)
	defer mgr.Close()
	tokens := authgate.New(nil, "test-secret", time.Hour)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"alice","password":"secret12"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	handler := signInHandler(mgr, tokens, metrics.NewCollector())
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Token     string `json:"token"`
		Role      string `json:"role"`
		Dashboard string `json:"dashboard"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Role != string(authz.RoleStudent) {
		t.Fatalf("role = %q, want student; the response must not be built mid-fetch", body.Role)
	}
	if body.Dashboard != authz.StudentDashboard {
		t.Fatalf("dashboard = %q, want %q", body.Dashboard, authz.StudentDashboard)
	}
	if body.Token == "" {
		t.Fatal("response must carry a token")
	}
}

func TestSignInAdminRespondsImmediately(t *testing.T) {
	gw := &fakeAuthGateway{}
	profiles := &slowProfiles{
		profile: &model.Profile{ID: uuid.New(), Role: model.RoleStudent},
		delay:   time.Hour, // a fetch would hang; admin must never schedule one
	}
	mgr := session.NewManager(gw, profiles, session.AdminPair{Username: "admin", Password: "admin"},
		time.Hour, nil, nil)
	defer mgr.Close()
	tokens := authgate.New(nil, "test-secret", time.Hour)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"admin","password":"admin"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	done := make(chan error, 1)
	go func() { done <- signInHandler(mgr, tokens, metrics.NewCollector())(e.NewContext(req, rec)) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("handler: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("admin sign-in must not wait on a profile fetch")
	}

	var body struct {
		Role      string `json:"role"`
		Dashboard string `json:"dashboard"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Role != string(authz.RoleAdmin) || body.Dashboard != authz.AdminDashboard {
		t.Fatalf("admin response = %+v", body)
	}
}
