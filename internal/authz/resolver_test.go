package authz

import (
	"testing"

	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/session"
)

func studentSnap() session.Snapshot {
	return session.Snapshot{Profile: &model.Profile{Role: model.RoleStudent}}
}

func orgSnap() session.Snapshot {
	return session.Snapshot{Profile: &model.Profile{Role: model.RoleOrganization}}
}

func adminSnap() session.Snapshot {
	return session.Snapshot{IsAdmin: true}
}

func TestEffectiveRole(t *testing.T) {
	cases := []struct {
		name string
		snap session.Snapshot
		want Role
	}{
		{"anonymous", session.Snapshot{}, RoleAnonymous},
		{"student", studentSnap(), RoleStudent},
		{"organization", orgSnap(), RoleOrganization},
		{"admin", adminSnap(), RoleAdmin},
		// The admin flag and a profile must never both contribute.
		{"admin flag wins over profile", session.Snapshot{IsAdmin: true, Profile: &model.Profile{Role: model.RoleStudent}}, RoleAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EffectiveRole(tc.snap); got != tc.want {
				t.Fatalf("EffectiveRole = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDashboardPath(t *testing.T) {
	cases := []struct {
		name string
		snap session.Snapshot
		want string
	}{
		{"anonymous", session.Snapshot{}, ""},
		{"student", studentSnap(), StudentDashboard},
		{"organization", orgSnap(), OrganizationDashboard},
		{"admin", adminSnap(), AdminDashboard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DashboardPath(tc.snap); got != tc.want {
				t.Fatalf("DashboardPath = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCanAccess(t *testing.T) {
	cases := []struct {
		name     string
		snap     session.Snapshot
		required Role
		want     bool
	}{
		{"anyone may view public pages", session.Snapshot{}, RoleAnonymous, true},
		{"student reaches student pages", studentSnap(), RoleStudent, true},
		{"student refused organization pages", studentSnap(), RoleOrganization, false},
		{"organization reaches organization pages", orgSnap(), RoleOrganization, true},
		{"organization refused student pages", orgSnap(), RoleStudent, false},
		{"anonymous refused student pages", session.Snapshot{}, RoleStudent, false},
		{"admin passes student check", adminSnap(), RoleStudent, true},
		{"admin passes organization check", adminSnap(), RoleOrganization, true},
		{"admin passes admin check", adminSnap(), RoleAdmin, true},
		{"student refused admin pages", studentSnap(), RoleAdmin, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanAccess(tc.snap, tc.required); got != tc.want {
				t.Fatalf("CanAccess = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanAccessOwnerRefusesAdmin(t *testing.T) {
	// Owner views manage a real profile row; the admin shortcut has none.
	if CanAccessOwner(adminSnap(), RoleStudent) {
		t.Fatal("admin must not pass an owner check")
	}
	if CanAccessOwner(adminSnap(), RoleOrganization) {
		t.Fatal("admin must not pass an owner check")
	}
	if !CanAccessOwner(studentSnap(), RoleStudent) {
		t.Fatal("student must own student views")
	}
	if CanAccessOwner(studentSnap(), RoleOrganization) {
		t.Fatal("student must not own organization views")
	}
	if CanAccessOwner(session.Snapshot{}, RoleStudent) {
		t.Fatal("anonymous must not own anything")
	}
}
