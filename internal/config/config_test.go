package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/openrole")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.TokenTTLHrs != 24 || cfg.SessionTTLMn != 90 {
		t.Fatalf("TTL defaults = %d/%d, want 24/90", cfg.TokenTTLHrs, cfg.SessionTTLMn)
	}
	if !cfg.UsingDefaultAdminPair() {
		t.Fatal("default admin pair must be flagged")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("missing DATABASE_URL must fail")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/openrole")
	t.Setenv("PORT", "9000")
	t.Setenv("ADMIN_USERNAME", "root")
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("AUTH_RATE_PER_MIN", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.AuthRatePerMin != 5 {
		t.Fatalf("overrides not applied: port=%q rate=%d", cfg.Port, cfg.AuthRatePerMin)
	}
	if cfg.UsingDefaultAdminPair() {
		t.Fatal("custom admin pair must not be flagged as the default")
	}
}
