package config

import "testing"

func TestLoadHonorsCSRFSecret(t *testing.T) {
	t.Setenv("HEARTH_CSRF_SECRET", "from-env")

	cfg := Load()
	if cfg.CSRFSecret != "from-env" {
		t.Errorf("csrf secret = %q, want from-env", cfg.CSRFSecret)
	}
}

func TestLoadGeneratesCSRFSecretWhenUnset(t *testing.T) {
	t.Setenv("HEARTH_CSRF_SECRET", "")

	a := Load()
	if a.CSRFSecret == "" {
		t.Fatal("expected a generated csrf secret, got empty")
	}

	// Each process boot signs with a fresh key.
	b := Load()
	if b.CSRFSecret == a.CSRFSecret {
		t.Error("expected a new key per load")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HEARTH_PORT", "")
	t.Setenv("HEARTH_SESSION_TTL", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.SessionTTL.Hours() != 90*24 {
		t.Errorf("session ttl = %v, want 90 days", cfg.SessionTTL)
	}
}
