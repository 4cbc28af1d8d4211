package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CATALOG_TTL_SECONDS", "not-a-number")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.CatalogTTLSeconds != 20 {
		t.Fatalf("expected default catalog TTL, got %d", cfg.CatalogTTLSeconds)
	}
}
