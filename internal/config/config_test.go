package config

import "testing"

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("ENABLE_DB", "true")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadUsesDefaults(t *testing.T) {
	t.Setenv("ENABLE_DB", "false")
	t.Setenv("PORT", "")
	t.Setenv("GIN_MODE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("expected default gin mode release, got %s", cfg.GinMode)
	}
	if cfg.ModelDir == "" {
		t.Fatal("expected a model dir default")
	}
}

func TestLoadGeminiKeyFallback(t *testing.T) {
	t.Setenv("ENABLE_DB", "false")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "from-google")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GeminiAPIKey != "from-google" {
		t.Fatalf("expected GOOGLE_API_KEY fallback, got %q", cfg.GeminiAPIKey)
	}

	t.Setenv("GEMINI_API_KEY", "primary")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GeminiAPIKey != "primary" {
		t.Fatalf("expected GEMINI_API_KEY to win, got %q", cfg.GeminiAPIKey)
	}
}
