package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MaxConcurrent != 2 {
		t.Fatalf("MaxConcurrent = %d, want 2", cfg.MaxConcurrent)
	}
	if cfg.DailyLimit != 30 {
		t.Fatalf("DailyLimit = %d, want 30", cfg.DailyLimit)
	}
	if cfg.DailyWindow != 24*time.Hour {
		t.Fatalf("DailyWindow = %s, want 24h", cfg.DailyWindow)
	}
	if cfg.LyricsTimeout != 30*time.Second {
		t.Fatalf("LyricsTimeout = %s, want 30s", cfg.LyricsTimeout)
	}
	if cfg.MusicTimeout != 180*time.Second {
		t.Fatalf("MusicTimeout = %s, want 180s", cfg.MusicTimeout)
	}
	if !cfg.APIKeyExpiresAt.IsZero() {
		t.Fatalf("APIKeyExpiresAt should be zero when unset, got %s", cfg.APIKeyExpiresAt)
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("API_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when API_SECRET is missing")
	}
}

func TestLoadConfigParsesExpiry(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	t.Setenv("API_KEY_EXPIRES_AT", "2027-01-02T15:04:05Z")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := time.Date(2027, 1, 2, 15, 4, 5, 0, time.UTC)
	if !cfg.APIKeyExpiresAt.Equal(want) {
		t.Fatalf("APIKeyExpiresAt = %s, want %s", cfg.APIKeyExpiresAt, want)
	}
}

func TestLoadConfigRejectsBadExpiry(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	t.Setenv("API_KEY_EXPIRES_AT", "tomorrow")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for non-RFC3339 expiry")
	}
}

func TestLoadConfigSplitsOrigins(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %#v, want 2 entries", cfg.AllowedOrigins)
	}
	if cfg.AllowedOrigins[0] != "https://app.example.com" {
		t.Fatalf("first origin = %q", cfg.AllowedOrigins[0])
	}
}
