package config

import (
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Port != 3001 {
		t.Errorf("Port: got %d, want 3001", cfg.Port)
	}
	if cfg.MaxUploadBytes != 100*1024*1024 {
		t.Errorf("MaxUploadBytes: got %d", cfg.MaxUploadBytes)
	}
	if cfg.YouTubeStrategy != StrategyStream {
		t.Errorf("YouTubeStrategy: got %q", cfg.YouTubeStrategy)
	}
	if cfg.AcquireTimeout != 10*time.Minute {
		t.Errorf("AcquireTimeout: got %v", cfg.AcquireTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins: got %v", cfg.CORSOrigins)
	}
	if cfg.HasProviderKey() {
		t.Error("expected no provider key by default")
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("YOUTUBE_STRATEGY", "download")
	t.Setenv("ACQUIRE_TIMEOUT", "30s")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: got %d, want 8080", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins: got %v", cfg.CORSOrigins)
	}
	if cfg.YouTubeStrategy != StrategyDownload {
		t.Errorf("YouTubeStrategy: got %q", cfg.YouTubeStrategy)
	}
	if cfg.AcquireTimeout != 30*time.Second {
		t.Errorf("AcquireTimeout: got %v", cfg.AcquireTimeout)
	}
}

func TestParseRejectsUnknownStrategy(t *testing.T) {
	t.Setenv("YOUTUBE_STRATEGY", "ytdl")

	if _, err := Parse(); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestHasProviderKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", false},
		{PlaceholderAPIKey, false},
		{"sk-test", true},
	}

	for _, tt := range tests {
		cfg := &Config{OpenAIAPIKey: tt.key}
		if got := cfg.HasProviderKey(); got != tt.want {
			t.Errorf("HasProviderKey(%q): got %v, want %v", tt.key, got, tt.want)
		}
	}
}
