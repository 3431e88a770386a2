package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigLoad_MemoryBackendDefaults(t *testing.T) {
	t.Setenv("RELAY_BACKEND", "memory")
	t.Setenv("RELAY_CREDENTIALS_FILE", "")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 3001 {
		t.Fatalf("unexpected default port: %d", cfg.HTTPPort)
	}
	if cfg.ProjectID != "local-project" {
		t.Fatalf("memory backend should default project id, got %q", cfg.ProjectID)
	}
	if cfg.VendorTimeout != 30*time.Second {
		t.Fatalf("unexpected vendor timeout: %s", cfg.VendorTimeout)
	}
	if len(cfg.AllowedOrigins) != 7 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected default origins: %v", cfg.AllowedOrigins)
	}
	if cfg.ServiceName != "firebase-remote-config-backend" {
		t.Fatalf("unexpected service name: %s", cfg.ServiceName)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	t.Setenv("RELAY_BACKEND", "memory")
	t.Setenv("RELAY_PORT", "4000")
	t.Setenv("RELAY_ALLOWED_ORIGINS", "https://admin.example.com")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 4000 || cfg.GetHTTPAddr() != ":4000" {
		t.Fatalf("port override failed, got %d", cfg.HTTPPort)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://admin.example.com" {
		t.Fatalf("origins override failed: %v", cfg.AllowedOrigins)
	}
}

func TestConfigLoad_FirebaseRequiresCredentials(t *testing.T) {
	t.Setenv("RELAY_BACKEND", "firebase")
	t.Setenv("RELAY_CREDENTIALS_FILE", "")

	if _, err := New(); err == nil {
		t.Fatal("expected error when credentials file is missing")
	}
}

func TestResolveDefaults_UnknownBackend(t *testing.T) {
	cfg := NewForTesting()
	cfg.Backend = "spanner"
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected unsupported backend error")
	}
}

func TestResolveDefaults_MemoryRejectedInProduction(t *testing.T) {
	cfg := NewForTesting()
	cfg.Environment = EnvProduction
	err := cfg.ResolveDefaults()
	if err == nil || !strings.Contains(err.Error(), "not allowed") {
		t.Fatalf("expected memory backend to be rejected in production, got %v", err)
	}

	cfg.Backend = BackendFirebase
	cfg.CredentialsFile = "/etc/relay/sa.json"
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("firebase backend should resolve in production: %v", err)
	}
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	if cfg.Environment != EnvTesting || cfg.IsProduction() {
		t.Fatalf("unexpected environment: %s", cfg.Environment)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("testing config should resolve: %v", err)
	}
}
