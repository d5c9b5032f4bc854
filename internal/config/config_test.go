package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("MP_API_KEY", "secret")

	cfg, err := Parse([]byte(`
api:
  key: ${MP_API_KEY}
  endpoint: ${MP_API_ENDPOINT:-http://localhost:8080/}
cache:
  addr: localhost:6379
  ttl_sec: 60
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Key != "secret" {
		t.Errorf("api.key = %q, want secret", cfg.API.Key)
	}
	if cfg.API.Endpoint != "http://localhost:8080/" {
		t.Errorf("api.endpoint = %q, want default", cfg.API.Endpoint)
	}
	if cfg.Cache.TTL().Seconds() != 60 {
		t.Errorf("cache ttl = %v, want 60s", cfg.Cache.TTL())
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("api: [")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := []byte("server:\n  port: 9090\n  api_keys: [a, b]\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 || len(cfg.Server.APIKeys) != 2 {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_Local(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port <= 0 {
		t.Errorf("server.port = %d", cfg.Server.Port)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.API.Endpoint = "ftp://example.org"
	cfg.Server.Port = 70000
	cfg.Logging.Level = "loud"
	cfg.Assistant.BudgetAction = "panic"
	cfg.Assistant.DailyTokenLimit = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"api.endpoint", "server.port", "logging.level", "budget_action", "token limits"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidate_NegativeRetries(t *testing.T) {
	cfg := Default()
	cfg.Client.MaxRetries = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative retries")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.API.Endpoint != "https://api.materialsproject.org/" {
		t.Errorf("expected default endpoint, got %q", cfg.API.Endpoint)
	}
	if cfg.Client.TimeoutSec != 20 {
		t.Errorf("expected TimeoutSec=20, got %d", cfg.Client.TimeoutSec)
	}
	if cfg.Client.ParallelRequests != 8 {
		t.Errorf("expected ParallelRequests=8, got %d", cfg.Client.ParallelRequests)
	}
	if cfg.Client.ChunkSize != 1000 {
		t.Errorf("expected ChunkSize=1000, got %d", cfg.Client.ChunkSize)
	}
	if cfg.Client.MontyDecode == nil || !*cfg.Client.MontyDecode {
		t.Error("expected MontyDecode=true")
	}
	if cfg.Cache.TTLSec != 3600 {
		t.Errorf("expected TTLSec=3600, got %d", cfg.Cache.TTLSec)
	}
	if cfg.Server.Port != 8080 || cfg.Server.ShutdownSec != 10 {
		t.Errorf("expected Port=8080 ShutdownSec=10, got %d %d", cfg.Server.Port, cfg.Server.ShutdownSec)
	}
	if cfg.Assistant.MaxTurns != 5 {
		t.Errorf("expected MaxTurns=5, got %d", cfg.Assistant.MaxTurns)
	}
	if cfg.Assistant.BudgetAction != "warn" {
		t.Errorf("expected BudgetAction=warn, got %q", cfg.Assistant.BudgetAction)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	off := false
	cfg := Config{
		Client: ClientConfig{TimeoutSec: 5, ChunkSize: 50, MontyDecode: &off},
		Server: ServerConfig{Port: 9000, ReadTimeoutSec: 30},
	}
	cfg.ApplyDefaults()

	if cfg.Client.TimeoutSec != 5 {
		t.Errorf("expected TimeoutSec=5, got %d", cfg.Client.TimeoutSec)
	}
	if cfg.Client.ChunkSize != 50 {
		t.Errorf("expected ChunkSize=50, got %d", cfg.Client.ChunkSize)
	}
	if *cfg.Client.MontyDecode {
		t.Error("expected MontyDecode to stay false")
	}
	if cfg.Server.Port != 9000 || cfg.Server.ReadTimeoutSec != 30 {
		t.Errorf("server = %+v", cfg.Server)
	}
}
