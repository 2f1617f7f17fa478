package config

import (
	"strings"
	"sync"
	"testing"
	"time"
)

var envMu sync.Mutex

var testEnvKeys = []string{
	"SERVER_ADDRESS",
	"POSTGRES_URL",
	"CARRIER_BASE_URL",
	"CARRIER_ACCOUNT_SID",
	"CARRIER_AUTH_TOKEN",
	"STATUS_CALLBACK_URL",
	"PRICE_TABLE_PATH",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"REDIS_TTL_SECONDS",
}

func clearTestEnv(t *testing.T) {
	t.Helper()
	for _, key := range testEnvKeys {
		t.Setenv(key, "")
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/db?sslmode=disable")
	t.Setenv("CARRIER_ACCOUNT_SID", "AC123")
	t.Setenv("CARRIER_AUTH_TOKEN", "secret")
	t.Setenv("STATUS_CALLBACK_URL", "https://example.com/v1/status")
}

func TestLoadAll_HappyPath_NoRedis(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequiredEnv(t)

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if cfg.Database.PostgresURL != "postgres://u:p@localhost:5432/db?sslmode=disable" {
		t.Fatalf("unexpected PostgresURL: %q", cfg.Database.PostgresURL)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected Server.Address default: %q", cfg.Server.Address)
	}
	if cfg.Carrier.AccountSID != "AC123" {
		t.Fatalf("unexpected AccountSID: %q", cfg.Carrier.AccountSID)
	}
	if !strings.HasPrefix(cfg.Carrier.BaseURL, "https://") {
		t.Fatalf("unexpected BaseURL default: %q", cfg.Carrier.BaseURL)
	}
	if cfg.Carrier.StatusCallbackURL != "https://example.com/v1/status" {
		t.Fatalf("unexpected StatusCallbackURL: %q", cfg.Carrier.StatusCallbackURL)
	}
	if cfg.Pricing.TablePath != "" {
		t.Fatalf("expected empty TablePath default, got %q", cfg.Pricing.TablePath)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("expected Redis disabled when REDIS_ADDR not set")
	}
}

func TestLoadAll_HappyPath_WithRedis(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequiredEnv(t)
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TTL_SECONDS", "600")

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if !cfg.Redis.Enabled {
		t.Fatalf("expected Redis enabled")
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Fatalf("unexpected Redis.Address: %q", cfg.Redis.Address)
	}
	if cfg.Redis.DB != 2 {
		t.Fatalf("unexpected Redis.DB: %d", cfg.Redis.DB)
	}
	if cfg.Redis.TTL != 600*time.Second {
		t.Fatalf("unexpected Redis.TTL: %v", cfg.Redis.TTL)
	}
}

func TestLoadAll_MissingRequiredVarPanics(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequiredEnv(t)
	t.Setenv("POSTGRES_URL", "")

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic for missing POSTGRES_URL")
		}
	}()
	_, _ = LoadAll()
}

func TestLoadAll_InvalidIntPanics(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequiredEnv(t)
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "banana")

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic for invalid REDIS_DB")
		}
	}()
	_, _ = LoadAll()
}
