package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(nil), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.API.BaseURL != defaultAPIBaseURL {
		t.Errorf("expected default base url %s, got %s", defaultAPIBaseURL, cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("unexpected api timeout: %s", cfg.API.Timeout)
	}
	if cfg.API.DefaultCurrency != "USD" {
		t.Errorf("expected default currency USD, got %s", cfg.API.DefaultCurrency)
	}
	if cfg.Chat.Model != defaultChatModel {
		t.Errorf("unexpected chat model: %s", cfg.Chat.Model)
	}
	if !cfg.Features.EnableChat {
		t.Error("chat should be enabled by default")
	}
	if cfg.Features.EnableAuctions {
		t.Error("auctions should be disabled by default")
	}
	if cfg.State.CartPath != defaultStatePath {
		t.Errorf("unexpected cart state path: %s", cfg.State.CartPath)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"BLYTZ_API_BASE_URL":      "https://api.blytz.live/api/v1",
		"BLYTZ_API_TIMEOUT":       "30s",
		"BLYTZ_API_CURRENCY":      "eur",
		"BLYTZ_CHAT_API_KEY":      "test-key",
		"BLYTZ_STATE_REDIS_ADDR":  "localhost:6379",
		"BLYTZ_FEATURE_AUCTIONS":  "true",
		"BLYTZ_FEATURE_CHAT":      "off",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.API.BaseURL != "https://api.blytz.live/api/v1" {
		t.Errorf("unexpected base url: %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.API.Timeout)
	}
	if cfg.API.DefaultCurrency != "EUR" {
		t.Errorf("currency should be uppercased, got %s", cfg.API.DefaultCurrency)
	}
	if cfg.Chat.APIKey != "test-key" {
		t.Errorf("unexpected chat key: %s", cfg.Chat.APIKey)
	}
	if cfg.State.RedisAddr != "localhost:6379" {
		t.Errorf("unexpected redis addr: %s", cfg.State.RedisAddr)
	}
	if !cfg.Features.EnableAuctions {
		t.Error("auctions flag override not applied")
	}
	if cfg.Features.EnableChat {
		t.Error("chat flag override not applied")
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "# local overrides\nexport BLYTZ_API_BASE_URL=\"http://127.0.0.1:9999/api/v1\"\nBLYTZ_CHAT_MODEL=gemini-test\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing env file: %v", err)
	}

	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(envFile))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != "http://127.0.0.1:9999/api/v1" {
		t.Errorf("dotenv base url not applied, got %s", cfg.API.BaseURL)
	}
	if cfg.Chat.Model != "gemini-test" {
		t.Errorf("dotenv chat model not applied, got %s", cfg.Chat.Model)
	}
}

func TestLoadValidation(t *testing.T) {
	env := map[string]string{
		"BLYTZ_API_BASE_URL": "   ",
	}
	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields()) == 0 {
		t.Fatal("expected missing fields to be reported")
	}
}
