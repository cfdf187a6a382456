package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile        = ".env"
	defaultAPIBaseURL     = "http://localhost:8080/api/v1"
	defaultAPITimeout     = 15 * time.Second
	defaultCurrency       = "USD"
	defaultChatModel      = "gemini-2.0-flash"
	defaultChatEndpoint   = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultStatePath      = ".blytz/cart.json"
	defaultTokenPath      = ".blytz/session.json"
	defaultRedisAddr      = ""
	defaultRedisStateTTL  = 30 * 24 * time.Hour
	defaultCatalogPageLim = 50
)

// Config captures the storefront client's runtime configuration grouped by
// concern.
type Config struct {
	API      APIConfig
	Chat     ChatConfig
	State    StateConfig
	Features FeatureFlags
}

// APIConfig points the REST client at the marketplace backend.
type APIConfig struct {
	BaseURL         string
	Timeout         time.Duration
	DefaultCurrency string
	CatalogPageSize int
}

// ChatConfig defines the generative-text endpoint used by the chat assistant.
type ChatConfig struct {
	Endpoint string
	Model    string
	APIKey   string
}

// StateConfig controls where session state (cart, tokens) persists.
type StateConfig struct {
	CartPath  string
	TokenPath string
	RedisAddr string
	RedisTTL  time.Duration
}

// FeatureFlags toggle optional behaviour without a rebuild.
type FeatureFlags struct {
	EnableChat     bool
	EnableAuctions bool
}

// ValidationError is returned when required configuration fields are missing
// or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values
// in the map take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided
// maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the client configuration by combining defaults, .env
// overrides, and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		API: APIConfig{
			BaseURL:         stringWithDefault(lookup, "BLYTZ_API_BASE_URL", defaultAPIBaseURL),
			Timeout:         durationWithDefault(lookup, "BLYTZ_API_TIMEOUT", defaultAPITimeout),
			DefaultCurrency: strings.ToUpper(stringWithDefault(lookup, "BLYTZ_API_CURRENCY", defaultCurrency)),
			CatalogPageSize: intWithDefault(lookup, "BLYTZ_API_CATALOG_PAGE_SIZE", defaultCatalogPageLim),
		},
		Chat: ChatConfig{
			Endpoint: stringWithDefault(lookup, "BLYTZ_CHAT_ENDPOINT", defaultChatEndpoint),
			Model:    stringWithDefault(lookup, "BLYTZ_CHAT_MODEL", defaultChatModel),
			APIKey:   stringWithDefault(lookup, "BLYTZ_CHAT_API_KEY", ""),
		},
		State: StateConfig{
			CartPath:  stringWithDefault(lookup, "BLYTZ_STATE_CART_PATH", defaultStatePath),
			TokenPath: stringWithDefault(lookup, "BLYTZ_STATE_TOKEN_PATH", defaultTokenPath),
			RedisAddr: stringWithDefault(lookup, "BLYTZ_STATE_REDIS_ADDR", defaultRedisAddr),
			RedisTTL:  durationWithDefault(lookup, "BLYTZ_STATE_REDIS_TTL", defaultRedisStateTTL),
		},
		Features: FeatureFlags{
			EnableChat:     boolWithDefault(lookup, "BLYTZ_FEATURE_CHAT", true),
			EnableAuctions: boolWithDefault(lookup, "BLYTZ_FEATURE_AUCTIONS", false),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		missing = append(missing, "API.BaseURL")
	}
	if cfg.API.Timeout <= 0 {
		missing = append(missing, "API.Timeout")
	}
	if cfg.API.CatalogPageSize <= 0 {
		missing = append(missing, "API.CatalogPageSize")
	}
	if cfg.Features.EnableChat && strings.TrimSpace(cfg.Chat.Endpoint) == "" {
		missing = append(missing, "Chat.Endpoint")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
