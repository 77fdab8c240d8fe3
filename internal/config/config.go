// Package config loads gateway configuration the way the lineage composes
// it: a TOML file, environment variables, and compiled-in defaults layered
// through knadh/koanf.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/oauth2"
)

// TokenStorage selects where the reference OAuthSelector's refresh token
// lives.
type TokenStorage string

const (
	TokenStorageEnv     TokenStorage = "env"
	TokenStorageFile    TokenStorage = "file"
	TokenStorageKeyring TokenStorage = "keyring"
)

// Config is the gateway's full runtime configuration.
type Config struct {
	Listen    string          `koanf:"listen"`
	Upstream  UpstreamConfig  `koanf:"upstream"`
	Log       LogConfig       `koanf:"log"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Models    ModelsConfig    `koanf:"models"`
	Keys      []KeyConfig     `koanf:"keys"`
}

// KeyConfig is one entry of the static API key list backing
// dispatch.DevAPIKeyMiddleware, the reference authentication middleware for
// local development and the test suite.
type KeyConfig struct {
	Token             string   `koanf:"token"`
	ID                string   `koanf:"id"`
	Permissions       []string `koanf:"permissions"`
	ModelRestrictions []string `koanf:"model_restrictions"`
}

// UpstreamConfig describes the single reference OpenAI-compatible backend
// this binary's default AccountSelector points at.
type UpstreamConfig struct {
	BaseURL   string        `koanf:"base_url"`
	APIKey    string        `koanf:"api_key"`
	UserAgent string        `koanf:"user_agent"`
	Timeout   time.Duration `koanf:"timeout"`
	ProxyURL  string        `koanf:"proxy_url"`
}

// LogConfig configures internal/observability.Instrument.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// File, when set, additionally writes rotated logs via lumberjack.
	File string `koanf:"file"`
	// OTLPEndpoint, when set, ships every log record to an OTel Collector
	// over this endpoint instead of stdout's OTel exporter.
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	// OTLPProtocol selects "grpc" (default) or "http" for OTLPEndpoint.
	OTLPProtocol string `koanf:"otlp_protocol"`
}

// AuthConfig configures the reference OAuthSelector: where its refresh
// token is stored and the OAuth2 provider it refreshes against.
type AuthConfig struct {
	Storage        TokenStorage `koanf:"storage"`
	FilePath       string       `koanf:"file_path"`
	KeyringService string       `koanf:"keyring_service"`
	EnvVar         string       `koanf:"env_var"`
	ClientID       string       `koanf:"client_id"`
	RedirectURL    string       `koanf:"redirect_url"`
	AuthURL        string       `koanf:"auth_url"`
	TokenURL       string       `koanf:"token_url"`
	Scopes         []string     `koanf:"scopes"`
}

// Endpoint builds the oauth2.Endpoint this AuthConfig points at.
func (c AuthConfig) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{AuthURL: c.AuthURL, TokenURL: c.TokenURL}
}

// RateLimitConfig selects the reference RateLimiter backend.
// DefaultResetAfter is loaded but not read by the dispatch pipeline: the
// fallback window after a 429 is the fixed ratelimit.DefaultResetWindow.
type RateLimitConfig struct {
	Backend           string        `koanf:"backend"` // "memory" or "redis"
	RedisAddr         string        `koanf:"redis_addr"`
	DefaultResetAfter time.Duration `koanf:"default_reset_after"`
}

// ModelsConfig sets the default model allowlist a static APIKey carries
// when none is configured per-key.
type ModelsConfig struct {
	AllowedByDefault []string `koanf:"allowed_by_default"`
}

func defaults() map[string]any {
	return map[string]any{
		"listen":                         "127.0.0.1:4000",
		"upstream.timeout":               "600s",
		"upstream.user_agent":            "ambergate/1",
		"log.level":                      "info",
		"log.format":                     "text",
		"log.otlp_protocol":              "grpc",
		"auth.storage":                   string(TokenStorageEnv),
		"auth.env_var":                   "AMBERGATE_REFRESH_TOKEN",
		"auth.keyring_service":           "ambergate",
		"rate_limit.backend":             "memory",
		"rate_limit.default_reset_after": "60m",
	}
}

// Load composes configuration from compiled-in defaults, an optional TOML
// file at path, and environment variables prefixed AMBERGATE_ (nested keys
// use "__" as the path separator, e.g. AMBERGATE_UPSTREAM__BASE_URL).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %q: %w", path, err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: "AMBERGATE_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "AMBERGATE_"))
			key = strings.ReplaceAll(key, "__", ".")
			return key, value
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
