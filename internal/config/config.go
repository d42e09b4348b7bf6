// Package config loads the abacus configuration from defaults, an optional
// YAML or JSON file, environment variables and command-line overrides, in
// that order of precedence (last wins).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/abacus/pkg/auth"
	"github.com/aretw0/abacus/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	devSecret = "abacus-development-secret"
)

// Config is the merged configuration of every abacus command.
type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Session   SessionConfig   `mapstructure:"session"`
	History   HistoryConfig   `mapstructure:"history"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	FrontendURL     string        `mapstructure:"frontend_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig enables the Redis session store, lock and rate limiter when URL is set.
type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

type RateLimitConfig struct {
	Window      time.Duration `mapstructure:"window"`
	GlobalLimit int           `mapstructure:"global_limit"`
	AuthLimit   int           `mapstructure:"auth_limit"`
}

type SessionConfig struct {
	ErrorDwell time.Duration `mapstructure:"error_dwell"`
	// Dir holds REPL sessions saved with --session.
	Dir string `mapstructure:"dir"`
	// EncryptionKey is a base64 AES-256 key. When set, stored sessions are
	// sealed at rest. PreviousKeys still open sessions sealed before a rotation.
	EncryptionKey string   `mapstructure:"encryption_key"`
	PreviousKeys  []string `mapstructure:"previous_keys"`

	// Encryption is parsed from the keys; nil when sealing is off.
	Encryption *middleware.EncryptionConfig `mapstructure:"-"`
}

type HistoryConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

// Defaults returns the built-in configuration as a nested map.
func Defaults() map[string]any {
	return map[string]any{
		"env": EnvDevelopment,
		"server": map[string]any{
			"host":             "",
			"port":             3001,
			"frontend_url":     "http://localhost:3000",
			"read_timeout":     "15s",
			"write_timeout":    "0s",
			"shutdown_timeout": "10s",
			"max_body_bytes":   10 << 20,
		},
		"log": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"database": map[string]any{
			"path": "abacus.db",
		},
		"redis": map[string]any{
			"url":         "",
			"session_ttl": "24h",
		},
		"auth": map[string]any{
			"jwt_secret":  "",
			"token_ttl":   "7d",
			"bcrypt_cost": auth.DefaultBcryptCost,
		},
		"rate_limit": map[string]any{
			"window":       "15m",
			"global_limit": 100,
			"auth_limit":   10,
		},
		"session": map[string]any{
			"error_dwell":    "2s",
			"dir":            defaultSessionDir(),
			"encryption_key": "",
			"previous_keys":  []string{},
		},
		"history": map[string]any{
			"queue_size": 256,
		},
	}
}

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".abacus/sessions"
	}
	return filepath.Join(home, ".abacus", "sessions")
}

// envKeys maps environment variables to dotted config keys.
// Later entries win when several are set.
var envKeys = []struct {
	Name string
	Key  string
}{
	{"ABACUS_ENV", "env"},
	{"PORT", "server.port"},
	{"ABACUS_PORT", "server.port"},
	{"ABACUS_HOST", "server.host"},
	{"FRONTEND_URL", "server.frontend_url"},
	{"ABACUS_FRONTEND_URL", "server.frontend_url"},
	{"ABACUS_LOG_LEVEL", "log.level"},
	{"ABACUS_LOG_FORMAT", "log.format"},
	{"ABACUS_DB_PATH", "database.path"},
	{"ABACUS_REDIS_URL", "redis.url"},
	{"JWT_SECRET", "auth.jwt_secret"},
	{"ABACUS_JWT_SECRET", "auth.jwt_secret"},
	{"JWT_EXPIRES_IN", "auth.token_ttl"},
	{"ABACUS_TOKEN_TTL", "auth.token_ttl"},
	{"ABACUS_BCRYPT_COST", "auth.bcrypt_cost"},
	{"ABACUS_RATE_LIMIT_WINDOW", "rate_limit.window"},
	{"ABACUS_RATE_LIMIT_GLOBAL", "rate_limit.global_limit"},
	{"ABACUS_RATE_LIMIT_AUTH", "rate_limit.auth_limit"},
	{"ABACUS_ERROR_DWELL", "session.error_dwell"},
	{"ABACUS_SESSION_DIR", "session.dir"},
	{"ABACUS_SESSION_KEY", "session.encryption_key"},
	{"ABACUS_SESSION_PREVIOUS_KEYS", "session.previous_keys"},
	{"ABACUS_HISTORY_QUEUE", "history.queue_size"},
}

// Loader assembles a Config.
type Loader struct {
	// Path is an optional YAML or JSON file. A missing file is an error only
	// when Path was set explicitly.
	Path string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// Overrides are dotted keys set by command-line flags.
	Overrides map[string]any
}

// Load merges every layer and validates the result.
func (l Loader) Load() (*Config, error) {
	values := Defaults()

	if l.Path != "" {
		file, err := readFile(l.Path)
		if err != nil {
			return nil, err
		}
		merge(values, file)
	}

	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, e := range envKeys {
		if v, ok := lookup(e.Name); ok && v != "" {
			set(values, e.Key, v)
		}
	}
	for k, v := range l.Overrides {
		set(values, k, v)
	}

	var cfg Config
	hooks := mapstructure.ComposeDecodeHookFunc(
		durationHook,
		mapstructure.StringToSliceHookFunc(","),
	)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       hooks,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(values); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is shorthand for Loader{Path: path}.Load().
func Load(path string) (*Config, error) {
	return Loader{Path: path}.Load()
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	out := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return out, nil
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return out, nil
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// set assigns a dotted key, creating intermediate maps.
func set(values map[string]any, key string, v any) {
	parts := strings.Split(key, ".")
	m := values
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

// durationHook decodes strings such as "15m" or "7d" into time.Duration.
func durationHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) || from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "0" || s == "0s" {
		return time.Duration(0), nil
	}
	return auth.ParseTTL(s)
}

func (c *Config) finish() error {
	var errs []error
	switch c.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("env: unknown environment %q", c.Env))
	}
	if c.Auth.JWTSecret == "" {
		if c.Env == EnvProduction {
			errs = append(errs, errors.New("auth.jwt_secret: required in production"))
		} else {
			c.Auth.JWTSecret = devSecret
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost: %d out of range 4..31", c.Auth.BcryptCost))
	}
	if c.RateLimit.Window <= 0 || c.RateLimit.GlobalLimit <= 0 || c.RateLimit.AuthLimit <= 0 {
		errs = append(errs, errors.New("rate_limit: window and limits must be positive"))
	}
	if c.Session.ErrorDwell < 0 {
		errs = append(errs, errors.New("session.error_dwell: must not be negative"))
	}
	if c.Session.EncryptionKey != "" {
		enc, err := middleware.NewEncryptionConfig(c.Session.EncryptionKey, c.Session.PreviousKeys)
		if err != nil {
			errs = append(errs, fmt.Errorf("session.encryption_key: %w", err))
		} else {
			c.Session.Encryption = &enc
		}
	} else if len(c.Session.PreviousKeys) > 0 {
		errs = append(errs, errors.New("session.previous_keys: set without an encryption key"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}
