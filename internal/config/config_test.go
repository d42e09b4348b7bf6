package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Loader{LookupEnv: env(nil)}.Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, ":3001", cfg.Server.Addr())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 100, cfg.RateLimit.GlobalLimit)
	assert.Equal(t, 10, cfg.RateLimit.AuthLimit)
	assert.Equal(t, 2*time.Second, cfg.Session.ErrorDwell)
	assert.Equal(t, time.Duration(0), cfg.Server.WriteTimeout)
	assert.Equal(t, devSecret, cfg.Auth.JWTSecret)
	assert.True(t, cfg.IsDevelopment())
}

func TestLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abacus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
log:
  level: debug
auth:
  token_ttl: 12h
`), 0o644))

	cfg, err := Loader{
		Path: path,
		LookupEnv: env(map[string]string{
			"PORT":           "9090",
			"JWT_SECRET":     "from-env",
			"JWT_EXPIRES_IN": "1d",
		}),
		Overrides: map[string]any{"log.level": "warn"},
	}.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port, "env beats file")
	assert.Equal(t, "warn", cfg.Log.Level, "flags beat file")
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "text", cfg.Log.Format, "untouched keys keep defaults")
}

func TestJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abacus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database": {"path": "/tmp/x.db"}}`), 0o644))

	cfg, err := Loader{Path: path, LookupEnv: env(nil)}.Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"production without secret", map[string]string{"ABACUS_ENV": "production"}},
		{"unknown env", map[string]string{"ABACUS_ENV": "staging"}},
		{"bad port", map[string]string{"PORT": "70000"}},
		{"bad ttl", map[string]string{"JWT_EXPIRES_IN": "forever"}},
		{"bad cost", map[string]string{"ABACUS_BCRYPT_COST": "2"}},
		{"short session key", map[string]string{"ABACUS_SESSION_KEY": "c2hvcnQ="}},
		{"previous keys alone", map[string]string{"ABACUS_SESSION_PREVIOUS_KEYS": testKey(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Loader{LookupEnv: env(tt.vars)}.Load()
			assert.Error(t, err)
		})
	}
}

func TestUnknownFileKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abacus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  prot: 1\n"), 0o644))
	_, err := Loader{Path: path, LookupEnv: env(nil)}.Load()
	assert.Error(t, err)
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := Loader{Path: filepath.Join(t.TempDir(), "nope.yaml"), LookupEnv: env(nil)}.Load()
	assert.Error(t, err)
}

func testKey(b byte) string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{b}, 32))
}

func TestSessionEncryption(t *testing.T) {
	cfg, err := Loader{LookupEnv: env(nil)}.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Session.Encryption)

	cfg, err = Loader{LookupEnv: env(map[string]string{
		"ABACUS_SESSION_KEY":           testKey(1),
		"ABACUS_SESSION_PREVIOUS_KEYS": testKey(2) + "," + testKey(3),
	})}.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Session.Encryption)
	assert.Equal(t, bytes.Repeat([]byte{1}, 32), cfg.Session.Encryption.ActiveKey)
	assert.Len(t, cfg.Session.Encryption.FallbackKeys, 2)
}
