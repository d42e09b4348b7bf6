package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/abacus/internal/config"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, overrides map[string]any) *config.Config {
	t.Helper()
	values := map[string]any{
		"env":                 config.EnvTest,
		"database.path":       filepath.Join(t.TempDir(), "abacus.db"),
		"auth.jwt_secret":     "test-secret",
		"auth.bcrypt_cost":    4,
		"session.dir":         t.TempDir(),
		"session.error_dwell": "0s",
	}
	for k, v := range overrides {
		values[k] = v
	}
	cfg, err := config.Loader{
		LookupEnv: func(string) (string, bool) { return "", false },
		Overrides: values,
	}.Load()
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := NewApp(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, h http.Handler) string {
	t.Helper()
	w := call(t, h, "POST", "/api/auth/register", "", map[string]string{
		"email": "ada@example.com", "password": "Secret1", "name": "Ada Lovelace",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func TestNewApp_InMemory(t *testing.T) {
	app := newTestApp(t, testConfig(t, nil))

	w := call(t, app.Handler, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	token := registerUser(t, app.Handler)
	w = call(t, app.Handler, "POST", "/api/calculator/sessions", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var view struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))

	w = call(t, app.Handler, "POST", "/api/calculator/sessions/"+view.SessionID+"/keys", token,
		map[string]string{"input": "12+3="})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"display":"15"`)
}

func TestNewApp_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	app := newTestApp(t, testConfig(t, map[string]any{
		"redis.url": "redis://" + mr.Addr(),
	}))

	token := registerUser(t, app.Handler)
	w := call(t, app.Handler, "POST", "/api/calculator/sessions", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var global, authTier, sessions int
	for _, k := range mr.Keys() {
		switch {
		case strings.HasPrefix(k, globalLimitPrefix):
			global++
		case strings.HasPrefix(k, authLimitPrefix):
			authTier++
		case strings.HasPrefix(k, "abacus:session:"):
			sessions++
		}
	}
	assert.Equal(t, 1, global, mr.Keys())
	assert.Equal(t, 1, authTier, mr.Keys())
	assert.GreaterOrEqual(t, sessions, 1, mr.Keys())
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t, map[string]any{"redis.url": "redis://" + addr})
	_, err := NewApp(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, "redis unavailable")
}

func TestAllowedOrigins(t *testing.T) {
	t.Run("stock frontend admits https", func(t *testing.T) {
		assert.Equal(t, []string{"http://localhost:3000", "https://localhost:3000"}, allowedOrigins("http://localhost:3000"))
	})
	t.Run("comma separated list", func(t *testing.T) {
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, allowedOrigins(" https://a.example, https://b.example ,"))
	})
}

func TestMigrate(t *testing.T) {
	version, err := Migrate(context.Background(), filepath.Join(t.TempDir(), "abacus.db"))
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}
