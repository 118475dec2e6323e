package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/nyxlab/nyx/internal/config"
	"github.com/nyxlab/nyx/internal/history"
	"github.com/nyxlab/nyx/internal/orchestrator"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, mutate func(*config.ServerConfig)) http.Handler {
	t.Helper()
	cfg := testConfig(t)
	if mutate != nil {
		mutate(&cfg.Server)
	}

	nyx, err := orchestrator.New(cfg, zap.NewNop(), history.NewMemoryStore(100))
	require.NoError(t, err)
	return New(cfg.Server, zap.NewNop(), nyx).Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, nil)
	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestQueryEndpoint(t *testing.T) {
	h := newTestServer(t, nil)

	t.Run("answers and validates", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/query", `{"query": "Résoudre x² - 9 = 0"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		result := body["result"].(map[string]any)
		assert.NotEmpty(t, result["module_used"])
		validation := body["validation"].(map[string]any)
		assert.Equal(t, "valid", validation["status"])
	})

	t.Run("validate=false skips validation", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/query",
			`{"query": "Résoudre x² - 9 = 0", "validate": false}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		_, hasValidation := body["validation"]
		assert.False(t, hasValidation)
	})

	t.Run("module override", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/query",
			`{"query": "Résoudre x² - 9 = 0", "module": "Mathematics"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		result := body["result"].(map[string]any)
		assert.Equal(t, "Mathematics", result["module_used"])
	})

	t.Run("provider failure is data, not an HTTP error", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/query",
			`{"query": "Résoudre x² - 9 = 0", "module": "Chemistry"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
	})

	t.Run("rejects empty query", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/query", `{"query": "  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/query", `{"query": `)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestIntentAndRouteEndpoints(t *testing.T) {
	h := newTestServer(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/intent", `{"query": "Tracer x² - 4"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	intent := decodeBody(t, rec)
	assert.Equal(t, "visualize", intent["category"])
	assert.Equal(t, "mathematics", intent["domain"])
	assert.Equal(t, true, intent["requires_sandbox"])

	rec = doJSON(t, h, http.MethodPost, "/api/route", `{"query": "Tracer x² - 4"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decision := decodeBody(t, rec)
	assert.Equal(t, "Mathematics", decision["module"])
	assert.Equal(t, "execute", decision["method"])
}

func TestStatusModulesAndCapabilities(t *testing.T) {
	h := newTestServer(t, nil)

	rec := doJSON(t, h, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody(t, rec)
	nyxStatus := status["nyx"].(map[string]any)
	assert.Equal(t, true, nyxStatus["initialized"])

	rec = doJSON(t, h, http.MethodGet, "/api/modules", "")
	require.Equal(t, http.StatusOK, rec.Code)
	modules := decodeBody(t, rec)
	assert.Contains(t, modules, "ScientificSolver")

	rec = doJSON(t, h, http.MethodGet, "/api/modules/Mathematics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decodeBody(t, rec)
	assert.Equal(t, "Mathematics", info["name"])

	rec = doJSON(t, h, http.MethodGet, "/api/modules/Chemistry", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/capabilities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	caps := decodeBody(t, rec)
	assert.NotEmpty(t, caps["capabilities"])
}

func TestHistoryEndpoints(t *testing.T) {
	h := newTestServer(t, nil)

	for _, q := range []string{"Résoudre x² - 9 = 0", "Tracer x² - 4"} {
		rec := doJSON(t, h, http.MethodPost, "/api/query", `{"query": "`+q+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["count"])

	rec = doJSON(t, h, http.MethodGet, "/api/history?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	entries := body["entries"].([]any)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "Tracer x² - 4", entry["query"])

	rec = doJSON(t, h, http.MethodGet, "/api/history?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/history", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/history", "")
	body = decodeBody(t, rec)
	assert.Equal(t, float64(0), body["count"])
}

func TestValidationStatisticsEndpoint(t *testing.T) {
	h := newTestServer(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/query", `{"query": "Résoudre x² - 9 = 0"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/validation/statistics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody(t, rec)
	assert.Equal(t, float64(1), stats["total_validations"])
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestServer(t, nil)

	t.Run("generated when missing", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/healthz", "")
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("echoed when supplied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	})
}

func TestRateLimiting(t *testing.T) {
	h := newTestServer(t, func(sc *config.ServerConfig) {
		sc.RateLimit.RPS = 1
		sc.RateLimit.Burst = 1
	})

	first := doJSON(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRunShutsDownGracefully(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = 2 * time.Second

	nyx, err := orchestrator.New(cfg, zap.NewNop(), history.NewMemoryStore(10))
	require.NoError(t, err)
	srv := New(cfg.Server, zap.NewNop(), nyx)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	// Give the listener a moment to come up, then stop it.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
