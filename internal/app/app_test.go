package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/internal/config"
	"civicpulse/internal/infrastructure"
	"civicpulse/internal/shared"
)

var (
	testProvidersOnce sync.Once
	testProviders     *infrastructure.OTelProviders
	testProvidersErr  error
)

// createTestLogger creates a logger that discards output for testing
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// getTestProviders initializes OpenTelemetry once for the whole test
// binary; the Prometheus exporter cannot be registered twice.
func getTestProviders(t *testing.T) *infrastructure.OTelProviders {
	t.Helper()

	testProvidersOnce.Do(func() {
		cfg := infrastructure.DefaultOTelConfig()
		cfg.TraceExporter = "stdout"
		testProviders, testProvidersErr = infrastructure.InitializeOTel(cfg, createTestLogger())
	})
	require.NoError(t, testProvidersErr)
	return testProviders
}

// newTestApplication builds a fully wired Application backed by
// temporary directories, without binding a network listener.
func newTestApplication(t *testing.T) *Application {
	t.Helper()

	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	paths := &config.Paths{
		ExecutableDir: tempDir,
		DataDir:       dataDir,
		ExportsDir:    filepath.Join(dataDir, "exports"),
		ReportsDir:    filepath.Join(dataDir, "reports"),
		LogsDir:       filepath.Join(tempDir, "logs"),
		ArchiveFile:   filepath.Join(tempDir, config.ArchiveFileName),
	}
	require.NoError(t, paths.EnsureDirectories())

	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Security.RateLimit.Enabled = false

	app := &Application{
		Config:        cfg,
		Logger:        createTestLogger(),
		OTelProviders: getTestProviders(t),
		paths:         paths,
	}

	require.NoError(t, app.initializeServices())
	app.setupRouter()
	app.createServer()

	t.Cleanup(func() {
		app.broadcaster.Stop()
		app.WebSocketHub.Stop()
		app.Store.Close()
	})

	return app
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestApplication_initializeServices(t *testing.T) {
	app := newTestApplication(t)

	assert.NotNil(t, app.Store)
	assert.NotNil(t, app.WebSocketHub)
	assert.NotNil(t, app.Runner)
	assert.NotNil(t, app.AnalysisService)
	assert.NotNil(t, app.ResultsService)
	assert.NotNil(t, app.HealthService)
	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
}

func TestApplication_getCORSConfig(t *testing.T) {
	t.Run("includes localhost origins for the configured port", func(t *testing.T) {
		cfg := config.Default()
		cfg.Server.Port = 9191
		cfg.Security.EnableCORS = false

		app := &Application{Config: cfg, Logger: createTestLogger()}
		corsConfig := app.getCORSConfig()

		assert.Contains(t, corsConfig.AllowedOrigins, "http://localhost:9191")
		assert.Contains(t, corsConfig.AllowedOrigins, "http://127.0.0.1:9191")
		assert.Len(t, corsConfig.AllowedOrigins, 2)
	})

	t.Run("appends configured origins when CORS is enabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.Security.EnableCORS = true
		cfg.Security.AllowedOrigins = []string{"https://dashboard.example.com"}

		app := &Application{Config: cfg, Logger: createTestLogger()}
		corsConfig := app.getCORSConfig()

		assert.Contains(t, corsConfig.AllowedOrigins, "https://dashboard.example.com")
		assert.True(t, corsConfig.AllowCredentials)
		assert.Equal(t, 300, corsConfig.MaxAge)
	})
}

func TestApplication_createServer(t *testing.T) {
	app := newTestApplication(t)

	assert.Equal(t, ":8080", app.Server.Addr)
	assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, app.Config.Server.WriteTimeout, app.Server.WriteTimeout)
	assert.Equal(t, app.Config.Server.IdleTimeout, app.Server.IdleTimeout)
	assert.Equal(t, app.Router, app.Server.Handler)
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApplication(t)

	t.Run("health endpoint responds", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		w := httptest.NewRecorder()
		app.Router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("version endpoint reports build info", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
		w := httptest.NewRecorder()
		app.Router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, shared.Version, body["version"])
		assert.Equal(t, shared.BuildID, body["build_id"])
	})

	t.Run("results are absent before the first run", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/results", nil)
		w := httptest.NewRecorder()
		app.Router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("stats endpoint includes websocket metrics", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		w := httptest.NewRecorder()
		app.Router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body, "goroutines")
		assert.Contains(t, body, "websocket")
	})

	t.Run("unknown API route returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
		w := httptest.NewRecorder()
		app.Router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("analysis rejects non-JSON content types", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader("seed=1"))
		req.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()
		app.Router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("metrics endpoint is registered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		w := httptest.NewRecorder()
		app.Router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("security headers are applied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		w := httptest.NewRecorder()
		app.Router.ServeHTTP(w, req)

		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})
}

func TestApplication_WebSocket(t *testing.T) {
	app := newTestApplication(t)

	server := httptest.NewServer(app.Router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	// Give the hub a moment to register the client
	assert.Eventually(t, func() bool {
		return app.WebSocketHub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestApplication_performStartupHealthCheck(t *testing.T) {
	app := newTestApplication(t)

	t.Run("passes with writable directories", func(t *testing.T) {
		assert.NoError(t, app.performStartupHealthCheck(context.Background()))
	})

	t.Run("warns when a directory is missing", func(t *testing.T) {
		app.paths.LogsDir = filepath.Join(app.paths.ExecutableDir, "does", "not", "exist")
		err := app.performStartupHealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not writable")
	})
}
