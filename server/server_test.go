package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/overlay/pkg/config"
	"github.com/compozy/overlay/pkg/logger"
	"github.com/compozy/overlay/pkg/overrides"
)

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *config.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := logger.ContextWithLogger(context.Background(), logger.NewForTests())
	store := overrides.NewStore(overrides.WithLogger(logger.NewForTests()))
	mgr := config.NewManager(config.NewService(), store)
	t.Cleanup(func() { _ = mgr.Close(ctx) })

	cfg, err := mgr.Load(ctx)
	require.NoError(t, err)
	served := *cfg
	if mutate != nil {
		mutate(&served)
	}
	return NewServer(ctx, &served, mgr), mgr
}

func do(t *testing.T, s *Server, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestServer_Commands(t *testing.T) {
	t.Run("Should apply a set command and list the tree", func(t *testing.T) {
		s, mgr := newTestServer(t, nil)

		w, env := do(t, s, http.MethodPost, Commands(), `{"command":"/debug set server.port=9090"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Debug override set: server.port=9090", env.Message)

		eff, err := mgr.Effective()
		require.NoError(t, err)
		assert.Equal(t, 9090, eff.Server.Port)

		w, env = do(t, s, http.MethodGet, Overrides(), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"server":{"port":9090}}`, string(env.Data))
	})

	t.Run("Should return 400 with the reply for rejected commands", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		w, env := do(t, s, http.MethodPost, Commands(), `{"command":"/debug set a=[1,"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.True(t, strings.HasPrefix(env.Message, "Invalid JSON: "), env.Message)
	})

	t.Run("Should reject lines that are not debug commands", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		w, _ := do(t, s, http.MethodPost, Commands(), `{"command":"hello"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "not a /debug command")
	})

	t.Run("Should reject a missing command field", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		w, _ := do(t, s, http.MethodPost, Commands(), `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should refuse commands when disabled in the base config", func(t *testing.T) {
		t.Setenv("OVERLAY_DEBUG_COMMANDS_ENABLED", "false")
		s, _ := newTestServer(t, nil)
		w, _ := do(t, s, http.MethodPost, Commands(), `{"command":"/debug show"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Should refuse DELETE when disabled in the base config", func(t *testing.T) {
		t.Setenv("OVERLAY_DEBUG_COMMANDS_ENABLED", "false")
		s, mgr := newTestServer(t, nil)
		require.NoError(t, mgr.Overrides().Set("agent.model", overrides.String("x")))

		w, _ := do(t, s, http.MethodPost, Commands(), `{"command":"/debug reset"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
		w, _ = do(t, s, http.MethodDelete, Overrides(), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
		assert.False(t, mgr.Overrides().IsEmpty())
	})

	t.Run("Should reset through DELETE", func(t *testing.T) {
		s, mgr := newTestServer(t, nil)
		require.NoError(t, mgr.Overrides().Set("agent.model", overrides.String("x")))

		w, env := do(t, s, http.MethodDelete, Overrides(), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Debug overrides cleared; using config on disk.", env.Message)
		assert.True(t, mgr.Overrides().IsEmpty())
	})
}

func TestServer_Config(t *testing.T) {
	t.Run("Should return the redacted effective configuration", func(t *testing.T) {
		s, mgr := newTestServer(t, nil)
		require.NoError(t, mgr.Overrides().Set("agent.api_key", overrides.String("sk-secret")))
		require.NoError(t, mgr.Overrides().Set("agent.model", overrides.String("claude")))

		w, env := do(t, s, http.MethodGet, Config(), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "sk-secret")

		var data map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &data))
		agent := data["agent"].(map[string]any)
		assert.Equal(t, "[REDACTED]", agent["api_key"])
		assert.Equal(t, "claude", agent["model"])
	})

	t.Run("Should select a subtree by path", func(t *testing.T) {
		s, mgr := newTestServer(t, nil)
		require.NoError(t, mgr.Overrides().Set("server.port", overrides.Number(7000)))

		w, env := do(t, s, http.MethodGet, Config()+"?path=server.port", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "7000", string(env.Data))
	})

	t.Run("Should return 404 for unknown paths", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		w, _ := do(t, s, http.MethodGet, Config()+"?path=nope.nothing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_Observability(t *testing.T) {
	t.Run("Should report health", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		w, env := do(t, s, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy","version":"dev","overrides_active":false}`, string(env.Data))
	})

	t.Run("Should count commands in metrics", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		do(t, s, http.MethodPost, Commands(), `{"command":"/debug set a=1"}`)
		do(t, s, http.MethodPost, Commands(), `{"command":"/debug bogus"}`)

		req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `overlay_debug_commands_total{action="set",ok="true"} 1`)
		assert.Contains(t, body, `overlay_debug_commands_total{action="error",ok="false"} 1`)
		assert.Contains(t, body, "overlay_overrides_active 1")
	})

	t.Run("Should answer CORS preflight when enabled", func(t *testing.T) {
		s, _ := newTestServer(t, func(cfg *config.Config) { cfg.Server.CORSEnabled = true })
		req := httptest.NewRequest(http.MethodOptions, Commands(), http.NoBody)
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestServer_Run(t *testing.T) {
	t.Run("Should stop when the context is canceled", func(t *testing.T) {
		s, _ := newTestServer(t, func(cfg *config.Config) {
			cfg.Server.Host = "127.0.0.1"
			cfg.Server.Port = 0
		})
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()
		cancel()
		assert.NoError(t, <-done)
	})
}
