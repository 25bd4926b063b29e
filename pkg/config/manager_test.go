package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/overlay/pkg/logger"
	"github.com/compozy/overlay/pkg/overrides"
)

func newTestManager(t *testing.T) (*Manager, *overrides.Store) {
	t.Helper()
	store := overrides.NewStore(overrides.WithLogger(logger.NewForTests()))
	m := NewManager(NewService(), store)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m, store
}

func TestManager_Effective(t *testing.T) {
	t.Run("Should equal the base configuration without overrides", func(t *testing.T) {
		m, _ := newTestManager(t)
		base, err := m.Load(context.Background())
		require.NoError(t, err)

		eff, err := m.Effective()
		require.NoError(t, err)
		assert.Equal(t, base.Server, eff.Server)
		assert.Equal(t, base.Agent.Model, eff.Agent.Model)
	})

	t.Run("Should decode overrides into typed fields", func(t *testing.T) {
		m, store := newTestManager(t)
		_, err := m.Load(context.Background())
		require.NoError(t, err)

		require.NoError(t, store.Set("server.port", overrides.Number(9090)))
		require.NoError(t, store.Set("server.timeout", overrides.String("2s")))

		eff, err := m.Effective()
		require.NoError(t, err)
		assert.Equal(t, 9090, eff.Server.Port)
		assert.Equal(t, 2*time.Second, eff.Server.Timeout)
		assert.Equal(t, 5001, m.Get().Server.Port)
	})

	t.Run("Should not validate override values", func(t *testing.T) {
		m, store := newTestManager(t)
		_, err := m.Load(context.Background())
		require.NoError(t, err)

		require.NoError(t, store.Set("server.port", overrides.Number(99999)))
		eff, err := m.Effective()
		require.NoError(t, err)
		assert.Equal(t, 99999, eff.Server.Port)
	})

	t.Run("Should report overrides that cannot be decoded", func(t *testing.T) {
		m, store := newTestManager(t)
		_, err := m.Load(context.Background())
		require.NoError(t, err)

		require.NoError(t, store.Set("server.port", overrides.Object(map[string]overrides.Value{"x": overrides.Bool(true)})))
		_, err = m.Effective()
		require.Error(t, err)
	})
}

func TestManager_EffectiveMap(t *testing.T) {
	t.Run("Should keep base siblings of an override", func(t *testing.T) {
		m, store := newTestManager(t)
		_, err := m.Load(context.Background())
		require.NoError(t, err)

		require.NoError(t, store.Set("agent.model", overrides.String("claude")))
		agent := m.EffectiveMap()["agent"].(map[string]any)
		assert.Equal(t, "claude", agent["model"])
		assert.Equal(t, 1024, agent["max_tokens"])
	})

	t.Run("Should not leak mutations into the base", func(t *testing.T) {
		m, _ := newTestManager(t)
		_, err := m.Load(context.Background())
		require.NoError(t, err)

		m.EffectiveMap()["server"].(map[string]any)["host"] = "mutated"
		assert.Equal(t, "0.0.0.0", m.BaseMap()["server"].(map[string]any)["host"])
	})
}

func TestManager_GetSource(t *testing.T) {
	t.Run("Should report overridden keys", func(t *testing.T) {
		m, store := newTestManager(t)
		_, err := m.Load(context.Background())
		require.NoError(t, err)

		require.NoError(t, store.Set("agent.model", overrides.String("claude")))
		assert.Equal(t, SourceOverride, m.GetSource("agent.model"))
		assert.Equal(t, SourceDefault, m.GetSource("agent.max_tokens"))
	})
}

func TestManager_OnChange(t *testing.T) {
	t.Run("Should publish the effective configuration on override changes", func(t *testing.T) {
		m, store := newTestManager(t)
		_, err := m.Load(context.Background())
		require.NoError(t, err)

		var mu sync.Mutex
		var seen []*Config
		m.OnChange(func(cfg *Config) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, cfg)
		})

		require.NoError(t, store.Set("runtime.log_level", overrides.String("debug")))
		store.Reset()

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, seen, 2)
		assert.Equal(t, "debug", seen[0].Runtime.LogLevel)
		assert.Equal(t, "info", seen[1].Runtime.LogLevel)
	})

	t.Run("Should skip notifications when nothing effectively changed", func(t *testing.T) {
		m, store := newTestManager(t)
		_, err := m.Load(context.Background())
		require.NoError(t, err)

		calls := 0
		m.OnChange(func(*Config) { calls++ })
		require.NoError(t, store.Set("agent.model", overrides.String("gpt-4o-mini")))
		assert.Equal(t, 0, calls)
	})
}

func TestManager_Reload(t *testing.T) {
	t.Run("Should keep overrides across reloads", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "overlay.yaml")
		require.NoError(t, os.WriteFile(path, []byte("agent:\n  model: base-a\n  max_tokens: 100\n"), 0o600))

		m, store := newTestManager(t)
		_, err := m.Load(context.Background(), NewYAMLProvider(path))
		require.NoError(t, err)
		require.NoError(t, store.Set("agent.model", overrides.String("forced")))

		require.NoError(t, os.WriteFile(path, []byte("agent:\n  model: base-b\n  max_tokens: 200\n"), 0o600))
		require.NoError(t, m.Reload(context.Background()))

		assert.Equal(t, "base-b", m.Get().Agent.Model)
		eff, err := m.Effective()
		require.NoError(t, err)
		assert.Equal(t, "forced", eff.Agent.Model)
		assert.Equal(t, 200, eff.Agent.MaxTokens)
	})

	t.Run("Should keep the previous base when the reload fails validation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "overlay.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 6000\n"), 0o600))

		m, _ := newTestManager(t)
		_, err := m.Load(context.Background(), NewYAMLProvider(path))
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 0\n"), 0o600))
		require.Error(t, m.Reload(context.Background()))
		assert.Equal(t, 6000, m.Get().Server.Port)
	})

	t.Run("Should reload when the watched file changes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "overlay.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 6000\n"), 0o600))

		m, _ := newTestManager(t)
		m.SetDebounce(10 * time.Millisecond)
		_, err := m.Load(context.Background(), NewYAMLProvider(path))
		require.NoError(t, err)
		time.Sleep(50 * time.Millisecond)

		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 6001\n"), 0o600))
		assert.Eventually(t, func() bool {
			return m.Get().Server.Port == 6001
		}, 3*time.Second, 20*time.Millisecond)
	})
}

func TestContext(t *testing.T) {
	t.Run("Should return defaults without a manager", func(t *testing.T) {
		assert.Nil(t, ManagerFromContext(context.Background()))
		assert.Equal(t, Default(), FromContext(context.Background()))
	})

	t.Run("Should return the effective configuration of the attached manager", func(t *testing.T) {
		m, store := newTestManager(t)
		_, err := m.Load(context.Background())
		require.NoError(t, err)
		require.NoError(t, store.Set("agent.max_tokens", overrides.Number(42)))

		ctx := ContextWithManager(context.Background(), m)
		assert.Same(t, m, ManagerFromContext(ctx))
		assert.Equal(t, 42, FromContext(ctx).Agent.MaxTokens)
	})
}
