package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/compozy/overlay/pkg/logger"
	"github.com/compozy/overlay/pkg/overrides"
)

// SourceOverride marks keys currently shadowed by a debug override.
const SourceOverride SourceType = "override"

// Manager holds the base configuration with hot reload and layers the
// override store on top of it on every read. Reloads never touch overrides.
type Manager struct {
	Service     Service
	store       *overrides.Store
	current     atomic.Pointer[Config]
	base        atomic.Pointer[map[string]any]
	effective   atomic.Pointer[Config]
	sources     []Source
	callbacks   []func(*Config)
	callbackMu  sync.RWMutex
	reloadMu    sync.Mutex
	notifyMu    sync.Mutex
	watchCtx    context.Context
	watchCancel context.CancelFunc
	watchWg     sync.WaitGroup
	closeOnce   sync.Once
	debounce    time.Duration
}

// NewManager creates a configuration manager bound to an override store.
// Nil arguments are replaced by a fresh service and an empty store.
func NewManager(service Service, store *overrides.Store) *Manager {
	if service == nil {
		service = NewService()
	}
	if store == nil {
		store = overrides.NewStore()
	}
	m := &Manager{
		Service:   service,
		store:     store,
		callbacks: make([]func(*Config), 0),
		debounce:  100 * time.Millisecond,
	}
	store.OnChange(func(overrides.Value) {
		m.publish(context.Background())
	})
	return m
}

// Load loads configuration from sources and starts watching for changes.
func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	m.reloadMu.Lock()
	m.sources = append([]Source(nil), sources...)
	config, err := m.Service.Load(ctx, sources...)
	if err != nil {
		m.reloadMu.Unlock()
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	m.applyBase(ctx, config)
	m.reloadMu.Unlock()

	if m.watchCancel != nil {
		m.watchCancel()
	}
	m.watchCtx, m.watchCancel = context.WithCancel(context.WithoutCancel(ctx))
	m.startWatching(sources)
	return config, nil
}

// Sources returns a copy of the currently configured sources.
func (m *Manager) Sources() []Source {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	out := make([]Source, len(m.sources))
	copy(out, m.sources)
	return out
}

// Get returns the validated base configuration, without overrides.
func (m *Manager) Get() *Config {
	return m.current.Load()
}

// Overrides returns the store layered on top of the base configuration.
func (m *Manager) Overrides() *overrides.Store {
	return m.store
}

// BaseMap returns a copy of the base configuration as nested maps.
func (m *Manager) BaseMap() map[string]any {
	base := m.base.Load()
	if base == nil {
		return map[string]any{}
	}
	return plainMap(*base)
}

// EffectiveMap returns the base configuration with overrides applied. The
// merge runs on every call so the result always reflects the latest base.
func (m *Manager) EffectiveMap() map[string]any {
	return m.store.Apply(m.BaseMap())
}

// Effective decodes EffectiveMap into a Config. Overrides are operator input
// and are not validated; a value that cannot be decoded into its field is an
// error.
func (m *Manager) Effective() (*Config, error) {
	cfg, err := Decode(m.EffectiveMap())
	if err != nil {
		return nil, fmt.Errorf("failed to decode effective configuration: %w", err)
	}
	return cfg, nil
}

// GetSource reports where the effective value at key comes from.
func (m *Manager) GetSource(key string) SourceType {
	if _, ok := m.store.Get(key); ok {
		return SourceOverride
	}
	return m.Service.GetSource(key)
}

// Reload forces a configuration reload from all sources.
func (m *Manager) Reload(ctx context.Context) error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	newConfig, err := m.Service.Load(ctx, m.sources...)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	m.applyBase(ctx, newConfig)
	return nil
}

// SetDebounce sets the debounce duration for file watching.
// Must be called before Load() to take effect.
func (m *Manager) SetDebounce(duration time.Duration) {
	m.debounce = duration
}

// OnChange registers a callback invoked with the new effective configuration
// after a reload or an override change.
func (m *Manager) OnChange(callback func(*Config)) {
	m.callbackMu.Lock()
	defer m.callbackMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Close stops watching and releases resources.
func (m *Manager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		if m.watchCancel != nil {
			m.watchCancel()
		}
		m.watchWg.Wait()

		for _, source := range m.Sources() {
			if source == nil {
				continue
			}
			if err := source.Close(); err != nil {
				logger.FromContext(ctx).Error("Failed to close configuration source", "error", err)
			}
		}
	})
	return nil
}

func (m *Manager) startWatching(sources []Source) {
	ctx := m.watchCtx
	for _, source := range sources {
		if source == nil {
			continue
		}
		src := source
		m.watchWg.Add(1)
		go func() {
			defer m.watchWg.Done()
			err := src.Watch(ctx, func() {
				if m.debounce > 0 {
					time.Sleep(m.debounce)
				}
				if err := m.Reload(ctx); err != nil {
					logger.FromContext(ctx).Error("Failed to reload configuration", "error", err)
				}
			})
			if err != nil {
				logger.FromContext(ctx).Debug("Source does not support watching", "source", src.Type(), "error", err)
			}
		}()
	}
}

func (m *Manager) applyBase(ctx context.Context, config *Config) {
	raw := m.Service.Raw()
	m.base.Store(&raw)
	m.current.Store(config)
	m.publish(ctx)
}

// publish recomputes the effective configuration and notifies callbacks when
// it differs from the last published one.
func (m *Manager) publish(ctx context.Context) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	effective, err := m.Effective()
	if err != nil {
		logger.FromContext(ctx).Warn("Effective configuration not published", "error", err)
		return
	}
	old := m.effective.Load()
	m.effective.Store(effective)
	if old != nil && configEqual(old, effective) {
		return
	}

	m.callbackMu.RLock()
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.callbackMu.RUnlock()
	for _, callback := range callbacks {
		if callback != nil {
			callback(effective)
		}
	}
}

// configEqual performs a deep equality check on configurations.
func configEqual(a, b *Config) bool {
	return reflect.DeepEqual(a, b)
}
