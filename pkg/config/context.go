package config

import (
	"context"

	"github.com/compozy/overlay/pkg/logger"
)

// ContextKey is an alias used for storing values in context
type ContextKey string

const (
	// ManagerCtxKey is the context key used to store the *Manager instance
	ManagerCtxKey ContextKey = "config_manager"
)

// ContextWithManager stores the configuration manager in the context
func ContextWithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, ManagerCtxKey, m)
}

// ManagerFromContext retrieves the configuration manager from the context,
// or nil when none was attached.
func ManagerFromContext(ctx context.Context) *Manager {
	if ctx == nil {
		return nil
	}
	m, _ := ctx.Value(ManagerCtxKey).(*Manager)
	return m
}

// FromContext returns the effective configuration for ctx. It falls back to
// the base configuration when the overrides cannot be decoded, and to
// Default when no manager is attached.
func FromContext(ctx context.Context) *Config {
	m := ManagerFromContext(ctx)
	if m == nil {
		return Default()
	}
	cfg, err := m.Effective()
	if err != nil {
		logger.FromContext(ctx).Warn("Using base configuration", "error", err)
		if base := m.Get(); base != nil {
			return base
		}
		return Default()
	}
	return cfg
}
