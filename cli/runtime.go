package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/compozy/overlay/pkg/config"
	"github.com/compozy/overlay/pkg/logger"
	"github.com/compozy/overlay/pkg/overrides"
)

// SetupGlobalConfig loads the base configuration for cmd, binds a fresh
// override store to it and stores the manager in the command context. The
// returned manager must be closed by the caller.
func SetupGlobalConfig(cmd *cobra.Command) (*config.Manager, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.FromContext(ctx)

	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	sources := []config.Source{
		config.NewYAMLProvider(configFile),
		config.NewCLIProvider(changedFlags(cmd)),
	}

	store := overrides.NewStore(overrides.WithLogger(log))
	mgr := config.NewManager(config.NewService(), store)
	mgr.OnChange(func(cfg *config.Config) {
		if logger.SetLevel(log, logger.ParseLevel(cfg.Runtime.LogLevel)) {
			log.Debug("Applied log level", "level", cfg.Runtime.LogLevel)
		}
	})
	if _, err := mgr.Load(ctx, sources...); err != nil {
		return nil, err
	}
	cmd.SetContext(config.ContextWithManager(ctx, mgr))
	return mgr, nil
}

// changedFlags collects the flags set explicitly on the command line, keyed
// by flag name.
func changedFlags(cmd *cobra.Command) map[string]any {
	flags := make(map[string]any)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "bool":
			v, err := cmd.Flags().GetBool(f.Name)
			if err == nil {
				flags[f.Name] = v
			}
		case "int":
			v, err := cmd.Flags().GetInt(f.Name)
			if err == nil {
				flags[f.Name] = v
			}
		default:
			flags[f.Name] = f.Value.String()
		}
	})
	return flags
}
