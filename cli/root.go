package cli

import (
	"github.com/spf13/cobra"

	"github.com/compozy/overlay/pkg/logger"
	"github.com/compozy/overlay/pkg/version"
)

const defaultConfigFile = "overlay.yaml"

// RootCmd returns the overlay command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "overlay",
		Short:         "Inspect and override runtime configuration with /debug commands",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogger(cmd)
		},
	}
	root.PersistentFlags().String("config", defaultConfigFile, "Path to the YAML configuration file")
	logger.AddFlags(root)

	root.AddCommand(
		ShowCmd(),
		ReplCmd(),
		ServeCmd(),
	)
	return root
}

func setupLogger(cmd *cobra.Command) error {
	level, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.SetupLogger(level, logJSON, logSource)
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), log))
	return nil
}
