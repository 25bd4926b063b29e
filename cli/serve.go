package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/compozy/overlay/pkg/config"
	"github.com/compozy/overlay/server"
)

// ServeCmd runs the HTTP API.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the override API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := SetupGlobalConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			defer func() { _ = mgr.Close(cmd.Context()) }()
			srv := server.NewServer(cmd.Context(), mgr.Get(), mgr)
			return srv.Run(cmd.Context())
		},
	}
	defaults := config.Default()
	cmd.Flags().String("host", defaults.Server.Host, "Host interface to bind")
	cmd.Flags().Int("port", defaults.Server.Port, "Port to listen on")
	cmd.Flags().Bool("cors", defaults.Server.CORSEnabled, "Enable CORS")
	return cmd
}
