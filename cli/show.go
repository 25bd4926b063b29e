package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/compozy/overlay/pkg/config"
	"github.com/compozy/overlay/pkg/debugcmd"
)

// ShowCmd prints the effective configuration, optionally after applying
// ad-hoc overrides.
func ShowCmd() *cobra.Command {
	var (
		sets   []string
		path   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Load the configuration, apply each --set override in order and print the
result. Override values use the /debug literal syntax: JSON objects and arrays,
true/false/null, numbers, quoted strings, or bare text.`,
		Example: `  overlay show --set server.port=9090 --set 'agent.tools=["search"]'
  overlay show --path agent --format yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShow(cmd, sets, path, format)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Override as path=value (repeatable)")
	cmd.Flags().StringVar(&path, "path", "", "Only print the value at this dot path")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format (json, yaml)")
	return cmd
}

func runShow(cmd *cobra.Command, sets []string, path, format string) error {
	mgr, err := SetupGlobalConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	defer func() { _ = mgr.Close(cmd.Context()) }()

	handler := debugcmd.NewHandler(mgr.Overrides())
	for _, set := range sets {
		parsed, _ := debugcmd.Parse(debugcmd.Token + " set " + set)
		reply := handler.Execute(cmd.Context(), parsed)
		if !reply.OK {
			return fmt.Errorf("--set %s: %s", set, reply.Message)
		}
	}
	if _, err := mgr.Effective(); err != nil {
		return err
	}
	return writeDocument(cmd.OutOrStdout(), config.RedactedMap(mgr.EffectiveMap()), path, format)
}
