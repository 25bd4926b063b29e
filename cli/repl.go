package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/compozy/overlay/pkg/debugcmd"
)

const replPrompt = "overlay> "

// ReplCmd reads /debug commands line by line and prints each reply.
func ReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Apply /debug commands interactively",
		Long: `Read lines from stdin. Lines starting with /debug are applied to an
in-memory override store layered on the loaded configuration; the reply is
printed after each one. Overrides are lost when the session ends. Type exit or
quit to leave.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := SetupGlobalConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			defer func() { _ = mgr.Close(cmd.Context()) }()
			session := &replSession{
				handler: debugcmd.NewHandler(mgr.Overrides()),
				in:      cmd.InOrStdin(),
				out:     cmd.OutOrStdout(),
				prompt:  isTerminal(cmd.InOrStdin()),
			}
			return session.run(cmd)
		},
	}
}

type replSession struct {
	handler *debugcmd.Handler
	in      io.Reader
	out     io.Writer
	prompt  bool
}

func (s *replSession) run(cmd *cobra.Command) error {
	scanner := bufio.NewScanner(s.in)
	for {
		if s.prompt {
			fmt.Fprint(s.out, replPrompt)
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		reply, ok := s.handler.Handle(cmd.Context(), line)
		if !ok {
			fmt.Fprintln(s.out, "Only /debug commands are accepted. Try /debug show.")
			continue
		}
		fmt.Fprintln(s.out, reply.Message)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
