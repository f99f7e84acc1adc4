// Hello MCP - A2A greeting agent backed by MCP tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/hellomcp/internal/infra/config"
	"github.com/matiasleandrokruk/hellomcp/internal/infra/logging"
	"github.com/matiasleandrokruk/hellomcp/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// usageError marks bad flags or arguments; run maps it to exit code 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func run(args []string, out io.Writer) int {
	root := newRootCmd(out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}
	fmt.Fprintln(out, "error:", err) //nolint:errcheck
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

// cli carries the root flags shared by every subcommand.
type cli struct {
	out    io.Writer
	mcpURL string
	dbPath string
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "hellomcp",
		Short:         "A2A greeting agent backed by MCP tools",
		Long:          "hellomcp serves an A2A agent that turns Korean greeting requests into MCP tool calls.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}
	root.SetOut(out)
	root.SetErr(out)
	root.SetVersionTemplate(version.String() + "\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&c.mcpURL, "mcp-url", "", "MCP server URL (overrides MCP_SERVER_URL)")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "SQLite database path (overrides DB_PATH)")

	root.AddCommand(
		c.serveCmd(),
		c.toolsCmd(),
		c.greetCmd(),
		c.callCmd(),
		c.calcCmd(),
		c.migrateCmd(),
		c.versionCmd(),
	)
	return root
}

func (c *cli) config() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if c.mcpURL != "" {
		cfg.MCPServerURL = c.mcpURL
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}
	return cfg, nil
}

func (c *cli) logger(cfg config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
}

func (c *cli) printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...) //nolint:errcheck
}

// args wraps a cobra positional validator so its failures exit with 2.
func args(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := v(cmd, a); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
