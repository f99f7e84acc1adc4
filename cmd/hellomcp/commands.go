package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/hellomcp/internal/app"
	"github.com/matiasleandrokruk/hellomcp/internal/domain/greeting"
	"github.com/matiasleandrokruk/hellomcp/internal/domain/task"
	"github.com/matiasleandrokruk/hellomcp/internal/infra/sqlite"
	"github.com/matiasleandrokruk/hellomcp/internal/infra/toolclient"
	"github.com/matiasleandrokruk/hellomcp/internal/version"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the A2A HTTP server",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			logger, err := c.logger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			container, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer container.Close()

			if res, err := container.Catalog().Sync(ctx); err != nil {
				logger.Warn("initial tool catalog sync failed", "mcp_server", cfg.MCPServerURL, "error", err)
			} else {
				logger.Info("tool catalog synced", "added", res.Added, "updated", res.Updated, "removed", res.Removed)
			}

			logger.Info("starting hellomcp", "version", version.Version, "addr", cfg.Addr(), "mcp_server", cfg.MCPServerURL)
			return container.Run(ctx)
		},
	}
}

func (c *cli) toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools advertised by the MCP server",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.toolClient()
			if err != nil {
				return err
			}
			tools, err := client.ListTools(cmdContext(cmd))
			if err != nil {
				return err
			}
			for _, t := range tools {
				c.printf("%-28s %s\n", t.Name, t.Description)
			}
			return nil
		},
	}
}

func (c *cli) greetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "greet <message>",
		Short: "Answer one message the way the agent would",
		Args:  args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			client, err := c.toolClient()
			if err != nil {
				return err
			}
			reply, err := greeting.NewOrchestrator(client, nil).Respond(cmdContext(cmd), strings.Join(a, " "))
			if err != nil {
				return errors.New(task.FailureMessage(err))
			}
			c.printf("%s\n", reply)
			return nil
		},
	}
}

func (c *cli) callCmd() *cobra.Command {
	var rawArgs string
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call any catalogued tool with JSON arguments",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			params := map[string]any{}
			if rawArgs != "" {
				if err := json.Unmarshal([]byte(rawArgs), &params); err != nil {
					return usageError{fmt.Errorf("--args must be a JSON object: %w", err)}
				}
			}

			container, err := c.container()
			if err != nil {
				return err
			}
			defer container.Close()

			ctx := cmdContext(cmd)
			if _, err := container.Catalog().Sync(ctx); err != nil {
				return err
			}
			if err := container.Catalog().ValidateParams(ctx, a[0], params); err != nil {
				return err
			}
			res, err := container.ToolClient().CallTool(ctx, toolclient.NewRequest(a[0], params))
			if err != nil {
				return err
			}
			c.printf("%s\n", res.TextOr("(no text result)"))
			return nil
		},
	}
	cmd.Flags().StringVar(&rawArgs, "args", "", `tool arguments as a JSON object, e.g. '{"name":"Alice"}'`)
	return cmd
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			db, err := sqlite.NewDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := sqlite.MigrateUp(cmdContext(cmd), db)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				c.printf("database %s is up to date\n", cfg.DBPath)
				return nil
			}
			for _, name := range applied {
				c.printf("applied %s\n", name)
			}
			return nil
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  args(cobra.NoArgs),
		Run: func(*cobra.Command, []string) {
			c.printf("%s\n", version.String())
		},
	}
}

// container builds the full service graph for one-shot commands. The
// catalog schedule is cleared since nothing runs the scheduler.
func (c *cli) container() (*app.Container, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	cfg.ToolSyncSchedule = ""
	logger, err := c.logger(cfg)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logger)
}

func (c *cli) toolClient() (*toolclient.Client, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger(cfg)
	if err != nil {
		return nil, err
	}
	return toolclient.New(cfg.MCPServerURL, toolclient.WithLogger(logger)), nil
}
