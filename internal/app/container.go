// Package app wires hellomcp services using go.uber.org/dig.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"go.uber.org/dig"
	"golang.org/x/sync/errgroup"

	"github.com/matiasleandrokruk/hellomcp/internal/api"
	"github.com/matiasleandrokruk/hellomcp/internal/domain/finance"
	"github.com/matiasleandrokruk/hellomcp/internal/domain/greeting"
	"github.com/matiasleandrokruk/hellomcp/internal/domain/task"
	"github.com/matiasleandrokruk/hellomcp/internal/domain/tool"
	"github.com/matiasleandrokruk/hellomcp/internal/infra/config"
	"github.com/matiasleandrokruk/hellomcp/internal/infra/eventbus"
	"github.com/matiasleandrokruk/hellomcp/internal/infra/redisstream"
	"github.com/matiasleandrokruk/hellomcp/internal/infra/scheduler"
	"github.com/matiasleandrokruk/hellomcp/internal/infra/sqlite"
	"github.com/matiasleandrokruk/hellomcp/internal/infra/toolclient"
	"github.com/matiasleandrokruk/hellomcp/internal/server"
)

const (
	catalogSyncJob = "tool-catalog-sync"
	streamMaxLen   = 10000
)

// Container holds the resolved service singletons.
type Container struct {
	cfg          config.Config
	logger       *slog.Logger
	db           *sql.DB
	bus          *eventbus.Bus
	client       *toolclient.Client
	orchestrator *greeting.Orchestrator
	calculator   *finance.Calculator
	executor     *task.Executor
	history      *task.HistoryService
	catalog      *tool.Catalog
	router       http.Handler
	server       *server.Server
	scheduler    *scheduler.Scheduler
}

// Accessors for the wired services.

func (c *Container) Config() config.Config                { return c.cfg }
func (c *Container) Logger() *slog.Logger                 { return c.logger }
func (c *Container) DB() *sql.DB                          { return c.db }
func (c *Container) ToolClient() *toolclient.Client       { return c.client }
func (c *Container) Orchestrator() *greeting.Orchestrator { return c.orchestrator }
func (c *Container) Calculator() *finance.Calculator      { return c.calculator }
func (c *Container) Jobs() []string                       { return c.scheduler.Jobs() }
func (c *Container) Executor() *task.Executor             { return c.executor }
func (c *Container) History() *task.HistoryService        { return c.history }
func (c *Container) Catalog() *tool.Catalog               { return c.catalog }
func (c *Container) Router() http.Handler                 { return c.router }

// New builds and wires all services and registers the catalog sync job when
// a schedule is configured. Extra toolclient options (tests use an
// in-memory transport) are applied after the configured endpoint.
func New(cfg config.Config, logger *slog.Logger, clientOpts ...toolclient.Option) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := dig.New()

	providers := []any{
		func() config.Config { return cfg },
		func() *slog.Logger { return logger },
		newDB,
		eventbus.New,
		func(cfg config.Config, logger *slog.Logger) *toolclient.Client {
			opts := append([]toolclient.Option{toolclient.WithLogger(logger)}, clientOpts...)
			return toolclient.New(cfg.MCPServerURL, opts...)
		},
		newOrchestrator,
		newCalculator,
		newExecutor,
		task.NewHistoryService,
		newCatalog,
		newRouter,
		newServer,
		scheduler.New,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		db *sql.DB,
		bus *eventbus.Bus,
		client *toolclient.Client,
		orchestrator *greeting.Orchestrator,
		calculator *finance.Calculator,
		executor *task.Executor,
		history *task.HistoryService,
		catalog *tool.Catalog,
		router http.Handler,
		srv *server.Server,
		sched *scheduler.Scheduler,
	) {
		result = &Container{
			cfg:          cfg,
			logger:       logger,
			db:           db,
			bus:          bus,
			client:       client,
			orchestrator: orchestrator,
			calculator:   calculator,
			executor:     executor,
			history:      history,
			catalog:      catalog,
			router:       router,
			server:       srv,
			scheduler:    sched,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("app: wire: %w", dig.RootCause(err))
	}
	if cfg.ToolSyncSchedule != "" {
		if err := result.scheduler.Add(catalogSyncJob, cfg.ToolSyncSchedule, result.syncCatalog); err != nil {
			result.Close()
			return nil, err
		}
	}
	return result, nil
}

func (c *Container) syncCatalog(ctx context.Context) error {
	_, err := c.catalog.Sync(ctx)
	return err
}

// Run serves HTTP on the configured address and runs the background
// consumers until ctx is cancelled or one of them fails.
func (c *Container) Run(ctx context.Context) error {
	return c.run(ctx, c.server.Run)
}

// Serve is Run on an existing listener.
func (c *Container) Serve(ctx context.Context, ln net.Listener) error {
	return c.run(ctx, func(ctx context.Context) error { return c.server.Serve(ctx, ln) })
}

func (c *Container) run(ctx context.Context, serve func(context.Context) error) error {
	var sink *redisstream.Sink
	if c.cfg.RedisAddr != "" {
		var err error
		sink, err = redisstream.New(ctx, redisstream.Config{
			Address: c.cfg.RedisAddr,
			Stream:  c.cfg.RedisStream,
			MaxLen:  streamMaxLen,
		}, c.logger)
		if err != nil {
			return err
		}
		defer sink.Close()
	}

	g, gctx := errgroup.WithContext(ctx)

	historyEvents := c.bus.Subscribe(task.TopicEvent)
	defer c.bus.Unsubscribe(task.TopicEvent, historyEvents)
	g.Go(func() error {
		c.history.Consume(gctx, historyEvents)
		return nil
	})

	if sink != nil {
		streamEvents := c.bus.Subscribe(task.TopicEvent)
		defer c.bus.Unsubscribe(task.TopicEvent, streamEvents)
		g.Go(func() error {
			sink.Consume(gctx, streamEvents)
			return nil
		})
		c.logger.Info("redis task event sink enabled", "stream", c.cfg.RedisStream)
	}

	if len(c.scheduler.Jobs()) > 0 {
		g.Go(func() error { return c.scheduler.Run(gctx) })
	}

	g.Go(func() error {
		err := serve(gctx)
		if err == nil && ctx.Err() == nil {
			return errors.New("http server stopped unexpectedly")
		}
		return err
	})

	return g.Wait()
}

// Close releases the event bus and the database.
func (c *Container) Close() error {
	c.bus.Close()
	return c.db.Close()
}

func newDB(cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	applied, err := sqlite.MigrateUp(context.Background(), db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(applied) > 0 {
		logger.Debug("migrations applied", "db", cfg.DBPath, "names", applied)
	}
	return db, nil
}

func newOrchestrator(client *toolclient.Client, logger *slog.Logger) *greeting.Orchestrator {
	return greeting.NewOrchestrator(client, logger)
}

func newCalculator(client *toolclient.Client) *finance.Calculator {
	return finance.NewCalculator(client)
}

func newExecutor(orchestrator *greeting.Orchestrator, bus *eventbus.Bus, logger *slog.Logger) *task.Executor {
	return task.NewExecutor(orchestrator, bus, logger)
}

func newCatalog(db *sql.DB, client *toolclient.Client, logger *slog.Logger) *tool.Catalog {
	return tool.NewCatalog(db, client, logger)
}

func newRouter(cfg config.Config, executor *task.Executor, history *task.HistoryService, catalog *tool.Catalog, logger *slog.Logger) http.Handler {
	return api.NewRouter(api.Deps{
		Executor: executor,
		Card:     api.NewAgentCard(cfg.PublicURL),
		History:  history,
		Catalog:  catalog,
		Logger:   logger,
	})
}

func newServer(cfg config.Config, router http.Handler, logger *slog.Logger) *server.Server {
	sc := server.DefaultConfig()
	sc.Host = cfg.Host
	sc.Port = cfg.Port
	return server.NewServer(router, sc, logger)
}
