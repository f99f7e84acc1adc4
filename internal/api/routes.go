// Package api wires the HTTP surface: the A2A JSON-RPC endpoint, the agent
// card and the /api/v1 diagnostics.
package api

import (
	"log/slog"
	"net/http"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/hellomcp/internal/api/handlers"
)

// Deps are the services behind the routes.
type Deps struct {
	Executor a2asrv.AgentExecutor
	Card     *a2a.AgentCard
	History  handlers.TaskHistory
	Catalog  handlers.ToolCatalog
	Logger   *slog.Logger
}

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(d Deps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// A2A: JSON-RPC on the root path, card at the well-known location.
	r.Method(http.MethodPost, "/", a2asrv.NewJSONRPCHandler(a2asrv.NewHandler(d.Executor)))
	r.Method(http.MethodGet, a2asrv.WellKnownAgentCardPath, a2asrv.NewStaticAgentCardHandler(d.Card))

	taskHandler := handlers.NewTaskHandler(d.History)
	toolHandler := handlers.NewToolHandler(d.Catalog, logger)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tasks/{id}/events", taskHandler.ListEvents) // GET /api/v1/tasks/{id}/events
		r.Route("/tools", func(r chi.Router) {
			r.Get("/", toolHandler.ListTools)      // GET /api/v1/tools
			r.Post("/sync", toolHandler.SyncTools) // POST /api/v1/tools/sync
		})
	})

	return r
}
