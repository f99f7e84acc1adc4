package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/matiasleandrokruk/hellomcp/internal/domain/tool"
)

// ToolCatalog is the cached list of remote tools.
type ToolCatalog interface {
	List(ctx context.Context) ([]*tool.Definition, error)
	Sync(ctx context.Context) (tool.SyncResult, error)
}

// ToolHandler serves the tool catalog.
type ToolHandler struct {
	catalog ToolCatalog
	logger  *slog.Logger
}

// NewToolHandler returns a ToolHandler over catalog.
func NewToolHandler(catalog ToolCatalog, logger *slog.Logger) *ToolHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolHandler{catalog: catalog, logger: logger}
}

// ListTools serves GET /api/v1/tools from the local catalog.
func (h *ToolHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tools")
		return
	}
	writeList(w, items)
}

// SyncTools serves POST /api/v1/tools/sync. A failure to reach the MCP
// server is a 502.
func (h *ToolHandler) SyncTools(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalog.Sync(r.Context())
	if err != nil {
		h.logger.Warn("tool catalog sync failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to sync tools from MCP server")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": res})
}
