package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matiasleandrokruk/hellomcp/internal/domain/task"
)

// TaskHistory reads the stored events of a task.
type TaskHistory interface {
	List(ctx context.Context, taskID string) ([]task.Record, error)
}

// TaskHandler serves the task event history.
type TaskHandler struct {
	history TaskHistory
}

// NewTaskHandler returns a TaskHandler reading from history.
func NewTaskHandler(history TaskHistory) *TaskHandler {
	return &TaskHandler{history: history}
}

// ListEvents serves GET /api/v1/tasks/{id}/events.
func (h *TaskHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "task id is required")
		return
	}

	items, err := h.history.List(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list task events")
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeList(w, items)
}
