package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/matiasleandrokruk/hellomcp/internal/domain/task"
	"github.com/matiasleandrokruk/hellomcp/internal/domain/tool"
)

type stubHistory struct {
	records []task.Record
	err     error
	asked   string
}

func (s *stubHistory) List(_ context.Context, taskID string) ([]task.Record, error) {
	s.asked = taskID
	return s.records, s.err
}

type stubCatalog struct {
	items []*tool.Definition
	res   tool.SyncResult
	err   error
}

func (s *stubCatalog) List(context.Context) ([]*tool.Definition, error) { return s.items, s.err }
func (s *stubCatalog) Sync(context.Context) (tool.SyncResult, error)   { return s.res, s.err }

func withTaskID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestTaskHandler_ListEvents(t *testing.T) {
	t.Parallel()

	hist := &stubHistory{records: []task.Record{
		{ID: "e1", TaskID: "t1", Kind: task.KindTask, State: "submitted"},
		{ID: "e2", TaskID: "t1", Kind: task.KindStatusUpdate, State: "completed", Final: true},
	}}
	h := NewTaskHandler(hist)

	rr := httptest.NewRecorder()
	h.ListEvents(rr, withTaskID(httptest.NewRequest(http.MethodGet, "/api/v1/tasks/t1/events", nil), "t1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if hist.asked != "t1" {
		t.Fatalf("history asked for %q; want t1", hist.asked)
	}
	body := decodeBody(t, rr)
	data, ok := body["data"].([]any)
	if !ok || len(data) != 2 {
		t.Fatalf("expected 2 events, got %#v", body["data"])
	}
	if meta := body["meta"].(map[string]any); meta["total"] != float64(2) {
		t.Fatalf("meta = %v", meta)
	}
}

func TestTaskHandler_ListEvents_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hist *stubHistory
		id   string
		want int
	}{
		{"unknown task", &stubHistory{}, "missing", http.StatusNotFound},
		{"store failure", &stubHistory{err: errors.New("disk")}, "t1", http.StatusInternalServerError},
		{"no id", &stubHistory{}, "", http.StatusBadRequest},
	}
	for _, tc := range tests {
		rr := httptest.NewRecorder()
		NewTaskHandler(tc.hist).ListEvents(rr, withTaskID(httptest.NewRequest(http.MethodGet, "/", nil), tc.id))
		if rr.Code != tc.want {
			t.Fatalf("%s: status=%d want=%d", tc.name, rr.Code, tc.want)
		}
		if _, ok := decodeBody(t, rr)["error"]; !ok {
			t.Fatalf("%s: error body missing", tc.name)
		}
	}
}

func TestToolHandler_ListTools_EmptyIsArray(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewToolHandler(&stubCatalog{}, nil).ListTools(rr, httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusOK)
	}
	data, ok := decodeBody(t, rr)["data"].([]any)
	if !ok || len(data) != 0 {
		t.Fatalf("expected empty data array, got %#v", data)
	}
}

func TestToolHandler_SyncTools(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewToolHandler(&stubCatalog{res: tool.SyncResult{Added: 5}}, nil).
		SyncTools(rr, httptest.NewRequest(http.MethodPost, "/api/v1/tools/sync", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	data := decodeBody(t, rr)["data"].(map[string]any)
	if data["added"] != float64(5) {
		t.Fatalf("data = %v", data)
	}

	rr = httptest.NewRecorder()
	NewToolHandler(&stubCatalog{err: errors.New("refused")}, nil).
		SyncTools(rr, httptest.NewRequest(http.MethodPost, "/api/v1/tools/sync", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusBadGateway)
	}
}
