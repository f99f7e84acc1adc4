package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/matiasleandrokruk/hellomcp/internal/infra/eventbus"
)

// ErrEmptyTaskID is returned when a record or query has no task ID.
var ErrEmptyTaskID = errors.New("task id is required")

// HistoryService is an append-only store of task events. Rows are never
// updated or deleted.
type HistoryService struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// NewHistoryService returns a HistoryService over db. A nil logger means
// slog.Default.
func NewHistoryService(db *sql.DB, logger *slog.Logger) *HistoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryService{db: db, now: time.Now, logger: logger}
}

// Append stores r and returns it with ID and CreatedAt set.
func (s *HistoryService) Append(ctx context.Context, r Record) (Record, error) {
	if r.TaskID == "" {
		return Record{}, ErrEmptyTaskID
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Record{}, fmt.Errorf("task history: new id: %w", err)
	}
	r.ID = id.String()
	r.CreatedAt = s.now().UTC()
	payload := r.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO task_event (id, seq, task_id, context_id, kind, state, final, message, artifact_name, payload, created_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM task_event WHERE task_id = ?), ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TaskID, r.TaskID, r.ContextID, string(r.Kind), r.State, boolToInt(r.Final),
		r.Message, r.ArtifactName, string(payload), r.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("append task event: %w", err)
	}
	return r, nil
}

// List returns the events of taskID, oldest first.
func (s *HistoryService) List(ctx context.Context, taskID string) ([]Record, error) {
	if taskID == "" {
		return nil, ErrEmptyTaskID
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, context_id, kind, state, final, message, artifact_name, payload, created_at
		FROM task_event WHERE task_id = ? ORDER BY seq`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task events: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var (
			r         Record
			kind      string
			final     int
			payload   string
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.TaskID, &r.ContextID, &kind, &r.State, &final,
			&r.Message, &r.ArtifactName, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan task event: %w", err)
		}
		r.Kind = Kind(kind)
		r.Final = final != 0
		r.Payload = json.RawMessage(payload)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Consume appends every Record received on ch until ch is closed or ctx is
// done. Other payload types are skipped. Append failures are logged.
func (s *HistoryService) Consume(ctx context.Context, ch <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			r, ok := evt.Payload.(Record)
			if !ok {
				continue
			}
			if _, err := s.Append(ctx, r); err != nil {
				s.logger.Error("task history append failed", "task_id", r.TaskID, "kind", r.Kind, "error", err)
			}
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
