// Package tool keeps a local catalog of the tools advertised by the MCP
// server, refreshed from tools/list.
package tool

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matiasleandrokruk/hellomcp/internal/infra/toolclient"
)

var (
	ErrToolDefinitionNotFound = errors.New("tool definition not found")
	ErrToolValidationFailed   = errors.New("tool params validation failed")
)

const defaultInputSchema = `{"type":"object"}`

// Lister lists the tools of the remote server.
type Lister interface {
	ListTools(ctx context.Context) ([]toolclient.ToolInfo, error)
}

// Definition is one cached tool of the remote server.
type Definition struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	SyncedAt    time.Time       `json:"syncedAt"`
}

// SyncResult counts the rows touched by one Sync.
type SyncResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Catalog caches the remote tool list in the tool_definition table.
type Catalog struct {
	db     *sql.DB
	lister Lister
	now    func() time.Time
	logger *slog.Logger
}

// NewCatalog returns a Catalog over db that refreshes from lister. A nil
// logger means slog.Default.
func NewCatalog(db *sql.DB, lister Lister, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{db: db, lister: lister, now: time.Now, logger: logger}
}

// Sync replaces the catalog with the server's current tool list in one
// transaction. Tools the server no longer lists are removed. On a listing
// error the catalog is left untouched.
func (c *Catalog) Sync(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	tools, err := c.lister.ListTools(ctx)
	if err != nil {
		return res, fmt.Errorf("sync tool catalog: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("sync tool catalog: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	existing, err := existingNames(ctx, tx)
	if err != nil {
		return res, err
	}

	syncedAt := c.now().UTC().Format(time.RFC3339Nano)
	seen := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		schema := t.InputSchema
		if len(schema) == 0 || !json.Valid(schema) {
			schema = json.RawMessage(defaultInputSchema)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tool_definition (id, name, description, input_schema, synced_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				description  = excluded.description,
				input_schema = excluded.input_schema,
				synced_at    = excluded.synced_at
		`, uuid.NewString(), name, t.Description, string(schema), syncedAt); err != nil {
			return res, fmt.Errorf("sync tool catalog: upsert %q: %w", name, err)
		}
		if _, ok := existing[name]; ok {
			res.Updated++
		} else {
			res.Added++
		}
	}

	for name := range existing {
		if _, ok := seen[name]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tool_definition WHERE name = ?`, name); err != nil {
			return res, fmt.Errorf("sync tool catalog: remove %q: %w", name, err)
		}
		res.Removed++
	}

	if err := tx.Commit(); err != nil {
		return SyncResult{}, fmt.Errorf("sync tool catalog: commit: %w", err)
	}
	c.logger.Info("tool catalog synced", "added", res.Added, "updated", res.Updated, "removed", res.Removed)
	return res, nil
}

// List returns the cached definitions sorted by name.
func (c *Catalog) List(ctx context.Context) ([]*Definition, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, description, input_schema, synced_at
		FROM tool_definition
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Definition, 0)
	for rows.Next() {
		item, scanErr := scanDefinition(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the cached definition of name or ErrToolDefinitionNotFound.
func (c *Catalog) Get(ctx context.Context, name string) (*Definition, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, name, description, input_schema, synced_at
		FROM tool_definition
		WHERE name = ?
		LIMIT 1
	`, name)
	item, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrToolDefinitionNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ValidateParams checks params against the cached schema of toolName: every
// required key must be present and, when additionalProperties is false, no
// unknown key may appear.
func (c *Catalog) ValidateParams(ctx context.Context, toolName string, params map[string]any) error {
	def, err := c.Get(ctx, toolName)
	if err != nil {
		return err
	}
	var schema map[string]any
	if err := json.Unmarshal(def.InputSchema, &schema); err != nil {
		return fmt.Errorf("%w: invalid cached schema", ErrToolValidationFailed)
	}
	return validateAgainstMinimalSchema(params, schema)
}

func validateAgainstMinimalSchema(input, schema map[string]any) error {
	for _, key := range extractStringSlice(schema["required"]) {
		if _, ok := input[key]; !ok {
			return fmt.Errorf("%w: missing required field %q", ErrToolValidationFailed, key)
		}
	}

	allowAdditional := true
	if v, ok := schema["additionalProperties"].(bool); ok {
		allowAdditional = v
	}
	if allowAdditional {
		return nil
	}

	props, _ := schema["properties"].(map[string]any)
	for key := range input {
		if _, ok := props[key]; !ok {
			return fmt.Errorf("%w: unknown field %q", ErrToolValidationFailed, key)
		}
	}
	return nil
}

func extractStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func existingNames(ctx context.Context, tx *sql.Tx) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name FROM tool_definition`)
	if err != nil {
		return nil, fmt.Errorf("sync tool catalog: load: %w", err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDefinition(s scanner) (*Definition, error) {
	var (
		item     Definition
		schema   string
		syncedAt string
	)
	if err := s.Scan(&item.ID, &item.Name, &item.Description, &schema, &syncedAt); err != nil {
		return nil, err
	}
	item.InputSchema = json.RawMessage(schema)
	item.SyncedAt, _ = time.Parse(time.RFC3339Nano, syncedAt)
	return &item, nil
}
