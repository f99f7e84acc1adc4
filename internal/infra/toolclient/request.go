package toolclient

import (
	"encoding/json"
	"maps"
)

// Request names one tool invocation. Build it with NewRequest; the argument
// map is copied so later changes by the caller are not observed.
type Request struct {
	tool string
	args map[string]any
}

// NewRequest returns an immutable tool call request.
func NewRequest(tool string, args map[string]any) Request {
	return Request{tool: tool, args: maps.Clone(args)}
}

// Tool returns the tool name.
func (r Request) Tool() string { return r.tool }

// Arguments returns a copy of the request arguments.
func (r Request) Arguments() map[string]any { return maps.Clone(r.args) }

// Result is the text extracted from a tool response. It is absent when the
// server returned no content or the first entry carried no text.
type Result struct {
	text string
	ok   bool
}

// TextResult returns a present Result carrying s.
func TextResult(s string) Result { return Result{text: s, ok: true} }

// Text returns the result text and whether it was present.
func (r Result) Text() (string, bool) { return r.text, r.ok }

// TextOr returns the result text, or fallback when the result is absent or
// empty.
func (r Result) TextOr(fallback string) string {
	if !r.ok || r.text == "" {
		return fallback
	}
	return r.text
}

// ToolInfo describes one tool advertised by the server.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}
