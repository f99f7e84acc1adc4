package toolclient

import (
	"errors"
	"fmt"
)

// Kind classifies where a tool call failed.
type Kind int

const (
	// KindTransport means the endpoint could not be reached or the
	// transport handshake failed.
	KindTransport Kind = iota + 1
	// KindSession means the MCP initialize handshake was rejected, including
	// protocol version mismatches.
	KindSession
	// KindInvocation means the server rejected the request or the tool
	// reported a failure (isError).
	KindInvocation
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindSession:
		return "session"
	case KindInvocation:
		return "invocation"
	default:
		return "unknown"
	}
}

// ErrToolFailed is wrapped by invocation errors whose cause is a tool result
// flagged isError by the server.
var ErrToolFailed = errors.New("tool reported an error")

// Error is returned by every Client operation that fails.
type Error struct {
	Kind Kind
	Op   string // "call_tool" or "list_tools"
	Tool string // empty for list_tools
	Err  error
}

func (e *Error) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("mcp %s %s %q: %v", e.Kind, e.Op, e.Tool, e.Err)
	}
	return fmt.Sprintf("mcp %s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of err, or 0 when err did not come from a Client.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}
