// Package greeting decides which greeting tool to call for a user message.
package greeting

import (
	"context"
	"log/slog"
	"strings"

	"github.com/matiasleandrokruk/hellomcp/internal/domain/intent"
	"github.com/matiasleandrokruk/hellomcp/internal/infra/toolclient"
)

const (
	// DefaultAddressee is greeted when the message is only a greeting.
	DefaultAddressee = "친구"
	// NoResult is returned when the tool replied without usable text.
	NoResult = "인사 결과를 받지 못했습니다."
)

// keywords trigger the default greeting when no name was extracted. Matched
// against the lower-cased message.
var keywords = []string{"안녕", "hello", "hi"}

// Greeter is the subset of the MCP tool client used for greetings.
type Greeter interface {
	SayHello(ctx context.Context, name string) (toolclient.Result, error)
	SayHelloMultiple(ctx context.Context, names []string) (toolclient.Result, error)
}

// Orchestrator maps a free-form message to one greeting tool call.
type Orchestrator struct {
	greeter Greeter
	logger  *slog.Logger
}

// NewOrchestrator returns an Orchestrator calling greeter. A nil logger means
// slog.Default.
func NewOrchestrator(greeter Greeter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{greeter: greeter, logger: logger}
}

// Respond returns the greeting text for userText. Tool client errors are
// returned unchanged.
//
// Routing, first match wins:
//   - two or more names: say_hello_multiple with all of them
//   - exactly one name: say_hello with it, even if it is also a keyword
//   - a greeting keyword: say_hello with DefaultAddressee
//   - otherwise: say_hello with the trimmed message
func (o *Orchestrator) Respond(ctx context.Context, userText string) (string, error) {
	names := intent.Extract(userText)

	var (
		res   toolclient.Result
		err   error
		route string
	)
	switch {
	case len(names) > 1:
		route = "multiple"
		res, err = o.greeter.SayHelloMultiple(ctx, names)
	case len(names) == 1:
		route = "single"
		res, err = o.greeter.SayHello(ctx, names[0])
	case hasKeyword(strings.ToLower(userText)):
		route = "keyword"
		res, err = o.greeter.SayHello(ctx, DefaultAddressee)
	default:
		route = "raw"
		res, err = o.greeter.SayHello(ctx, strings.TrimSpace(userText))
	}
	if err != nil {
		return "", err
	}

	o.logger.Debug("greeting routed", "route", route, "names", len(names))
	return res.TextOr(NoResult), nil
}

func hasKeyword(lower string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
