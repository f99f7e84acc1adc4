// Package toolclient calls tools on a remote MCP server.
//
// Every operation opens its own transport and session, issues exactly one
// request and tears both down before returning, on success and on every
// failure path. Nothing is cached between calls and nothing is retried, so a
// Client is safe for concurrent use without locking.
package toolclient

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/hellomcp/internal/version"
)

// TransportFunc returns a fresh, unconnected transport for one call.
type TransportFunc func(ctx context.Context) (mcp.Transport, error)

// Client talks to a single MCP endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	transport  TransportFunc
	impl       *mcp.Implementation
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used by the streamable HTTP transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTransport replaces the streamable HTTP transport. The endpoint is then
// only used in log output.
func WithTransport(fn TransportFunc) Option {
	return func(c *Client) { c.transport = fn }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client for the MCP endpoint URL. The endpoint is used as is.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		impl:       &mcp.Implementation{Name: "hellomcp", Version: version.Version},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

// CallTool invokes req.Tool once and extracts the text of the first content
// entry of the reply.
func (c *Client) CallTool(ctx context.Context, req Request) (Result, error) {
	var out Result
	err := c.withSession(ctx, "call_tool", req.Tool(), func(ctx context.Context, cs *mcp.ClientSession) error {
		res, err := cs.CallTool(ctx, &mcp.CallToolParams{
			Name:      req.Tool(),
			Arguments: req.Arguments(),
		})
		if err != nil {
			return &Error{Kind: KindInvocation, Op: "call_tool", Tool: req.Tool(), Err: err}
		}
		text, ok := firstText(res)
		if res.IsError {
			if !ok {
				text = "no details"
			}
			return &Error{Kind: KindInvocation, Op: "call_tool", Tool: req.Tool(), Err: toolFailure(text)}
		}
		if ok {
			out = TextResult(text)
		}
		return nil
	})
	return out, err
}

// ListTools returns the name and description of every tool the server
// advertises, following pagination cursors within the same session.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	var out []ToolInfo
	err := c.withSession(ctx, "list_tools", "", func(ctx context.Context, cs *mcp.ClientSession) error {
		params := &mcp.ListToolsParams{}
		for {
			res, err := cs.ListTools(ctx, params)
			if err != nil {
				return &Error{Kind: KindInvocation, Op: "list_tools", Err: err}
			}
			for _, t := range res.Tools {
				info := ToolInfo{Name: t.Name, Description: t.Description}
				if t.InputSchema != nil {
					if raw, err := json.Marshal(t.InputSchema); err == nil {
						info.InputSchema = raw
					}
				}
				out = append(out, info)
			}
			if res.NextCursor == "" {
				return nil
			}
			params = &mcp.ListToolsParams{Cursor: res.NextCursor}
		}
	})
	return out, err
}

// withSession opens a transport, initializes a session on it, runs fn and
// releases the session and then the transport, whatever the outcome.
func (c *Client) withSession(ctx context.Context, op, tool string, fn func(context.Context, *mcp.ClientSession) error) error {
	log := c.logger.With("endpoint", c.endpoint, "op", op)
	if tool != "" {
		log = log.With("tool", tool)
	}

	st, err := c.openTransport(ctx)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Tool: tool, Err: err}
	}
	defer st.release()

	client := mcp.NewClient(c.impl, nil)
	cs, err := client.Connect(ctx, st, nil)
	if err != nil {
		kind := KindSession
		if !st.connected() || st.networkError() != nil {
			kind = KindTransport
		}
		log.Debug("mcp session setup failed", "kind", kind.String(), "error", err)
		return &Error{Kind: kind, Op: op, Tool: tool, Err: err}
	}
	defer func() {
		if cerr := cs.Close(); cerr != nil {
			log.Debug("mcp session close", "error", cerr)
		}
	}()

	log.Debug("mcp session ready", "session", cs.ID())
	return fn(ctx, cs)
}

func (c *Client) openTransport(ctx context.Context) (*scopedTransport, error) {
	st := &scopedTransport{}
	if c.transport != nil {
		inner, err := c.transport(ctx)
		if err != nil {
			return nil, err
		}
		st.inner = inner
		return st, nil
	}

	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := *c.httpClient
	hc.Transport = &recordingRoundTripper{base: base, record: st.recordNetworkError}
	st.inner = &mcp.StreamableClientTransport{
		Endpoint:             c.endpoint,
		HTTPClient:           &hc,
		MaxRetries:           -1,
		DisableStandaloneSSE: true,
	}
	return st, nil
}

// scopedTransport owns the connection made by the wrapped transport so that
// it can be closed even when the SDK gives up on it without closing it (for
// example on a protocol version mismatch).
type scopedTransport struct {
	inner mcp.Transport

	mu     sync.Mutex
	conn   mcp.Connection
	netErr error
}

func (t *scopedTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	conn, err := t.inner.Connect(ctx)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return conn, nil
}

func (t *scopedTransport) connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

func (t *scopedTransport) recordNetworkError(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	t.mu.Lock()
	if t.netErr == nil {
		t.netErr = err
	}
	t.mu.Unlock()
}

func (t *scopedTransport) networkError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.netErr
}

// release closes the connection. Connections tolerate repeated Close calls,
// so it does not matter whether the session already closed it.
func (t *scopedTransport) release() {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

type recordingRoundTripper struct {
	base   http.RoundTripper
	record func(error)
}

func (rt *recordingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		rt.record(err)
	}
	return resp, err
}

func firstText(res *mcp.CallToolResult) (string, bool) {
	if res == nil || len(res.Content) == 0 {
		return "", false
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		return "", false
	}
	return tc.Text, true
}

type toolFailure string

func (f toolFailure) Error() string { return string(f) }

func (f toolFailure) Unwrap() error { return ErrToolFailed }
