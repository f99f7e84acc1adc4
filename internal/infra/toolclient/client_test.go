package toolclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type helloInput struct {
	Name string `json:"name"`
}

type helloMultipleInput struct {
	Names []string `json:"names"`
}

// newHelloServer returns an MCP server exposing the greeting tools plus a
// few tools that misbehave on purpose.
func newHelloServer() *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: "hello-test", Version: "v0.0.1"}, nil)

	mcp.AddTool(s, &mcp.Tool{Name: ToolSayHello, Description: "Greets one person"},
		func(_ context.Context, _ *mcp.CallToolRequest, in helloInput) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: "안녕하세요, " + in.Name + "님!"}},
			}, nil, nil
		})

	mcp.AddTool(s, &mcp.Tool{Name: ToolSayHelloMultiple, Description: "Greets several people"},
		func(_ context.Context, _ *mcp.CallToolRequest, in helloMultipleInput) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: strings.Join(in.Names, "|")}},
			}, nil, nil
		})

	mcp.AddTool(s, &mcp.Tool{Name: "always_fails", Description: "Reports a tool error"},
		func(_ context.Context, _ *mcp.CallToolRequest, _ helloInput) (*mcp.CallToolResult, any, error) {
			return nil, nil, errors.New("name is required")
		})

	s.AddTool(&mcp.Tool{Name: "silent", InputSchema: map[string]any{"type": "object"}},
		func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{}, nil
		})

	return s
}

// inMemory connects a fresh server session for every transport requested and
// counts how many were handed out.
func inMemory(s *mcp.Server, opened *atomic.Int32) TransportFunc {
	return func(ctx context.Context) (mcp.Transport, error) {
		serverT, clientT := mcp.NewInMemoryTransports()
		if _, err := s.Connect(ctx, serverT, nil); err != nil {
			return nil, err
		}
		if opened != nil {
			opened.Add(1)
		}
		return clientT, nil
	}
}

func newTestClient(t *testing.T, opened *atomic.Int32) *Client {
	t.Helper()
	return New("inmemory://hello", WithTransport(inMemory(newHelloServer(), opened)))
}

func TestCallTool_ReturnsFirstTextContent(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	res, err := c.SayHello(context.Background(), "김철수")
	if err != nil {
		t.Fatalf("SayHello returned error: %v", err)
	}
	text, ok := res.Text()
	if !ok {
		t.Fatalf("expected a text result")
	}
	if text != "안녕하세요, 김철수님!" {
		t.Fatalf("text = %q", text)
	}
}

func TestSayHelloMultiple_SendsNamesInOrder(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	res, err := c.SayHelloMultiple(context.Background(), []string{"이영희", "박민수"})
	if err != nil {
		t.Fatalf("SayHelloMultiple returned error: %v", err)
	}
	if got := res.TextOr(""); got != "이영희|박민수" {
		t.Fatalf("text = %q; want names joined in order", got)
	}
}

func TestCallTool_EmptyContentIsAbsent(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	res, err := c.CallTool(context.Background(), NewRequest("silent", nil))
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if _, ok := res.Text(); ok {
		t.Fatalf("expected absent result")
	}
	if got := res.TextOr("fallback"); got != "fallback" {
		t.Fatalf("TextOr = %q; want fallback", got)
	}
}

func TestCallTool_ToolErrorIsInvocationError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	_, err := c.CallTool(context.Background(), NewRequest("always_fails", map[string]any{"name": "x"}))
	if err == nil {
		t.Fatalf("expected error")
	}
	if KindOf(err) != KindInvocation {
		t.Fatalf("kind = %v; want invocation (err=%v)", KindOf(err), err)
	}
	if !errors.Is(err, ErrToolFailed) {
		t.Fatalf("expected ErrToolFailed in chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("error should carry the tool message, got %q", err.Error())
	}
}

func TestCallTool_UnknownToolIsInvocationError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	_, err := c.CallTool(context.Background(), NewRequest("does_not_exist", nil))
	if KindOf(err) != KindInvocation {
		t.Fatalf("kind = %v; want invocation (err=%v)", KindOf(err), err)
	}
}

func TestCallTool_OpensFreshSessionPerCall(t *testing.T) {
	t.Parallel()

	var opened atomic.Int32
	c := newTestClient(t, &opened)
	for i := 0; i < 3; i++ {
		if _, err := c.SayHello(context.Background(), fmt.Sprintf("n%d", i)); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if got := opened.Load(); got != 3 {
		t.Fatalf("opened %d transports; want 3", got)
	}
}

func TestListTools_ReturnsNamesAndDescriptions(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil)
	tools, err := c.ListTools(context.Background())
	if err != nil {
		t.Fatalf("ListTools returned error: %v", err)
	}
	got := map[string]string{}
	for _, tool := range tools {
		got[tool.Name] = tool.Description
	}
	if got[ToolSayHello] != "Greets one person" {
		t.Fatalf("say_hello description = %q", got[ToolSayHello])
	}
	if _, ok := got[ToolSayHelloMultiple]; !ok {
		t.Fatalf("say_hello_multiple missing from %v", got)
	}
}

func TestNewRequest_CopiesArguments(t *testing.T) {
	t.Parallel()

	args := map[string]any{"name": "a"}
	req := NewRequest(ToolSayHello, args)
	args["name"] = "b"
	if got := req.Arguments()["name"]; got != "a" {
		t.Fatalf("request observed caller mutation: %v", got)
	}
	req.Arguments()["name"] = "c"
	if got := req.Arguments()["name"]; got != "a" {
		t.Fatalf("request observed Arguments() mutation: %v", got)
	}
}

func TestCallTool_TransportOpenFailure(t *testing.T) {
	t.Parallel()

	c := New("inmemory://down", WithTransport(func(context.Context) (mcp.Transport, error) {
		return nil, errors.New("dial refused")
	}))
	_, err := c.SayHello(context.Background(), "x")
	if KindOf(err) != KindTransport {
		t.Fatalf("kind = %v; want transport (err=%v)", KindOf(err), err)
	}
}

// fakeConn is a client-side connection whose initialize behavior is scripted.
type fakeConn struct {
	reply    func(*jsonrpc.Request) (jsonrpc.Message, error)
	incoming chan jsonrpc.Message
	done     chan struct{}

	closeOnce sync.Once
	teardowns atomic.Int32
}

func newFakeConn(reply func(*jsonrpc.Request) (jsonrpc.Message, error)) *fakeConn {
	return &fakeConn{reply: reply, incoming: make(chan jsonrpc.Message, 4), done: make(chan struct{})}
}

func (c *fakeConn) Read(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case msg := <-c.incoming:
		return msg, nil
	case <-c.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Write(_ context.Context, msg jsonrpc.Message) error {
	req, ok := msg.(*jsonrpc.Request)
	if !ok || !req.IsCall() {
		return nil
	}
	resp, err := c.reply(req)
	if err != nil {
		return err
	}
	c.incoming <- resp
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() {
		c.teardowns.Add(1)
		close(c.done)
	})
	return nil
}

func (c *fakeConn) SessionID() string { return "" }

type fakeTransport struct{ conn *fakeConn }

func (t fakeTransport) Connect(context.Context) (mcp.Connection, error) { return t.conn, nil }

func TestCallTool_InitializeFailureTearsDownTransportOnce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply func(*jsonrpc.Request) (jsonrpc.Message, error)
	}{
		{
			name: "handshake write fails",
			reply: func(*jsonrpc.Request) (jsonrpc.Message, error) {
				return nil, errors.New("handshake rejected")
			},
		},
		{
			name: "initialize rejected",
			reply: func(req *jsonrpc.Request) (jsonrpc.Message, error) {
				return &jsonrpc.Response{ID: req.ID, Error: &jsonrpc.Error{Code: jsonrpc.CodeInvalidRequest, Message: "initialize rejected"}}, nil
			},
		},
		{
			name: "protocol version mismatch",
			reply: func(req *jsonrpc.Request) (jsonrpc.Message, error) {
				return &jsonrpc.Response{ID: req.ID, Result: json.RawMessage(
					`{"protocolVersion":"1999-01-01","capabilities":{},"serverInfo":{"name":"legacy","version":"0.1"}}`,
				)}, nil
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			conn := newFakeConn(tc.reply)
			c := New("fake://", WithTransport(func(context.Context) (mcp.Transport, error) {
				return fakeTransport{conn: conn}, nil
			}))

			_, err := c.SayHello(context.Background(), "x")
			if KindOf(err) != KindSession {
				t.Fatalf("kind = %v; want session (err=%v)", KindOf(err), err)
			}
			if got := conn.teardowns.Load(); got != 1 {
				t.Fatalf("connection torn down %d times; want exactly 1", got)
			}
		})
	}
}

func TestCallTool_StreamableHTTP(t *testing.T) {
	t.Parallel()

	s := newHelloServer()
	ts := httptest.NewServer(mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s }, nil))
	t.Cleanup(ts.Close)

	c := New(ts.URL, WithHTTPClient(ts.Client()))
	res, err := c.SayHello(context.Background(), "영희")
	if err != nil {
		t.Fatalf("SayHello over HTTP returned error: %v", err)
	}
	if got := res.TextOr(""); got != "안녕하세요, 영희님!" {
		t.Fatalf("text = %q", got)
	}

	tools, err := c.ListTools(context.Background())
	if err != nil {
		t.Fatalf("ListTools over HTTP returned error: %v", err)
	}
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	if len(names) < 2 {
		t.Fatalf("expected at least two tools, got %v", names)
	}
}

func TestCallTool_UnreachableEndpointIsTransportError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := New(url + "/mcp")
	_, err := c.SayHello(context.Background(), "x")
	if err == nil {
		t.Fatalf("expected error for closed endpoint")
	}
	if KindOf(err) != KindTransport {
		t.Fatalf("kind = %v; want transport (err=%v)", KindOf(err), err)
	}
}
