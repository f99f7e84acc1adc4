package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Consecutive guards with the same return can be merged with ||.
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic`)
}

// errorWrapping keeps error chains intact so errors.Is and errors.As reach
// sentinels and *toolclient.Error.
func errorWrapping(m dsl.Matcher) {
	m.Match(`fmt.Errorf($f, $*_, $err)`).
		Where(m["f"].Text.Matches(`%v"$`) && m["err"].Type.Is(`error`)).
		Report(`error formatted with %v loses the chain; use %w`)

	m.Match(`errors.New(fmt.Sprintf($*args))`).
		Report(`use fmt.Errorf instead of errors.New(fmt.Sprintf(...))`).
		Suggest(`fmt.Errorf($args)`)
}

// logging keeps every package on the injected *slog.Logger.
func logging(m dsl.Matcher) {
	m.Import(`log`)
	m.Match(`log.Printf($*_)`, `log.Println($*_)`, `log.Print($*_)`, `log.Fatalf($*_)`, `log.Fatal($*_)`).
		Where(!m.File().PkgPath.Matches(`/cmd/`)).
		Report(`use the injected *slog.Logger instead of the log package`)
}

// sessions flags MCP sessions that are opened without being closed in the
// same function.
func sessions(m dsl.Matcher) {
	m.Import(`github.com/modelcontextprotocol/go-sdk/mcp`)
	m.Match(`$cs, $err := $c.Connect($ctx, $t, $opts); $*body`).
		Where(m["c"].Type.Is(`*mcp.Client`) && !m["body"].Contains(`$cs.Close()`)).
		Report(`MCP client session is never closed`)
}
