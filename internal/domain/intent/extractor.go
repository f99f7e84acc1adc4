// Package intent turns free-form greeting requests into the list of names the
// greeting tools expect. Extraction is pure: no I/O and no case folding.
package intent

import (
	"regexp"
	"strings"
)

// captureKind tells Extract how to treat a rule's submatches.
type captureKind int

const (
	// captureToken keeps every non-empty submatch as one name.
	captureToken captureKind = iota
	// captureRemainder splits the single submatch into several names.
	captureRemainder
)

// rule is one compiled extraction pattern.
type rule struct {
	name    string
	pattern *regexp.Regexp
	kind    captureKind
}

// word matches a run of Unicode letters, marks, digits and underscores. Go's \w is
// ASCII-only, which would never match Hangul names.
const word = `[\p{L}\p{M}\p{N}_]+`

// rules are applied in order and all of them run against the same input.
var rules = []rule{
	{
		// "김철수에게", "철수한테", "영희님께"
		name:    "dative",
		pattern: regexp.MustCompile(`(` + word + `)(?:에게|한테|님께)`),
		kind:    captureToken,
	},
	{
		// "이영희, ", "Alice and ", "철수 그리고 "
		name:    "connector",
		pattern: regexp.MustCompile(`(` + word + `)(?:,\s*|\s+and\s+|\s+그리고\s+)`),
		kind:    captureToken,
	},
	{
		// "인사해줘 철수, 영희 and 민수". The remainder may be empty so that
		// 줘 is always consumed by the trigger rather than captured as a name.
		name:    "imperative",
		pattern: regexp.MustCompile(`인사해\s*줘?\s*(.*)`),
		kind:    captureRemainder,
	},
}

// listSeparator splits an imperative remainder into names.
var listSeparator = regexp.MustCompile(`[,\s]+(?:and|그리고)?\s*`)

// Extract returns the names found in text, deduplicated, in the order they
// were first captured. Text matching no rule yields an empty slice.
func Extract(text string) []string {
	var names []string
	for _, r := range rules {
		for _, m := range r.pattern.FindAllStringSubmatch(text, -1) {
			names = append(names, r.captures(m[1:])...)
		}
	}
	return dedupe(names)
}

func (r rule) captures(groups []string) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		switch r.kind {
		case captureRemainder:
			for _, part := range listSeparator.Split(g, -1) {
				out = appendTrimmed(out, part)
			}
		default:
			out = appendTrimmed(out, g)
		}
	}
	return out
}

func appendTrimmed(dst []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		dst = append(dst, s)
	}
	return dst
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
