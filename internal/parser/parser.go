// Package parser normalizes raw CLI output into a uniform response.
//
// Each parser understands one output dialect. External CLI output is
// untrusted: when the expected structure is absent a parser degrades to raw
// passthrough with FullyParsed cleared instead of failing the call.
package parser

import "github.com/freema/agentlink/internal/runner"

// Response is the normalized output of a CLI invocation.
type Response struct {
	Text        string
	Metadata    map[string]any
	FullyParsed bool
}

// Parser converts a raw execution result into a normalized response.
// Parse never returns an error; at worst the response is degraded.
type Parser interface {
	Parse(result *runner.Result) *Response
}

// fallbackText picks the raw text for a degraded or passthrough response:
// stdout when present, stderr otherwise.
func fallbackText(result *runner.Result) (text string, fromStderr bool) {
	if s := trimmed(result.Stdout); s != "" {
		return s, false
	}
	return trimmed(result.Stderr), true
}
