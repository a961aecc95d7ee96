package parser

import (
	"strings"

	"github.com/freema/agentlink/internal/runner"
)

// Plain is the default passthrough parser for CLIs that emit unstructured
// text. Every input is well-formed for this dialect.
type Plain struct{}

// NewPlain creates the plain-text passthrough parser.
func NewPlain() *Plain {
	return &Plain{}
}

// Parse returns stdout as the response text, falling back to stderr when
// stdout is empty (error transcripts from failed runs).
func (p *Plain) Parse(result *runner.Result) *Response {
	text, fromStderr := fallbackText(result)

	meta := map[string]any{}
	if fromStderr && text != "" {
		meta["source"] = "stderr"
	}
	if result.ExitCode != 0 {
		meta["exit_code"] = result.ExitCode
	}
	if len(meta) == 0 {
		meta = nil
	}

	return &Response{
		Text:        text,
		Metadata:    meta,
		FullyParsed: true,
	}
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
