package parser

import (
	"encoding/json"

	"github.com/freema/agentlink/internal/runner"
)

// JSON parses CLIs that emit a single JSON document on stdout. The response
// text is taken from the first of the well-known fields "response",
// "result", "content" or "text"; model and token usage are surfaced as
// metadata when present.
type JSON struct{}

// NewJSON creates the structured-JSON parser.
func NewJSON() *JSON {
	return &JSON{}
}

var jsonTextFields = []string{"response", "result", "content", "text"}

func (p *JSON) Parse(result *runner.Result) *Response {
	raw := trimmed(result.Stdout)
	if raw == "" {
		text, _ := fallbackText(result)
		return &Response{Text: text, FullyParsed: false}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return &Response{Text: raw, FullyParsed: false}
	}

	var text string
	for _, field := range jsonTextFields {
		rawField, ok := doc[field]
		if !ok {
			continue
		}
		if err := json.Unmarshal(rawField, &text); err == nil && text != "" {
			break
		}
		text = ""
	}
	if text == "" {
		// Parsable JSON but no recognizable payload: degrade to raw.
		return &Response{Text: raw, FullyParsed: false}
	}

	meta := map[string]any{}
	var model string
	if rawModel, ok := doc["model"]; ok {
		if err := json.Unmarshal(rawModel, &model); err == nil && model != "" {
			meta["model"] = model
		}
	}
	if rawUsage, ok := doc["usage"]; ok {
		var usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		}
		if err := json.Unmarshal(rawUsage, &usage); err == nil {
			if usage.InputTokens > 0 {
				meta["input_tokens"] = usage.InputTokens
			}
			if usage.OutputTokens > 0 {
				meta["output_tokens"] = usage.OutputTokens
			}
		}
	}
	if stderr := trimmed(result.Stderr); stderr != "" {
		meta["stderr"] = stderr
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
