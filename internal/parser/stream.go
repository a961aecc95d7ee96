package parser

import (
	"bufio"
	"encoding/json"
	"strings"

	"github.com/freema/agentlink/internal/runner"
)

// Stream parses the newline-delimited JSON event stream emitted by
// claude-style CLIs (`--output-format stream-json`). Each line is one
// event:
//   - content_block_delta with a text_delta: incremental response text
//   - assistant: complete message segments with text content blocks
//   - message_delta with usage: token counts
//   - result: terminal event carrying the aggregated result text
type Stream struct{}

// NewStream creates the stream-json parser.
func NewStream() *Stream {
	return &Stream{}
}

func (p *Stream) Parse(result *runner.Result) *Response {
	var (
		deltaText    strings.Builder
		assistant    []string
		terminal     string
		sessionID    string
		model        string
		inputTokens  int
		outputTokens int
		parsed       int
	)

	scanner := bufio.NewScanner(strings.NewReader(result.Stdout))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB line budget

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}

		var event map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}

		var eventType string
		if err := json.Unmarshal(event["type"], &eventType); err != nil {
			continue
		}
		parsed++

		if sessionID == "" {
			if raw, ok := event["session_id"]; ok {
				_ = json.Unmarshal(raw, &sessionID)
			}
		}

		switch eventType {
		case "content_block_delta":
			var delta struct {
				Delta struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"delta"`
			}
			if err := json.Unmarshal([]byte(line), &delta); err == nil && delta.Delta.Type == "text_delta" {
				deltaText.WriteString(delta.Delta.Text)
			}

		case "assistant":
			var msg struct {
				Message struct {
					Model   string `json:"model"`
					Content []struct {
						Type string `json:"type"`
						Text string `json:"text"`
					} `json:"content"`
				} `json:"message"`
			}
			if err := json.Unmarshal([]byte(line), &msg); err != nil {
				continue
			}
			if msg.Message.Model != "" {
				model = msg.Message.Model
			}
			for _, block := range msg.Message.Content {
				if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
					assistant = append(assistant, strings.TrimSpace(block.Text))
				}
			}

		case "message_delta":
			var msg struct {
				Usage struct {
					InputTokens  int `json:"input_tokens"`
					OutputTokens int `json:"output_tokens"`
				} `json:"usage"`
			}
			if err := json.Unmarshal([]byte(line), &msg); err == nil {
				inputTokens += msg.Usage.InputTokens
				outputTokens += msg.Usage.OutputTokens
			}

		case "result":
			var res struct {
				Result string `json:"result"`
			}
			if err := json.Unmarshal([]byte(line), &res); err == nil {
				terminal = strings.TrimSpace(res.Result)
			}
		}
	}

	// Prefer the terminal result's aggregated text, then accumulated
	// deltas, then complete assistant segments.
	text := terminal
	if text == "" {
		text = strings.TrimSpace(deltaText.String())
	}
	if text == "" && len(assistant) > 0 {
		text = strings.Join(assistant, "\n\n")
	}

	if text == "" {
		raw, _ := fallbackText(result)
		return &Response{Text: raw, FullyParsed: false}
	}

	meta := map[string]any{"events": parsed}
	if model != "" {
		meta["model"] = model
	}
	if sessionID != "" {
		meta["session_id"] = sessionID
	}
	if inputTokens > 0 {
		meta["input_tokens"] = inputTokens
	}
	if outputTokens > 0 {
		meta["output_tokens"] = outputTokens
	}

	return &Response{
		Text:        text,
		Metadata:    meta,
		FullyParsed: true,
	}
}
