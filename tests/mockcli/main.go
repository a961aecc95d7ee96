// Mock agent CLI for integration testing.
// Reads its prompt from stdin and emits stream-json events.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

func main() {
	outputFormat := flag.String("output-format", "stream-json", "output format")
	_ = flag.Bool("verbose", false, "verbose")
	_ = flag.String("model", "", "model")
	flag.Parse()

	raw, _ := io.ReadAll(os.Stdin)
	prompt := strings.TrimSpace(string(raw))

	// Special prompts trigger failure-mode behaviors
	switch prompt {
	case "TIMEOUT":
		time.Sleep(10 * time.Minute)
	case "FAIL":
		fmt.Fprintln(os.Stderr, "mock CLI: simulated failure")
		os.Exit(1)
	case "EMPTY":
		os.Exit(0)
	case "GARBAGE":
		fmt.Println("this is not json at all")
		os.Exit(0)
	}

	if *outputFormat == "text" {
		fmt.Printf("Processed prompt: %s\n", truncate(prompt, 100))
		return
	}

	events := []map[string]any{
		{
			"type":       "content_block_delta",
			"session_id": "mock-session",
			"delta": map[string]any{
				"type": "text_delta",
				"text": "Task completed successfully. ",
			},
		},
		{
			"type": "content_block_delta",
			"delta": map[string]any{
				"type": "text_delta",
				"text": fmt.Sprintf("Processed prompt: %s", truncate(prompt, 100)),
			},
		},
		{
			"type": "message_delta",
			"usage": map[string]any{
				"input_tokens":  150,
				"output_tokens": 50,
			},
		},
		{
			"type":   "result",
			"result": fmt.Sprintf("Task completed successfully. Processed prompt: %s", truncate(prompt, 100)),
		},
	}

	enc := json.NewEncoder(os.Stdout)
	for _, event := range events {
		time.Sleep(20 * time.Millisecond) // Simulate streaming delay
		enc.Encode(event)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
