// Package runner executes external CLI agents as subprocesses and captures
// their raw output.
package runner

import (
	"context"
	"time"
)

// Runner is the interface for CLI process execution. Implementations spawn
// the process, deliver the prompt on stdin, enforce the timeout and capture
// output. A non-zero exit is data, not an error; only launch failures and
// timeouts are returned as errors.
type Runner interface {
	Run(ctx context.Context, opts Options) (*Result, error)
}

// Capture configures CLIs that can only write their result to disk. The
// flag template must contain the {path} placeholder, which is replaced with
// a temporary file path injected into the argument list.
type Capture struct {
	FlagTemplate string
	Cleanup      bool
}

// Options configures a single CLI run.
type Options struct {
	Command string
	Args    []string
	Prompt  string
	Timeout time.Duration
	Env     map[string]string
	WorkDir string
	Capture *Capture
}

// Result holds the raw outcome of a process execution.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
}
