package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/freema/agentlink/internal/apperror"
)

// Subprocess is the default Runner. It spawns the CLI in its own process
// group, writes the prompt to stdin and closes it, and kills the whole
// group when the timeout expires so no grandchild processes are orphaned.
type Subprocess struct{}

// NewSubprocess creates the default subprocess runner.
func NewSubprocess() *Subprocess {
	return &Subprocess{}
}

// Run executes the CLI and blocks until exit or timeout.
func (s *Subprocess) Run(ctx context.Context, opts Options) (*Result, error) {
	if _, err := exec.LookPath(opts.Command); err != nil {
		return nil, apperror.ExecutableNotFound("command %q not found: %v", opts.Command, err)
	}

	args := append([]string(nil), opts.Args...)

	var captureFile string
	if opts.Capture != nil {
		flagArgs, path, err := prepareCapture(opts.Capture)
		if err != nil {
			return nil, err
		}
		captureFile = path
		if opts.Capture.Cleanup {
			defer os.Remove(captureFile)
		}
		args = append(args, flagArgs...)
	}

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, opts.Command, args...)
	cmd.Stdin = strings.NewReader(opts.Prompt)
	cmd.Dir = opts.WorkDir
	cmd.Env = mergeEnv(opts.Env)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	// On cancellation, kill the whole process group rather than just the
	// direct child.
	cmd.Cancel = func() error {
		killProcessGroup(cmd)
		return nil
	}
	cmd.WaitDelay = 5 * time.Second

	startTime := time.Now()
	runErr := cmd.Run()
	duration := time.Since(startTime)

	result := &Result{
		ExitCode: -1,
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: duration,
		TimedOut: errors.Is(runCtx.Err(), context.DeadlineExceeded),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if captureFile != "" {
		if data, err := os.ReadFile(captureFile); err == nil && len(data) > 0 {
			result.Stdout = string(data)
		}
	}

	if result.TimedOut {
		slog.Warn("CLI run timed out",
			"command", opts.Command,
			"timeout", opts.Timeout,
			"duration", duration,
		)
		return result, apperror.Timeout("command %q exceeded %s", opts.Command, opts.Timeout)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			// Non-zero exit: the process ran. Report the exit code as data.
			slog.Warn("CLI exited with error",
				"command", opts.Command,
				"exit_code", result.ExitCode,
				"duration", duration,
			)
			return result, nil
		}
		return nil, apperror.ExecutableNotFound("launching %q: %v", opts.Command, runErr)
	}

	slog.Debug("CLI run completed",
		"command", opts.Command,
		"exit_code", result.ExitCode,
		"duration", duration,
	)
	return result, nil
}

// prepareCapture creates a temporary output file and expands the flag
// template into the arguments that point the CLI at it.
func prepareCapture(c *Capture) ([]string, string, error) {
	if !strings.Contains(c.FlagTemplate, "{path}") {
		return nil, "", apperror.Validation("output capture flag template %q is missing {path}", c.FlagTemplate)
	}

	tmp, err := os.CreateTemp("", "agentlink-output-*.txt")
	if err != nil {
		return nil, "", apperror.Internal("creating capture file: %v", err)
	}
	path := tmp.Name()
	tmp.Close()

	fields := strings.Fields(c.FlagTemplate)
	args := make([]string, 0, len(fields))
	for _, f := range fields {
		args = append(args, strings.ReplaceAll(f, "{path}", path))
	}
	return args, path, nil
}

func mergeEnv(extra map[string]string) []string {
	if len(extra) == 0 {
		return nil // inherit parent environment
	}
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

// killProcessGroup sends SIGKILL to the entire process group.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
		return
	}
	_ = cmd.Process.Kill()
}
