package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/freema/agentlink/internal/apperror"
)

func TestRunEcho(t *testing.T) {
	r := NewSubprocess()

	result, err := r.Run(context.Background(), Options{
		Command: "echo",
		Args:    []string{"hello", "world"},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.ExitCode != 0 {
		t.Errorf("expected exit 0, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Stdout, "hello world") {
		t.Errorf("unexpected stdout: %q", result.Stdout)
	}
	if result.TimedOut {
		t.Error("timeout flag should not be set")
	}
}

func TestRunDeliversPromptOnStdin(t *testing.T) {
	r := NewSubprocess()

	result, err := r.Run(context.Background(), Options{
		Command: "cat",
		Prompt:  "prompt over stdin",
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// cat only terminates if stdin was closed after the prompt was written.
	if result.Stdout != "prompt over stdin" {
		t.Errorf("expected prompt echoed back, got %q", result.Stdout)
	}
}

func TestRunTimeout(t *testing.T) {
	r := NewSubprocess()

	start := time.Now()
	result, err := r.Run(context.Background(), Options{
		Command: "sleep",
		Args:    []string{"30"},
		Timeout: 1 * time.Second,
	})
	elapsed := time.Since(start)

	if !errors.Is(err, apperror.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if result == nil || !result.TimedOut {
		t.Fatal("expected result with timeout flag set")
	}
	if elapsed > 8*time.Second {
		t.Errorf("run should return shortly after the timeout, took %s", elapsed)
	}
}

func TestRunTimeoutPartialOutput(t *testing.T) {
	r := NewSubprocess()

	result, err := r.Run(context.Background(), Options{
		Command: "sh",
		Args:    []string{"-c", "echo partial; sleep 30"},
		Timeout: 1 * time.Second,
	})
	if !errors.Is(err, apperror.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !strings.Contains(result.Stdout, "partial") {
		t.Errorf("expected partial output to be captured, got %q", result.Stdout)
	}
}

func TestRunKillsChildProcesses(t *testing.T) {
	r := NewSubprocess()

	// The shell spawns a grandchild that writes a marker after the timeout.
	// If the process group kill works, the marker never appears.
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")

	_, err := r.Run(context.Background(), Options{
		Command: "sh",
		Args:    []string{"-c", "(sleep 3; touch " + marker + ") & wait"},
		Timeout: 1 * time.Second,
	})
	if !errors.Is(err, apperror.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	time.Sleep(3 * time.Second)
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("grandchild process survived the process group kill")
	}
}

func TestRunNonZeroExitIsNotError(t *testing.T) {
	r := NewSubprocess()

	result, err := r.Run(context.Background(), Options{
		Command: "sh",
		Args:    []string{"-c", "echo oops >&2; exit 3"},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("non-zero exit should not be an error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("expected exit 3, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "oops") {
		t.Errorf("expected stderr captured, got %q", result.Stderr)
	}
}

func TestRunExecutableNotFound(t *testing.T) {
	r := NewSubprocess()

	_, err := r.Run(context.Background(), Options{
		Command: "definitely-not-a-real-binary-12345",
		Timeout: 10 * time.Second,
	})
	if !errors.Is(err, apperror.ErrExecutableNotFound) {
		t.Fatalf("expected ErrExecutableNotFound, got %v", err)
	}
}

func TestRunEnvPropagation(t *testing.T) {
	r := NewSubprocess()

	result, err := r.Run(context.Background(), Options{
		Command: "sh",
		Args:    []string{"-c", "echo $AGENTLINK_TEST_VAR"},
		Env:     map[string]string{"AGENTLINK_TEST_VAR": "from-config"},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(result.Stdout, "from-config") {
		t.Errorf("expected env var in output, got %q", result.Stdout)
	}
}

func TestRunWorkingDir(t *testing.T) {
	r := NewSubprocess()
	dir := t.TempDir()

	result, err := r.Run(context.Background(), Options{
		Command: "pwd",
		WorkDir: dir,
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Resolve symlinks (macOS tempdirs) before comparing.
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(result.Stdout))
	if got != want {
		t.Errorf("expected working dir %q, got %q", want, got)
	}
}

func TestRunOutputCapture(t *testing.T) {
	r := NewSubprocess()

	result, err := r.Run(context.Background(), Options{
		Command: "sh",
		Args:    []string{"-c", `echo "captured result" > "$1"`, "--"},
		Capture: &Capture{FlagTemplate: "{path}", Cleanup: true},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(result.Stdout, "captured result") {
		t.Errorf("expected file contents as stdout, got %q", result.Stdout)
	}
}

func TestRunCaptureTemplateMissingPlaceholder(t *testing.T) {
	r := NewSubprocess()

	_, err := r.Run(context.Background(), Options{
		Command: "echo",
		Capture: &Capture{FlagTemplate: "--output"},
		Timeout: 10 * time.Second,
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad template, got %v", err)
	}
}
