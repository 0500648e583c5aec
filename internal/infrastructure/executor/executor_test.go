package executor_test

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/doeshing/goalrun/internal/infrastructure/executor"
)

type blockEverything struct{}

func (blockEverything) IsDangerous(string) bool { return true }

type blockNothing struct{}

func (blockNothing) IsDangerous(string) bool { return false }

func testShell(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests drive /bin/sh")
	}
	return "/bin/sh"
}

// TestExecute_BlockedCommandNeverReachesShell tests the refusal normal form
func TestExecute_BlockedCommandNeverReachesShell(t *testing.T) {
	// A nonexistent shell would turn any spawn attempt into a different
	// error message, so the blocked result proves the short-circuit.
	e := executor.NewShellExecutor("/nonexistent/never-a-shell", time.Second, blockEverything{}, nil)

	result := e.Execute(context.Background(), "rm -rf /")

	if result.Stderr != executor.BlockedMessage {
		t.Errorf("got stderr %q, want %q", result.Stderr, executor.BlockedMessage)
	}
	if result.ExitCode != -1 {
		t.Errorf("got exit code %d, want -1", result.ExitCode)
	}
	if result.Succeeded {
		t.Error("blocked command must not be marked successful")
	}
	if result.Stdout != "" {
		t.Errorf("blocked command should have empty stdout, got %q", result.Stdout)
	}
}

// TestExecute_Success tests a plain successful command
func TestExecute_Success(t *testing.T) {
	e := executor.NewShellExecutor(testShell(t), 10*time.Second, blockNothing{}, nil)

	result := e.Execute(context.Background(), "echo hello")

	if !result.Succeeded {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.ExitCode != 0 {
		t.Errorf("got exit code %d, want 0", result.ExitCode)
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Errorf("got stdout %q, want hello", result.Stdout)
	}
}

// TestExecute_NonZeroExit tests exit code propagation
func TestExecute_NonZeroExit(t *testing.T) {
	e := executor.NewShellExecutor(testShell(t), 10*time.Second, blockNothing{}, nil)

	result := e.Execute(context.Background(), "exit 3")

	if result.Succeeded {
		t.Error("nonzero exit must not be successful")
	}
	if result.ExitCode != 3 {
		t.Errorf("got exit code %d, want 3", result.ExitCode)
	}
}

// TestExecute_CapturesStderr tests stderr capture on failure
func TestExecute_CapturesStderr(t *testing.T) {
	e := executor.NewShellExecutor(testShell(t), 10*time.Second, blockNothing{}, nil)

	result := e.Execute(context.Background(), "echo oops 1>&2; exit 1")

	if !strings.Contains(result.Stderr, "oops") {
		t.Errorf("stderr not captured: %+v", result)
	}
	if result.ExitCode != 1 {
		t.Errorf("got exit code %d, want 1", result.ExitCode)
	}
}

// TestExecute_Timeout tests that a hung command is killed and normalized
func TestExecute_Timeout(t *testing.T) {
	e := executor.NewShellExecutor(testShell(t), time.Second, blockNothing{}, nil)

	start := time.Now()
	result := e.Execute(context.Background(), "sleep 30")
	elapsed := time.Since(start)

	if elapsed > 5*time.Second {
		t.Fatalf("timeout did not kill the command, took %v", elapsed)
	}
	if result.Stderr != "Command timed out after 1 seconds" {
		t.Errorf("got stderr %q", result.Stderr)
	}
	if result.ExitCode != -1 {
		t.Errorf("got exit code %d, want -1", result.ExitCode)
	}
	if result.Succeeded {
		t.Error("timed out command must not be successful")
	}
}

// TestExecute_TimeoutKillsChildren tests that spawned children die with the
// shell by racing a background sleep against the deadline
func TestExecute_TimeoutKillsChildren(t *testing.T) {
	e := executor.NewShellExecutor(testShell(t), time.Second, blockNothing{}, nil)

	start := time.Now()
	result := e.Execute(context.Background(), "sleep 30 & wait")
	elapsed := time.Since(start)

	if elapsed > 5*time.Second {
		t.Fatalf("process group survived the timeout, took %v", elapsed)
	}
	if result.Succeeded {
		t.Errorf("expected failure, got %+v", result)
	}
}

// TestExecute_SpawnFailure tests the unstartable-shell normal form
func TestExecute_SpawnFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("tests drive /bin/sh")
	}
	e := executor.NewShellExecutor("/nonexistent/never-a-shell", time.Second, blockNothing{}, nil)

	result := e.Execute(context.Background(), "echo hi")

	if result.ExitCode != -1 {
		t.Errorf("got exit code %d, want -1", result.ExitCode)
	}
	if result.Succeeded {
		t.Error("spawn failure must not be successful")
	}
	if result.Stderr == "" {
		t.Error("spawn failure should explain itself in stderr")
	}
}

// TestNewShellExecutor_ShellFallback tests shell resolution
func TestNewShellExecutor_ShellFallback(t *testing.T) {
	t.Setenv("SHELL", "")
	e := executor.NewShellExecutor("", time.Second, blockNothing{}, nil)
	if e.Shell() != "/bin/sh" {
		t.Errorf("got shell %q, want /bin/sh", e.Shell())
	}

	t.Setenv("SHELL", "/bin/bash")
	e = executor.NewShellExecutor("", time.Second, blockNothing{}, nil)
	if e.Shell() != "/bin/bash" {
		t.Errorf("got shell %q, want /bin/bash", e.Shell())
	}

	e = executor.NewShellExecutor("/bin/zsh", time.Second, blockNothing{}, nil)
	if e.Shell() != "/bin/zsh" {
		t.Errorf("explicit shell lost, got %q", e.Shell())
	}
}
