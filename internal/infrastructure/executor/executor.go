// Package executor runs shell commands on the host and reduces every
// outcome, including refusals and timeouts, to a normalized result.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/ports"
)

// BlockedMessage is what a denied command reports instead of running.
const BlockedMessage = "Command blocked due to security concerns"

// ShellExecutor runs commands with `shell -c` under a per-command timeout.
type ShellExecutor struct {
	shell   string
	timeout time.Duration
	filter  ports.SafetyFilter
	logger  ports.Logger
}

// NewShellExecutor builds a new executor, shell defaults to $SHELL then /bin/sh.
func NewShellExecutor(shell string, timeout time.Duration, filter ports.SafetyFilter, logger ports.Logger) *ShellExecutor {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return &ShellExecutor{shell: shell, timeout: timeout, filter: filter, logger: logger}
}

// Shell reports the shell binary commands run under.
func (e *ShellExecutor) Shell() string {
	return e.shell
}

// Execute implements ports.CommandExecutor. It never returns an error:
// blocked commands, timeouts, and spawn failures come back as results with
// ExitCode -1 and the explanation in Stderr.
func (e *ShellExecutor) Execute(ctx context.Context, command string) domain.ExecutionResult {
	if e.filter != nil && e.filter.IsDangerous(command) {
		e.warn("potentially dangerous command detected", map[string]interface{}{"command": command})
		return domain.ExecutionResult{
			Stderr:   BlockedMessage,
			ExitCode: -1,
		}
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.Command(e.shell, "-c", command)
	configureCommandProcess(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.info("executing command", map[string]interface{}{"command": command})

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return domain.ExecutionResult{
			Stderr:   err.Error(),
			ExitCode: -1,
		}
	}

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-waitDone:
	case <-runCtx.Done():
		// Take down the whole process group, then reap the shell before
		// reporting. Partial output is dropped; the message is the result.
		terminateCommandProcess(cmd)
		<-waitDone
		duration := time.Since(start).Milliseconds()
		if runCtx.Err() == context.DeadlineExceeded {
			seconds := int(e.timeout / time.Second)
			e.warn("command timed out", map[string]interface{}{"command": command, "timeout_seconds": seconds})
			return domain.ExecutionResult{
				Stderr:     fmt.Sprintf("Command timed out after %d seconds", seconds),
				ExitCode:   -1,
				DurationMS: duration,
			}
		}
		return domain.ExecutionResult{
			Stderr:     runCtx.Err().Error(),
			ExitCode:   -1,
			DurationMS: duration,
		}
	}
	duration := time.Since(start).Milliseconds()

	result := domain.ExecutionResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMS: duration,
	}
	switch err := waitErr.(type) {
	case nil:
		result.ExitCode = 0
		result.Succeeded = true
	case *exec.ExitError:
		result.ExitCode = err.ExitCode()
	default:
		result.ExitCode = -1
		if result.Stderr == "" {
			result.Stderr = err.Error()
		}
	}
	return result
}

func (e *ShellExecutor) info(msg string, fields map[string]interface{}) {
	if e.logger != nil {
		e.logger.Info(msg, fields)
	}
}

func (e *ShellExecutor) warn(msg string, fields map[string]interface{}) {
	if e.logger != nil {
		e.logger.Warn(msg, fields)
	}
}

var _ ports.CommandExecutor = (*ShellExecutor)(nil)
