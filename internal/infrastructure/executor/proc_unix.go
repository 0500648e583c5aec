//go:build !windows

package executor

import (
	"os/exec"
	"syscall"
)

// configureCommandProcess places the shell in its own process group so a
// timeout can take down everything it spawned, not just the shell itself.
func configureCommandProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateCommandProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil || cmd.Process.Pid <= 0 {
		return
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil || pgid <= 0 {
		_ = cmd.Process.Kill()
		return
	}
	// Negative PGID addresses the whole group.
	_ = syscall.Kill(-pgid, syscall.SIGKILL)
}
