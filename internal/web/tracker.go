// Package web serves the browser front-end: a control page, the settings
// endpoints, and start/status/stop for runs. Each run gets its own tracker,
// so several goals can be pursued at once and polled independently.
package web

import (
	"context"
	"fmt"
	"sync"

	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/ports"
)

// Message is one progress entry in the shape the front-end polls for.
// Command messages carry command, success, stdout and stderr; the other
// types carry a message string.
type Message map[string]any

// StatusView is the poll response for one run.
type StatusView struct {
	RunID       string    `json:"run_id"`
	IsRunning   bool      `json:"is_running"`
	Status      string    `json:"status"`
	GoalReached bool      `json:"goal_reached"`
	Messages    []Message `json:"messages"`
}

// RunTracker accumulates progress for a single run and cancels it on demand.
// It implements ports.RunObserver; the agent calls it from the run goroutine
// while handlers read snapshots from request goroutines.
type RunTracker struct {
	mu          sync.Mutex
	runID       string
	goal        string
	running     bool
	goalReached bool
	status      domain.RunStatus
	messages    []Message
	cancel      context.CancelFunc
}

// NewRunTracker builds a tracker for one run. cancel stops the run at its
// next step boundary.
func NewRunTracker(runID, goal string, cancel context.CancelFunc) *RunTracker {
	return &RunTracker{
		runID:   runID,
		goal:    goal,
		running: true,
		status:  domain.StatusRunning,
		cancel:  cancel,
	}
}

// RunStarted implements ports.RunObserver.
func (t *RunTracker) RunStarted(string, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
	t.goalReached = false
	t.messages = nil
}

// StepStarted implements ports.RunObserver.
func (t *RunTracker) StepStarted(int, int) {}

// CommandFinished implements ports.RunObserver.
func (t *RunTracker) CommandFinished(entry domain.HistoryEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, Message{
		"type":    "command",
		"command": entry.Command,
		"success": entry.Result.Succeeded,
		"stdout":  entry.Result.Stdout,
		"stderr":  entry.Result.Stderr,
	})
	if !entry.Result.Succeeded {
		t.messages = append(t.messages, Message{
			"type":    "error",
			"message": fmt.Sprintf("Command failed: %s", entry.Command),
		})
	}
}

// RunFinished implements ports.RunObserver.
func (t *RunTracker) RunFinished(report domain.RunReport) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.status = report.Status

	switch report.Status {
	case domain.StatusDone:
		t.goalReached = true
		t.messages = append(t.messages, Message{
			"type":    "success",
			"message": "Goal has been reached!",
		})
	case domain.StatusStopped:
		if report.Reason == "no commands received" {
			t.messages = append(t.messages, Message{
				"type":    "warning",
				"message": "No commands received, stopping execution",
			})
		}
	case domain.StatusFailed:
		// Command failures already produced their message; anything else is
		// a run-level error such as a failed decision.
		if report.Err != nil {
			t.messages = append(t.messages, Message{
				"type":    "error",
				"message": fmt.Sprintf("Error: %v", report.Err),
			})
		}
	}
}

// Stop requests cancellation. The run finishes its in-flight step first.
func (t *RunTracker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// RunID returns the tracked run's identifier.
func (t *RunTracker) RunID() string {
	return t.runID
}

// Goal returns the tracked run's goal.
func (t *RunTracker) Goal() string {
	return t.goal
}

// Snapshot returns a copy of the current state for the status endpoint.
func (t *RunTracker) Snapshot() StatusView {
	t.mu.Lock()
	defer t.mu.Unlock()
	messages := make([]Message, len(t.messages))
	copy(messages, t.messages)
	return StatusView{
		RunID:       t.runID,
		IsRunning:   t.running,
		Status:      string(t.status),
		GoalReached: t.goalReached,
		Messages:    messages,
	}
}

var _ ports.RunObserver = (*RunTracker)(nil)
