package domain

import (
	"context"
	"time"
)

// RunStatus labels the state of a goal-pursuit run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusDone      RunStatus = "done"
	StatusFailed    RunStatus = "failed"
	StatusExhausted RunStatus = "exhausted"
	StatusStopped   RunStatus = "stopped"
)

// Terminal reports whether the status ends a run.
func (s RunStatus) Terminal() bool {
	return s != StatusRunning
}

// RunRequest captures intent originating from the CLI or the web front-end.
type RunRequest struct {
	Context  context.Context
	ID       string
	Goal     string
	MaxSteps int
}

// RunReport is the canonical outcome propagated back to the caller. It is
// produced at every terminal state, including failures.
type RunReport struct {
	RunID      string
	Goal       string
	Status     RunStatus
	Steps      int
	History    []HistoryEntry
	Err        error
	Reason     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// AgentRunner exposes the use-case boundary for pursuing one goal.
type AgentRunner interface {
	Run(RunRequest) RunReport
}
