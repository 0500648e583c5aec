// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). Following the Ports and Adapters (Hexagonal) pattern,
// these interfaces allow the application to remain independent of specific
// implementations like databases, HTTP clients, or CLI frameworks.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., DecisionClient, CommandExecutor)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"

	"github.com/doeshing/goalrun/internal/domain"
)

// ConfigProvider loads the configuration from persistent storage.
// Implementations typically read config.yaml next to the binary.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// DecisionClient asks the model service for the next step toward a goal.
// The history window gives the model what already happened; implementations
// own their retry policy, so a returned error is final for this step.
type DecisionClient interface {
	NextDecision(ctx context.Context, goal string, window []domain.HistoryEntry) (domain.Decision, error)
}

// SafetyFilter decides whether a command may reach the shell at all.
// Evaluation is static and side-effect free; it never returns an error.
type SafetyFilter interface {
	IsDangerous(command string) bool
}

// CommandExecutor runs one shell command and reduces whatever happened to a
// normalized result. Blocked, timed out, and unstartable commands are results,
// not errors, which keeps the pursuit loop on a single failure path.
type CommandExecutor interface {
	Execute(ctx context.Context, command string) domain.ExecutionResult
}

// RunRecorder persists the audit trail of runs and the commands they issued.
// Recording must never interfere with a run; implementations degrade to
// doing nothing when their backing store is unavailable.
type RunRecorder interface {
	RunStarted(ctx context.Context, report domain.RunReport) error
	CommandExecuted(ctx context.Context, runID string, seq int, entry domain.HistoryEntry) error
	RunFinished(ctx context.Context, report domain.RunReport) error
	RecentRuns(ctx context.Context, limit int) ([]domain.RunReport, error)
}

// RunObserver receives progress events while a run is in flight. The web
// front-end attaches a tracker here; CLI runs use a no-op.
type RunObserver interface {
	RunStarted(runID, goal string)
	StepStarted(step, maxSteps int)
	CommandFinished(entry domain.HistoryEntry)
	RunFinished(report domain.RunReport)
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
