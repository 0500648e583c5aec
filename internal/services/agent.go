package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/ports"
)

// AgentService drives one goal from first decision to a terminal state. Each
// step asks the model for commands, executes them in order, and feeds the
// results back through the history window. The run ends when the model
// declares the goal done, a command fails, the model stops proposing
// commands, the caller cancels, or the step budget runs out.
type AgentService struct {
	Decider  ports.DecisionClient
	Executor ports.CommandExecutor
	Recorder ports.RunRecorder
	Observer ports.RunObserver
	Logger   ports.Logger
	Config   domain.Config
}

// Run implements domain.AgentRunner. Cancellation is honored between steps
// only: a command or model call already in flight always completes, so the
// history never contains half-finished work.
func (s *AgentService) Run(req domain.RunRequest) domain.RunReport {
	report := domain.RunReport{
		RunID:     req.ID,
		Goal:      req.Goal,
		Status:    domain.StatusRunning,
		StartedAt: time.Now(),
	}
	if report.RunID == "" {
		report.RunID = uuid.NewString()
	}

	if s.Decider == nil || s.Executor == nil || s.Logger == nil {
		err := errors.New("services.AgentService dependencies not satisfied")
		report.Status = domain.StatusFailed
		report.Err = err
		report.Reason = err.Error()
		report.FinishedAt = time.Now()
		return report
	}
	if strings.TrimSpace(req.Goal) == "" {
		report.Status = domain.StatusFailed
		report.Err = errors.New("goal is empty")
		report.Reason = "goal is empty"
		report.FinishedAt = time.Now()
		return report
	}

	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}
	// Steps in flight must survive a stop request; cancellation is only
	// observed at step boundaries.
	workCtx := context.WithoutCancel(ctx)

	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = s.Config.MaxSteps
	}
	if maxSteps <= 0 {
		maxSteps = domain.DefaultConfig().MaxSteps
	}

	rec := s.Recorder
	if rec == nil {
		rec = noopRecorder{}
	}
	obs := s.Observer
	if obs == nil {
		obs = noopObserver{}
	}

	history := domain.NewHistory()
	executed := 0

	s.Logger.Info("run started", map[string]interface{}{
		"run_id":    report.RunID,
		"goal":      req.Goal,
		"max_steps": maxSteps,
	})
	if err := rec.RunStarted(workCtx, report); err != nil {
		s.Logger.Warn("run record failed", map[string]interface{}{"error": err.Error()})
	}
	obs.RunStarted(report.RunID, req.Goal)

	finish := func(status domain.RunStatus, steps int, reason string, err error) domain.RunReport {
		report.Status = status
		report.Steps = steps
		report.Reason = reason
		report.Err = err
		report.History = history.All()
		report.FinishedAt = time.Now()
		if recErr := rec.RunFinished(workCtx, report); recErr != nil {
			s.Logger.Warn("run record failed", map[string]interface{}{"error": recErr.Error()})
		}
		obs.RunFinished(report)
		fields := map[string]interface{}{
			"run_id": report.RunID,
			"status": string(status),
			"steps":  steps,
			"reason": reason,
		}
		if err != nil {
			s.Logger.Error("run finished", err, fields)
		} else {
			s.Logger.Info("run finished", fields)
		}
		return report
	}

	for step := 0; step < maxSteps; step++ {
		if ctx.Err() != nil {
			return finish(domain.StatusStopped, step, "stop requested", nil)
		}
		obs.StepStarted(step, maxSteps)
		s.Logger.Debug("requesting decision", map[string]interface{}{
			"run_id": report.RunID,
			"step":   step,
		})

		decision, err := s.Decider.NextDecision(workCtx, req.Goal, history.Window(s.Config.HistorySize))
		if err != nil {
			return finish(domain.StatusFailed, step+1, "decision failed", err)
		}

		if decision.GoalDone {
			return finish(domain.StatusDone, step+1, "goal reached", nil)
		}
		if len(decision.Commands) == 0 {
			return finish(domain.StatusStopped, step+1, "no commands received", nil)
		}

		for _, command := range decision.Commands {
			s.Logger.Info("executing command", map[string]interface{}{
				"run_id":  report.RunID,
				"step":    step,
				"command": command,
			})
			result := s.Executor.Execute(workCtx, command)
			entry := domain.HistoryEntry{Command: command, Result: result}
			history.Append(entry)
			if recErr := rec.CommandExecuted(workCtx, report.RunID, executed, entry); recErr != nil {
				s.Logger.Warn("command record failed", map[string]interface{}{"error": recErr.Error()})
			}
			executed++
			obs.CommandFinished(entry)

			fields := map[string]interface{}{
				"run_id":      report.RunID,
				"command":     command,
				"returncode":  result.ExitCode,
				"duration_ms": result.DurationMS,
			}
			if result.Succeeded {
				s.Logger.Info("command finished", fields)
			} else {
				s.Logger.Warn("command failed", fields)
				return finish(domain.StatusFailed, step+1, fmt.Sprintf("command failed: %s", command), nil)
			}
		}
	}

	return finish(domain.StatusExhausted, maxSteps, "step limit reached", nil)
}

type noopRecorder struct{}

func (noopRecorder) RunStarted(context.Context, domain.RunReport) error { return nil }
func (noopRecorder) CommandExecuted(context.Context, string, int, domain.HistoryEntry) error {
	return nil
}
func (noopRecorder) RunFinished(context.Context, domain.RunReport) error { return nil }
func (noopRecorder) RecentRuns(context.Context, int) ([]domain.RunReport, error) {
	return nil, nil
}

type noopObserver struct{}

func (noopObserver) RunStarted(string, string)           {}
func (noopObserver) StepStarted(int, int)                {}
func (noopObserver) CommandFinished(domain.HistoryEntry) {}
func (noopObserver) RunFinished(domain.RunReport)        {}

// Compile-time interface compliance check
var _ domain.AgentRunner = (*AgentService)(nil)
