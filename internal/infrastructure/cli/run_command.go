package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/doeshing/goalrun/internal/app"
	"github.com/doeshing/goalrun/internal/domain"
)

// runOptions carries the run command flags.
type runOptions struct {
	model    string
	maxSteps int
	timeout  time.Duration
}

// newRunCommand creates the run command, the default action of the binary.
func newRunCommand(container *app.Container) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [goal]",
		Short: "Pursue a goal until done or the step budget runs out",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return pursueGoal(cmd, container, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Override model name (default from config)")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "Override step budget (default from config)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Abort the whole run after this duration (0 = no limit)")

	return cmd
}

// pursueGoal drives one goal to a terminal state and maps every outcome but
// done to a non-zero exit. Interrupts stop the run at the next step boundary;
// the command in flight always finishes first.
func pursueGoal(cmd *cobra.Command, container *app.Container, goal string, opts runOptions) error {
	if err := container.ValidateConfig(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	renderer := &ProgressRenderer{Out: cmd.OutOrStdout()}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		renderer.Spinner = NewSpinner(os.Stderr)
	}

	service := *container.AgentService
	service.Observer = renderer
	if opts.model != "" {
		service.Decider = container.NewDecider(opts.model, "")
	}

	report := service.Run(domain.RunRequest{
		Context:  ctx,
		Goal:     goal,
		MaxSteps: opts.maxSteps,
	})
	if report.Status == domain.StatusDone {
		return nil
	}
	if report.Err != nil {
		return fmt.Errorf("run %s: %w", report.Status, report.Err)
	}
	return fmt.Errorf("run %s: %s", report.Status, report.Reason)
}
