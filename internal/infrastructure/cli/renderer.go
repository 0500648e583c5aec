package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/pkg/text"
	"github.com/doeshing/goalrun/internal/ports"
)

// ProgressRenderer prints run progress in a friendly, ASCII-only format. It
// implements ports.RunObserver so the pursuit loop stays unaware of the
// terminal.
type ProgressRenderer struct {
	Out io.Writer
	// Spinner animates while the model is deciding; nil when stderr is not a
	// terminal.
	Spinner *Spinner

	mu sync.Mutex
}

func (r *ProgressRenderer) RunStarted(runID, goal string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.Out, "Goal: %s\n", goal)
	fmt.Fprintf(r.Out, "Run:  %s\n", runID)
}

func (r *ProgressRenderer) StepStarted(step, maxSteps int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.Out, "\nStep %d/%d\n", step+1, maxSteps)
	if r.Spinner != nil {
		r.Spinner.Start()
	}
}

func (r *ProgressRenderer) CommandFinished(entry domain.HistoryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Spinner != nil {
		r.Spinner.Stop()
	}
	fmt.Fprintf(r.Out, "  $ %s\n", entry.Command)
	writeIndented(r.Out, entry.Result.Stdout)
	writeIndented(r.Out, entry.Result.Stderr)
	if !entry.Result.Succeeded {
		fmt.Fprintf(r.Out, "  exit %d\n", entry.Result.ExitCode)
	}
}

func (r *ProgressRenderer) RunFinished(report domain.RunReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Spinner != nil {
		r.Spinner.Stop()
	}
	fmt.Fprintf(r.Out, "\nResult: %s after %d step(s)", strings.ToUpper(string(report.Status)), report.Steps)
	if report.Reason != "" {
		fmt.Fprintf(r.Out, " (%s)", report.Reason)
	}
	fmt.Fprintln(r.Out)
	if len(report.History) == 0 {
		return
	}
	// Recap every executed command so the outcome is readable even after a
	// long scrollback.
	fmt.Fprintf(r.Out, "\nSummary:\n")
	for i, entry := range report.History {
		fmt.Fprintf(r.Out, "  %d. %s (exit %d)\n", i+1, entry.Command, entry.Result.ExitCode)
		writeIndented(r.Out, entry.Result.Stdout)
		writeIndented(r.Out, entry.Result.Stderr)
	}
}

// writeIndented prints trimmed command output, capped so one chatty command
// cannot flood the summary.
func writeIndented(out io.Writer, s string) {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return
	}
	for _, line := range strings.Split(text.Truncate(s, domain.SummaryOutputLimit), "\n") {
		fmt.Fprintf(out, "    %s\n", line)
	}
}

var _ ports.RunObserver = (*ProgressRenderer)(nil)
