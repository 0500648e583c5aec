package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/goalrun/internal/app"
	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/pkg/text"
)

const (
	msgNoRunsRecorded = "No runs recorded yet."

	goalDisplayLimit = 60
)

// newHistoryCommand creates the history command listing recent runs.
func newHistoryCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRecentRuns(cmd.Context(), cmd.OutOrStdout(), container, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryListLimit, "Max runs to show")
	return cmd
}

// listRecentRuns renders the audit trail, newest first.
func listRecentRuns(ctx context.Context, out io.Writer, container *app.Container, limit int) error {
	reports, err := container.HistoryStore.RecentRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	if len(reports) == 0 {
		fmt.Fprintln(out, msgNoRunsRecorded)
		return nil
	}

	for _, report := range reports {
		line := fmt.Sprintf("%s | %-9s | %2d steps | %s",
			report.StartedAt.Format(domain.TimestampFormat),
			report.Status,
			report.Steps,
			text.Truncate(report.Goal, goalDisplayLimit))
		if report.Reason != "" && report.Status != domain.StatusDone {
			line += fmt.Sprintf(" (%s)", report.Reason)
		}
		fmt.Fprintln(out, line)
	}

	return nil
}
