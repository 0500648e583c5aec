package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/goalrun/internal/app"
)

// newDoctorCommand creates the doctor command
func newDoctorCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose environment setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctorDiagnostics(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// runDoctorDiagnostics prints every check result and fails when the
// environment cannot drive a run. Checks that only warn leave the exit
// code at zero.
func runDoctorDiagnostics(ctx context.Context, out io.Writer, container *app.Container) error {
	report, err := container.DoctorService.Run(ctx)

	// Print whatever was checked before deciding the exit code.
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n",
			strings.ToUpper(string(check.Status)),
			check.Name,
			check.Details)
	}

	if err != nil {
		return fmt.Errorf("diagnostics completed with errors: %w", err)
	}
	if !report.Healthy() {
		return errors.New("environment is not ready")
	}

	return nil
}
