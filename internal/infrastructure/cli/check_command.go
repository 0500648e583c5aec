package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/goalrun/internal/app"
)

// newCheckCommand creates the check command, which asks the safety filter
// about a command without running it. Exits non-zero when it would be blocked
// so scripts can branch on the verdict.
func newCheckCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <command>",
		Short: "Test a command against the safety filter",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.Join(args, " ")
			if pattern, hit := container.Filter.Match(command); hit {
				fmt.Fprintf(cmd.OutOrStdout(), "BLOCKED (matches %q)\n", pattern)
				return fmt.Errorf("command would be blocked")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ALLOWED")
			return nil
		},
	}
	// The argument is itself a command line; its flags belong to it, not to check.
	cmd.Flags().SetInterspersed(false)
	return cmd
}
