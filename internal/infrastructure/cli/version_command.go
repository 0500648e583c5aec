package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/doeshing/goalrun/internal/version"
)

// newVersionCommand creates the version command
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show goalrun version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "goalrun version %s\n", version.String())
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			return nil
		},
	}
}
