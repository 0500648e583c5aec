package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/goalrun/internal/app"
)

// NewRootCmd wires the cobra root command.
func NewRootCmd(container *app.Container) *cobra.Command {
	root := &cobra.Command{
		Use:   "goalrun [goal]",
		Short: "goalrun - goal-driven shell agent",
		Long: "goalrun pursues a goal autonomously: a language model proposes shell\n" +
			"commands, a safety filter screens them, and execution results feed back\n" +
			"into the next decision until the goal is reached or the step budget runs out.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return pursueGoal(cmd, container, strings.Join(args, " "), runOptions{})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCommand(container))
	root.AddCommand(newServeCommand(container))
	root.AddCommand(newCheckCommand(container))
	root.AddCommand(newHistoryCommand(container))
	root.AddCommand(newConfigCommand(container))
	root.AddCommand(newDoctorCommand(container))
	root.AddCommand(newVersionCommand())
	return root
}
