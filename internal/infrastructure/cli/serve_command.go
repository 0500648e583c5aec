package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doeshing/goalrun/internal/app"
	"github.com/doeshing/goalrun/internal/web"
)

// newServeCommand creates the serve command hosting the browser front-end.
func newServeCommand(container *app.Container) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web control panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.ValidateConfig(); err != nil {
				return err
			}

			server, err := web.NewServer(web.ServerConfig{
				Addr:       addr,
				Config:     container.Config,
				Executor:   container.Executor,
				Recorder:   container.HistoryStore,
				NewDecider: container.NewDecider,
				Transcript: container.Transcript,
				Logger:     container.Logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", server.Addr())
			return server.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")

	return cmd
}
