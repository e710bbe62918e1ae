package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Monitor targets continuously",
		Long: `Run check passes continuously until interrupted, either at the
configured interval or on the configured cron schedule.

A pass still in flight when the next trigger fires is never overlapped.
Stop with Ctrl+C; an in-flight pass finishes before shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("interval") {
				app.Config.Checker.Interval = interval
				app.Config.Checker.Schedule = ""
			}

			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = app.newChecker(st).Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "override the configured pass interval (e.g. 10m)")

	return cmd
}
