package cli

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pinstock/internal/checker"
)

func newCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a single check pass over all configured targets",
		Long: `Check every configured product/pincode combination once, update the
status store, and dispatch alerts for detected transitions.

Individual fetch failures do not fail the pass; they are counted in the
summary. The command fails only when no valid targets are configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := app.newChecker(st).RunOnce(ctx)
			if err != nil && err != context.Canceled {
				return err
			}

			return renderSummary(output, summary)
		},
	}
}

func renderSummary(output *Output, s checker.PassSummary) error {
	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"checked":      s.Checked,
			"in_stock":     s.InStock,
			"low_stock":    s.LowStock,
			"out_of_stock": s.OutOfStock,
			"failed":       s.Failed,
			"events":       s.Events,
			"skipped":      s.Skipped,
			"duration":     s.Duration.String(),
		})
	}

	output.Bold("Check Pass Summary")
	output.Printf("  Checked:      %d\n", s.Checked)
	output.Printf("  In stock:     %s\n", output.Green(strconv.Itoa(s.InStock)))
	output.Printf("  Low stock:    %s\n", output.Yellow(strconv.Itoa(s.LowStock)))
	output.Printf("  Out of stock: %s\n", output.Red(strconv.Itoa(s.OutOfStock)))
	output.Printf("  Failed:       %s\n", output.Red(strconv.Itoa(s.Failed)))
	output.Printf("  Alerts:       %d\n", s.Events)
	if s.Skipped > 0 {
		output.Warning("  Skipped %d invalid target(s), see log", s.Skipped)
	}
	output.Dim("  Duration: %s", s.Duration.Round(time.Millisecond))
	return nil
}
