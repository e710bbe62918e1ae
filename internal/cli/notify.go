package cli

import (
	"time"

	"github.com/spf13/cobra"

	"pinstock/internal/notify"
)

func newNotifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification channel management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test notification through all enabled channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			notifier := notify.NewMultiNotifier(&app.Config.Notifications)
			channels := notifier.EnabledChannels()
			if len(channels) == 0 {
				output.Warning("No notification channels enabled.")
				output.Dim("Enable a channel under [notifications] in the config file.")
				return nil
			}

			n := notify.Notification{
				Title:     "🔔 Test Notification",
				Message:   "pinstock notification channels are working.",
				Timestamp: time.Now(),
			}
			if err := notifier.Send(cmd.Context(), n); err != nil {
				output.Error("Test notification failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"sent": true, "channels": channels})
			}
			output.Success("✓ Test notification sent via %d channel(s)", len(channels))
			for _, name := range channels {
				output.Printf("  • %s\n", name)
			}
			return nil
		},
	})

	return cmd
}
