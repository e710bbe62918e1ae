// Package cli provides the command-line interface for the stock checker.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pinstock/internal/alert"
	"pinstock/internal/checker"
	"pinstock/internal/config"
	"pinstock/internal/logging"
	"pinstock/internal/notify"
	"pinstock/internal/platform"
	"pinstock/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-08-01"
)

// App holds the application dependencies shared by all commands. Config and
// Logger are populated by the root command's PersistentPreRunE; the store and
// checker are opened per command so one-shot commands do not hold the
// database open.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:   "pinstock",
		Short: "Pincode-wise stock checker for quick-commerce platforms",
		Long: `pinstock monitors product availability on Blinkit, Swiggy Instamart and
Zepto for specific pincodes and alerts on stock transitions.

Configure products and pincodes in ~/.config/pinstock/config.toml, then run
'pinstock check' for a one-shot pass or 'pinstock watch' to monitor
continuously.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			app.Config = cfg

			logCfg := logging.DefaultLogConfig()
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logCfg.Level = "debug"
				logging.SetDebugLevel()
			}
			// Structured logs stay out of the terminal for one-shot commands;
			// the Output helper owns stdout there.
			logCfg.Console = cmd.Name() == "watch"
			app.Logger = logging.NewLoggerWithConfig(logCfg)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/pinstock)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newCheckCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))
	rootCmd.AddCommand(newTargetsCmd(app))
	rootCmd.AddCommand(newNotifyCmd(app))

	return rootCmd
}

// openStore opens the status store at the default path.
func (app *App) openStore() (store.StatusStore, error) {
	return store.NewSQLiteStore(config.DefaultDBPath())
}

// newChecker wires the full check pipeline from the loaded configuration.
func (app *App) newChecker(st store.StatusStore) *checker.Checker {
	registry := platform.NewRegistry(app.Config.Checker.RequestTimeout)
	notifier := notify.NewMultiNotifier(&app.Config.Notifications)
	dispatcher := alert.NewDispatcher(notifier, app.Config.Alerts, app.Logger)
	return checker.New(app.Config, registry, st, dispatcher, notifier, app.Logger)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("pinstock v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Checker Configuration")
	if cfg.Checker.Schedule != "" {
		output.Printf("  Schedule:        %s\n", cfg.Checker.Schedule)
	} else {
		output.Printf("  Interval:        %s\n", cfg.Checker.Interval)
	}
	output.Printf("  Concurrency:     %d\n", cfg.Checker.Concurrency)
	output.Printf("  Request Timeout: %s\n", cfg.Checker.RequestTimeout)
	output.Printf("  Max Retries:     %d\n", cfg.Checker.MaxRetries)
	output.Printf("  Platform Spacing: %s\n", cfg.Checker.PlatformSpacing)
	output.Println()

	output.Bold("Targets")
	output.Printf("  Pincodes:        %d\n", len(cfg.Pincodes))
	output.Printf("  Products:        %d\n", len(cfg.Products))
	output.Println()

	output.Bold("Alerts")
	output.Printf("  Enabled:         %v\n", cfg.Alerts.SendAlerts)
	output.Printf("  Status Change:   %v\n", cfg.Alerts.AlertOnStatusChange)
	output.Printf("  Low Stock:       %v\n", cfg.Alerts.AlertOnLowStock)
	output.Printf("  Out of Stock:    %v\n", cfg.Alerts.AlertOnOOS)
	output.Printf("  Back in Stock:   %v\n", cfg.Alerts.AlertOnBackInStock)
	output.Printf("  Price Change:    %v\n", cfg.Alerts.AlertOnPriceChange)
	output.Printf("  Pass Summary:    %v\n", cfg.Alerts.SendSummary)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  WhatsApp:        %v\n", cfg.Notifications.WhatsApp.Enabled)
	output.Printf("  Telegram:        %v\n", cfg.Notifications.Telegram.Enabled)
	output.Printf("  Webhook:         %v\n", cfg.Notifications.Webhook.Enabled)

	return nil
}
