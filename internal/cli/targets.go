package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"pinstock/internal/models"
)

func newTargetsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Target matrix inspection",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all configured product/pincode targets",
		Long: `Expand the configured products and pincodes into the full target
matrix the checker would run, including targets skipped for invalid
URLs or unrecognized platforms.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			targets, skipped := app.Config.Targets()
			sort.Slice(targets, func(i, j int) bool {
				return targets[i].Key() < targets[j].Key()
			})

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"targets": targetRows(targets),
					"skipped": skipped,
				})
			}

			if len(targets) == 0 {
				output.Warning("No valid targets configured.")
				output.Dim("Add products and pincodes to the config file; see 'pinstock config path'.")
				return nil
			}

			table := NewTable(output, "PRODUCT", "PINCODE", "PLATFORM", "URL")
			for _, t := range targets {
				table.AddRow(t.ProductID, t.Pincode, string(t.Platform), t.ProductURL)
			}
			table.Render()

			output.Println()
			output.Printf("%d target(s)\n", len(targets))
			for _, reason := range skipped {
				output.Warning("skipped: %s", reason)
			}
			return nil
		},
	})

	return cmd
}

type targetRow struct {
	ProductID string `json:"product_id"`
	Pincode   string `json:"pincode"`
	Platform  string `json:"platform"`
	URL       string `json:"url"`
}

func targetRows(targets []models.Target) []targetRow {
	rows := make([]targetRow, 0, len(targets))
	for _, t := range targets {
		rows = append(rows, targetRow{
			ProductID: t.ProductID,
			Pincode:   t.Pincode,
			Platform:  string(t.Platform),
			URL:       t.ProductURL,
		})
	}
	return rows
}
