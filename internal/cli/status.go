package cli

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"pinstock/internal/models"
)

func newStatusCmd(app *App) *cobra.Command {
	var (
		pincode      string
		platformName string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show last known status for all targets",
		Long: `List the last persisted status record for every target the checker
has observed. Targets never successfully fetched do not appear.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.LoadAll(cmd.Context())
			if err != nil {
				return err
			}

			var filtered []models.StatusRecord
			for _, rec := range records {
				if pincode != "" && rec.Pincode != pincode {
					continue
				}
				if platformName != "" && string(rec.Platform) != platformName {
					continue
				}
				filtered = append(filtered, rec)
			}
			sort.Slice(filtered, func(i, j int) bool {
				return filtered[i].TargetKey < filtered[j].TargetKey
			})

			if output.IsJSON() {
				return output.JSON(filtered)
			}

			if len(filtered) == 0 {
				output.Dim("No status records. Run 'pinstock check' first.")
				return nil
			}

			table := NewTable(output, "PRODUCT", "PINCODE", "PLATFORM", "STATUS", "PRICE", "OBSERVED")
			for _, rec := range filtered {
				table.AddRow(
					rec.ProductID,
					rec.Pincode,
					string(rec.Platform),
					output.StatusText(rec.Status),
					FormatPrice(rec.Price),
					rec.ObservedAt.Local().Format(time.DateTime),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&pincode, "pincode", "", "filter by pincode")
	cmd.Flags().StringVar(&platformName, "platform", "", "filter by platform (blinkit, swiggy, zepto)")

	return cmd
}
