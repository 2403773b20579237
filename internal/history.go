package internal

import (
	"bytes"

	"github.com/MrSnakeDoc/knotwatch/internal/dashboard"
	"github.com/MrSnakeDoc/knotwatch/internal/errs"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/middleware"
	"github.com/MrSnakeDoc/knotwatch/internal/render"
	"github.com/MrSnakeDoc/knotwatch/internal/utils"

	"github.com/spf13/cobra"
)

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the weekly marker count history",
		Long: `Rebuild the marker count time series from the snapshot listing.
At most one snapshot per week is sampled and the series is cached for 24 hours.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			asJSON, _ := cmd.Flags().GetBool("json")

			if csvPath != "" && asJSON {
				return middleware.FlagComboError(errs.CSVWithJSON)
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			pts, err := a.backfiller().Run(cmd.Context())
			a.metrics.Pipeline(dashboard.SectionHistory.String(), err)
			if err != nil {
				return err
			}

			switch {
			case asJSON:
				return render.WriteJSON(logger.Out(), pts)
			case csvPath == "-":
				return render.WriteCSV(logger.Out(), pts)
			case csvPath != "":
				var buf bytes.Buffer
				if err := render.WriteCSV(&buf, pts); err != nil {
					return err
				}
				path, err := utils.ExpandHome(csvPath)
				if err != nil {
					return err
				}
				if err := utils.WriteFileAtomic(path+".tmp", path, &buf); err != nil {
					return err
				}
				logger.Success("Wrote %d points to %s", len(pts), path)
				return nil
			default:
				return render.NewTerminal(a.cfg.Table.Rows).History(dashboard.ReadyState(pts), a.cfg.Marker)
			}
		},
	}

	cmd.Flags().String("csv", "", "Write the series as CSV to a file (- for stdout)")
	cmd.Flags().Bool("json", false, "Print the series as JSON")
	return cmd
}

