package internal

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/MrSnakeDoc/knotwatch/internal/dashboard"
	"github.com/MrSnakeDoc/knotwatch/internal/errs"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/middleware"
	"github.com/MrSnakeDoc/knotwatch/internal/render"
	"github.com/MrSnakeDoc/knotwatch/internal/utils"

	"github.com/spf13/cobra"
)

func NewChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render the marker split (and history) as PNG charts",
		Long: `Render PNG charts into --out:
- pie.png: marker vs other nodes in the latest snapshot
- history.png: weekly marker count (with --history)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			withHistory, _ := cmd.Flags().GetBool("history")

			dir, err := utils.ExpandHome(out)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			d := a.dashboard(true, withHistory)
			defer d.Close()
			d.Run(cmd.Context())

			if sum := d.Summary(); sum.Kind == dashboard.Ready {
				var buf bytes.Buffer
				if err := writeChart(filepath.Join(dir, "pie.png"), &buf, render.PieChart(&buf, sum.Data)); err != nil {
					return err
				}
			}
			if hist := d.History(); hist.Kind == dashboard.Ready {
				var buf bytes.Buffer
				if err := writeChart(filepath.Join(dir, "history.png"), &buf, render.HistoryChart(&buf, hist.Data, a.cfg.Marker)); err != nil {
					return err
				}
			}

			return failedSections(d)
		},
	}

	cmd.Flags().StringP("out", "o", "", "Directory the PNG files are written to")
	cmd.Flags().Bool("history", false, "Also render the weekly history chart")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func writeChart(path string, buf *bytes.Buffer, renderErr error) error {
	if errors.Is(renderErr, render.ErrNoData) {
		return middleware.FlagComboError(errs.NothingToChart, filepath.Base(path))
	}
	if renderErr != nil {
		return renderErr
	}
	if err := utils.WriteFileAtomic(path+".tmp", path, buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Success("Wrote %s", path)
	return nil
}
