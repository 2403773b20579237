package internal

import (
	"github.com/MrSnakeDoc/knotwatch/internal/aggregate"
	"github.com/MrSnakeDoc/knotwatch/internal/dashboard"
	"github.com/MrSnakeDoc/knotwatch/internal/errs"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/middleware"
	"github.com/MrSnakeDoc/knotwatch/internal/render"

	"github.com/spf13/cobra"
)

func NewVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Rank the versions of the latest snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Table.Rows
			}
			if limit < 0 {
				return middleware.FlagComboError(errs.NegativeLimit, limit)
			}

			snap, err := a.fetcher().Fetch(cmd.Context())
			a.metrics.Pipeline(dashboard.SectionSnapshot.String(), err)
			if err != nil {
				return err
			}
			res := aggregate.Aggregate(snap, a.cfg.Marker)

			if asJSON {
				return render.WriteJSON(logger.Out(), render.NewSummaryView(res, limit))
			}

			term := render.NewTerminal(limit)
			if err := term.Summary(dashboard.ReadyState(res)); err != nil {
				return err
			}
			return term.Versions(dashboard.ReadyState(res))
		},
	}

	cmd.Flags().IntP("limit", "n", 21, "Number of versions to show (default table.rows)")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	return cmd
}
