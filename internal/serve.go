package internal

import (
	"github.com/MrSnakeDoc/knotwatch/internal/server"

	"github.com/spf13/cobra"
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over local HTTP",
		Long: `Serve the dashboard as JSON and PNG endpoints:
  GET /api/summary            marker split and top versions
  GET /api/versions?limit=N   ranked versions
  GET /api/history            weekly marker count
  GET /charts/pie.png         marker split chart
  GET /charts/history.png     history chart
  GET /healthz                pipeline states
  GET /metrics                Prometheus metrics
Both pipelines are re-run every serve.refresh_interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			addr := a.cfg.Serve.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}

			d := a.dashboard(true, true)
			h := server.NewHandler(d, a.cfg.Marker, a.cfg.Table.Rows)
			srv := server.New(addr, d, h, a.metrics, a.cfg.Serve.RefreshInterval)

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default serve.addr)")
	return cmd
}
