package internal

import (
	"strconv"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/config"
	"github.com/MrSnakeDoc/knotwatch/internal/errs"
	"github.com/MrSnakeDoc/knotwatch/internal/kvcache"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/middleware"
	"github.com/MrSnakeDoc/knotwatch/internal/printer"
	"github.com/MrSnakeDoc/knotwatch/internal/prompter"
	"github.com/MrSnakeDoc/knotwatch/internal/utils"

	"github.com/spf13/cobra"
)

func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local cache",
	}

	cmd.AddCommand(
		middleware.UseMiddlewareChain(middleware.LoadConfig, middleware.WithMetrics, refuseNoCache)(newCacheStatusCmd)(),
		middleware.UseMiddlewareChain(middleware.LoadConfig, middleware.WithMetrics, refuseNoCache)(newCacheClearCmd)(),
	)
	return cmd
}

func refuseNoCache(cmd *cobra.Command, args []string, next func(cmd *cobra.Command, args []string) error) error {
	if noCache, _ := cmd.Flags().GetBool(middleware.FlagNoCache); noCache {
		return middleware.FlagComboError(errs.NoCacheWithCache, cmd.Name())
	}
	return next(cmd, args)
}

// cachedKey pairs a key with the TTL it is read with.
type cachedKey struct {
	key string
	ttl time.Duration
}

func cacheTTLs(cfg *config.Config) []cachedKey {
	return []cachedKey{
		{kvcache.KeyLatestSnapshot, cfg.Snapshot.TTL},
		{kvcache.KeyHistoricalSeries, cfg.Backfill.TTL},
	}
}

func newCacheStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show age and freshness of every cached value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			p := printer.NewColorPrinter()
			table := logger.CreateTable([]string{"Key", "Stored", "Age", "TTL", "Status", "Size"})

			for _, k := range cacheTTLs(a.cfg) {
				st := a.cache.Inspect(k.key, k.ttl)
				row := []string{st.Key, "-", "-", st.TTL.String(), p.Muted("empty"), "-"}
				if st.Present {
					status := p.Success("fresh")
					if !st.Fresh {
						status = p.Warning("stale")
					}
					row = []string{
						st.Key,
						st.StoredAt.Local().Format("2006-01-02 15:04:05"),
						utils.HumanAge(st.Age),
						st.TTL.String(),
						status,
						strconv.Itoa(st.Size) + " B",
					}
				}
				if err := table.Append(row); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if !yes {
				ok, err := prompter.New(cmd.InOrStdin(), cmd.OutOrStdout()).Confirm("Delete the cached snapshot and history?")
				if err != nil {
					return err
				}
				if !ok {
					logger.Info("Nothing deleted")
					return nil
				}
			}

			for _, k := range cacheTTLs(a.cfg) {
				if err := a.cache.Delete(k.key); err != nil {
					return err
				}
				logger.Debug("cache: deleted %s", k.key)
			}
			logger.Success("Cache cleared")
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}
