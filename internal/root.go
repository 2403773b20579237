package internal

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/middleware"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knotwatch",
		Short: "Node version dashboard for the Bitcoin network crawler",
		Long: `knotwatch polls a bitnodes-style crawler API and shows how many reachable
nodes run a marker implementation (Knots by default): the marker split of the
latest snapshot, the ranked version table and a weekly history.`,
		Example: `knotwatch show
knotwatch history --csv knots.csv
knotwatch serve --addr 127.0.0.1:8420`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.ConfigureLoggerFromFlags()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.CountVarP(&logger.FlagVerboseCount, "verbose", "V", "Verbose output (debug logs)")
	pf.BoolVarP(&logger.FlagQuiet, "quiet", "q", false, "Only print errors")
	pf.BoolVarP(&logger.FlagSilent, "silent", "s", false, "Print no logs at all")
	pf.BoolVar(&logger.FlagJSON, "log-json", false, "Write logs as JSON")
	pf.String(middleware.FlagConfig, "", "Config file (default ~/.config/knotwatch/config.yml)")
	pf.Bool(middleware.FlagNoCache, false, "Use an in-memory cache for this run")

	RegisterSubCommands(cmd)

	return cmd
}

func Execute() error {
	root := NewRootCmd()

	if os.Getenv("COMP_LINE") != "" ||
		(len(os.Args) > 1 && strings.HasPrefix(os.Args[1], "__complete")) {
		return root.Execute()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Debug("Failed to execute root command: %v", err)
		return err
	}
	return nil
}
