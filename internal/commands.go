package internal

import (
	"github.com/MrSnakeDoc/knotwatch/internal/middleware"
	"github.com/spf13/cobra"
)

var defaultCommands = []middleware.CommandFactory{
	NewInitCmd,
	NewVersionCmd,
	dataCommand(NewShowCmd),
	dataCommand(NewVersionsCmd),
	dataCommand(NewHistoryCmd),
	dataCommand(NewChartCmd),
	dataCommand(NewServeCmd),
	NewCacheCmd,
}

func RegisterSubCommands(cmd *cobra.Command) {
	for _, factory := range defaultCommands {
		cmd.AddCommand(factory())
	}
}
