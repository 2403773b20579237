package internal

import (
	"github.com/MrSnakeDoc/knotwatch/internal/checker"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"

	"github.com/spf13/cobra"
)

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			checker.PrintVersion(logger.Out())
		},
	}
}
