package internal

import (
	"github.com/MrSnakeDoc/knotwatch/internal/config"
	"github.com/MrSnakeDoc/knotwatch/internal/errs"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/middleware"
	"github.com/MrSnakeDoc/knotwatch/internal/utils"

	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Long: `Write the default configuration.
This command will:
- Create ~/.config/knotwatch (or the directory of --config)
- Write config.yml with every setting at its default value`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString(middleware.FlagConfig)
			force, _ := cmd.Flags().GetBool("force")

			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}

			exists, err := utils.FileExists(path)
			if err != nil {
				return err
			}
			if exists && !force {
				return middleware.FlagComboError(errs.ConfigExists, path)
			}

			if err := config.Default().Save(path); err != nil {
				return err
			}

			logger.Success("Wrote default configuration to %s", path)
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")
	return cmd
}
