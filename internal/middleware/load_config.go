package middleware

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/knotwatch/internal/config"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/metrics"
	"github.com/spf13/cobra"
)

// Persistent flags read by the middlewares.
const (
	FlagConfig  = "config"
	FlagNoCache = "no-cache"
)

// LoadConfig resolves the configuration (defaults, file, .env and process
// env) and stores it in the command context under CtxKeyConfig.
func LoadConfig(cmd *cobra.Command, args []string, next func(cmd *cobra.Command, args []string) error) error {
	path, _ := cmd.Flags().GetString(FlagConfig)

	config.LoadEnv(config.DefaultEnvFiles...)
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if noCache, _ := cmd.Flags().GetBool(FlagNoCache); noCache {
		cfg.Cache.Backend = config.BackendMemory
	}
	logger.DebugKV("config loaded", "base_url", cfg.API.BaseURL, "marker", cfg.Marker, "cache", cfg.Cache.Backend)

	ctx := context.WithValue(cmd.Context(), CtxKeyConfig, cfg)
	cmd.SetContext(ctx)

	return next(cmd, args)
}

// WithMetrics gives the command a fresh metrics recorder.
func WithMetrics(cmd *cobra.Command, args []string, next func(cmd *cobra.Command, args []string) error) error {
	ctx := context.WithValue(cmd.Context(), CtxKeyMetrics, metrics.New())
	cmd.SetContext(ctx)
	return next(cmd, args)
}
