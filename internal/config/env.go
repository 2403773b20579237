package config

import (
	"os"
	"strings"

	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/joho/godotenv"
)

// DefaultEnvFiles are read from the working directory when present.
var DefaultEnvFiles = []string{".env"}

// LoadEnv loads KEY=value files into the process environment so KNOTWATCH_*
// overrides can live next to a project. Variables already set win.
func LoadEnv(files ...string) {
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			logger.Warn("Failed to load %s: %v", file, err)
			continue
		}
		loaded = append(loaded, file)
	}
	if len(loaded) > 0 {
		logger.Debug("Loaded env files: %s", strings.Join(loaded, ", "))
	}
}
