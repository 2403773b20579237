package kvcache

import (
	"fmt"
	"path/filepath"

	"github.com/MrSnakeDoc/knotwatch/internal/config"
)

// Open builds the cache selected by cfg.Cache.
func Open(cfg *config.Config, opts ...Option) (*Cache, error) {
	var (
		b   Backend
		err error
	)

	switch cfg.Cache.Backend {
	case config.BackendMemory:
		b = NewMemory()
	case config.BackendFile, config.BackendLevelDB:
		dir, derr := cfg.CacheDir()
		if derr != nil {
			return nil, derr
		}
		if cfg.Cache.Backend == config.BackendFile {
			b, err = NewFS(filepath.Join(dir, "cache"))
		} else {
			b, err = NewLevelDB(filepath.Join(dir, "cache.ldb"))
		}
	default:
		err = fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	if err != nil {
		return nil, err
	}
	return New(b, opts...), nil
}
