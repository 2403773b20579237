package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix  = "KNOTWATCH"
	configDir  = ".config/knotwatch"
	configFile = "config.yml"

	DefaultBaseURL = "https://bitnodes.io/api/v1"
	DefaultMarker  = "Knots"
	Week           = 7 * 24 * time.Hour
)

// Cache backends.
const (
	BackendFile    = "file"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Marker   string         `mapstructure:"marker"`
	Table    TableConfig    `mapstructure:"table"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Backfill BackfillConfig `mapstructure:"backfill"`
	Serve    ServeConfig    `mapstructure:"serve"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TableConfig struct {
	Rows int `mapstructure:"rows"`
}

type CacheConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

type SnapshotConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	HitDelay time.Duration `mapstructure:"hit_delay"`
}

type BackfillConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	PageCap       int           `mapstructure:"page_cap"`
	PageDelay     time.Duration `mapstructure:"page_delay"`
	Spacing       time.Duration `mapstructure:"spacing"`
	SortSummaries bool          `mapstructure:"sort_summaries"`
}

type ServeConfig struct {
	Addr            string        `mapstructure:"addr"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("marker", DefaultMarker)
	v.SetDefault("table.rows", 21)
	v.SetDefault("cache.backend", BackendFile)
	v.SetDefault("cache.dir", "")
	v.SetDefault("snapshot.ttl", 21*time.Minute)
	v.SetDefault("snapshot.hit_delay", 3*time.Second)
	v.SetDefault("backfill.ttl", 24*time.Hour)
	v.SetDefault("backfill.page_cap", 12)
	v.SetDefault("backfill.page_delay", time.Second)
	v.SetDefault("backfill.spacing", Week)
	v.SetDefault("backfill.sort_summaries", false)
	v.SetDefault("serve.addr", "127.0.0.1:8420")
	v.SetDefault("serve.refresh_interval", 21*time.Minute)
}

// Default returns the built-in configuration without reading any file or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// DefaultPath is ~/.config/knotwatch/config.yml.
func DefaultPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load merges defaults, the YAML file and KNOTWATCH_* env vars, in that order.
// An empty path means the default location, which may be absent.
// An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	ok, err := utils.FileExists(path)
	if err != nil {
		return nil, err
	}
	switch {
	case ok:
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	case explicit:
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("api.base_url must be an https URL, got %q", c.API.BaseURL))
	}
	if strings.TrimSpace(c.Marker) == "" {
		errs = append(errs, errors.New("marker must not be empty"))
	}
	if c.Table.Rows <= 0 {
		errs = append(errs, fmt.Errorf("table.rows must be positive, got %d", c.Table.Rows))
	}
	switch c.Cache.Backend {
	case BackendFile, BackendLevelDB, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be one of file, leveldb, memory, got %q", c.Cache.Backend))
	}
	if c.Snapshot.TTL <= 0 || c.Backfill.TTL <= 0 {
		errs = append(errs, errors.New("snapshot.ttl and backfill.ttl must be positive"))
	}
	if c.Snapshot.HitDelay < 0 || c.Backfill.PageDelay < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if c.Backfill.PageCap <= 0 {
		errs = append(errs, fmt.Errorf("backfill.page_cap must be positive, got %d", c.Backfill.PageCap))
	}
	if c.Backfill.Spacing <= 0 {
		errs = append(errs, errors.New("backfill.spacing must be positive"))
	}
	return errors.Join(errs...)
}

// CacheDir resolves cache.dir, falling back to $XDG_STATE_HOME/knotwatch.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return utils.ExpandHome(c.Cache.Dir)
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "knotwatch"), nil
}

// fileView is the on-disk YAML shape; durations are written as "21m0s" strings.
type fileView struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Marker string `yaml:"marker"`
	Table  struct {
		Rows int `yaml:"rows"`
	} `yaml:"table"`
	Cache struct {
		Backend string `yaml:"backend"`
		Dir     string `yaml:"dir,omitempty"`
	} `yaml:"cache"`
	Snapshot struct {
		TTL      string `yaml:"ttl"`
		HitDelay string `yaml:"hit_delay"`
	} `yaml:"snapshot"`
	Backfill struct {
		TTL           string `yaml:"ttl"`
		PageCap       int    `yaml:"page_cap"`
		PageDelay     string `yaml:"page_delay"`
		Spacing       string `yaml:"spacing"`
		SortSummaries bool   `yaml:"sort_summaries"`
	} `yaml:"backfill"`
	Serve struct {
		Addr            string `yaml:"addr"`
		RefreshInterval string `yaml:"refresh_interval"`
	} `yaml:"serve"`
}

func (c *Config) toFileView() fileView {
	var f fileView
	f.API.BaseURL = c.API.BaseURL
	f.API.Timeout = c.API.Timeout.String()
	f.Marker = c.Marker
	f.Table.Rows = c.Table.Rows
	f.Cache.Backend = c.Cache.Backend
	f.Cache.Dir = c.Cache.Dir
	f.Snapshot.TTL = c.Snapshot.TTL.String()
	f.Snapshot.HitDelay = c.Snapshot.HitDelay.String()
	f.Backfill.TTL = c.Backfill.TTL.String()
	f.Backfill.PageCap = c.Backfill.PageCap
	f.Backfill.PageDelay = c.Backfill.PageDelay.String()
	f.Backfill.Spacing = c.Backfill.Spacing.String()
	f.Backfill.SortSummaries = c.Backfill.SortSummaries
	f.Serve.Addr = c.Serve.Addr
	f.Serve.RefreshInterval = c.Serve.RefreshInterval.String()
	return f
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	configDirRights := 0o755
	configFileRights := 0o644

	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(configDirRights)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c.toFileView())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, os.FileMode(configFileRights)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
