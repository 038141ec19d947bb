package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "GRIDNAV_CONFIG"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all configuration for the gridnav binary.
type Config struct {
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// Watch reloads terrain and grids when the config or scenario changes.
	Watch bool `yaml:"watch" toml:"watch"`

	Service  ServiceConfig  `yaml:"service" toml:"service"`
	Grids    []GridConfig   `yaml:"grids" toml:"grids"`
	Terrain  TerrainConfig  `yaml:"terrain" toml:"terrain"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Scenario ScenarioConfig `yaml:"scenario" toml:"scenario"`
}

// ServiceConfig tunes the path service scheduler.
type ServiceConfig struct {
	TickInterval      time.Duration `yaml:"tick_interval" toml:"tick_interval"`
	ExpansionsPerTick int           `yaml:"expansions_per_tick" toml:"expansions_per_tick"`
	RowsPerTick       int           `yaml:"rows_per_tick" toml:"rows_per_tick"`
	MaxExpansions     int           `yaml:"max_expansions" toml:"max_expansions"` // 0 = grid size
}

// DatabaseConfig holds PostgreSQL connection parameters.
// Grid snapshots are persisted only when Enabled is set.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	User     string `yaml:"user" toml:"user"`
	Password string `yaml:"password" toml:"password"`
	DBName   string `yaml:"dbname" toml:"dbname"`
	SSLMode  string `yaml:"sslmode" toml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// ScenarioConfig points at an optional Lua scenario script.
type ScenarioConfig struct {
	Script string `yaml:"script" toml:"script"`
}

// Default returns Config with sensible defaults: one 100x100 planar grid
// over flat terrain, scanned on load.
func Default() Config {
	return Config{
		LogLevel: "info",
		Service: ServiceConfig{
			TickInterval:      20 * time.Millisecond,
			ExpansionsPerTick: 100,
			RowsPerTick:       25,
		},
		Grids: []GridConfig{
			{
				Name:             "world",
				Topology:         "planar",
				NodeRadius:       0.5,
				WorldSize:        [2]float64{100, 100},
				SlopeLimit:       45,
				UnwalkableLayers: []string{"obstacle", "water"},
				ScanOnLoad:       true,
			},
		},
		Terrain: TerrainConfig{
			Width:       100,
			Depth:       100,
			CellSize:    1,
			HeightScale: 10,
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "gridnav",
			Password: "gridnav",
			DBName:   "gridnav",
			SSLMode:  "disable",
		},
	}
}

// Path returns the config path from EnvPath, or def when unset.
func Path(def string) string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return def
}

// Load loads config from a YAML or TOML file, chosen by extension.
// If the file doesn't exist, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	// Decoding replaces the default grid list rather than merging into it.
	cfg.Grids = nil
	if err := decode(path, data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config %s: %w", path, err)
	}
	if len(cfg.Grids) == 0 {
		cfg.Grids = Default().Grids
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// Validate reports the first inconsistency in cfg.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if len(c.Grids) == 0 {
		return fmt.Errorf("no grids: %w", ErrInvalid)
	}
	seen := make(map[string]struct{}, len(c.Grids))
	for i, g := range c.Grids {
		if g.Name == "" {
			return fmt.Errorf("grid %d has no name: %w", i, ErrInvalid)
		}
		if _, dup := seen[g.Name]; dup {
			return fmt.Errorf("duplicate grid %q: %w", g.Name, ErrInvalid)
		}
		seen[g.Name] = struct{}{}
		if _, err := g.Settings(); err != nil {
			return err
		}
	}
	if c.Service.TickInterval < 0 || c.Service.ExpansionsPerTick < 0 || c.Service.RowsPerTick < 0 || c.Service.MaxExpansions < 0 {
		return fmt.Errorf("negative service budget: %w", ErrInvalid)
	}
	return c.Terrain.validate()
}

// ParseLevel maps a log level name to a slog.Level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", level, ErrInvalid)
	}
}
