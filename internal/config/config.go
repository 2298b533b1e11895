// Package config loads graphreveal settings from a TOML file, a .env file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
	"github.com/matzehuels/graphreveal/pkg/graph"
	"github.com/matzehuels/graphreveal/pkg/layout"
	"github.com/matzehuels/graphreveal/pkg/preview"
)

// Environment overrides.
const (
	EnvStore     = "GRAPHREVEAL_STORE"
	EnvRedisAddr = "GRAPHREVEAL_REDIS_ADDR"
	EnvRedisDB   = "GRAPHREVEAL_REDIS_DB"
	EnvMongoURI  = "GRAPHREVEAL_MONGO_URI"
	EnvAddr      = "GRAPHREVEAL_ADDR"
)

// Store backends.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
	StoreMongo = "mongo"
	StoreNone  = "none"
)

// Config holds graphreveal configuration.
type Config struct {
	Filter FilterConfig `toml:"filter"`
	Layout LayoutConfig `toml:"layout"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	Render RenderConfig `toml:"render"`
}

// FilterConfig holds the label blacklist.
type FilterConfig struct {
	Blacklist []string `toml:"blacklist"`
}

// LayoutConfig tunes the layout coordinator and ghost placement.
type LayoutConfig struct {
	Settle            time.Duration `toml:"settle"`
	SettleAlphaTarget float64       `toml:"settle_alpha_target"`
	DragAlphaTarget   float64       `toml:"drag_alpha_target"`
	GhostRadius       float64       `toml:"ghost_radius"`
}

// StoreConfig selects where sessions and cached datasets live.
type StoreConfig struct {
	Backend string        `toml:"backend"` // "file", "redis", "mongo", "none"
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl"`
	// Namespace scopes session keys in a shared cache backend.
	Namespace string `toml:"namespace"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`

	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// ServerConfig configures graphreveal serve.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Detailed bool    `toml:"detailed"`
	Pinned   bool    `toml:"pinned"`
	Scale    float64 `toml:"scale"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			Settle:            layout.DefaultSettleDuration,
			SettleAlphaTarget: layout.DefaultSettleAlphaTarget,
			DragAlphaTarget:   layout.DefaultDragAlphaTarget,
			GhostRadius:       preview.DefaultGhostRadius,
		},
		Store: StoreConfig{
			Backend:     StoreFile,
			TTL:         30 * 24 * time.Hour,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "graphreveal:",
		},
		Server: ServerConfig{Addr: "127.0.0.1:8470"},
		Render: RenderConfig{Scale: 2},
	}
}

// Dir returns the graphreveal config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "graphreveal")
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads path, or [DefaultPath] when path is empty, then applies .env
// and environment overrides. A missing default file yields the defaults; a
// missing explicit file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case errors.Is(err, fs.ErrNotExist):
		return nil, rerrors.Wrap(rerrors.ErrCodeFileNotFound, err, "config file %s not found", path)
	case err != nil:
		return nil, err
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, rerrors.Wrap(rerrors.ErrCodeInvalidFormat, err, "parse %s", path)
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvStore); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Store.RedisAddr = v
	}
	if v := os.Getenv(EnvRedisDB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return rerrors.New(rerrors.ErrCodeInvalidInput, "%s must be a number, got %q", EnvRedisDB, v)
		}
		c.Store.RedisDB = db
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Store.MongoURI = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	return nil
}

// Validate checks values the rest of the program relies on.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreFile, StoreRedis, StoreNone:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return rerrors.New(rerrors.ErrCodeInvalidInput, "store backend mongo needs mongo_uri or %s", EnvMongoURI)
		}
	default:
		return rerrors.New(rerrors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}
	if _, err := graph.NewFilter(c.Filter.Blacklist); err != nil {
		return err
	}
	return nil
}

// GraphFilter builds the label blacklist. It returns nil without patterns.
func (c *Config) GraphFilter() (*graph.Filter, error) {
	if len(c.Filter.Blacklist) == 0 {
		return nil, nil
	}
	return graph.NewFilter(c.Filter.Blacklist)
}

// LayoutOptions converts the layout section for the coordinator.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		SettleDuration:    c.Layout.Settle,
		SettleAlphaTarget: c.Layout.SettleAlphaTarget,
		DragAlphaTarget:   c.Layout.DragAlphaTarget,
	}
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
