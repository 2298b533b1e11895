package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphreveal/internal/config"
	"github.com/matzehuels/graphreveal/pkg/buildinfo"
	"github.com/matzehuels/graphreveal/pkg/cache"
	"github.com/matzehuels/graphreveal/pkg/engine"
	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
	"github.com/matzehuels/graphreveal/pkg/graph"
	gio "github.com/matzehuels/graphreveal/pkg/io"
	"github.com/matzehuels/graphreveal/pkg/layout"
	"github.com/matzehuels/graphreveal/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "graphreveal"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "graphreveal discloses large graphs one neighborhood at a time",
		Long:          `graphreveal loads a node/edge dataset and lets you expand and collapse neighborhoods, preview changes before committing them, and keep the resulting view as a session.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.toggleCommand())
	root.AddCommand(c.selectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config returns the loaded configuration, or defaults before loading.
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Storage
// =============================================================================

// openCache returns the configured byte cache. Redis is used when the store
// backend is redis, a file cache otherwise.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.IndexedCache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cfg := c.config().Store
	if cfg.Backend == config.StoreRedis {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// openStore returns the configured session store.
func (c *CLI) openStore(ctx context.Context) (session.Store, error) {
	cfg := c.config().Store
	switch cfg.Backend {
	case config.StoreRedis:
		rc, err := c.openCache(ctx, false)
		if err != nil {
			return nil, err
		}
		var keys cache.Keyer
		if cfg.Namespace != "" {
			keys = cache.NewScopedKeyer(nil, cfg.Namespace+":")
		}
		return session.NewCacheStore(rc, keys), nil
	case config.StoreMongo:
		return session.NewMongoStore(ctx, session.MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
	case config.StoreNone:
		return nil, rerrors.New(rerrors.ErrCodeUnsupported, "sessions are disabled (store backend %q)", cfg.Backend)
	default:
		return session.NewFileStore(cfg.Dir)
	}
}

// =============================================================================
// Datasets and Engines
// =============================================================================

// dataset is an imported dataset together with where it came from.
type dataset struct {
	graph.Dataset
	Path        string
	Fingerprint string
	Cached      bool
}

// loadDataset imports path. Parsed datasets are cached by the hash of the
// raw file so repeated runs skip decoding.
func (c *CLI) loadDataset(ctx context.Context, path string, noCache bool) (*dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, rerrors.Wrap(rerrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, err
	}

	bc, err := c.openCache(ctx, noCache)
	if err != nil {
		c.Logger.Warn("cache unavailable", "err", err)
		bc = cache.NewNullCache()
	}
	defer bc.Close()
	bc = cache.Instrument(bc)

	keys := cache.NewDefaultKeyer()
	key := keys.DatasetKey(cache.Hash(raw))
	if data, hit, err := bc.Get(ctx, key); err == nil && hit {
		var ds graph.Dataset
		if json.Unmarshal(data, &ds) == nil {
			c.Logger.Debug("dataset cache hit", "path", path)
			return &dataset{Dataset: ds, Path: path, Fingerprint: gio.Fingerprint(ds), Cached: true}, nil
		}
	}

	prog := newProgress(loggerFromContext(ctx))
	ds, err := gio.Import(path)
	if err != nil {
		return nil, err
	}
	prog.done("parsed dataset", "path", path, "nodes", len(ds.Nodes), "edges", len(ds.Edges))
	if data, err := json.Marshal(ds); err == nil {
		if err := bc.Set(ctx, key, data, 0); err != nil {
			c.Logger.Debug("dataset cache write failed", "err", err)
		}
	}
	return &dataset{Dataset: ds, Path: path, Fingerprint: gio.Fingerprint(ds)}, nil
}

// newEngine builds an engine over ds with the configured blacklist and
// layout settings. Dropped entities are logged as warnings.
func (c *CLI) newEngine(ctx context.Context, ds graph.Dataset) (*engine.Engine, *graph.IngestReport, error) {
	cfg := c.config()
	filter, err := cfg.GraphFilter()
	if err != nil {
		return nil, nil, err
	}
	eng, report := engine.New(ctx, ds, engine.Options{
		Filter:      filter,
		Simulation:  layout.NewBoard(),
		Layout:      cfg.LayoutOptions(),
		GhostRadius: cfg.Layout.GhostRadius,
		Logger:      c.Logger,
	})
	for _, d := range report.Dropped {
		c.Logger.Warn("dropped", "entity", d.Entity, "detail", d.Message())
	}
	return eng, report, nil
}

// viewSession is the session a command works on. It is nil when the
// command was run without --session.
type viewSession struct {
	store session.Store
	sess  *session.Session
}

// openSession resolves id (a prefix is enough) and restores its snapshot
// onto eng. An empty id opens nothing.
func (c *CLI) openSession(ctx context.Context, eng *engine.Engine, ds *dataset, id string) (*viewSession, error) {
	if id == "" {
		return nil, nil
	}
	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	full, err := session.ResolveID(ctx, store, id)
	if err != nil {
		store.Close()
		return nil, err
	}
	sess, err := store.Get(ctx, full)
	if err != nil {
		store.Close()
		return nil, err
	}
	if sess.DatasetHash != ds.Fingerprint {
		c.Logger.Warn("session was saved for a different dataset", "session", sess.DatasetPath)
	}
	if _, err := eng.Restore(ctx, sess.Snapshot); err != nil {
		store.Close()
		return nil, err
	}
	return &viewSession{store: store, sess: sess}, nil
}

// saveSession stores the engine state in vs, or in a new session when vs
// is nil. It returns the session written to; a new one must be closed by
// the caller.
func (c *CLI) saveSession(ctx context.Context, eng *engine.Engine, ds *dataset, vs *viewSession) (*viewSession, error) {
	ttl := c.config().Store.TTL
	if vs == nil {
		store, err := c.openStore(ctx)
		if err != nil {
			return nil, err
		}
		vs = &viewSession{store: store, sess: session.New(absPath(ds.Path), ds.Fingerprint, eng.Snapshot(), ttl)}
	} else {
		vs.sess.Update(eng.Snapshot(), ttl)
	}
	if err := vs.store.Set(ctx, vs.sess); err != nil {
		return vs, fmt.Errorf("save session: %w", err)
	}
	return vs, nil
}

// ID returns the session id, or "" for a nil session.
func (vs *viewSession) ID() string {
	if vs == nil {
		return ""
	}
	return vs.sess.ID
}

func (vs *viewSession) Close() {
	if vs != nil {
		vs.store.Close()
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/graphreveal/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
