package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/thinkofyou/pkg/access"
	"github.com/matzehuels/thinkofyou/pkg/buildinfo"
	"github.com/matzehuels/thinkofyou/pkg/cache"
	"github.com/matzehuels/thinkofyou/pkg/config"
	"github.com/matzehuels/thinkofyou/pkg/errors"
	"github.com/matzehuels/thinkofyou/pkg/notify"
	"github.com/matzehuels/thinkofyou/pkg/pipeline"
	"github.com/matzehuels/thinkofyou/pkg/store"
	"github.com/matzehuels/thinkofyou/pkg/tap"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "thinkofyou"

	// defaultConfigFile is picked up from the working directory when no
	// --config flag or THINKOFYOU_CONFIG is given.
	defaultConfigFile = "thinkofyou.toml"

	// keyEnv supplies --as when the flag is omitted.
	keyEnv = config.EnvPrefix + "KEY"
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
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the logging
// observability hooks are installed as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		registerLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "thinkofyou",
		Short:        "thinkofyou lets two people tap to say they are thinking of each other",
		Long:         `thinkofyou records taps and shows each person the other's recent taps as a cluster of non-overlapping bubbles colored by time of day.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.toml, .yaml); defaults to ./"+defaultConfigFile)

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.tapCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// ExitCode maps a command error to a process exit code: 130 after an
// interrupt (shell convention for SIGINT), 2 for configuration and usage
// errors, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, context.Canceled):
		return 130
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidInput, errors.ErrCodeUnauthorized:
		return 2
	default:
		return 1
	}
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig resolves the config file and loads it.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "CONFIG")
	}
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path, "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
	}
	return cfg, nil
}

// =============================================================================
// Components
// =============================================================================

// app bundles the components every command builds from the config.
type app struct {
	cfg       *config.Config
	store     store.Store
	publisher notify.Publisher
	keys      *access.Keys
	runner    *pipeline.Runner
	tapper    *tap.Service
}

// openApp builds the components from cfg. noCache forces the null cache.
func (c *CLI) openApp(ctx context.Context, cfg *config.Config, noCache bool) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	keys, err := newKeys(cfg.People)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, store.Options{
		Backend:  cfg.Store.Backend,
		Path:     cfg.Store.Path,
		URL:      cfg.Store.URL,
		Database: cfg.Store.Database,
		Prefix:   cfg.Store.Prefix,
	})
	if err != nil {
		return nil, err
	}

	pub, err := notify.Open(cfg.Notify.Backend, cfg.Notify.Brokers, cfg.Notify.Topic)
	if err != nil {
		st.Close()
		return nil, err
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		pub.Close()
		st.Close()
		return nil, err
	}

	c.Logger.Debug("components ready",
		"store", cfg.Store.Backend,
		"cache", cfg.Cache.Backend,
		"notify", cfg.Notify.Backend,
		"people", keys.Len())

	return &app{
		cfg:       cfg,
		store:     st,
		publisher: pub,
		keys:      keys,
		runner:    runner,
		tapper: tap.New(st,
			tap.WithPublisher(pub),
			tap.WithLogger(c.Logger),
			tap.WithLocation(loc)),
	}, nil
}

// Close releases every component.
func (a *app) Close() error {
	return stderrors.Join(a.runner.Close(), a.publisher.Close(), a.store.Close())
}

// identity resolves the --as key, falling back to THINKOFYOU_KEY.
func (a *app) identity(key string) (access.Identity, error) {
	if key == "" {
		key = os.Getenv(keyEnv)
	}
	if key == "" {
		return access.Identity{}, errors.New(errors.ErrCodeUnauthorized, "no access key: pass --as or set %s", keyEnv)
	}
	return a.keys.Resolve(key)
}

func newKeys(people []config.Person) (*access.Keys, error) {
	ids := make([]access.Identity, len(people))
	for i, p := range people {
		ids[i] = access.Identity{Key: p.Key, Name: p.Name, Owner: p.Owner, Partner: p.Partner}
	}
	return access.NewKeys(ids...)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	ch, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer = cache.NewDefaultKeyer()
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Cache.Prefix)
	}
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	r.TTL = cfg.CacheTTL()
	return r, nil
}

func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case "file":
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	case "redis":
		return cache.NewRedisCache(ctx, cfg.URL)
	case "", "null":
		return cache.NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/thinkofyou/).
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
