package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/phosphograph/pkg/buildinfo"
	"github.com/matzehuels/phosphograph/pkg/cache"
	"github.com/matzehuels/phosphograph/pkg/config"
	"github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "phosphograph"
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
		Use:   appName,
		Short: "Phosphograph attributes kinase-substrate networks for display",
		Long: `Phosphograph turns a kinase-substrate network into an attributed multigraph:
parallel edges are spread apart, fold-change measurements are merged onto
edges, and a focus node restricts the view to its neighborhood.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.neighborsCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.pickCommand())
	root.AddCommand(c.networksCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	c.registerCompletions(root)

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// settings returns the loaded configuration, or defaults when a command runs
// without the root pre-run (tests calling subcommands directly).
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, c.settings().Cache, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, newKeyer(c.settings().Cache), c.Logger)
	r.TTL = c.settings().Cache.TTL.Duration
	return r, nil
}

// newKeyer applies the configured key prefix, if any.
func newKeyer(cfg config.CacheConfig) cache.Keyer {
	if cfg.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Prefix)
}

// newCache opens the configured artifact cache. A missing cache directory
// degrades to no caching; an unreachable redis is an error.
func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cfg.RedisAddr)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/phosphograph/).
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

// =============================================================================
// Dataset Selection
// =============================================================================

// dataset resolves the dataset a command works on: an explicit file path
// wins, then a named catalog entry, then the first catalog entry.
func (c *CLI) dataset(path, network string) (name, file string, err error) {
	if path != "" {
		return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), path, nil
	}
	cfg := c.settings()
	if network != "" {
		n, ok := cfg.Network(network)
		if !ok {
			return "", "", errors.New(errors.ErrCodeNotFound, "network %q is not in the catalog", network)
		}
		return n.Name, n.Path, nil
	}
	if n, ok := cfg.DefaultNetwork(); ok {
		return n.Name, n.Path, nil
	}
	return "", "", errors.New(errors.ErrCodeInvalidInput, "no dataset given and no network configured (pass a file or add [[network]] to %s)", config.DefaultPath())
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
