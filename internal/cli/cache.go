package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/phosphograph/pkg/cache"
	"github.com/matzehuels/phosphograph/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout())
			cfg := c.settings().Cache
			if cfg.Backend == config.BackendNone {
				p.info("Caching is disabled")
				return nil
			}

			cc, err := newCache(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer cc.Close()

			clearer, ok := cc.(cache.Clearer)
			if !ok {
				p.warn("The %s cache cannot be cleared", cfg.Backend)
				return nil
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			p.success("Cleared cached artifacts")
			p.detail("%s", cacheLocation(cfg))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where artifacts are cached",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cacheLocation(c.settings().Cache))
			return nil
		},
	}
}

// cacheLocation describes the configured cache: a directory for the file
// backend, a redis URL with key prefix otherwise.
func cacheLocation(cfg config.CacheConfig) string {
	switch cfg.Backend {
	case config.BackendRedis:
		return fmt.Sprintf("redis://%s/%s*", cfg.RedisAddr, cache.DefaultRedisPrefix)
	case config.BackendNone:
		return "disabled"
	}
	dir, err := cacheDir()
	if err != nil {
		return "disabled"
	}
	return dir
}
