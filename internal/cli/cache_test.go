package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/phosphograph/pkg/cache"
	"github.com/matzehuels/phosphograph/pkg/config"
)

func TestNewCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	mr := miniredis.RunT(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.CacheConfig
		noCache bool
		check   func(cache.Cache) bool
	}{
		{"File", config.CacheConfig{Backend: config.BackendFile}, false, func(c cache.Cache) bool { _, ok := c.(*cache.FileCache); return ok }},
		{"None", config.CacheConfig{Backend: config.BackendNone}, false, func(c cache.Cache) bool { _, ok := c.(*cache.NullCache); return ok }},
		{"NoCacheFlag", config.CacheConfig{Backend: config.BackendFile}, true, func(c cache.Cache) bool { _, ok := c.(*cache.NullCache); return ok }},
		{"Redis", config.CacheConfig{Backend: config.BackendRedis, RedisAddr: mr.Addr()}, false, func(c cache.Cache) bool { _, ok := c.(*cache.RedisCache); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newCache(ctx, tt.cfg, tt.noCache)
			if err != nil {
				t.Fatal(err)
			}
			defer c.Close()
			if !tt.check(c) {
				t.Errorf("got %T", c)
			}
		})
	}
}

func TestNewKeyer(t *testing.T) {
	opts := cache.GraphKeyOpts{Focus: "P31749"}
	plain := newKeyer(config.CacheConfig{}).GraphKey("ds", opts)
	if plain != cache.NewDefaultKeyer().GraphKey("ds", opts) {
		t.Errorf("unprefixed key = %s", plain)
	}
	scoped := newKeyer(config.CacheConfig{Prefix: "staging:"}).GraphKey("ds", opts)
	if scoped != "staging:"+plain {
		t.Errorf("prefixed key = %s, want staging:%s", scoped, plain)
	}
}

func TestCacheLocation(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")

	tests := []struct {
		cfg  config.CacheConfig
		want string
	}{
		{config.CacheConfig{Backend: config.BackendFile}, filepath.Join("/tmp/xdg", appName)},
		{config.CacheConfig{Backend: config.BackendRedis, RedisAddr: "cache:6379"}, "redis://cache:6379/phosphograph:*"},
		{config.CacheConfig{Backend: config.BackendNone}, "disabled"},
	}
	for _, tt := range tests {
		if got := cacheLocation(tt.cfg); got != tt.want {
			t.Errorf("cacheLocation(%s) = %q, want %q", tt.cfg.Backend, got, tt.want)
		}
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	ds := fixture(t, dir, "akt.json")
	cacheHome := t.TempDir()

	// execute isolates XDG_CACHE_HOME per call; pin it so build and clear
	// share one cache.
	run := func(args ...string) string {
		t.Helper()
		t.Setenv("XDG_CACHE_HOME", cacheHome)
		root := New(io.Discard, LogInfo).RootCommand()
		var out strings.Builder
		root.SetOut(&out)
		root.SetArgs(args)
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	run("build", ds, "-f", "dot")
	cacheDir := filepath.Join(cacheHome, appName)
	if n := countFiles(t, cacheDir); n == 0 {
		t.Fatal("build wrote nothing to the cache")
	}

	if got := strings.TrimSpace(run("cache", "path")); got != cacheDir {
		t.Errorf("cache path = %q, want %q", got, cacheDir)
	}

	run("cache", "clear")
	if n := countFiles(t, cacheDir); n != 0 {
		t.Errorf("%d files left after clear", n)
	}
}

func TestCacheClearRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rc, err := cache.NewRedisCache(ctx, mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if err := rc.Set(ctx, "artifact:abc", []byte("x"), time.Hour); err != nil {
		t.Fatal(err)
	}
	mr.Set("unrelated", "keep")

	c := &CLI{cfg: &config.Config{Cache: config.CacheConfig{Backend: config.BackendRedis, RedisAddr: mr.Addr()}}}
	cmd := c.cacheClearCommand()
	cmd.SetContext(ctx)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := rc.Get(ctx, "artifact:abc"); hit {
		t.Error("artifact survived clear")
	}
	if !mr.Exists("unrelated") {
		t.Error("clear removed a key outside the prefix")
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return n
}
