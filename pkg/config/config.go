// Package config loads phosphograph settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/phosphograph/config.toml unless a path
// is given explicitly. A missing file yields [Default].
//
//	[[network]]
//	name = "kinases"
//	path = "data/kinase_network.json"
//
//	[render]
//	curve_amount = 50
//	show_self_loops = true
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//	watch = true
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/render"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config holds phosphograph configuration.
type Config struct {
	Networks []Network      `toml:"network"`
	Render   render.Options `toml:"render"`
	Cache    CacheConfig    `toml:"cache"`
	Server   ServerConfig   `toml:"server"`

	// dir is the directory of the loaded file; relative network paths
	// resolve against it.
	dir string
}

// Network is a named dataset in the catalog.
type Network struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// CacheConfig selects where rendered artifacts are cached.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
	// Prefix scopes cache keys, so deployments sharing one redis keep
	// separate entries.
	Prefix string `toml:"prefix"`
}

// ServerConfig controls `phosphograph serve`.
type ServerConfig struct {
	Addr  string `toml:"addr"`
	Watch bool   `toml:"watch"`
}

// Duration is a time.Duration written as a Go duration string ("90m").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Render: render.DefaultOptions(),
		Cache:  CacheConfig{Backend: BackendFile, TTL: Duration{24 * time.Hour}},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Dir returns the phosphograph config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "phosphograph")
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config at path, or at DefaultPath if path is empty.
// A missing file at the default location is not an error; a missing file
// at an explicit path is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, err
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	cfg.dir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the catalog, render options and cache backend.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Networks))
	for _, n := range c.Networks {
		if n.Name == "" || n.Path == "" {
			return errors.New(errors.ErrCodeInvalidInput, "network entries need a name and a path")
		}
		if seen[n.Name] {
			return errors.New(errors.ErrCodeInvalidInput, "network %q listed twice", n.Name)
		}
		seen[n.Name] = true
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "redis cache needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (use file, redis or none)", c.Cache.Backend)
	}
	return nil
}

// Network looks up a catalog entry by name. The path is resolved against
// the config file's directory.
func (c *Config) Network(name string) (Network, bool) {
	for _, n := range c.Networks {
		if n.Name == name {
			return c.resolve(n), true
		}
	}
	return Network{}, false
}

// DefaultNetwork returns the first catalog entry.
func (c *Config) DefaultNetwork() (Network, bool) {
	if len(c.Networks) == 0 {
		return Network{}, false
	}
	return c.resolve(c.Networks[0]), true
}

func (c *Config) resolve(n Network) Network {
	if c.dir != "" && !filepath.IsAbs(n.Path) {
		n.Path = filepath.Join(c.dir, n.Path)
	}
	return n
}

// Save writes cfg to path as TOML.
func Save(cfg *Config, path string) error {
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
