// Package config loads treescope settings from defaults, a treescope.yaml
// file, TREESCOPE_ environment variables and command-line flags.
//
// Precedence, highest first: flags, environment, file, defaults. Nested keys
// use "__" in environment names, so TREESCOPE_CACHE__BACKEND=redis sets
// cache.backend.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/treescope/pkg/cache"
	"github.com/matzehuels/treescope/pkg/errors"
	"github.com/matzehuels/treescope/pkg/layout"
	"github.com/matzehuels/treescope/pkg/pipeline"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TREESCOPE_"

	// DefaultAddr is the API server listen address.
	DefaultAddr = "127.0.0.1:8080"

	DefaultLogLevel = "info"

	// DefaultMaxGraphs bounds the server's graph registry.
	DefaultMaxGraphs = 256
)

// FileNames are searched in the working directory when no file is given.
var FileNames = []string{"treescope.yaml", "treescope.yml"}

// Config is the full treescope configuration.
type Config struct {
	Layout        layout.Config `koanf:"layout"`
	Cache         cache.Options `koanf:"cache"`
	Server        Server        `koanf:"server"`
	Log           Log           `koanf:"log"`
	MaxInputBytes int64         `koanf:"max_input_bytes"`

	// File is the config file that was read, empty if none.
	File string `koanf:"-"`
}

// Server configures `treescope serve`.
type Server struct {
	Addr string `koanf:"addr"`

	// Watch is a document to load at startup and reload on change.
	Watch string `koanf:"watch"`

	// MaxGraphs bounds the in-memory graph registry.
	MaxGraphs int `koanf:"max_graphs"`
}

// Log configures the logger.
type Log struct {
	Level string `koanf:"level"`
}

// flagKeys maps flag names to config keys. Flags not listed here are not
// configuration and are ignored by the loader.
var flagKeys = map[string]string{
	"h-gap":           "layout.h_gap",
	"v-gap":           "layout.v_gap",
	"margin":          "layout.margin",
	"max-depth":       "layout.max_depth",
	"cache":           "cache.backend",
	"cache-dir":       "cache.dir",
	"cache-url":       "cache.url",
	"addr":            "server.addr",
	"watch":           "server.watch",
	"log-level":       "log.level",
	"max-input-bytes": "max_input_bytes",
}

func defaults() map[string]any {
	def := layout.DefaultConfig()
	return map[string]any{
		"layout.h_gap":      def.HGap,
		"layout.v_gap":      def.VGap,
		"layout.margin":     def.Margin,
		"layout.max_depth":  def.MaxDepth,
		"cache.backend":     cache.BackendFile,
		"cache.namespace":   cache.DefaultRedisNamespace,
		"cache.database":    cache.DefaultMongoDatabase,
		"cache.collection":  cache.DefaultMongoCollection,
		"server.addr":       DefaultAddr,
		"server.max_graphs": DefaultMaxGraphs,
		"log.level":         DefaultLogLevel,
		"max_input_bytes":   int64(errors.MaxInputBytes),
	}
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Layout: layout.DefaultConfig(),
		Cache: cache.Options{
			Backend:    cache.BackendFile,
			Namespace:  cache.DefaultRedisNamespace,
			Database:   cache.DefaultMongoDatabase,
			Collection: cache.DefaultMongoCollection,
		},
		Server:        Server{Addr: DefaultAddr, MaxGraphs: DefaultMaxGraphs},
		Log:           Log{Level: DefaultLogLevel},
		MaxInputBytes: errors.MaxInputBytes,
	}
}

// Load reads configuration. cfgFile may be empty, in which case the first
// of FileNames present in the working directory is used. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", used, err)
		}
	}

	// TREESCOPE_CACHE__URL -> cache.url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile returns explicit if set, else the first default file name
// that exists.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range FileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Validate checks values that would fail later in less obvious places.
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "layout: %v", err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "log.level: %v", err)
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "", cache.BackendFile, cache.BackendNone:
	case cache.BackendRedis, cache.BackendMongo:
		if c.Cache.URL == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.url is required for the %s backend", c.Cache.Backend)
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "server.addr is required")
	}
	if c.MaxInputBytes < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_input_bytes must not be negative")
	}
	return nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// PipelineOptions returns pipeline options carrying the layout settings and
// input limit. Input, format and outputs are left to the caller.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		HGap:          c.Layout.HGap,
		VGap:          c.Layout.VGap,
		Margin:        c.Layout.Margin,
		MaxDepth:      c.Layout.MaxDepth,
		MaxInputBytes: c.MaxInputBytes,
	}
}
