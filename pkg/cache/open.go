package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Options selects and configures a cache backend.
type Options struct {
	Backend    string `koanf:"backend"`
	Dir        string `koanf:"dir"`
	URL        string `koanf:"url"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
	Namespace  string `koanf:"namespace"`
}

// Open returns the backend named by opts.Backend. An empty backend means
// file; an empty Dir means [DefaultDir].
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileCache(dir)
	case BackendRedis:
		if opts.URL == "" {
			return nil, fmt.Errorf("redis cache: url is required")
		}
		return OpenRedis(ctx, opts.URL, opts.Namespace)
	case BackendMongo:
		if opts.URL == "" {
			return nil, fmt.Errorf("mongo cache: url is required")
		}
		return OpenMongo(ctx, opts.URL, opts.Database, opts.Collection)
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// DefaultDir returns $XDG_CACHE_HOME/treescope, falling back to
// ~/.cache/treescope.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "treescope"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "treescope"), nil
}
