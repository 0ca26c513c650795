// Package cache stores serialized layouts and rendered artifacts.
//
// # Backends
//
//   - [FileCache]: one JSON envelope per key under a local directory (CLI default)
//   - [RedisCache]: go-redis, shared between API server replicas
//   - [MongoCache]: mongo-driver collection with a TTL index
//   - [NullCache]: never stores anything (--no-cache)
//
// All backends implement [Cache]. A miss is reported as (nil, false, nil);
// errors are reserved for backend failures.
//
// # Keys
//
// A [Keyer] derives keys from the inputs that determine the cached bytes.
// Keys are "<type>:<sha256>" so they are safe as file names, Redis keys and
// Mongo ids alike. [NewScopedKeyer] prefixes every key for isolation.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	GraphTTL    = 7 * 24 * time.Hour
	ArtifactTTL = 24 * time.Hour
)

// Key types reported to observability hooks.
const (
	KeyTypeGraph    = "graph"
	KeyTypeArtifact = "artifact"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// =============================================================================
// Keys
// =============================================================================

// GraphKeyOpts are the layout settings that change a laid-out graph.
type GraphKeyOpts struct {
	HGap     float64 `json:"h_gap"`
	VGap     float64 `json:"v_gap"`
	Margin   float64 `json:"margin"`
	MaxDepth int     `json:"max_depth"`
}

// ArtifactKeyOpts are the render settings that change an exported artifact.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	Highlight string `json:"highlight,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// GraphKey identifies the layout of one input document.
	GraphKey(format, contentHash string, opts GraphKeyOpts) string

	// ArtifactKey identifies a rendered artifact of one layout.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes every key component.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GraphKey returns "graph:<sha256(format, contentHash, opts)>".
func (DefaultKeyer) GraphKey(format, contentHash string, opts GraphKeyOpts) string {
	return hashKey(KeyTypeGraph, format, contentHash, opts)
}

// ArtifactKey returns "artifact:<sha256(graphHash, opts)>".
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, graphHash, opts)
}
