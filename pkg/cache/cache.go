// Package cache stores rendered artifacts and attributed graphs keyed by
// content hash.
//
// Three backends implement [Cache]:
//   - [FileCache]: one file per entry, grouped by key kind, for the CLI
//   - [RedisCache]: shared cache for `phosphograph serve` deployments
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer], so the same inputs map to the same entry across
// CLI runs and server instances:
//
//	key := keyer.ArtifactKey(graphHash, cache.ArtifactKeyOpts{Format: "svg"})
//	if data, hit, _ := c.Get(ctx, key); hit {
//	    return data
//	}
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind.
const (
	// TTLGraph applies to attributed graphs. Graphs are pure functions of
	// their inputs, so the TTL only bounds disk usage.
	TTLGraph = 7 * 24 * time.Hour

	// TTLArtifact applies to rendered outputs.
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Keyer derives cache keys from content hashes and options.
type Keyer interface {
	// GraphKey identifies an attributed graph: a dataset, an optional
	// overlay and a focus node.
	GraphKey(datasetHash string, opts GraphKeyOpts) string

	// ArtifactKey identifies one rendered output of an attributed graph.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// GraphKeyOpts are the inputs besides the dataset that shape a graph.
type GraphKeyOpts struct {
	OverlayHash string `json:"overlay,omitempty"` // empty when no overlay
	Focus       string `json:"focus,omitempty"`
}

// ArtifactKeyOpts are the render settings that shape an artifact.
type ArtifactKeyOpts struct {
	Format        string  `json:"format"`
	CurveAmount   float64 `json:"curve_amount"`
	ShowSelfLoops bool    `json:"show_self_loops"`
	Detailed      bool    `json:"detailed,omitempty"`
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(datasetHash string, opts GraphKeyOpts) string {
	return hashKey("graph", datasetHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}
