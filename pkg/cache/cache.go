// Package cache provides the caching layer for the build/layout/render
// pipeline. Backends: file (CLI), redis (server), null (disabled).
//
// Keys are derived from content hashes so that identical inputs share
// entries across processes: a snapshot hash keys the built graph, a graph
// hash keys the layout, a layout hash keys rendered artifacts.
package cache

import (
	"context"
	"time"
)

// Default TTLs per pipeline stage. Graphs are cheap to rebuild but the
// inputs change rarely; artifacts are the most expensive to recompute.
const (
	TTLGraph    = 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-blob cache with TTL support.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found;
	// a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// GraphKeyOpts are the inputs that change the built graph beyond the raw
// snapshot bytes.
type GraphKeyOpts struct {
	Focus string // focus node id, empty for the full graph
}

// LayoutKeyOpts are the inputs that change node positions for a given graph.
type LayoutKeyOpts struct {
	Width  int
	Height int
}

// ArtifactKeyOpts are the inputs that change the rendered artifact for a
// given layout.
type ArtifactKeyOpts struct {
	Format string  // svg, png, dot, json
	Scale  float64 // raster scale factor, 0 for vector formats
	Theme  string  // theme fingerprint
}

// Keyer generates cache keys for pipeline stages.
type Keyer interface {
	// GraphKey generates a key for a built graph.
	GraphKey(snapshotHash string, opts GraphKeyOpts) string

	// LayoutKey generates a key for computed node positions.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates keys by hashing the stage inputs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for a built graph.
func (k *DefaultKeyer) GraphKey(snapshotHash string, opts GraphKeyOpts) string {
	return hashKey("graph", snapshotHash, opts.Focus)
}

// LayoutKey generates a key for computed node positions.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts.Width, opts.Height)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts.Format, opts.Scale, opts.Theme)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
