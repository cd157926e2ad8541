// Package pipeline provides the core topology pipeline for Topolens.
//
// This package implements the complete build → layout → render pipeline that
// can be used by CLI and API components. By centralizing this logic, we
// ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: Fold the flat inventory snapshot into the hierarchical graph
//  2. Layout: Compute deterministic radial positions for the graph
//  3. Render: Generate output in various formats (SVG, PNG, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, snap, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Build only
//	g, err := runner.Build(ctx, snap, opts)
//
//	// Layout with existing graph
//	lay, err := runner.ComputeLayout(ctx, g, opts)
//
//	// Render with existing layout
//	artifacts, err := runner.Render(ctx, lay, g, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/topolens/topolens/pkg/cache"
	"github.com/topolens/topolens/pkg/errors"
	"github.com/topolens/topolens/pkg/scene"
	"github.com/topolens/topolens/pkg/topo"
	"github.com/topolens/topolens/pkg/topo/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = 800

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = 600

	// DefaultScale is the default raster scale factor for PNG output.
	DefaultScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the topology pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Build options
	SnapshotID string `json:"snapshot_id,omitempty"` // Identifies the input in logs and hooks
	Focus      string `json:"focus,omitempty"`       // Restrict the graph to a node and its relatives
	Refresh    bool   `json:"refresh,omitempty"`     // Bypass the cache on read

	// Layout options
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Scale    float64  `json:"scale,omitempty"`    // Raster scale for PNG
	Detailed bool     `json:"detailed,omitempty"` // Metric-rich DOT labels

	// Runtime options (not serialized)
	Logger *log.Logger  `json:"-"`
	Theme  *scene.Theme `json:"-"` // nil means scene.DefaultTheme

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the built topology graph.
	Graph *topo.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Layout contains the positioned nodes and links.
	Layout layout.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LinkCount  int
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool // Whether the built graph came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults for the full
// pipeline. This method is idempotent - calling it multiple times has the
// same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild checks fields used by the build stage.
func (o *Options) ValidateForBuild() error {
	if o.Focus != "" {
		if err := errors.ValidateNodeID(o.Focus); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return errors.ValidateCanvas(o.Width, o.Height)
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	for _, f := range o.Formats {
		if err := errors.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// theme returns the render theme, defaulting to the shipped palette.
func (o *Options) theme() scene.Theme {
	if o.Theme != nil {
		return *o.Theme
	}
	return scene.DefaultTheme()
}

// GraphKeyOpts returns cache key options for the build stage.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		Focus: o.Focus,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:  o.Width,
		Height: o.Height,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	scale := 0.0
	if format == FormatPNG {
		scale = o.Scale
	}
	th := o.theme()
	fingerprint, _ := marshalJSON(th)
	return cache.ArtifactKeyOpts{
		Format: format,
		Scale:  scale,
		Theme:  cache.Hash(fingerprint),
	}
}
