// Package pkg provides the core libraries for Topolens topology mapping.
//
// # Overview
//
// Topolens turns flat virtualization inventory snapshots into interactive
// topology maps. The pkg directory is organized along the pipeline:
//
//  1. [inventory] - Snapshot records: vms, hosts, and optional kpi seeds
//  2. [topo] - The five-level graph builder (env → provider → cluster → host → vm)
//     and its deterministic radial layout under [topo/layout]
//  3. [scene] - The interaction engine: camera, level-of-detail, hit-testing,
//     and frame drawing onto pluggable canvases (SVG sink, terminal cells)
//  4. [pipeline] - Cached build → layout → render orchestration shared by the
//     CLI and the HTTP API
//  5. [export] - Graphviz DOT emission and SVG/PNG rendering of the tree
//
// Supporting packages: [cache] (file and Redis backends with stage-scoped
// keys), [store] (in-memory and MongoDB snapshot persistence), [config]
// (TOML configuration), [errors] (coded errors and input validation),
// [observability] (pipeline, cache, and scene hooks), and [buildinfo]
// (ldflags version stamping).
package pkg
