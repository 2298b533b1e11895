// Package pkg provides the libraries behind graphreveal, an engine for
// progressively disclosing large node/edge graphs.
//
// # Overview
//
// A dataset starts mostly hidden. Users reveal it one neighborhood at a time:
// children, parents or associated nodes of a visible node. Every change is
// first previewed as ghosts and only applied on commit. The pkg directory is
// organized into three areas:
//
//  1. Domain - [graph] (model, deltas, snapshots), [delta] (disclosure
//     rules), [preview] (ghost overlay), [interaction] (pointer state
//     machine and commits), [layout] (settle coordination) and [engine],
//     which puts them behind one mutex
//  2. Surfaces - [server] (HTTP and WebSocket), [render] (DOT, SVG, PNG, PDF)
//     and [io] (JSON and YAML datasets)
//  3. Infrastructure - [cache], [session], [observability] and [errors]
//
// # Architecture
//
// The typical data flow through graphreveal:
//
//	Dataset file
//	     ↓
//	[io] package (decode, fingerprint)
//	     ↓
//	[graph.Model] (ingest, filter, adjacency)
//	     ↓
//	[delta.Computer] → [preview.Overlay] → [interaction.Committer]
//	     ↓
//	[engine.Frame] → server / render / terminal
//
// # Quick Start
//
//	ds, err := io.Import("ontology.json")
//	if err != nil {
//	    return err
//	}
//	eng, report := engine.New(ctx, ds, engine.Options{})
//	defer eng.Close()
//	if !report.OK() {
//	    log.Warn("dropped entities", "err", report.Err())
//	}
//
//	// Show what expanding Person's children would do, then apply it.
//	state, delta := eng.Preview(ctx, "Person", graph.ModeChildren)
//	applied, err := eng.Toggle(ctx, "Person", graph.ModeChildren)
//
// See the individual package docs for details.
package pkg
