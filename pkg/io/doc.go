// Package io reads and writes graph datasets.
//
// # Overview
//
// Datasets come from an upstream producer whose exact shape this package
// tolerates rather than defines. Two layouts are accepted for every entity:
// flat records and Cytoscape elements that wrap the fields in a "data"
// object.
//
//	{
//	  "nodes": [
//	    {"id": "Person", "label": "Person", "visible": true, "isType": true},
//	    {"data": {"id": "Student", "label": "Student*", "type": true}}
//	  ],
//	  "edges": [
//	    {"source": "Person", "target": "Student"},
//	    {"data": {"id": "e1", "source": "Student", "target": "Person", "visible": false}}
//	  ],
//	  "associations": {"Person": ["Student"]}
//	}
//
// A top-level "elements" object holding "nodes" and "edges", as Cytoscape
// exports it, is accepted as well.
//
// # Fields
//
// Nodes:
//   - id: unique identifier (required)
//   - label: display label, matched against the label blacklist
//   - visible or initialVisible: initial visibility (default false)
//   - selected: initial selection
//   - isType, isViolation, isExemplar: kind flags; "type", "violation" and
//     "exemplar" are read the same way and count as set for any truthy value
//   - position, or x and y: a layout position to start from
//
// Edges:
//   - id: unique identifier; defaults to "source->target"
//   - source and target, or from and to: endpoint node ids
//   - label, visible or initialVisible, selected
//
// Missing optional fields default to false or empty. Structural problems
// such as duplicate ids or unknown endpoints are not reported here; they are
// left to [graph.Model.Ingest], which skips the offending entities and
// reports them.
//
// # Formats
//
// [Import] picks a decoder by file extension: ".yaml" and ".yml" are read
// as YAML, everything else as JSON. [ReadJSON] and [ReadYAML] decode from
// any io.Reader.
//
// # Export
//
// [WriteJSON] and [WriteYAML] write the flat layout, which reads back
// unchanged. [Subgraph] extracts the visible part of a model as a dataset.
//
// # Fingerprints
//
// [Fingerprint] hashes a dataset with BLAKE3 so sessions can detect that
// they are restored onto different data.
package io
