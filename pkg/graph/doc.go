// Package graph holds the canonical visibility state of a disclosed graph.
//
// A [Model] is built once per dataset with [Model.Ingest] and afterwards only
// mutated through [Model.ApplyDelta], [Model.ApplySelection], [Model.Reset] and
// [Model.Restore]. Every mutation re-derives edge visibility so that a visible
// edge always has two visible endpoints.
//
// # Core Types
//
//   - [Node], [Edge]: the entities, each carrying a visible flag
//   - [Adjacency]: children and parents lists built from the full edge set
//   - [Delta]: a value describing what to show and hide; computing one never
//     mutates the model, applying it is the only mutation
//   - [Filter]: label blacklist; filtered nodes never appear in readouts
//   - [Snapshot]: serializable visibility state used for session persistence
//
// # Readout
//
// Rendering surfaces read the model through [Model.VisibleNodeIDs] and
// [Model.VisibleEdgeIDs]. Both honor the filter: a filtered node, and every edge
// touching one, is excluded even when its raw flag is set.
//
// # Origins
//
// The model remembers which node's expansion first revealed another node. The
// origin is used as a placement hint when the node re-enters the layout and is
// cleared when the node is hidden, so a node revealed again from a different
// neighbor takes that neighbor as its new origin.
//
// A Model is not safe for concurrent use without external synchronization.
package graph
