// Package interaction turns user gestures into previews and commits.
//
// The [Controller] is a small state machine over three phases: idle,
// preview active and committing. Hovering a node while holding modifiers
// computes a delta and shows it through a [preview.Overlay]; a double click
// hands that delta to the [Committer], the single code path that mutates
// the model.
//
// Modifier mapping:
//
//	ctrl/cmd          children
//	shift             parents
//	ctrl/cmd + shift  associated
//
// A commit applies the delta, clears the preview, syncs the layout bodies
// with the visible nodes and requests an incremental settle in which only
// the newly visible nodes move. Nodes that leave the layout have their last
// position saved on the model so they come back where they were.
//
// Commits do not nest. A commit requested while one is running fails with
// [ErrBusy]; a delta computed against an older model version is recomputed
// before it is applied.
package interaction
