// Package engine assembles the disclosure components behind one handle.
//
// An [Engine] owns a [graph.Model] together with its delta computer,
// preview overlay, layout coordinator, committer and interaction controller.
// Every call is serialized, which makes an engine safe to share between the
// HTTP surface, a websocket hub and background settle timers.
//
// Surfaces read the result through [Engine.Frame]: the filtered visible
// subgraph with current layout positions plus the active preview.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphreveal/pkg/delta"
	"github.com/matzehuels/graphreveal/pkg/graph"
	"github.com/matzehuels/graphreveal/pkg/interaction"
	"github.com/matzehuels/graphreveal/pkg/layout"
	"github.com/matzehuels/graphreveal/pkg/observability"
	"github.com/matzehuels/graphreveal/pkg/preview"
)

// Options configures an Engine. The zero value runs without a layout
// simulation, without a label blacklist and without logging.
type Options struct {
	Filter      *graph.Filter
	Simulation  layout.Simulation
	Layout      layout.Options
	GhostRadius float64
	Logger      *log.Logger
}

// Engine is the assembled disclosure engine.
type Engine struct {
	mu sync.Mutex

	model     *graph.Model
	computer  *delta.Computer
	overlay   *preview.Overlay
	coord     *layout.Coordinator
	committer *interaction.Committer
	ctrl      *interaction.Controller
	logger    *log.Logger
}

// New builds an engine and ingests ds. The report lists entities that were
// dropped; the engine is usable either way.
func New(ctx context.Context, ds graph.Dataset, opts Options) (*Engine, *graph.IngestReport) {
	if opts.Layout.Logger == nil {
		opts.Layout.Logger = opts.Logger
	}
	var place preview.Placer
	if opts.GhostRadius > 0 {
		place = preview.Ring(opts.GhostRadius)
	}

	e := &Engine{logger: opts.Logger}
	e.model = graph.NewModel(opts.Filter)
	e.computer = delta.New(e.model, opts.Logger)
	e.coord = layout.New(opts.Simulation, opts.Layout)
	e.overlay = preview.New(liveSource{model: e.model, coord: e.coord}, place)
	e.committer = interaction.NewCommitter(e.computer, e.overlay, e.coord, opts.Logger)
	e.ctrl = interaction.NewController(e.computer, e.overlay, e.committer, e.coord, opts.Logger)

	report, _ := e.committer.Load(ctx, ds)
	if e.logger != nil {
		e.logger.Debug("dataset loaded", "nodes", report.Nodes, "edges", report.Edges,
			"dropped", len(report.Dropped))
	}
	return e, report
}

// liveSource reads model entities with nodes at their current layout
// position, so ghosts gather around where the trigger is drawn now.
type liveSource struct {
	model *graph.Model
	coord *layout.Coordinator
}

func (s liveSource) Node(id string) (graph.Node, bool) {
	n, ok := s.model.Node(id)
	if !ok {
		return n, false
	}
	if p, ok := s.coord.Position(id); ok {
		n.Position = &p
	}
	return n, true
}

func (s liveSource) Edge(id string) (graph.Edge, bool) { return s.model.Edge(id) }

// Load replaces the dataset and clears the preview.
func (e *Engine) Load(ctx context.Context, ds graph.Dataset) (*graph.IngestReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committer.Load(ctx, ds)
}

// View runs fn with read access to the model. fn must not retain or mutate it.
func (e *Engine) View(fn func(m *graph.Model)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.model)
}

// Version returns the model version.
func (e *Engine) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Version()
}

// State returns the interaction phase.
func (e *Engine) State() interaction.State { return e.ctrl.State() }

// Coordinator returns the layout coordinator.
func (e *Engine) Coordinator() *layout.Coordinator { return e.coord }

// =============================================================================
// Gestures
// =============================================================================

// Hover previews the toggle selected by mods on nodeID.
func (e *Engine) Hover(ctx context.Context, nodeID string, mods interaction.Modifiers) preview.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.Hover(ctx, nodeID, mods)
}

// HoverEnd clears the preview.
func (e *Engine) HoverEnd(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctrl.HoverEnd(ctx)
}

// ModifiersChanged re-evaluates the preview for the hovered node.
func (e *Engine) ModifiersChanged(ctx context.Context, mods interaction.Modifiers) preview.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.ModifiersChanged(ctx, mods)
}

// DoubleClick commits the toggle selected by mods on nodeID.
func (e *Engine) DoubleClick(ctx context.Context, nodeID string, mods interaction.Modifiers) (graph.Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.DoubleClick(ctx, nodeID, mods)
}

// DragStart clears the preview and releases the layout.
func (e *Engine) DragStart(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctrl.DragStart(ctx)
}

// =============================================================================
// Direct operations
// =============================================================================

// Compute returns the delta for toggling nodeID in mode without showing or
// applying it.
func (e *Engine) Compute(ctx context.Context, nodeID string, mode graph.Mode) graph.Delta {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.compute(ctx, nodeID, mode)
}

func (e *Engine) compute(ctx context.Context, nodeID string, mode graph.Mode) graph.Delta {
	start := time.Now()
	d := e.computer.Compute(nodeID, mode)
	observability.Engine().OnDeltaComputed(ctx, string(mode), string(d.Direction), d.Size(), time.Since(start))
	return d
}

// Preview shows the delta for nodeID and mode, hide included, without a
// pointer. The interaction state becomes PreviewActive and the layout
// freezes, as with a hover. A later [Engine.Toggle] for the same node and
// mode reuses the delta.
func (e *Engine) Preview(ctx context.Context, nodeID string, mode graph.Mode) (preview.State, graph.Delta) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.Preview(ctx, nodeID, mode)
}

// ClearPreview removes any preview.
func (e *Engine) ClearPreview() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctrl.ClearPreview()
}

// Toggle commits the mode toggle of nodeID.
func (e *Engine) Toggle(ctx context.Context, nodeID string, mode graph.Mode) (graph.Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.Toggle(ctx, nodeID, mode)
}

// Commit applies a delta computed earlier, recomputing it if stale.
func (e *Engine) Commit(ctx context.Context, d graph.Delta) (graph.Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committer.Commit(ctx, d)
}

// Select replaces the selection with ids and forces them visible. With
// widen, every associated node of a listed id is selected too.
func (e *Engine) Select(ctx context.Context, ids []string, widen bool) (graph.Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if widen {
		ids = e.widen(ids)
	}
	applied, err := e.committer.Select(ctx, ids)
	if err == nil {
		e.ctrl.Invalidate(ctx)
	}
	return applied, err
}

func (e *Engine) widen(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	add := func(id string) {
		if !seen[id] && e.model.HasNode(id) && !e.model.IsFiltered(id) {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range ids {
		add(id)
	}
	for _, id := range ids {
		for _, n := range e.model.Adjacency().Associated(id) {
			add(n)
		}
	}
	return out
}

// Reset restores the ingest-time visibility.
func (e *Engine) Reset(ctx context.Context) (graph.Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committer.Reset(ctx)
}

// SetFilter replaces the label blacklist.
func (e *Engine) SetFilter(ctx context.Context, f *graph.Filter) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.committer.SetFilter(ctx, f); err != nil {
		return err
	}
	e.ctrl.Invalidate(ctx)
	return nil
}

// =============================================================================
// Snapshots
// =============================================================================

// Snapshot captures the visibility state together with the current layout
// positions.
func (e *Engine) Snapshot() graph.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model.RecordPositions(e.coord.Positions())
	return e.model.Snapshot()
}

// Restore replaces the visibility state with s.
func (e *Engine) Restore(ctx context.Context, s graph.Snapshot) (graph.Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committer.Restore(ctx, s)
}

// =============================================================================
// Readout
// =============================================================================

// Frame is what a rendering surface draws.
type Frame struct {
	Version  uint64        `json:"version"`
	State    string        `json:"state"`
	Settling bool          `json:"settling"`
	Nodes    []graph.Node  `json:"nodes"`
	Edges    []graph.Edge  `json:"edges"`
	Preview  preview.State `json:"preview"`
}

// Frame returns the visible subgraph with layout positions and the active
// preview. Filtered nodes and their edges are left out.
func (e *Engine) Frame() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()

	positions := e.coord.Positions()
	nodes := e.model.VisibleNodes()
	for i := range nodes {
		if p, ok := positions[nodes[i].ID]; ok {
			nodes[i].Position = &p
		}
	}
	if nodes == nil {
		nodes = []graph.Node{}
	}
	edges := e.model.VisibleEdges()
	if edges == nil {
		edges = []graph.Edge{}
	}
	return Frame{
		Version:  e.model.Version(),
		State:    e.ctrl.State().String(),
		Settling: e.coord.Settling(),
		Nodes:    nodes,
		Edges:    edges,
		Preview:  e.overlay.State(),
	}
}

// Close cancels a pending settle.
func (e *Engine) Close() {
	e.coord.Stop()
}
