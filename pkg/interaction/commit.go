package interaction

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphreveal/pkg/delta"
	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
	"github.com/matzehuels/graphreveal/pkg/graph"
	"github.com/matzehuels/graphreveal/pkg/layout"
	"github.com/matzehuels/graphreveal/pkg/observability"
	"github.com/matzehuels/graphreveal/pkg/preview"
)

// ErrBusy is returned when a commit is requested while another one runs.
var ErrBusy = rerrors.New(rerrors.ErrCodeBusy, "commit in progress")

// Committer is the only durable path into the model. It applies a delta,
// clears the preview, and hands the newly visible nodes to the layout.
type Committer struct {
	model    *graph.Model
	computer *delta.Computer
	overlay  *preview.Overlay
	layout   *layout.Coordinator
	logger   *log.Logger

	busy atomic.Bool
}

// NewCommitter wires a committer. logger may be nil.
func NewCommitter(c *delta.Computer, o *preview.Overlay, l *layout.Coordinator, logger *log.Logger) *Committer {
	return &Committer{
		model:    c.Model(),
		computer: c,
		overlay:  o,
		layout:   l,
		logger:   logger,
	}
}

// Commit applies d. A delta computed against an older model version is
// recomputed for the same node and mode first. Ids the model does not know
// are ignored.
func (c *Committer) Commit(ctx context.Context, d graph.Delta) (graph.Applied, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return graph.Applied{}, ErrBusy
	}
	defer c.busy.Store(false)

	start := time.Now()
	if d.NodeID != "" && d.Version != c.model.Version() {
		stale := d.Version
		d = c.computer.Compute(d.NodeID, d.Mode)
		c.debug("stale delta recomputed", "node", d.NodeID, "mode", d.Mode,
			"was", stale, "now", d.Version)
	}

	applied := c.model.ApplyDelta(d)
	c.overlay.Clear()
	c.settle(ctx, applied)

	observability.Engine().OnCommit(ctx, string(d.Mode), len(applied.ShownNodes), len(applied.HiddenNodes),
		time.Since(start), nil)
	c.debug("delta committed", "node", d.NodeID, "mode", d.Mode,
		"shown", len(applied.ShownNodes), "hidden", len(applied.HiddenNodes))
	return applied, nil
}

// Select forces ids visible and marks them selected, outside the collapse
// safety of delta computation.
func (c *Committer) Select(ctx context.Context, ids []string) (graph.Applied, error) {
	return c.mutate(ctx, "select", func() graph.Applied { return c.model.ApplySelection(ids) })
}

// Reset restores the ingest-time visibility.
func (c *Committer) Reset(ctx context.Context) (graph.Applied, error) {
	return c.mutate(ctx, "reset", func() graph.Applied {
		c.overlay.Clear()
		return c.model.Reset()
	})
}

// Restore replaces the visibility state with a snapshot.
func (c *Committer) Restore(ctx context.Context, s graph.Snapshot) (graph.Applied, error) {
	return c.mutate(ctx, "restore", func() graph.Applied {
		c.overlay.Clear()
		return c.model.Restore(s)
	})
}

// Load replaces the dataset. Every visible node of the new dataset counts
// as newly visible for the settle.
func (c *Committer) Load(ctx context.Context, ds graph.Dataset) (*graph.IngestReport, error) {
	var report *graph.IngestReport
	_, err := c.mutate(ctx, "load", func() graph.Applied {
		c.overlay.Clear()
		report = c.model.Ingest(ds)
		return graph.Applied{ShownNodes: c.model.VisibleNodeIDs()}
	})
	if err != nil {
		return nil, err
	}
	observability.Engine().OnIngest(ctx, report.Nodes, report.Edges, len(report.Dropped))
	return report, nil
}

// SetFilter replaces the label blacklist. Raw visibility is untouched; the
// layout follows the new readout.
func (c *Committer) SetFilter(ctx context.Context, f *graph.Filter) error {
	_, err := c.mutate(ctx, "filter", func() graph.Applied {
		c.overlay.Clear()
		c.model.SetFilter(f)
		return graph.Applied{}
	})
	return err
}

func (c *Committer) mutate(ctx context.Context, op string, fn func() graph.Applied) (graph.Applied, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return graph.Applied{}, ErrBusy
	}
	defer c.busy.Store(false)

	start := time.Now()
	applied := fn()
	c.settle(ctx, applied)
	observability.Engine().OnCommit(ctx, op, len(applied.ShownNodes), len(applied.HiddenNodes), time.Since(start), nil)
	return applied, nil
}

// Busy reports whether a commit is running.
func (c *Committer) Busy() bool { return c.busy.Load() }

// settle brings the simulation in line with the model: bodies that left have
// their positions remembered, newly visible bodies move while the rest stay
// pinned.
func (c *Committer) settle(ctx context.Context, applied graph.Applied) {
	if !c.layout.Enabled() {
		return
	}
	left := c.layout.Sync(c.model.VisibleNodeIDs(), c.place)
	c.model.RecordPositions(left)
	c.layout.Freeze()
	c.layout.RequestSettle(ctx, applied.ShownNodes)
}

// place puts a body entering the simulation at its saved position, next to
// its origin, or at the origin of the layout.
func (c *Committer) place(id string) graph.Position {
	if p, ok := c.model.Position(id); ok {
		return p
	}
	if o, ok := c.model.Origin(id); ok {
		if p, ok := c.layout.Simulation().Position(o); ok {
			return p
		}
		if p, ok := c.model.Position(o); ok {
			return p
		}
	}
	return graph.Position{}
}

func (c *Committer) debug(msg string, kv ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, kv...)
	}
}
