// Package layout coordinates visibility changes with a continuous physics layout.
//
// The [Coordinator] is the only object that touches the [Simulation]. It
// freezes the layout while a preview or commit is in progress, releases it
// when the user starts dragging, and runs an incremental settle after a
// commit: nodes that were already on screen stay pinned, newly visible
// nodes move freely, and after a bounded duration everything is released.
//
// A coordinator built without a simulation turns every call into a no-op.
package layout

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphreveal/pkg/graph"
	"github.com/matzehuels/graphreveal/pkg/observability"
)

// Default coordination parameters.
const (
	DefaultSettleDuration    = time.Second
	DefaultSettleAlphaTarget = 0.3
	DefaultDragAlphaTarget   = 0.3
)

// Timer is a pending settle release.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It exists so tests can drive settle timers.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Options configures a Coordinator.
type Options struct {
	SettleDuration    time.Duration
	SettleAlphaTarget float64
	DragAlphaTarget   float64
	Logger            *log.Logger
	AfterFunc         AfterFunc
}

func (o *Options) setDefaults() {
	if o.SettleDuration <= 0 {
		o.SettleDuration = DefaultSettleDuration
	}
	if o.SettleAlphaTarget <= 0 {
		o.SettleAlphaTarget = DefaultSettleAlphaTarget
	}
	if o.DragAlphaTarget <= 0 {
		o.DragAlphaTarget = DefaultDragAlphaTarget
	}
	if o.AfterFunc == nil {
		o.AfterFunc = realAfterFunc
	}
}

// Coordinator owns freeze, unfreeze and settle. It is safe for concurrent use.
type Coordinator struct {
	sim  Simulation
	opts Options

	mu         sync.Mutex
	timer      Timer
	generation uint64
	frozen     bool
	settling   bool
	settledAt  time.Time
}

// New returns a coordinator driving sim. sim may be nil.
func New(sim Simulation, opts Options) *Coordinator {
	opts.setDefaults()
	return &Coordinator{sim: sim, opts: opts}
}

// Enabled reports whether a simulation is attached.
func (c *Coordinator) Enabled() bool { return c.sim != nil }

// Simulation returns the attached simulation, possibly nil.
func (c *Coordinator) Simulation() Simulation { return c.sim }

// Frozen reports whether every body is pinned and the layout cooled.
func (c *Coordinator) Frozen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frozen
}

// Settling reports whether a settle release is pending.
func (c *Coordinator) Settling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settling
}

// Freeze pins every body at its current position and cools the layout.
func (c *Coordinator) Freeze() {
	if c.sim == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.sim.NodeIDs() {
		c.sim.Pin(id)
	}
	c.sim.Cool()
	c.frozen = true
}

// UnfreezeOnDragStart cancels any pending settle, unpins every body and
// reheats the layout so the dragged node pulls its neighbors along.
func (c *Coordinator) UnfreezeOnDragStart() {
	if c.sim == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	for _, id := range c.sim.NodeIDs() {
		c.sim.Unpin(id)
	}
	c.sim.Reheat(c.opts.DragAlphaTarget)
	c.frozen = false
}

// RequestSettle runs an incremental re-layout: bodies listed in newlyVisible
// move freely, every other body stays pinned, and after the settle duration
// all bodies are released and the layout cools. A new request supersedes a
// pending one.
func (c *Coordinator) RequestSettle(ctx context.Context, newlyVisible []string) {
	if c.sim == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	superseded := c.cancelLocked()
	c.generation++
	gen := c.generation

	fresh := make(map[string]bool, len(newlyVisible))
	for _, id := range newlyVisible {
		fresh[id] = true
	}
	for _, id := range c.sim.NodeIDs() {
		if fresh[id] {
			c.sim.Unpin(id)
		} else {
			c.sim.Pin(id)
		}
	}
	c.sim.Reheat(c.opts.SettleAlphaTarget)
	c.frozen = false
	c.settling = true
	c.settledAt = time.Now()
	c.timer = c.opts.AfterFunc(c.opts.SettleDuration, func() { c.release(ctx, gen) })

	observability.Engine().OnSettleStart(ctx, len(newlyVisible), superseded)
	if c.opts.Logger != nil {
		c.opts.Logger.Debug("settle requested", "new", len(newlyVisible), "superseded", superseded)
	}
}

func (c *Coordinator) release(ctx context.Context, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || !c.settling {
		return
	}
	c.settling = false
	c.timer = nil
	defer observability.Engine().OnSettleComplete(ctx, time.Since(c.settledAt))
	if c.frozen {
		// A preview froze the layout during the settle; its pins stay.
		return
	}
	for _, id := range c.sim.NodeIDs() {
		c.sim.Unpin(id)
	}
	c.sim.Cool()
}

// cancelLocked stops a pending settle and reports whether there was one.
func (c *Coordinator) cancelLocked() bool {
	if !c.settling {
		return false
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	c.settling = false
	return true
}

// Stop cancels a pending settle without releasing the bodies.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// Sync makes the simulation hold exactly the visible ids. Bodies that leave
// are removed and their last positions returned so the caller can remember
// them. Bodies that enter are placed with place.
func (c *Coordinator) Sync(visible []string, place func(id string) graph.Position) map[string]graph.Position {
	if c.sim == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	want := make(map[string]bool, len(visible))
	for _, id := range visible {
		want[id] = true
	}
	left := make(map[string]graph.Position)
	present := make(map[string]bool)
	for _, id := range c.sim.NodeIDs() {
		present[id] = true
		if want[id] {
			continue
		}
		if p, ok := c.sim.Position(id); ok {
			left[id] = p
		}
		c.sim.RemoveNode(id)
	}
	for _, id := range visible {
		if !present[id] {
			c.sim.AddNode(id, place(id))
		}
	}
	return left
}

// Position returns the current position of one body.
func (c *Coordinator) Position(id string) (graph.Position, bool) {
	if c.sim == nil {
		return graph.Position{}, false
	}
	return c.sim.Position(id)
}

// Positions returns the current position of every body.
func (c *Coordinator) Positions() map[string]graph.Position {
	if c.sim == nil {
		return nil
	}
	out := make(map[string]graph.Position)
	for _, id := range c.sim.NodeIDs() {
		if p, ok := c.sim.Position(id); ok {
			out[id] = p
		}
	}
	return out
}
