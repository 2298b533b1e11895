package interaction

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphreveal/pkg/delta"
	"github.com/matzehuels/graphreveal/pkg/graph"
	"github.com/matzehuels/graphreveal/pkg/layout"
	"github.com/matzehuels/graphreveal/pkg/observability"
	"github.com/matzehuels/graphreveal/pkg/preview"
)

// State is the phase of the interaction state machine.
type State int

const (
	StateIdle State = iota
	StatePreviewActive
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreviewActive:
		return "preview"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// Modifiers is the held modifier key state. Primary is ctrl or cmd,
// Secondary is shift.
type Modifiers struct {
	Primary   bool `json:"primary"`
	Secondary bool `json:"secondary"`
}

// Mode maps held modifiers to a toggle mode: primary alone selects
// children, secondary alone parents, both together associated nodes. With
// nothing held ok is false.
func (m Modifiers) Mode() (mode graph.Mode, ok bool) {
	switch {
	case m.Primary && m.Secondary:
		return graph.ModeAssociated, true
	case m.Primary:
		return graph.ModeChildren, true
	case m.Secondary:
		return graph.ModeParents, true
	default:
		return "", false
	}
}

// ModifiersFor returns the modifier combination that selects mode.
func ModifiersFor(mode graph.Mode) Modifiers {
	switch mode {
	case graph.ModeChildren:
		return Modifiers{Primary: true}
	case graph.ModeParents:
		return Modifiers{Secondary: true}
	case graph.ModeAssociated:
		return Modifiers{Primary: true, Secondary: true}
	default:
		return Modifiers{}
	}
}

// Controller turns pointer and keyboard events into previews and commits.
//
//	Idle --hover+modifier--> PreviewActive --double click--> Committing --> Idle
//	PreviewActive --hover end / modifiers released / drag start--> Idle
//
// While committing, previews are suppressed and further commits fail with
// [ErrBusy]. Events are serialized.
type Controller struct {
	computer  *delta.Computer
	overlay   *preview.Overlay
	committer *Committer
	layout    *layout.Coordinator
	logger    *log.Logger

	mu      sync.Mutex
	state   State
	hovered string
	mods    Modifiers
}

// NewController wires a controller. logger may be nil.
func NewController(c *delta.Computer, o *preview.Overlay, cm *Committer, l *layout.Coordinator, logger *log.Logger) *Controller {
	return &Controller{
		computer:  c,
		overlay:   o,
		committer: cm,
		layout:    l,
		logger:    logger,
	}
}

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Hovered returns the node under the pointer, if any.
func (c *Controller) Hovered() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hovered
}

// Hover records the pointer over nodeID with mods held and previews the
// resulting delta. Hovering the node and mode already previewed against the
// current model version does not recompute.
func (c *Controller) Hover(ctx context.Context, nodeID string, mods Modifiers) preview.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hovered = nodeID
	c.mods = mods
	return c.refreshLocked(ctx)
}

// HoverEnd clears the preview when the pointer leaves a node.
func (c *Controller) HoverEnd(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hovered = ""
	if c.state == StateCommitting {
		return
	}
	c.clearLocked()
}

// ModifiersChanged re-evaluates the preview for the hovered node. Releasing
// every modifier clears it.
func (c *Controller) ModifiersChanged(ctx context.Context, mods Modifiers) preview.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mods = mods
	return c.refreshLocked(ctx)
}

// DoubleClick commits the toggle selected by mods on nodeID. The previewed
// delta is reused when it belongs to the same node, mode and model version.
// Without a modifier the double click does nothing.
func (c *Controller) DoubleClick(ctx context.Context, nodeID string, mods Modifiers) (graph.Applied, error) {
	mode, ok := mods.Mode()
	if !ok {
		c.mu.Lock()
		busy := c.state == StateCommitting
		c.mu.Unlock()
		if busy {
			return graph.Applied{}, ErrBusy
		}
		return graph.Applied{}, nil
	}
	return c.Toggle(ctx, nodeID, mode)
}

// Toggle commits the mode toggle of nodeID, the keyboard and API equivalent
// of a double click.
func (c *Controller) Toggle(ctx context.Context, nodeID string, mode graph.Mode) (graph.Applied, error) {
	c.mu.Lock()
	if c.state == StateCommitting {
		c.mu.Unlock()
		return graph.Applied{}, ErrBusy
	}
	d, ok := c.previewedLocked(nodeID, mode)
	if !ok {
		d = c.computeLocked(ctx, nodeID, mode)
	}
	if d.IsEmpty() {
		c.clearLocked()
		c.mu.Unlock()
		return graph.Applied{}, nil
	}
	c.state = StateCommitting
	c.mu.Unlock()

	applied, err := c.committer.Commit(ctx, d)

	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
	if err != nil {
		return applied, err
	}
	if c.logger != nil {
		c.logger.Debug("toggle committed", "node", nodeID, "mode", mode, "direction", d.Direction)
	}
	return applied, nil
}

// Preview shows the toggle of nodeID in mode without a pointer, the keyboard
// and API counterpart of Hover. Unlike Hover it accepts [graph.ModeHide].
// The preview lasts until the next pointer event, commit or ClearPreview.
func (c *Controller) Preview(ctx context.Context, nodeID string, mode graph.Mode) (preview.State, graph.Delta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCommitting {
		return preview.State{}, graph.Delta{}
	}
	d, ok := c.previewedLocked(nodeID, mode)
	if !ok {
		d = c.computeLocked(ctx, nodeID, mode)
	}
	if d.IsEmpty() {
		c.clearLocked()
		return preview.State{}, d
	}
	return c.showLocked(ctx, d), d
}

// ClearPreview drops the preview and returns to Idle.
func (c *Controller) ClearPreview() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCommitting {
		return
	}
	c.clearLocked()
}

// DragStart clears the preview and releases the layout so the dragged node
// pulls its neighbors along.
func (c *Controller) DragStart(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCommitting {
		return
	}
	c.clearLocked()
	c.layout.UnfreezeOnDragStart()
}

// Invalidate drops a preview computed against an older model version and
// recomputes it for the hovered node. Surfaces call it after mutating the
// model outside the controller.
func (c *Controller) Invalidate(ctx context.Context) preview.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Controller) refreshLocked(ctx context.Context) preview.State {
	if c.state == StateCommitting {
		return preview.State{}
	}
	mode, ok := c.mods.Mode()
	if !ok || c.hovered == "" {
		c.clearLocked()
		return preview.State{}
	}
	if _, ok := c.previewedLocked(c.hovered, mode); ok {
		return c.overlay.State()
	}

	d := c.computeLocked(ctx, c.hovered, mode)
	if d.IsEmpty() {
		c.clearLocked()
		return preview.State{}
	}
	return c.showLocked(ctx, d)
}

func (c *Controller) showLocked(ctx context.Context, d graph.Delta) preview.State {
	s := c.overlay.Show(d)
	c.state = StatePreviewActive
	c.layout.Freeze()
	observability.Engine().OnPreview(ctx, string(d.Mode), len(s.Nodes)+len(s.Edges))
	return s
}

// previewedLocked returns the active preview's delta if it was computed for
// nodeID and mode against the current model version.
func (c *Controller) previewedLocked(nodeID string, mode graph.Mode) (graph.Delta, bool) {
	if !c.overlay.Matches(nodeID, mode) {
		return graph.Delta{}, false
	}
	d, ok := c.overlay.Delta()
	if !ok || d.Version != c.computer.Model().Version() {
		return graph.Delta{}, false
	}
	return d, true
}

func (c *Controller) computeLocked(ctx context.Context, nodeID string, mode graph.Mode) graph.Delta {
	start := time.Now()
	d := c.computer.Compute(nodeID, mode)
	observability.Engine().OnDeltaComputed(ctx, string(mode), string(d.Direction), d.Size(), time.Since(start))
	return d
}

func (c *Controller) clearLocked() {
	c.overlay.Clear()
	if c.state == StatePreviewActive {
		c.state = StateIdle
	}
}
