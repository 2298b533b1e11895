// Package preview renders a delta as a transient ghost overlay.
//
// An [Overlay] holds at most one preview. [Overlay.Show] replaces it
// completely and [Overlay.Clear] removes it. Ghosts are copies of model
// entities, never references, so nothing a surface does with them can leak
// back into the model, and showing any number of previews leaves the model
// untouched.
package preview

import (
	"math"
	"slices"
	"sync"

	"github.com/matzehuels/graphreveal/pkg/graph"
)

// GhostKind tells whether a ghost stands for an addition or a removal.
type GhostKind string

const (
	GhostAddition GhostKind = "addition"
	GhostRemoval  GhostKind = "removal"
)

// GhostNode is a detached copy of a model node.
type GhostNode struct {
	graph.Node
	Ghost GhostKind `json:"ghost"`
}

// GhostEdge is a detached copy of a model edge.
type GhostEdge struct {
	graph.Edge
	Ghost GhostKind `json:"ghost"`
}

// State is the current preview. The zero value is the inactive state.
type State struct {
	Active bool        `json:"active"`
	Mode   graph.Mode  `json:"mode,omitempty"`
	NodeID string      `json:"nodeId,omitempty"`
	Nodes  []GhostNode `json:"ghostNodes,omitempty"`
	Edges  []GhostEdge `json:"ghostEdges,omitempty"`
}

func (s State) clone() State {
	s.Nodes = slices.Clone(s.Nodes)
	for i := range s.Nodes {
		if p := s.Nodes[i].Position; p != nil {
			cp := *p
			s.Nodes[i].Position = &cp
		}
	}
	s.Edges = slices.Clone(s.Edges)
	return s
}

// Source is the read-only view of the model an overlay copies from.
type Source interface {
	Node(id string) (graph.Node, bool)
	Edge(id string) (graph.Edge, bool)
}

// Placer positions the i-th of n ghost additions around the trigger node.
type Placer func(anchor graph.Position, i, n int) graph.Position

// Ring places ghosts evenly on a circle of the given radius around the anchor.
func Ring(radius float64) Placer {
	return func(anchor graph.Position, i, n int) graph.Position {
		if n <= 0 {
			return anchor
		}
		angle := 2 * math.Pi * float64(i) / float64(n)
		return graph.Position{
			X: anchor.X + radius*math.Cos(angle),
			Y: anchor.Y + radius*math.Sin(angle),
		}
	}
}

// DefaultGhostRadius is the distance between a trigger node and its ghost additions.
const DefaultGhostRadius = 40

// Overlay owns the preview state. It is safe for concurrent use.
type Overlay struct {
	source Source
	place  Placer

	mu    sync.RWMutex
	state State
	delta graph.Delta
}

// New returns an inactive overlay. place may be nil for [Ring] with
// [DefaultGhostRadius].
func New(source Source, place Placer) *Overlay {
	if place == nil {
		place = Ring(DefaultGhostRadius)
	}
	return &Overlay{source: source, place: place}
}

// Show replaces the preview with ghosts for d. nodesToShow become ghost
// additions placed around the trigger node, nodesToHide become removal
// ghosts at their own position, and listed edges become addition or removal
// ghost edges. An empty delta clears the preview. Ids the source does not
// know are skipped.
func (o *Overlay) Show(d graph.Delta) State {
	if d.IsEmpty() {
		o.Clear()
		return State{}
	}

	s := State{Active: true, Mode: d.Mode, NodeID: d.NodeID}

	var anchor graph.Position
	if trigger, ok := o.source.Node(d.NodeID); ok && trigger.Position != nil {
		anchor = *trigger.Position
	}
	for i, id := range d.NodesToShow {
		n, ok := o.source.Node(id)
		if !ok {
			continue
		}
		p := o.place(anchor, i, len(d.NodesToShow))
		n.Position = &p
		n.Visible = true
		s.Nodes = append(s.Nodes, GhostNode{Node: n, Ghost: GhostAddition})
	}
	for _, id := range d.NodesToHide {
		if n, ok := o.source.Node(id); ok {
			s.Nodes = append(s.Nodes, GhostNode{Node: n, Ghost: GhostRemoval})
		}
	}
	for _, id := range d.EdgesToShow {
		if e, ok := o.source.Edge(id); ok {
			e.Visible = true
			s.Edges = append(s.Edges, GhostEdge{Edge: e, Ghost: GhostAddition})
		}
	}
	for _, id := range d.EdgesToHide {
		if e, ok := o.source.Edge(id); ok {
			s.Edges = append(s.Edges, GhostEdge{Edge: e, Ghost: GhostRemoval})
		}
	}

	o.mu.Lock()
	o.state = s
	o.delta = d.Clone()
	o.mu.Unlock()
	return s.clone()
}

// Clear removes the preview. It is idempotent.
func (o *Overlay) Clear() {
	o.mu.Lock()
	o.state = State{}
	o.delta = graph.Delta{}
	o.mu.Unlock()
}

// State returns a copy of the current preview.
func (o *Overlay) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.clone()
}

// Active reports whether a preview is shown.
func (o *Overlay) Active() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.Active
}

// Delta returns the delta behind the active preview.
func (o *Overlay) Delta() (graph.Delta, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if !o.state.Active {
		return graph.Delta{}, false
	}
	return o.delta.Clone(), true
}

// Matches reports whether the active preview was computed for nodeID and mode.
func (o *Overlay) Matches(nodeID string, mode graph.Mode) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.Active && o.state.NodeID == nodeID && o.state.Mode == mode
}
