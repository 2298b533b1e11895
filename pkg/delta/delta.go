// Package delta computes what would change if a node's neighborhood were
// toggled.
//
// [Computer.Compute] is pure: it reads a [graph.Model] and returns a
// [graph.Delta] without mutating anything. The direction is decided from the
// actual visibility state, so the same entry point expands and collapses.
//
// # Disclosure
//
// A neighbor counts as disclosed when it is visible and, if it shares direct
// edges with the toggled node, at least one of them is visible. If any
// neighbor is undisclosed the delta expands; if every neighbor is disclosed
// it collapses; with no neighbors it is empty.
//
// # Expansion
//
// Hidden neighbors are shown. Hidden direct edges to neighbors are shown, as
// are edges joining a newly shown node to a node that is visible or about to
// be.
//
// # Collapse
//
// All visible direct edges to the neighbors are hidden. A neighbor is hidden
// too unless it keeps another visible edge, not among the removed ones, to a
// visible node. This is the still-connected check; it looks at the state
// before the delta is applied.
//
// Nodes blacklisted by the model's filter never appear in a delta and never
// keep a neighbor connected.
package delta

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphreveal/pkg/graph"
)

// Computer builds deltas against a model.
type Computer struct {
	model  *graph.Model
	logger *log.Logger
}

// New returns a Computer reading m. logger may be nil.
func New(m *graph.Model, logger *log.Logger) *Computer {
	return &Computer{model: m, logger: logger}
}

// Model returns the model the computer reads.
func (c *Computer) Model() *graph.Model { return c.model }

// Compute returns the delta for toggling the mode neighborhood of nodeID.
//
// Unknown, hidden or filtered trigger nodes yield an empty delta, as does a
// node without unfiltered neighbors. [graph.ModeHide] is delegated to [Computer.Hide].
func (c *Computer) Compute(nodeID string, mode graph.Mode) graph.Delta {
	if mode == graph.ModeHide {
		return c.Hide(nodeID)
	}
	start := time.Now()
	d := c.empty(nodeID, mode)

	m := c.model
	if !m.HasNode(nodeID) || !m.IsVisible(nodeID) || m.IsFiltered(nodeID) {
		return d
	}

	neighbors := c.neighbors(nodeID, mode)
	if len(neighbors) == 0 {
		return d
	}

	expand := false
	for _, n := range neighbors {
		if !c.disclosed(nodeID, n) {
			expand = true
			break
		}
	}
	if expand {
		c.expansion(&d, neighbors)
	} else {
		c.collapse(&d, neighbors)
	}

	if c.logger != nil {
		c.logger.Debug("delta computed", "node", nodeID, "mode", mode, "direction", d.Direction,
			"size", d.Size(), "elapsed", time.Since(start))
	}
	return d
}

// Hide returns a delta hiding nodeID and its visible edges. It is empty for
// unknown, hidden or filtered nodes.
func (c *Computer) Hide(nodeID string) graph.Delta {
	d := c.empty(nodeID, graph.ModeHide)
	m := c.model
	if !m.IsVisible(nodeID) || m.IsFiltered(nodeID) {
		return d
	}
	d.Direction = graph.DirectionCollapse
	d.NodesToHide = []string{nodeID}
	for _, e := range m.IncidentEdges(nodeID) {
		if e.Visible && !m.EdgeFiltered(e) {
			d.EdgesToHide = append(d.EdgesToHide, e.ID)
		}
	}
	return d
}

func (c *Computer) empty(nodeID string, mode graph.Mode) graph.Delta {
	return graph.Delta{
		Mode:        mode,
		NodeID:      nodeID,
		Direction:   graph.DirectionNone,
		Version:     c.model.Version(),
		NodesToShow: []string{},
		NodesToHide: []string{},
		EdgesToShow: []string{},
		EdgesToHide: []string{},
	}
}

// neighbors drops the node itself, unknown ids and filtered nodes.
func (c *Computer) neighbors(nodeID string, mode graph.Mode) []string {
	var out []string
	for _, n := range c.model.Neighbors(nodeID, mode) {
		if n != nodeID && c.model.HasNode(n) && !c.model.IsFiltered(n) {
			out = append(out, n)
		}
	}
	return out
}

func (c *Computer) direct(a, b string) []graph.Edge {
	var out []graph.Edge
	for _, e := range c.model.DirectEdges(a, b) {
		if !c.model.EdgeFiltered(e) {
			out = append(out, e)
		}
	}
	return out
}

func (c *Computer) disclosed(nodeID, n string) bool {
	if !c.model.IsVisible(n) {
		return false
	}
	direct := c.direct(nodeID, n)
	if len(direct) == 0 {
		return true
	}
	for _, e := range direct {
		if e.Visible {
			return true
		}
	}
	return false
}

func (c *Computer) expansion(d *graph.Delta, neighbors []string) {
	m := c.model
	d.Direction = graph.DirectionExpand

	toShow := make(map[string]bool)
	for _, n := range neighbors {
		if !m.IsVisible(n) {
			toShow[n] = true
			d.NodesToShow = append(d.NodesToShow, n)
		}
	}
	willBeVisible := func(id string) bool {
		return (m.IsVisible(id) || toShow[id]) && !m.IsFiltered(id)
	}

	added := make(map[string]bool)
	add := func(e graph.Edge) {
		if e.Visible || added[e.ID] || m.EdgeFiltered(e) {
			return
		}
		if willBeVisible(e.Source) && willBeVisible(e.Target) {
			added[e.ID] = true
			d.EdgesToShow = append(d.EdgesToShow, e.ID)
		}
	}

	for _, n := range neighbors {
		for _, e := range c.direct(d.NodeID, n) {
			add(e)
		}
	}
	for _, n := range d.NodesToShow {
		for _, e := range m.IncidentEdges(n) {
			add(e)
		}
	}
}

func (c *Computer) collapse(d *graph.Delta, neighbors []string) {
	d.Direction = graph.DirectionCollapse

	removed := make(map[string]bool)
	for _, n := range neighbors {
		for _, e := range c.direct(d.NodeID, n) {
			if e.Visible && !removed[e.ID] {
				removed[e.ID] = true
				d.EdgesToHide = append(d.EdgesToHide, e.ID)
			}
		}
	}

	for _, n := range neighbors {
		if !c.stillConnected(n, removed) {
			d.NodesToHide = append(d.NodesToHide, n)
		}
	}
}

// stillConnected reports whether n keeps a visible edge outside removed to a
// visible, unfiltered node other than itself.
func (c *Computer) stillConnected(n string, removed map[string]bool) bool {
	m := c.model
	for _, e := range m.IncidentEdges(n) {
		if !e.Visible || removed[e.ID] || m.EdgeFiltered(e) {
			continue
		}
		other := e.Other(n)
		if other != n && m.IsVisible(other) {
			return true
		}
	}
	return false
}
