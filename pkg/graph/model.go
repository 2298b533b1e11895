package graph

import (
	"fmt"
	"maps"
	"slices"
)

// Model is the canonical node/edge store. It owns the visible flags, the
// adjacency index, the origin map and the last known layout positions.
//
// The zero value is not usable; use [NewModel].
type Model struct {
	nodes     []Node
	nodeIndex map[string]int
	edges     []Edge
	edgeIndex map[string]int
	incident  map[string][]int // node ID -> indices into edges, ingest order
	adj       *Adjacency

	filter   *Filter
	filtered map[string]bool

	initialNodes []bool
	initialEdges []bool

	origin    map[string]string
	positions map[string]Position
	version   uint64
}

// NewModel returns an empty model that applies filter to every dataset it
// ingests. filter may be nil.
func NewModel(filter *Filter) *Model {
	m := &Model{filter: filter}
	m.Ingest(Dataset{})
	return m
}

// =============================================================================
// Ingestion
// =============================================================================

// Ingest replaces the dataset. Visibility is reset to the supplied flags, the
// adjacency index is rebuilt and origins are forgotten.
//
// Ingestion is tolerant: entities with an empty or duplicate ID and edges
// with an unknown endpoint are skipped and listed in the returned report;
// everything else is loaded. The first occurrence of a duplicate ID wins. An
// edge without an ID gets [DefaultEdgeID], suffixed with "#n" if that is
// already taken. Edges supplied as visible with a hidden endpoint are loaded
// hidden.
func (m *Model) Ingest(ds Dataset) *IngestReport {
	report := &IngestReport{}

	m.nodes = make([]Node, 0, len(ds.Nodes))
	m.nodeIndex = make(map[string]int, len(ds.Nodes))
	m.edges = make([]Edge, 0, len(ds.Edges))
	m.edgeIndex = make(map[string]int, len(ds.Edges))
	m.incident = make(map[string][]int, len(ds.Nodes))
	m.origin = make(map[string]string)
	m.positions = make(map[string]Position)

	for i, n := range ds.Nodes {
		switch {
		case n.ID == "":
			report.Dropped = append(report.Dropped, Dropped{Entity: "node", Index: i, Reason: ErrEmptyNodeID})
			continue
		case m.hasNode(n.ID):
			report.Dropped = append(report.Dropped, Dropped{Entity: "node", ID: n.ID, Index: i, Reason: ErrDuplicateNodeID})
			continue
		}
		if n.Position != nil {
			m.positions[n.ID] = *n.Position
			n.Position = nil
		}
		m.nodeIndex[n.ID] = len(m.nodes)
		m.nodes = append(m.nodes, n)
	}

	for i, e := range ds.Edges {
		id := e.ID
		if id == "" {
			id = DefaultEdgeID(e.Source, e.Target)
		}
		switch {
		case !m.hasNode(e.Source):
			report.Dropped = append(report.Dropped, Dropped{Entity: "edge", ID: id, Index: i, Reason: ErrUnknownSource})
			continue
		case !m.hasNode(e.Target):
			report.Dropped = append(report.Dropped, Dropped{Entity: "edge", ID: id, Index: i, Reason: ErrUnknownTarget})
			continue
		case e.ID != "" && m.hasEdge(e.ID):
			report.Dropped = append(report.Dropped, Dropped{Entity: "edge", ID: id, Index: i, Reason: ErrDuplicateEdgeID})
			continue
		}
		if e.ID == "" {
			e.ID = m.freeEdgeID(e.Source, e.Target)
		}
		idx := len(m.edges)
		m.edgeIndex[e.ID] = idx
		m.edges = append(m.edges, e)
		m.incident[e.Source] = append(m.incident[e.Source], idx)
		if e.Target != e.Source {
			m.incident[e.Target] = append(m.incident[e.Target], idx)
		}
	}

	m.adj = newAdjacency(m.edges, ds.Associations)
	m.refilter()
	m.deriveEdges()
	m.initialNodes, m.initialEdges = m.flags()
	m.version++

	report.Nodes = len(m.nodes)
	report.Edges = len(m.edges)
	return report
}

func (m *Model) freeEdgeID(source, target string) string {
	base := DefaultEdgeID(source, target)
	if !m.hasEdge(base) {
		return base
	}
	for n := 2; ; n++ {
		id := fmt.Sprintf("%s#%d", base, n)
		if !m.hasEdge(id) {
			return id
		}
	}
}

// SetFilter replaces the label blacklist. Raw visibility flags are kept;
// only the readout changes.
func (m *Model) SetFilter(f *Filter) {
	m.filter = f
	m.refilter()
	m.version++
}

// Filter returns the active label blacklist, possibly nil.
func (m *Model) Filter() *Filter { return m.filter }

func (m *Model) refilter() {
	m.filtered = make(map[string]bool)
	for _, n := range m.nodes {
		if m.filter.Match(n.Label) {
			m.filtered[n.ID] = true
		}
	}
}

// =============================================================================
// Lookup
// =============================================================================

// Version increases with every mutation.
func (m *Model) Version() uint64 { return m.version }

// NodeCount returns the number of ingested nodes.
func (m *Model) NodeCount() int { return len(m.nodes) }

// EdgeCount returns the number of ingested edges.
func (m *Model) EdgeCount() int { return len(m.edges) }

// Adjacency returns the immutable adjacency index.
func (m *Model) Adjacency() *Adjacency { return m.adj }

func (m *Model) hasNode(id string) bool {
	_, ok := m.nodeIndex[id]
	return ok
}

func (m *Model) hasEdge(id string) bool {
	_, ok := m.edgeIndex[id]
	return ok
}

// HasNode reports whether id was ingested.
func (m *Model) HasNode(id string) bool { return m.hasNode(id) }

// Node returns a copy of the node with its last known position.
func (m *Model) Node(id string) (Node, bool) {
	i, ok := m.nodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return m.nodeCopy(i), true
}

func (m *Model) nodeCopy(i int) Node {
	n := m.nodes[i]
	if p, ok := m.positions[n.ID]; ok {
		n.Position = &p
	}
	return n
}

// Edge returns a copy of the edge.
func (m *Model) Edge(id string) (Edge, bool) {
	i, ok := m.edgeIndex[id]
	if !ok {
		return Edge{}, false
	}
	return m.edges[i], true
}

// Nodes returns copies of all nodes in ingest order.
func (m *Model) Nodes() []Node {
	out := make([]Node, len(m.nodes))
	for i := range m.nodes {
		out[i] = m.nodeCopy(i)
	}
	return out
}

// Edges returns copies of all edges in ingest order.
func (m *Model) Edges() []Edge { return slices.Clone(m.edges) }

// IsVisible reports the raw visible flag of a node. Unknown ids are not visible.
func (m *Model) IsVisible(id string) bool {
	i, ok := m.nodeIndex[id]
	return ok && m.nodes[i].Visible
}

// IsFiltered reports whether the node is blacklisted by label.
func (m *Model) IsFiltered(id string) bool { return m.filtered[id] }

// EdgeFiltered reports whether e touches a blacklisted node.
func (m *Model) EdgeFiltered(e Edge) bool { return m.filtered[e.Source] || m.filtered[e.Target] }

// Neighbors returns the adjacency neighbors of id for mode.
func (m *Model) Neighbors(id string, mode Mode) []string { return m.adj.Neighbors(id, mode) }

// IncidentEdges returns copies of every edge touching id, in ingest order.
func (m *Model) IncidentEdges(id string) []Edge {
	idx := m.incident[id]
	out := make([]Edge, len(idx))
	for i, ei := range idx {
		out[i] = m.edges[ei]
	}
	return out
}

// DirectEdges returns the edges joining a and b in either direction.
func (m *Model) DirectEdges(a, b string) []Edge {
	var out []Edge
	for _, ei := range m.incident[a] {
		if e := m.edges[ei]; e.Connects(a, b) {
			out = append(out, e)
		}
	}
	return out
}

// Origin returns the node whose expansion revealed id.
func (m *Model) Origin(id string) (string, bool) {
	o, ok := m.origin[id]
	return o, ok
}

// Position returns the last recorded layout position of id.
func (m *Model) Position(id string) (Position, bool) {
	p, ok := m.positions[id]
	return p, ok
}

// RecordPositions stores layout positions. Unknown ids are ignored. This is
// not a visibility mutation and does not change the version.
func (m *Model) RecordPositions(ps map[string]Position) {
	for id, p := range ps {
		if m.hasNode(id) {
			m.positions[id] = p
		}
	}
}

// =============================================================================
// Readout
// =============================================================================

// VisibleNodeIDs returns the ids of visible, unfiltered nodes in ingest order.
func (m *Model) VisibleNodeIDs() []string {
	var out []string
	for _, n := range m.nodes {
		if n.Visible && !m.filtered[n.ID] {
			out = append(out, n.ID)
		}
	}
	return out
}

// VisibleEdgeIDs returns the ids of visible edges whose endpoints are both
// unfiltered, in ingest order.
func (m *Model) VisibleEdgeIDs() []string {
	var out []string
	for _, e := range m.edges {
		if e.Visible && !m.EdgeFiltered(e) {
			out = append(out, e.ID)
		}
	}
	return out
}

// VisibleNodes returns copies of the nodes listed by VisibleNodeIDs.
func (m *Model) VisibleNodes() []Node {
	var out []Node
	for i, n := range m.nodes {
		if n.Visible && !m.filtered[n.ID] {
			out = append(out, m.nodeCopy(i))
		}
	}
	return out
}

// VisibleEdges returns copies of the edges listed by VisibleEdgeIDs.
func (m *Model) VisibleEdges() []Edge {
	var out []Edge
	for _, e := range m.edges {
		if e.Visible && !m.EdgeFiltered(e) {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// Mutation
// =============================================================================

// ApplyDelta shows and hides the listed ids, then re-derives edge
// visibility. Unknown ids are ignored, as are edges to show whose endpoints
// are not both visible afterwards.
//
// Nodes shown by a delta with a NodeID record it as their origin; hidden
// nodes lose theirs.
func (m *Model) ApplyDelta(d Delta) Applied {
	var a Applied
	for _, id := range d.NodesToHide {
		if i, ok := m.nodeIndex[id]; ok && m.nodes[i].Visible {
			m.nodes[i].Visible = false
			delete(m.origin, id)
			a.HiddenNodes = append(a.HiddenNodes, id)
		}
	}
	for _, id := range d.NodesToShow {
		if i, ok := m.nodeIndex[id]; ok && !m.nodes[i].Visible {
			m.nodes[i].Visible = true
			if d.NodeID != "" && d.NodeID != id {
				m.origin[id] = d.NodeID
			}
			a.ShownNodes = append(a.ShownNodes, id)
		}
	}
	for _, id := range d.EdgesToHide {
		if i, ok := m.edgeIndex[id]; ok && m.edges[i].Visible {
			m.edges[i].Visible = false
			a.HiddenEdges = append(a.HiddenEdges, id)
		}
	}
	for _, id := range d.EdgesToShow {
		i, ok := m.edgeIndex[id]
		if !ok || m.edges[i].Visible {
			continue
		}
		if e := m.edges[i]; m.IsVisible(e.Source) && m.IsVisible(e.Target) {
			m.edges[i].Visible = true
			a.ShownEdges = append(a.ShownEdges, id)
		}
	}
	a.HiddenEdges = append(a.HiddenEdges, m.deriveEdges()...)
	m.version++
	return a
}

// ApplySelection marks exactly ids as selected and forces them visible,
// together with every edge whose endpoints are both selected. It bypasses
// the collapse safety of delta computation. Unknown ids are ignored.
func (m *Model) ApplySelection(ids []string) Applied {
	beforeNodes, beforeEdges := m.flags()

	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		if m.hasNode(id) {
			selected[id] = true
		}
	}
	for i := range m.nodes {
		n := &m.nodes[i]
		n.Selected = selected[n.ID]
		if n.Selected {
			n.Visible = true
		}
	}
	for i := range m.edges {
		e := &m.edges[i]
		e.Selected = selected[e.Source] && selected[e.Target]
		if e.Selected {
			e.Visible = true
		}
	}
	m.deriveEdges()
	m.version++
	return m.diff(beforeNodes, beforeEdges)
}

// SelectedNodeIDs returns the ids of selected nodes in ingest order.
func (m *Model) SelectedNodeIDs() []string {
	var out []string
	for _, n := range m.nodes {
		if n.Selected {
			out = append(out, n.ID)
		}
	}
	return out
}

// Reset restores the visibility supplied at ingest, clears the selection
// and forgets origins. Positions are kept.
func (m *Model) Reset() Applied {
	beforeNodes, beforeEdges := m.flags()
	for i := range m.nodes {
		m.nodes[i].Visible = m.initialNodes[i]
		m.nodes[i].Selected = false
	}
	for i := range m.edges {
		m.edges[i].Visible = m.initialEdges[i]
		m.edges[i].Selected = false
	}
	clear(m.origin)
	m.deriveEdges()
	m.version++
	return m.diff(beforeNodes, beforeEdges)
}

// deriveEdges hides every visible edge with a hidden endpoint and returns
// their ids.
func (m *Model) deriveEdges() []string {
	var hidden []string
	for i := range m.edges {
		e := &m.edges[i]
		if e.Visible && (!m.IsVisible(e.Source) || !m.IsVisible(e.Target)) {
			e.Visible = false
			hidden = append(hidden, e.ID)
		}
	}
	return hidden
}

func (m *Model) flags() (nodes, edges []bool) {
	nodes = make([]bool, len(m.nodes))
	for i, n := range m.nodes {
		nodes[i] = n.Visible
	}
	edges = make([]bool, len(m.edges))
	for i, e := range m.edges {
		edges[i] = e.Visible
	}
	return nodes, edges
}

func (m *Model) diff(beforeNodes, beforeEdges []bool) Applied {
	var a Applied
	for i, n := range m.nodes {
		switch {
		case n.Visible && !beforeNodes[i]:
			a.ShownNodes = append(a.ShownNodes, n.ID)
		case !n.Visible && beforeNodes[i]:
			a.HiddenNodes = append(a.HiddenNodes, n.ID)
			delete(m.origin, n.ID)
		}
	}
	for i, e := range m.edges {
		switch {
		case e.Visible && !beforeEdges[i]:
			a.ShownEdges = append(a.ShownEdges, e.ID)
		case !e.Visible && beforeEdges[i]:
			a.HiddenEdges = append(a.HiddenEdges, e.ID)
		}
	}
	return a
}

// =============================================================================
// Snapshots
// =============================================================================

// Snapshot is the serializable visibility state of a model. It refers to
// entities by ID only and can be restored onto a model ingesting the same
// dataset.
type Snapshot struct {
	Version       uint64              `json:"version" bson:"version"`
	VisibleNodes  []string            `json:"visibleNodes" bson:"visible_nodes"`
	VisibleEdges  []string            `json:"visibleEdges" bson:"visible_edges"`
	SelectedNodes []string            `json:"selectedNodes,omitempty" bson:"selected_nodes,omitempty"`
	Origins       map[string]string   `json:"origins,omitempty" bson:"origins,omitempty"`
	Positions     map[string]Position `json:"positions,omitempty" bson:"positions,omitempty"`
}

// Snapshot captures the raw visibility flags, selection, origins and positions.
func (m *Model) Snapshot() Snapshot {
	s := Snapshot{
		Version:   m.version,
		Origins:   maps.Clone(m.origin),
		Positions: maps.Clone(m.positions),
	}
	for _, n := range m.nodes {
		if n.Visible {
			s.VisibleNodes = append(s.VisibleNodes, n.ID)
		}
		if n.Selected {
			s.SelectedNodes = append(s.SelectedNodes, n.ID)
		}
	}
	for _, e := range m.edges {
		if e.Visible {
			s.VisibleEdges = append(s.VisibleEdges, e.ID)
		}
	}
	return s
}

// Restore replaces the visibility state with s. Ids unknown to the current
// dataset are ignored and edge visibility is re-derived afterwards.
func (m *Model) Restore(s Snapshot) Applied {
	beforeNodes, beforeEdges := m.flags()

	visibleNodes := toSet(s.VisibleNodes)
	visibleEdges := toSet(s.VisibleEdges)
	selected := toSet(s.SelectedNodes)
	for i := range m.nodes {
		n := &m.nodes[i]
		n.Visible = visibleNodes[n.ID]
		n.Selected = selected[n.ID]
	}
	for i := range m.edges {
		e := &m.edges[i]
		e.Visible = visibleEdges[e.ID]
		e.Selected = selected[e.Source] && selected[e.Target]
	}
	m.deriveEdges()

	clear(m.origin)
	for id, o := range s.Origins {
		if m.IsVisible(id) && m.hasNode(o) {
			m.origin[id] = o
		}
	}
	m.RecordPositions(s.Positions)
	m.version++
	return m.diff(beforeNodes, beforeEdges)
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
