package graph

import (
	"errors"
	"slices"
	"testing"

	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
)

func triangle() Dataset {
	return Dataset{
		Nodes: []Node{
			{ID: "A", Label: "A", Visible: true},
			{ID: "B", Label: "B", Visible: true},
			{ID: "C", Label: "C", Visible: true},
		},
		Edges: []Edge{
			{ID: "A->B", Source: "A", Target: "B", Visible: true},
			{ID: "B->C", Source: "B", Target: "C", Visible: true},
			{ID: "A->C", Source: "A", Target: "C", Visible: true},
		},
	}
}

func TestIngest(t *testing.T) {
	m := NewModel(nil)
	report := m.Ingest(triangle())

	if !report.OK() {
		t.Fatalf("unexpected dropped entities: %v", report.Dropped)
	}
	if report.Nodes != 3 || report.Edges != 3 {
		t.Errorf("report = %d nodes, %d edges, want 3, 3", report.Nodes, report.Edges)
	}
	if got := m.VisibleNodeIDs(); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Errorf("VisibleNodeIDs = %v", got)
	}
	if got := m.Adjacency().Children("A"); !slices.Equal(got, []string{"B", "C"}) {
		t.Errorf("Children(A) = %v", got)
	}
	if got := m.Adjacency().Parents("C"); !slices.Equal(got, []string{"B", "A"}) {
		t.Errorf("Parents(C) = %v", got)
	}
	if report.Err() != nil {
		t.Errorf("Err() = %v, want nil", report.Err())
	}
}

func TestIngestMalformed(t *testing.T) {
	m := NewModel(nil)
	report := m.Ingest(Dataset{
		Nodes: []Node{
			{ID: "A", Label: "first", Visible: true},
			{ID: "A", Label: "second"},
			{ID: ""},
			{ID: "B", Visible: true},
		},
		Edges: []Edge{
			{ID: "e1", Source: "A", Target: "B", Visible: true},
			{ID: "e1", Source: "B", Target: "A"},
			{ID: "e2", Source: "A", Target: "Z"},
			{ID: "e3", Source: "Y", Target: "B"},
			{Source: "B", Target: "A"},
		},
	})

	if report.Nodes != 2 || report.Edges != 2 {
		t.Errorf("loaded %d nodes, %d edges, want 2, 2", report.Nodes, report.Edges)
	}
	reasons := make([]error, len(report.Dropped))
	for i, d := range report.Dropped {
		reasons[i] = d.Reason
	}
	want := []error{ErrDuplicateNodeID, ErrEmptyNodeID, ErrDuplicateEdgeID, ErrUnknownTarget, ErrUnknownSource}
	if len(reasons) != len(want) {
		t.Fatalf("dropped %d entities, want %d: %v", len(reasons), len(want), report.Dropped)
	}
	for i := range want {
		if !errors.Is(reasons[i], want[i]) {
			t.Errorf("dropped[%d] reason = %v, want %v", i, reasons[i], want[i])
		}
	}

	n, _ := m.Node("A")
	if n.Label != "first" {
		t.Errorf("first duplicate should win, got label %q", n.Label)
	}
	if _, ok := m.Edge("B->A"); !ok {
		t.Error("edge without ID should default to source->target")
	}
	if !rerrors.Is(report.Err(), rerrors.ErrCodeInvalidInput) {
		t.Errorf("mixed problems should report INVALID_INPUT, got %v", rerrors.GetCode(report.Err()))
	}
}

func TestIngestReportCodes(t *testing.T) {
	m := NewModel(nil)
	report := m.Ingest(Dataset{
		Nodes: []Node{{ID: "A"}},
		Edges: []Edge{{Source: "A", Target: "X"}},
	})
	if !rerrors.Is(report.Err(), rerrors.ErrCodeUnknownEndpoint) {
		t.Errorf("Err() code = %v, want UNKNOWN_ENDPOINT", rerrors.GetCode(report.Err()))
	}
}

func TestIngestDefaultEdgeIDsAreUnique(t *testing.T) {
	m := NewModel(nil)
	m.Ingest(Dataset{
		Nodes: []Node{{ID: "A"}, {ID: "B"}},
		Edges: []Edge{{Source: "A", Target: "B"}, {Source: "A", Target: "B"}},
	})
	if m.EdgeCount() != 2 {
		t.Fatalf("EdgeCount = %d, want 2", m.EdgeCount())
	}
	if _, ok := m.Edge("A->B#2"); !ok {
		t.Error("second parallel edge should get a suffixed ID")
	}
}

func TestIngestNormalizesEdgeVisibility(t *testing.T) {
	m := NewModel(nil)
	m.Ingest(Dataset{
		Nodes: []Node{{ID: "A", Visible: true}, {ID: "B"}},
		Edges: []Edge{{ID: "e", Source: "A", Target: "B", Visible: true}},
	})
	if len(m.VisibleEdgeIDs()) != 0 {
		t.Error("edge with hidden endpoint must not be visible")
	}
}

func TestApplyDelta(t *testing.T) {
	m := NewModel(nil)
	m.Ingest(Dataset{
		Nodes: []Node{{ID: "A", Visible: true}, {ID: "B"}, {ID: "C", Visible: true}},
		Edges: []Edge{
			{ID: "A->B", Source: "A", Target: "B"},
			{ID: "B->C", Source: "B", Target: "C"},
			{ID: "A->C", Source: "A", Target: "C", Visible: true},
		},
	})
	v := m.Version()

	applied := m.ApplyDelta(Delta{
		Mode:        ModeChildren,
		NodeID:      "A",
		NodesToShow: []string{"B", "ghost"},
		EdgesToShow: []string{"A->B", "B->C", "missing"},
	})

	if !slices.Equal(applied.ShownNodes, []string{"B"}) {
		t.Errorf("ShownNodes = %v", applied.ShownNodes)
	}
	if !slices.Equal(applied.ShownEdges, []string{"A->B", "B->C"}) {
		t.Errorf("ShownEdges = %v", applied.ShownEdges)
	}
	if m.Version() == v {
		t.Error("ApplyDelta should bump the version")
	}
	if o, ok := m.Origin("B"); !ok || o != "A" {
		t.Errorf("Origin(B) = %q, %v, want A", o, ok)
	}
}

func TestApplyDeltaHideRederivesEdges(t *testing.T) {
	m := NewModel(nil)
	m.Ingest(triangle())

	applied := m.ApplyDelta(Delta{Mode: ModeHide, NodeID: "B", NodesToHide: []string{"B"}})

	if !slices.Equal(applied.HiddenEdges, []string{"A->B", "B->C"}) {
		t.Errorf("HiddenEdges = %v", applied.HiddenEdges)
	}
	if got := m.VisibleEdgeIDs(); !slices.Equal(got, []string{"A->C"}) {
		t.Errorf("VisibleEdgeIDs = %v", got)
	}
}

func TestApplyDeltaSkipsEdgeWithHiddenEndpoint(t *testing.T) {
	m := NewModel(nil)
	m.Ingest(Dataset{
		Nodes: []Node{{ID: "A", Visible: true}, {ID: "B"}},
		Edges: []Edge{{ID: "e", Source: "A", Target: "B"}},
	})
	applied := m.ApplyDelta(Delta{EdgesToShow: []string{"e"}})
	if applied.Changed() {
		t.Errorf("nothing should change, got %+v", applied)
	}
}

func TestOriginClearedOnHide(t *testing.T) {
	m := NewModel(nil)
	m.Ingest(Dataset{
		Nodes: []Node{{ID: "A", Visible: true}, {ID: "B"}, {ID: "P", Visible: true}},
		Edges: []Edge{
			{ID: "A->B", Source: "A", Target: "B"},
			{ID: "P->B", Source: "P", Target: "B"},
		},
	})

	m.ApplyDelta(Delta{NodeID: "A", NodesToShow: []string{"B"}})
	if o, _ := m.Origin("B"); o != "A" {
		t.Fatalf("Origin(B) = %q, want A", o)
	}

	m.ApplyDelta(Delta{NodeID: "A", NodesToHide: []string{"B"}})
	if _, ok := m.Origin("B"); ok {
		t.Error("origin should be cleared when the node is hidden")
	}

	m.ApplyDelta(Delta{NodeID: "P", NodesToShow: []string{"B"}})
	if o, _ := m.Origin("B"); o != "P" {
		t.Errorf("Origin(B) = %q after re-reveal, want P", o)
	}
}

func TestApplySelection(t *testing.T) {
	m := NewModel(nil)
	m.Ingest(Dataset{
		Nodes: []Node{{ID: "A", Visible: true}, {ID: "B"}, {ID: "C"}},
		Edges: []Edge{
			{ID: "A->B", Source: "A", Target: "B"},
			{ID: "B->C", Source: "B", Target: "C"},
		},
	})

	applied := m.ApplySelection([]string{"A", "B", "nope"})

	if !slices.Equal(applied.ShownNodes, []string{"B"}) {
		t.Errorf("ShownNodes = %v", applied.ShownNodes)
	}
	if !slices.Equal(applied.ShownEdges, []string{"A->B"}) {
		t.Errorf("ShownEdges = %v", applied.ShownEdges)
	}
	if got := m.SelectedNodeIDs(); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("SelectedNodeIDs = %v", got)
	}
	e, _ := m.Edge("A->B")
	if !e.Selected {
		t.Error("edge between two selected nodes should be selected")
	}

	m.ApplySelection(nil)
	if len(m.SelectedNodeIDs()) != 0 {
		t.Error("empty selection should clear selected flags")
	}
	if !m.IsVisible("B") {
		t.Error("clearing the selection must not hide nodes")
	}
}

func TestResetRestoresIngestFlags(t *testing.T) {
	m := NewModel(nil)
	m.Ingest(Dataset{
		Nodes: []Node{{ID: "A", Visible: true}, {ID: "B"}},
		Edges: []Edge{{ID: "A->B", Source: "A", Target: "B"}},
	})
	m.ApplyDelta(Delta{NodeID: "A", NodesToShow: []string{"B"}, EdgesToShow: []string{"A->B"}})

	applied := m.Reset()

	if !slices.Equal(applied.HiddenNodes, []string{"B"}) {
		t.Errorf("HiddenNodes = %v", applied.HiddenNodes)
	}
	if got := m.VisibleNodeIDs(); !slices.Equal(got, []string{"A"}) {
		t.Errorf("VisibleNodeIDs = %v", got)
	}
	if _, ok := m.Origin("B"); ok {
		t.Error("Reset should forget origins")
	}
}

func TestFilteredReadout(t *testing.T) {
	f, err := NewFilter([]string{"owl:Thing"})
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(f)
	m.Ingest(Dataset{
		Nodes: []Node{
			{ID: "A", Label: "ex:A", Visible: true},
			{ID: "T", Label: "owl:Thing (12)", Visible: true},
		},
		Edges: []Edge{{ID: "A->T", Source: "A", Target: "T", Visible: true}},
	})

	if got := m.VisibleNodeIDs(); !slices.Equal(got, []string{"A"}) {
		t.Errorf("VisibleNodeIDs = %v, want [A]", got)
	}
	if got := m.VisibleEdgeIDs(); len(got) != 0 {
		t.Errorf("VisibleEdgeIDs = %v, want none", got)
	}
	if !m.IsVisible("T") {
		t.Error("filtering must not touch the raw flag")
	}

	m.SetFilter(nil)
	if got := m.VisibleNodeIDs(); len(got) != 2 {
		t.Errorf("VisibleNodeIDs after clearing filter = %v", got)
	}
}

func TestSnapshotRestore(t *testing.T) {
	m := NewModel(nil)
	m.Ingest(Dataset{
		Nodes: []Node{{ID: "A", Visible: true}, {ID: "B"}, {ID: "C"}},
		Edges: []Edge{
			{ID: "A->B", Source: "A", Target: "B"},
			{ID: "A->C", Source: "A", Target: "C"},
		},
	})
	m.ApplyDelta(Delta{NodeID: "A", NodesToShow: []string{"B"}, EdgesToShow: []string{"A->B"}})
	m.RecordPositions(map[string]Position{"B": {X: 3, Y: 4}})
	snap := m.Snapshot()

	other := NewModel(nil)
	other.Ingest(Dataset{
		Nodes: []Node{{ID: "A", Visible: true}, {ID: "B"}, {ID: "C"}},
		Edges: []Edge{
			{ID: "A->B", Source: "A", Target: "B"},
			{ID: "A->C", Source: "A", Target: "C"},
		},
	})
	other.Restore(snap)

	if !slices.Equal(other.VisibleNodeIDs(), m.VisibleNodeIDs()) {
		t.Errorf("VisibleNodeIDs = %v, want %v", other.VisibleNodeIDs(), m.VisibleNodeIDs())
	}
	if !slices.Equal(other.VisibleEdgeIDs(), m.VisibleEdgeIDs()) {
		t.Errorf("VisibleEdgeIDs = %v, want %v", other.VisibleEdgeIDs(), m.VisibleEdgeIDs())
	}
	if o, _ := other.Origin("B"); o != "A" {
		t.Errorf("Origin(B) = %q, want A", o)
	}
	if p, ok := other.Position("B"); !ok || p.X != 3 || p.Y != 4 {
		t.Errorf("Position(B) = %v, %v", p, ok)
	}
}

func TestRestoreRederivesEdges(t *testing.T) {
	m := NewModel(nil)
	m.Ingest(triangle())
	m.Restore(Snapshot{VisibleNodes: []string{"A", "C"}, VisibleEdges: []string{"A->B", "A->C"}})
	if got := m.VisibleEdgeIDs(); !slices.Equal(got, []string{"A->C"}) {
		t.Errorf("VisibleEdgeIDs = %v, want [A->C]", got)
	}
}

func TestNodePositionFromIngest(t *testing.T) {
	m := NewModel(nil)
	m.Ingest(Dataset{Nodes: []Node{{ID: "A", Position: &Position{X: 1, Y: 2}}}})
	n, _ := m.Node("A")
	if n.Position == nil || n.Position.X != 1 {
		t.Errorf("Position = %v", n.Position)
	}
	n.Position.X = 99
	if p, _ := m.Position("A"); p.X != 1 {
		t.Error("Node must return a copy of the position")
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"children", "parents", "associated", "hide"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q) error: %v", s, err)
		}
	}
	_, err := ParseMode("siblings")
	if !rerrors.Is(err, rerrors.ErrCodeInvalidMode) {
		t.Errorf("ParseMode(siblings) = %v, want INVALID_MODE", err)
	}
}

func TestAssociated(t *testing.T) {
	m := NewModel(nil)
	m.Ingest(Dataset{
		Nodes: []Node{{ID: "P"}, {ID: "A"}, {ID: "C"}},
		Edges: []Edge{{Source: "P", Target: "A"}, {Source: "A", Target: "C"}},
	})
	if got := m.Neighbors("A", ModeAssociated); !slices.Equal(got, []string{"C", "P"}) {
		t.Errorf("default associated = %v, want [C P]", got)
	}

	m.Ingest(Dataset{
		Nodes:        []Node{{ID: "P"}, {ID: "A"}, {ID: "C"}},
		Edges:        []Edge{{Source: "P", Target: "A"}},
		Associations: map[string][]string{"A": {"C", "A", "C"}},
	})
	if got := m.Neighbors("A", ModeAssociated); !slices.Equal(got, []string{"C"}) {
		t.Errorf("dataset associated = %v, want [C]", got)
	}
	if got := m.Neighbors("P", ModeAssociated); len(got) != 0 {
		t.Errorf("node without associations = %v, want none", got)
	}
}
