package engine

import (
	"context"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/graphreveal/pkg/graph"
	"github.com/matzehuels/graphreveal/pkg/interaction"
	"github.com/matzehuels/graphreveal/pkg/layout"
)

func dataset() graph.Dataset {
	return graph.Dataset{
		Nodes: []graph.Node{
			{ID: "Person", Label: "Person", Visible: true},
			{ID: "Student", Label: "Student"},
			{ID: "Teacher", Label: "Teacher (staff)"},
			{ID: "Course", Label: "Course"},
		},
		Edges: []graph.Edge{
			{Source: "Person", Target: "Student"},
			{Source: "Person", Target: "Teacher"},
			{Source: "Teacher", Target: "Course"},
		},
	}
}

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, report := New(context.Background(), dataset(), opts)
	if !report.OK() {
		t.Fatalf("dropped: %v", report.Dropped)
	}
	t.Cleanup(e.Close)
	return e
}

// manualClock holds settle releases until the test fires them.
type manualClock struct {
	releases []func()
}

type manualTimer struct{}

func (manualTimer) Stop() bool { return true }

func (c *manualClock) AfterFunc(_ time.Duration, f func()) layout.Timer {
	c.releases = append(c.releases, f)
	return manualTimer{}
}

func (c *manualClock) fireAll() {
	for _, f := range c.releases {
		f()
	}
}

func frameIDs(f Frame) (nodes, edges []string) {
	for _, n := range f.Nodes {
		nodes = append(nodes, n.ID)
	}
	for _, e := range f.Edges {
		edges = append(edges, e.ID)
	}
	return nodes, edges
}

func TestNewReportsDropped(t *testing.T) {
	ds := dataset()
	ds.Edges = append(ds.Edges, graph.Edge{Source: "Person", Target: "Nobody"})

	e, report := New(context.Background(), ds, Options{})
	defer e.Close()

	if report.OK() || len(report.Dropped) != 1 {
		t.Fatalf("report = %+v, want one dropped edge", report)
	}
	if report.Edges != 3 {
		t.Errorf("Edges = %d, want 3", report.Edges)
	}
}

func TestFrameAfterToggle(t *testing.T) {
	e := newEngine(t, Options{Simulation: layout.NewBoard()})
	ctx := context.Background()

	if _, err := e.Toggle(ctx, "Person", graph.ModeChildren); err != nil {
		t.Fatal(err)
	}

	f := e.Frame()
	nodes, edges := frameIDs(f)
	if !slices.Equal(nodes, []string{"Person", "Student", "Teacher"}) {
		t.Errorf("nodes = %v", nodes)
	}
	if !slices.Equal(edges, []string{"Person->Student", "Person->Teacher"}) {
		t.Errorf("edges = %v", edges)
	}
	for _, n := range f.Nodes {
		if n.Position == nil {
			t.Errorf("node %s has no layout position", n.ID)
		}
	}
	if !f.Settling {
		t.Error("frame should report the pending settle")
	}
	if f.Preview.Active {
		t.Error("commit should leave no preview")
	}
}

func TestHoverAndDoubleClick(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()
	mods := interaction.Modifiers{Primary: true}

	s := e.Hover(ctx, "Person", mods)
	if !s.Active || e.State() != interaction.StatePreviewActive {
		t.Fatalf("hover should preview, state %s", e.State())
	}
	if f := e.Frame(); !f.Preview.Active || len(f.Nodes) != 1 {
		t.Errorf("frame = %+v, want preview over one visible node", f)
	}

	if _, err := e.DoubleClick(ctx, "Person", mods); err != nil {
		t.Fatal(err)
	}
	if f := e.Frame(); len(f.Nodes) != 3 || f.State != "idle" {
		t.Errorf("after double click: %d nodes, state %s", len(f.Nodes), f.State)
	}
}

func TestPreviewThenToggleReusesDelta(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()

	s, d := e.Preview(ctx, "Person", graph.ModeHide)
	if !s.Active || d.Direction != graph.DirectionCollapse {
		t.Fatalf("hide preview = %+v, %+v", s, d)
	}
	if _, err := e.Toggle(ctx, "Person", graph.ModeHide); err != nil {
		t.Fatal(err)
	}
	if f := e.Frame(); len(f.Nodes) != 0 {
		t.Errorf("nodes = %v, want none", f.Nodes)
	}
}

func TestComputeDoesNotMutate(t *testing.T) {
	e := newEngine(t, Options{})
	v := e.Version()

	d := e.Compute(context.Background(), "Person", graph.ModeChildren)

	if d.IsEmpty() || e.Version() != v {
		t.Errorf("Compute = %+v, version %d -> %d", d, v, e.Version())
	}
}

func TestSelectWiden(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()

	if _, err := e.Select(ctx, []string{"Teacher"}, true); err != nil {
		t.Fatal(err)
	}

	var selected []string
	e.View(func(m *graph.Model) { selected = m.SelectedNodeIDs() })
	if !slices.Equal(selected, []string{"Person", "Teacher", "Course"}) {
		t.Errorf("selected = %v", selected)
	}
	_, edges := frameIDs(e.Frame())
	if !slices.Equal(edges, []string{"Person->Teacher", "Teacher->Course"}) {
		t.Errorf("edges = %v", edges)
	}
}

func TestSnapshotRestore(t *testing.T) {
	board := layout.NewBoard()
	e := newEngine(t, Options{Simulation: board})
	ctx := context.Background()
	if _, err := e.Toggle(ctx, "Person", graph.ModeChildren); err != nil {
		t.Fatal(err)
	}
	board.Move("Student", graph.Position{X: 7, Y: 8})

	s := e.Snapshot()
	if _, err := e.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if f := e.Frame(); len(f.Nodes) != 1 {
		t.Fatalf("reset left %d nodes", len(f.Nodes))
	}

	if _, err := e.Restore(ctx, s); err != nil {
		t.Fatal(err)
	}
	nodes, _ := frameIDs(e.Frame())
	if !slices.Equal(nodes, []string{"Person", "Student", "Teacher"}) {
		t.Errorf("restored nodes = %v", nodes)
	}
	if p, _ := board.Position("Student"); p != (graph.Position{X: 7, Y: 8}) {
		t.Errorf("Student restored at %v", p)
	}
}

func TestSetFilterHidesFromFrame(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()
	if _, err := e.Toggle(ctx, "Person", graph.ModeChildren); err != nil {
		t.Fatal(err)
	}
	f, err := graph.NewFilter([]string{"Teacher"})
	if err != nil {
		t.Fatal(err)
	}

	if err := e.SetFilter(ctx, f); err != nil {
		t.Fatal(err)
	}

	nodes, edges := frameIDs(e.Frame())
	if !slices.Equal(nodes, []string{"Person", "Student"}) {
		t.Errorf("nodes = %v", nodes)
	}
	if !slices.Equal(edges, []string{"Person->Student"}) {
		t.Errorf("edges = %v", edges)
	}

	if err := e.SetFilter(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if nodes, _ := frameIDs(e.Frame()); len(nodes) != 3 {
		t.Errorf("clearing the filter should restore the readout, got %v", nodes)
	}
}

func TestLoadReplacesDataset(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()

	report, err := e.Load(ctx, graph.Dataset{Nodes: []graph.Node{{ID: "X", Visible: true}}})
	if err != nil {
		t.Fatal(err)
	}
	if report.Nodes != 1 {
		t.Errorf("Nodes = %d", report.Nodes)
	}
	if nodes, _ := frameIDs(e.Frame()); !slices.Equal(nodes, []string{"X"}) {
		t.Errorf("nodes = %v", nodes)
	}
}

func TestEmptyFrameHasEmptySlices(t *testing.T) {
	e, _ := New(context.Background(), graph.Dataset{}, Options{})
	defer e.Close()

	f := e.Frame()
	if f.Nodes == nil || f.Edges == nil {
		t.Error("empty frame should carry empty, non-nil slices")
	}
}

func TestHoverGhostsFollowLiveTrigger(t *testing.T) {
	board := layout.NewBoard()
	e := newEngine(t, Options{Simulation: board, GhostRadius: 40})
	ctx := context.Background()

	board.Move("Person", graph.Position{X: 500, Y: 500})
	s := e.Hover(ctx, "Person", interaction.Modifiers{Primary: true})

	if len(s.Nodes) != 2 {
		t.Fatalf("ghosts = %+v, want two additions", s.Nodes)
	}
	for _, g := range s.Nodes {
		if g.Position == nil {
			t.Errorf("ghost %s has no position", g.ID)
			continue
		}
		d := math.Hypot(g.Position.X-500, g.Position.Y-500)
		if math.Abs(d-40) > 1e-6 {
			t.Errorf("ghost %s at %v is %.1f from the trigger, want 40", g.ID, *g.Position, d)
		}
	}
}

func TestSettleEndingDuringPreviewKeepsFreeze(t *testing.T) {
	board := layout.NewBoard()
	clock := &manualClock{}
	e := newEngine(t, Options{Simulation: board, Layout: layout.Options{AfterFunc: clock.AfterFunc}})
	ctx := context.Background()

	if _, err := e.Toggle(ctx, "Person", graph.ModeChildren); err != nil {
		t.Fatal(err)
	}
	if s := e.Hover(ctx, "Teacher", interaction.Modifiers{Primary: true}); !s.Active {
		t.Fatal("hover on Teacher should preview Course")
	}

	clock.fireAll()

	if !e.Coordinator().Frozen() {
		t.Error("coordinator should still be frozen")
	}
	for _, id := range []string{"Person", "Student", "Teacher"} {
		if !board.Pinned(id) {
			t.Errorf("%s unpinned while the preview is shown", id)
		}
	}
	if board.AlphaTarget() != 0 {
		t.Errorf("AlphaTarget = %v, want 0", board.AlphaTarget())
	}
	f := e.Frame()
	if f.Settling || !f.Preview.Active || f.State != "preview" {
		t.Errorf("frame settling=%v preview=%v state=%s", f.Settling, f.Preview.Active, f.State)
	}
}

func TestPreviewEntersPreviewState(t *testing.T) {
	board := layout.NewBoard()
	e := newEngine(t, Options{Simulation: board})
	ctx := context.Background()

	s, _ := e.Preview(ctx, "Person", graph.ModeChildren)
	if !s.Active {
		t.Fatal("preview should be active")
	}
	if f := e.Frame(); f.State != "preview" {
		t.Errorf("State = %s, want preview", f.State)
	}
	if !e.Coordinator().Frozen() || !board.Pinned("Person") {
		t.Error("preview should freeze the layout")
	}

	e.ClearPreview()
	if f := e.Frame(); f.State != "idle" || f.Preview.Active {
		t.Errorf("after clear: state %s, preview %v", f.State, f.Preview.Active)
	}
}
