package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphreveal/internal/config"
	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
	gio "github.com/matzehuels/graphreveal/pkg/io"
	"github.com/matzehuels/graphreveal/pkg/session"
)

const testDataset = `{
  "nodes": [
    {"id": "Person", "label": "Person", "visible": true, "isType": true},
    {"id": "Student", "label": "Student"},
    {"id": "Teacher", "label": "Teacher"},
    {"id": "Course", "label": "Course"}
  ],
  "edges": [
    {"source": "Person", "target": "Student"},
    {"source": "Person", "target": "Teacher"},
    {"source": "Teacher", "target": "Course"}
  ],
  "associations": {"Student": ["Course"]}
}`

// env is an isolated CLI environment: its own config, cache and sessions.
type env struct {
	dir      string
	config   string
	sessions string
	dataset  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{
		dir:      dir,
		config:   filepath.Join(dir, "config.toml"),
		sessions: filepath.Join(dir, "sessions"),
		dataset:  filepath.Join(dir, "ontology.json"),
	}
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(config.EnvStore, "")
	cfg := "[store]\nbackend = \"file\"\ndir = " + quote(e.sessions) + "\n"
	if err := os.WriteFile(e.config, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(e.dataset, []byte(testDataset), 0o600); err != nil {
		t.Fatal(err)
	}
	return e
}

func quote(s string) string {
	return `'` + s + `'`
}

// run executes the CLI with args and returns the log output.
func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var logs bytes.Buffer
	c := New(&logs, log.DebugLevel)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", e.config}, args...))
	root.SetOut(&logs)
	root.SetErr(&logs)
	err := root.ExecuteContext(context.Background())
	return logs.String(), err
}

func (e *env) sessionList(t *testing.T) []*session.Session {
	t.Helper()
	store, err := session.NewFileStore(e.sessions)
	if err != nil {
		t.Fatal(err)
	}
	list, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return list
}

func TestInspect(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "inspect", e.dataset); err != nil {
		t.Fatalf("inspect: %v", err)
	}

	// The second run reads the dataset from the cache.
	logs, err := e.run(t, "inspect", e.dataset)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(logs, "dataset cache hit") {
		t.Errorf("second inspect should hit the cache, logs:\n%s", logs)
	}
}

func TestInspectStrict(t *testing.T) {
	e := newEnv(t)
	bad := filepath.Join(e.dir, "bad.json")
	data := `{"nodes":[{"id":"a","visible":true}],"edges":[{"source":"a","target":"nowhere"}]}`
	if err := os.WriteFile(bad, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := e.run(t, "inspect", bad); err != nil {
		t.Fatalf("inspect without --strict: %v", err)
	}
	_, err := e.run(t, "inspect", "--strict", bad)
	if !rerrors.Is(err, rerrors.ErrCodeUnknownEndpoint) {
		t.Errorf("inspect --strict err = %v, want UNKNOWN_ENDPOINT", err)
	}
}

func TestMissingDataset(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "inspect", filepath.Join(e.dir, "nope.json"))
	if !rerrors.Is(err, rerrors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestToggleWithoutApplyDoesNotSave(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "toggle", e.dataset, "Person", "--mode", "children"); err != nil {
		t.Fatal(err)
	}
	if n := len(e.sessionList(t)); n != 0 {
		t.Errorf("preview created %d sessions", n)
	}
}

func TestToggleApplyAndResume(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "toggle", e.dataset, "Person", "--mode", "children", "--apply"); err != nil {
		t.Fatal(err)
	}
	list := e.sessionList(t)
	if len(list) != 1 {
		t.Fatalf("sessions = %d, want 1", len(list))
	}
	s := list[0]
	for _, id := range []string{"Person", "Student", "Teacher"} {
		if !slices.Contains(s.Snapshot.VisibleNodes, id) {
			t.Errorf("%s should be visible, got %v", id, s.Snapshot.VisibleNodes)
		}
	}
	if s.Snapshot.Origins["Student"] != "Person" {
		t.Errorf("origins = %v", s.Snapshot.Origins)
	}

	// Toggling again from the session collapses and updates it in place.
	if _, err := e.run(t, "toggle", e.dataset, "Person", "--mode", "children", "--apply", "--session", s.ID[:6]); err != nil {
		t.Fatal(err)
	}
	list = e.sessionList(t)
	if len(list) != 1 || list[0].ID != s.ID {
		t.Fatalf("sessions after resume = %v", list)
	}
	if got := list[0].Snapshot.VisibleNodes; !slices.Equal(got, []string{"Person"}) {
		t.Errorf("visible after collapse = %v, want [Person]", got)
	}
}

func TestToggleInvalidMode(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "toggle", e.dataset, "Person", "--mode", "siblings")
	if !rerrors.Is(err, rerrors.ErrCodeInvalidMode) {
		t.Errorf("err = %v, want INVALID_MODE", err)
	}
}

func TestSelectWiden(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "select", e.dataset, "Student", "--associated"); err != nil {
		t.Fatal(err)
	}
	list := e.sessionList(t)
	if len(list) != 1 {
		t.Fatalf("sessions = %d, want 1", len(list))
	}
	snap := list[0].Snapshot
	slices.Sort(snap.SelectedNodes)
	if !slices.Equal(snap.SelectedNodes, []string{"Course", "Student"}) {
		t.Errorf("selected = %v", snap.SelectedNodes)
	}
	for _, id := range []string{"Course", "Student"} {
		if !slices.Contains(snap.VisibleNodes, id) {
			t.Errorf("selected %s should be visible", id)
		}
	}
}

func TestRenderDOT(t *testing.T) {
	e := newEnv(t)
	out := filepath.Join(e.dir, "view.dot")
	if _, err := e.run(t, "render", e.dataset, "-o", out, "--preview", "Person:children"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(data)
	if !strings.Contains(dot, `"Person"`) {
		t.Errorf("DOT missing Person:\n%s", dot)
	}
	if !strings.Contains(dot, `"Student"`) || !strings.Contains(dot, "dashed") {
		t.Errorf("DOT missing preview ghosts:\n%s", dot)
	}

	// A cached render gives the same bytes.
	again := filepath.Join(e.dir, "again.dot")
	if _, err := e.run(t, "render", e.dataset, "-o", again, "--preview", "Person:children"); err != nil {
		t.Fatal(err)
	}
	data2, _ := os.ReadFile(again)
	if !bytes.Equal(data, data2) {
		t.Error("cached render differs")
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "render", e.dataset, "-o", filepath.Join(e.dir, "view.gif"))
	if !rerrors.Is(err, rerrors.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "toggle", e.dataset, "Person", "--mode", "children", "--apply"); err != nil {
		t.Fatal(err)
	}
	id := e.sessionList(t)[0].ID

	out := filepath.Join(e.dir, "view.yaml")
	if _, err := e.run(t, "export", e.dataset, "--session", id, "-o", out); err != nil {
		t.Fatal(err)
	}
	ds, err := gio.Import(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Nodes) != 3 || len(ds.Edges) != 2 {
		t.Errorf("exported %d nodes, %d edges; want 3, 2", len(ds.Nodes), len(ds.Edges))
	}
}

func TestSessionCommands(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "select", e.dataset, "Teacher"); err != nil {
		t.Fatal(err)
	}
	id := e.sessionList(t)[0].ID

	for _, args := range [][]string{
		{"session", "list"},
		{"session", "show", id[:8]},
		{"session", "cleanup"},
	} {
		if _, err := e.run(t, args...); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}

	if _, err := e.run(t, "session", "delete", id[:8]); err != nil {
		t.Fatal(err)
	}
	if n := len(e.sessionList(t)); n != 0 {
		t.Errorf("sessions after delete = %d", n)
	}
	_, err := e.run(t, "session", "show", id)
	if !session.IsNotFound(err) {
		t.Errorf("show deleted err = %v, want not found", err)
	}
}

func TestSessionsDisabled(t *testing.T) {
	e := newEnv(t)
	t.Setenv(config.EnvStore, config.StoreNone)
	_, err := e.run(t, "session", "list")
	if !rerrors.Is(err, rerrors.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
}

func TestParsePreview(t *testing.T) {
	tests := []struct {
		in       string
		node     string
		mode     string
		wantCode rerrors.Code
	}{
		{"Person:children", "Person", "children", ""},
		{"ns:Person:parents", "ns:Person", "parents", ""},
		{"Person", "", "", rerrors.ErrCodeInvalidInput},
		{":hide", "", "", rerrors.ErrCodeInvalidInput},
		{"Person:", "", "", rerrors.ErrCodeInvalidInput},
		{"Person:sideways", "", "", rerrors.ErrCodeInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			node, mode, err := parsePreview(tt.in)
			if tt.wantCode != "" {
				if !rerrors.Is(err, tt.wantCode) {
					t.Errorf("err = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if node != tt.node || string(mode) != tt.mode {
				t.Errorf("got %q %q, want %q %q", node, mode, tt.node, tt.mode)
			}
		})
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		flag, output string
		want         string
		wantErr      bool
	}{
		{"", "", "svg", false},
		{"", "out.png", "png", false},
		{"", "out.PDF", "pdf", false},
		{"dot", "out.svg", "dot", false},
		{"", "out.gif", "", true},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.flag, tt.output)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveFormat(%q, %q) err = %v", tt.flag, tt.output, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("resolveFormat(%q, %q) = %q, want %q", tt.flag, tt.output, got, tt.want)
		}
	}
}
