package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/graphreveal/pkg/engine"
	"github.com/matzehuels/graphreveal/pkg/graph"
	"github.com/matzehuels/graphreveal/pkg/preview"
)

// Explorer styles
var (
	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
	addStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	removeStyle = lipgloss.NewStyle().Foreground(colorRed)
	statusStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Node items
// =============================================================================

// nodeItem is one visible node in the explorer list.
type nodeItem struct {
	node   graph.Node
	origin string
}

func (i nodeItem) Title() string {
	if i.node.Selected {
		return "● " + i.node.DisplayLabel()
	}
	return i.node.DisplayLabel()
}

func (i nodeItem) Description() string {
	parts := []string{i.node.ID}
	if k := i.node.Kind.String(); k != "" {
		parts = append(parts, k)
	}
	if i.origin != "" {
		parts = append(parts, "via "+i.origin)
	}
	return strings.Join(parts, " · ")
}

func (i nodeItem) FilterValue() string { return i.node.DisplayLabel() + " " + i.node.ID }

// =============================================================================
// Keys
// =============================================================================

type exploreKeys struct {
	Children   key.Binding
	Parents    key.Binding
	Associated key.Binding
	Hide       key.Binding
	Commit     key.Binding
	Cancel     key.Binding
	Select     key.Binding
	Reset      key.Binding
	Save       key.Binding
	Quit       key.Binding
}

func newExploreKeys() exploreKeys {
	return exploreKeys{
		Children:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "children")),
		Parents:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "parents")),
		Associated: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "associated")),
		Hide:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "hide")),
		Commit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "commit")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Select:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		Reset:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Save:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k exploreKeys) short() []key.Binding {
	return []key.Binding{k.Children, k.Parents, k.Associated, k.Hide, k.Commit, k.Save}
}

// =============================================================================
// exploreModel - Interactive disclosure
// =============================================================================

// savedMsg reports the result of saving the view.
type savedMsg struct {
	id  string
	err error
}

// pendingToggle is the toggle currently shown as a preview.
type pendingToggle struct {
	node  string
	mode  graph.Mode
	delta graph.Delta
}

// exploreModel is the bubbletea model for browsing a graph. Moving the
// cursor acts as hover: a preview belongs to the node it was made on and is
// dropped when the cursor leaves it.
type exploreModel struct {
	ctx  context.Context
	eng  *engine.Engine
	save func() (string, error)
	keys exploreKeys

	list    list.Model
	detail  viewport.Model
	spinner spinner.Model

	pending *pendingToggle
	saving  bool
	saved   string
	status  string
	width   int
	height  int
}

// newExploreModel creates the explorer over eng. save persists the view and
// may be nil, which disables saving.
func newExploreModel(ctx context.Context, eng *engine.Engine, title string, save func() (string, error)) exploreModel {
	keys := newExploreKeys()

	l := list.New(nil, list.NewDefaultDelegate(), 40, 20)
	l.Title = title
	l.Styles.Title = StyleTitle
	l.SetStatusBarItemName("node", "nodes")
	l.AdditionalShortHelpKeys = keys.short

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleIconSpinner

	m := exploreModel{
		ctx:     ctx,
		eng:     eng,
		save:    save,
		keys:    keys,
		list:    l,
		detail:  viewport.New(40, 20),
		spinner: s,
	}
	m.refresh()
	return m
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
		} else {
			m.saved = msg.id
			m.status = "saved session " + short(msg.id)
		}
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Children):
			m.preview(graph.ModeChildren)
			return m, nil
		case key.Matches(msg, m.keys.Parents):
			m.preview(graph.ModeParents)
			return m, nil
		case key.Matches(msg, m.keys.Associated):
			m.preview(graph.ModeAssociated)
			return m, nil
		case key.Matches(msg, m.keys.Hide):
			m.preview(graph.ModeHide)
			return m, nil
		case key.Matches(msg, m.keys.Commit):
			m.commit()
			return m, nil
		case key.Matches(msg, m.keys.Cancel) && m.pending != nil:
			m.clearPreview()
			m.status = ""
			m.updateDetail()
			return m, nil
		case key.Matches(msg, m.keys.Select):
			m.toggleSelected()
			return m, nil
		case key.Matches(msg, m.keys.Reset):
			m.reset()
			return m, nil
		case key.Matches(msg, m.keys.Save):
			if m.save == nil || m.saving {
				return m, nil
			}
			m.saving = true
			m.status = "saving"
			return m, tea.Batch(m.spinner.Tick, m.saveCmd())
		}
	}

	before := m.current()
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	if m.current() != before {
		m.clearPreview()
		m.updateDetail()
	}
	return m, cmd
}

func (m exploreModel) View() string {
	left := paneStyle.Render(m.list.View())
	right := paneStyle.Render(m.detail.View())

	status := m.status
	if m.saving {
		status = m.spinner.View() + " " + status
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right) + "\n" + statusStyle.Render(status)
}

// =============================================================================
// Actions
// =============================================================================

func (m *exploreModel) current() string {
	if it, ok := m.list.SelectedItem().(nodeItem); ok {
		return it.node.ID
	}
	return ""
}

func (m *exploreModel) preview(mode graph.Mode) {
	node := m.current()
	if node == "" {
		return
	}
	_, d := m.eng.Preview(m.ctx, node, mode)
	if d.IsEmpty() {
		m.pending = nil
		m.status = fmt.Sprintf("nothing to %s for %s", mode, node)
	} else {
		m.pending = &pendingToggle{node: node, mode: mode, delta: d}
		m.status = fmt.Sprintf("preview %s %s: enter to commit, esc to cancel", d.Direction, mode)
	}
	m.updateDetail()
}

func (m *exploreModel) clearPreview() {
	if m.pending == nil {
		return
	}
	m.pending = nil
	m.eng.ClearPreview()
}

func (m *exploreModel) commit() {
	if m.pending == nil {
		m.status = "nothing previewed"
		return
	}
	p := m.pending
	m.pending = nil
	applied, err := m.eng.Toggle(m.ctx, p.node, p.mode)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("%s %s: %d shown, %d hidden", p.mode, p.node, len(applied.ShownNodes), len(applied.HiddenNodes))
	m.refresh()
}

func (m *exploreModel) toggleSelected() {
	node := m.current()
	if node == "" {
		return
	}
	var ids []string
	m.eng.View(func(g *graph.Model) { ids = g.SelectedNodeIDs() })
	if i := slices.Index(ids, node); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	} else {
		ids = append(ids, node)
	}
	m.clearPreview()
	if _, err := m.eng.Select(m.ctx, ids, false); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("%d selected", len(ids))
	m.refresh()
}

func (m *exploreModel) reset() {
	m.clearPreview()
	if _, err := m.eng.Reset(m.ctx); err != nil {
		m.status = err.Error()
		return
	}
	m.status = "reset to initial view"
	m.refresh()
}

func (m *exploreModel) saveCmd() tea.Cmd {
	save := m.save
	return func() tea.Msg {
		id, err := save()
		return savedMsg{id: id, err: err}
	}
}

// =============================================================================
// Layout
// =============================================================================

// refresh reloads the list from the engine, keeping the cursor on the same
// node when it is still visible.
func (m *exploreModel) refresh() {
	cur := m.current()
	frame := m.eng.Frame()

	origins := make(map[string]string, len(frame.Nodes))
	m.eng.View(func(g *graph.Model) {
		for _, n := range frame.Nodes {
			if o, ok := g.Origin(n.ID); ok {
				origins[n.ID] = o
			}
		}
	})

	items := make([]list.Item, len(frame.Nodes))
	sel := 0
	for i, n := range frame.Nodes {
		items[i] = nodeItem{node: n, origin: origins[n.ID]}
		if n.ID == cur {
			sel = i
		}
	}
	m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(min(sel, len(items)-1))
	}
	m.updateDetail()
}

func (m *exploreModel) resize(w, h int) {
	m.width, m.height = w, h
	frameW, frameH := paneStyle.GetFrameSize()
	listW := w / 2
	m.list.SetSize(listW-frameW, h-frameH-1)
	m.detail.Width = w - listW - frameW
	m.detail.Height = h - frameH - 1
	m.updateDetail()
}

func (m *exploreModel) updateDetail() {
	var b strings.Builder
	node := m.current()
	if node == "" {
		b.WriteString(StyleDim.Render("no visible nodes, press r to reset"))
		m.detail.SetContent(b.String())
		return
	}

	it := m.list.SelectedItem().(nodeItem)
	b.WriteString(StyleTitle.Render(it.node.DisplayLabel()))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(it.Description()))
	b.WriteString("\n\n")

	if m.pending == nil {
		b.WriteString(StyleDim.Render("c children · p parents · a associated · x hide"))
		m.detail.SetContent(b.String())
		return
	}

	fmt.Fprintf(&b, "%s %s\n\n", StyleHighlight.Render(string(m.pending.delta.Direction)), m.pending.mode)
	st := m.eng.Frame().Preview
	for _, g := range st.Nodes {
		b.WriteString(ghostLine(g.Ghost, g.DisplayLabel()))
	}
	for _, g := range st.Edges {
		b.WriteString(ghostLine(g.Ghost, g.Source+" → "+g.Target))
	}
	m.detail.SetContent(b.String())
}

func ghostLine(k preview.GhostKind, text string) string {
	if k == preview.GhostRemoval {
		return removeStyle.Render("- "+text) + "\n"
	}
	return addStyle.Render("+ "+text) + "\n"
}
