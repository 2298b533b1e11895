package io

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
	"github.com/matzehuels/graphreveal/pkg/graph"
)

// document is the decoded top level of a dataset file.
type document struct {
	Nodes        []nodeRecord        `json:"nodes" yaml:"nodes"`
	Edges        []edgeRecord        `json:"edges" yaml:"edges"`
	Associations map[string][]string `json:"associations" yaml:"associations"`
	Elements     *struct {
		Nodes []nodeRecord `json:"nodes" yaml:"nodes"`
		Edges []edgeRecord `json:"edges" yaml:"edges"`
	} `json:"elements" yaml:"elements"`
}

type nodeRecord struct {
	ID             string          `json:"id" yaml:"id"`
	Label          string          `json:"label" yaml:"label"`
	Visible        *bool           `json:"visible" yaml:"visible"`
	InitialVisible *bool           `json:"initialVisible" yaml:"initialVisible"`
	Selected       bool            `json:"selected" yaml:"selected"`
	IsType         flag            `json:"isType" yaml:"isType"`
	IsViolation    flag            `json:"isViolation" yaml:"isViolation"`
	IsExemplar     flag            `json:"isExemplar" yaml:"isExemplar"`
	Type           flag            `json:"type" yaml:"type"`
	Violation      flag            `json:"violation" yaml:"violation"`
	Exemplar       flag            `json:"exemplar" yaml:"exemplar"`
	Kind           *graph.Kind     `json:"kind" yaml:"kind"`
	Position       *graph.Position `json:"position" yaml:"position"`
	X              *float64        `json:"x" yaml:"x"`
	Y              *float64        `json:"y" yaml:"y"`
	Data           *nodeRecord     `json:"data" yaml:"data"`
}

type edgeRecord struct {
	ID             string      `json:"id" yaml:"id"`
	Source         string      `json:"source" yaml:"source"`
	Target         string      `json:"target" yaml:"target"`
	From           string      `json:"from" yaml:"from"`
	To             string      `json:"to" yaml:"to"`
	Label          string      `json:"label" yaml:"label"`
	Visible        *bool       `json:"visible" yaml:"visible"`
	InitialVisible *bool       `json:"initialVisible" yaml:"initialVisible"`
	Selected       bool        `json:"selected" yaml:"selected"`
	Data           *edgeRecord `json:"data" yaml:"data"`
}

// flag is a kind flag that counts as set for any truthy value: true, a
// non-empty string, a non-zero number or any object or list.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flag(truthy(v))
	return nil
}

func (f *flag) UnmarshalYAML(n *yaml.Node) error {
	var v any
	if err := n.Decode(&v); err != nil {
		return err
	}
	*f = flag(truthy(v))
	return nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	default:
		return true
	}
}

func visibility(visible, initial *bool) bool {
	switch {
	case visible != nil:
		return *visible
	case initial != nil:
		return *initial
	default:
		return false
	}
}

func (r nodeRecord) node() graph.Node {
	if r.Data != nil {
		inner := *r.Data
		if inner.Position == nil && inner.X == nil {
			inner.Position, inner.X, inner.Y = r.Position, r.X, r.Y
		}
		inner.Selected = inner.Selected || r.Selected
		return inner.node()
	}

	n := graph.Node{
		ID:       r.ID,
		Label:    r.Label,
		Visible:  visibility(r.Visible, r.InitialVisible),
		Selected: r.Selected,
		Kind: graph.Kind{
			Type:      bool(r.IsType || r.Type),
			Violation: bool(r.IsViolation || r.Violation),
			Exemplar:  bool(r.IsExemplar || r.Exemplar),
		},
	}
	if r.Kind != nil {
		n.Kind.Type = n.Kind.Type || r.Kind.Type
		n.Kind.Violation = n.Kind.Violation || r.Kind.Violation
		n.Kind.Exemplar = n.Kind.Exemplar || r.Kind.Exemplar
	}
	switch {
	case r.Position != nil:
		p := *r.Position
		n.Position = &p
	case r.X != nil && r.Y != nil:
		n.Position = &graph.Position{X: *r.X, Y: *r.Y}
	}
	return n
}

func (r edgeRecord) edge() graph.Edge {
	if r.Data != nil {
		inner := *r.Data
		inner.Selected = inner.Selected || r.Selected
		return inner.edge()
	}
	e := graph.Edge{
		ID:       r.ID,
		Source:   r.Source,
		Target:   r.Target,
		Label:    r.Label,
		Visible:  visibility(r.Visible, r.InitialVisible),
		Selected: r.Selected,
	}
	if e.Source == "" {
		e.Source = r.From
	}
	if e.Target == "" {
		e.Target = r.To
	}
	return e
}

func (d document) dataset() graph.Dataset {
	nodes, edges := d.Nodes, d.Edges
	if d.Elements != nil {
		nodes = append(nodes, d.Elements.Nodes...)
		edges = append(edges, d.Elements.Edges...)
	}
	ds := graph.Dataset{
		Nodes:        make([]graph.Node, 0, len(nodes)),
		Edges:        make([]graph.Edge, 0, len(edges)),
		Associations: d.Associations,
	}
	for _, r := range nodes {
		ds.Nodes = append(ds.Nodes, r.node())
	}
	for _, r := range edges {
		ds.Edges = append(ds.Edges, r.edge())
	}
	return ds
}

// ReadJSON decodes a JSON dataset from r. It does not close r.
func ReadJSON(r io.Reader) (graph.Dataset, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return graph.Dataset{}, rerrors.Wrap(rerrors.ErrCodeInvalidFormat, err, "decode json")
	}
	return doc.dataset(), nil
}

// ReadYAML decodes a YAML dataset from r. It does not close r.
func ReadYAML(r io.Reader) (graph.Dataset, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return graph.Dataset{}, rerrors.Wrap(rerrors.ErrCodeInvalidFormat, err, "decode yaml")
	}
	return doc.dataset(), nil
}

// Import reads the dataset file at path, choosing the decoder by extension.
func Import(path string) (graph.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return graph.Dataset{}, rerrors.Wrap(rerrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return graph.Dataset{}, rerrors.Wrap(rerrors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	if IsYAML(path) {
		return ReadYAML(f)
	}
	return ReadJSON(f)
}

// IsYAML reports whether path names a YAML file.
func IsYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
