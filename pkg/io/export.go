package io

import (
	"encoding/json"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
	"github.com/matzehuels/graphreveal/pkg/graph"
)

// WriteJSON encodes ds as indented JSON in the flat layout.
func WriteJSON(w io.Writer, ds graph.Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalize(ds)); err != nil {
		return rerrors.Wrap(rerrors.ErrCodeInternal, err, "encode json")
	}
	return nil
}

// WriteYAML encodes ds as YAML in the flat layout.
func WriteYAML(w io.Writer, ds graph.Dataset) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(normalize(ds)); err != nil {
		return rerrors.Wrap(rerrors.ErrCodeInternal, err, "encode yaml")
	}
	return enc.Close()
}

// Export writes ds to path, as YAML for ".yaml" and ".yml" and JSON otherwise.
func Export(path string, ds graph.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return rerrors.Wrap(rerrors.ErrCodeInvalidInput, err, "create %s", path)
	}
	defer f.Close()
	if IsYAML(path) {
		return WriteYAML(f, ds)
	}
	return WriteJSON(f, ds)
}

// Subgraph returns the visible, unfiltered part of m as a dataset. Node
// positions are the last ones the model recorded.
func Subgraph(m *graph.Model) graph.Dataset {
	ds := graph.Dataset{
		Nodes: m.VisibleNodes(),
		Edges: m.VisibleEdges(),
	}
	for i := range ds.Nodes {
		if p, ok := m.Position(ds.Nodes[i].ID); ok {
			ds.Nodes[i].Position = &p
		}
	}
	return normalize(ds)
}

func normalize(ds graph.Dataset) graph.Dataset {
	if ds.Nodes == nil {
		ds.Nodes = []graph.Node{}
	}
	if ds.Edges == nil {
		ds.Edges = []graph.Edge{}
	}
	return ds
}
