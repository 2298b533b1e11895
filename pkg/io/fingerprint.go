package io

import (
	"encoding/hex"
	"encoding/json"

	"lukechampine.com/blake3"

	"github.com/matzehuels/graphreveal/pkg/graph"
)

// Fingerprint returns a hex BLAKE3 digest of the structure of ds: ids,
// labels, kind flags, endpoints, initial visibility and associations.
// Positions and selection do not contribute.
func Fingerprint(ds graph.Dataset) string {
	type node struct {
		ID, Label string
		Visible   bool
		Kind      graph.Kind
	}
	type edge struct {
		ID, Source, Target, Label string
		Visible                   bool
	}
	canon := struct {
		Nodes        []node
		Edges        []edge
		Associations map[string][]string
	}{Associations: ds.Associations}
	for _, n := range ds.Nodes {
		canon.Nodes = append(canon.Nodes, node{n.ID, n.Label, n.Visible, n.Kind})
	}
	for _, e := range ds.Edges {
		canon.Edges = append(canon.Edges, edge{e.ID, e.Source, e.Target, e.Label, e.Visible})
	}

	// Struct fields and sorted map keys make the encoding deterministic.
	b, _ := json.Marshal(canon)
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
