package graph

import "slices"

// Adjacency indexes the full edge set by direction. It is built once at
// ingest and never changes for the lifetime of the dataset; visibility does
// not affect it. Lists keep edge ingest order and contain no duplicates or
// self references.
type Adjacency struct {
	children     map[string][]string
	parents      map[string][]string
	associations map[string][]string
}

func newAdjacency(edges []Edge, associations map[string][]string) *Adjacency {
	a := &Adjacency{
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
	seen := make(map[[2]string]struct{}, len(edges))
	for _, e := range edges {
		key := [2]string{e.Source, e.Target}
		if _, dup := seen[key]; dup || e.Source == e.Target {
			continue
		}
		seen[key] = struct{}{}
		a.children[e.Source] = append(a.children[e.Source], e.Target)
		a.parents[e.Target] = append(a.parents[e.Target], e.Source)
	}
	if associations != nil {
		a.associations = make(map[string][]string, len(associations))
		for id, ns := range associations {
			var list []string
			for _, n := range ns {
				if n != id {
					list = appendUnique(list, n)
				}
			}
			a.associations[id] = list
		}
	}
	return a
}

// Children returns the targets of edges leaving id.
func (a *Adjacency) Children(id string) []string { return slices.Clone(a.children[id]) }

// Parents returns the sources of edges entering id.
func (a *Adjacency) Parents(id string) []string { return slices.Clone(a.parents[id]) }

// Associated returns the dataset supplied associations of id, or children
// followed by parents when the dataset carries none.
func (a *Adjacency) Associated(id string) []string {
	if a.associations != nil {
		return slices.Clone(a.associations[id])
	}
	out := slices.Clone(a.children[id])
	for _, p := range a.parents[id] {
		out = appendUnique(out, p)
	}
	return out
}

// HasAssociations reports whether the associated relation comes from the dataset.
func (a *Adjacency) HasAssociations() bool { return a.associations != nil }

// Neighbors returns the neighbor list of id for mode. ModeHide has no neighbors.
func (a *Adjacency) Neighbors(id string, mode Mode) []string {
	switch mode {
	case ModeChildren:
		return a.Children(id)
	case ModeParents:
		return a.Parents(id)
	case ModeAssociated:
		return a.Associated(id)
	default:
		return nil
	}
}

func appendUnique(list []string, id string) []string {
	if slices.Contains(list, id) {
		return list
	}
	return append(list, id)
}
