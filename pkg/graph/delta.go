package graph

import (
	"slices"

	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
)

// Mode selects the neighbor relation a delta is computed over.
type Mode string

const (
	ModeChildren   Mode = "children"
	ModeParents    Mode = "parents"
	ModeAssociated Mode = "associated"
	// ModeHide removes a single node together with its incident edges.
	ModeHide Mode = "hide"
)

// Modes lists the neighbor modes in display order.
var Modes = []Mode{ModeChildren, ModeParents, ModeAssociated, ModeHide}

// ParseMode converts a user supplied string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if slices.Contains(Modes, m) {
		return m, nil
	}
	return "", rerrors.New(rerrors.ErrCodeInvalidMode, "unknown mode %q (want children, parents, associated or hide)", s)
}

// Direction tells whether a delta discloses or retracts.
type Direction string

const (
	DirectionNone     Direction = "none"
	DirectionExpand   Direction = "expand"
	DirectionCollapse Direction = "collapse"
)

// Delta describes a visibility change. It is a value: building one never
// touches the model and the same delta may be previewed any number of times.
//
// Version is the model version the delta was computed against. A committer
// compares it with the current version to detect stale deltas.
type Delta struct {
	Mode        Mode      `json:"mode"`
	NodeID      string    `json:"nodeId,omitempty"`
	Direction   Direction `json:"direction"`
	Version     uint64    `json:"version"`
	NodesToShow []string  `json:"nodesToShow"`
	NodesToHide []string  `json:"nodesToHide"`
	EdgesToShow []string  `json:"edgesToShow"`
	EdgesToHide []string  `json:"edgesToHide"`
}

// IsEmpty reports whether applying d would change nothing.
func (d Delta) IsEmpty() bool {
	return len(d.NodesToShow) == 0 && len(d.NodesToHide) == 0 &&
		len(d.EdgesToShow) == 0 && len(d.EdgesToHide) == 0
}

// Size is the total number of listed ids.
func (d Delta) Size() int {
	return len(d.NodesToShow) + len(d.NodesToHide) + len(d.EdgesToShow) + len(d.EdgesToHide)
}

// Clone returns a deep copy of d.
func (d Delta) Clone() Delta {
	d.NodesToShow = slices.Clone(d.NodesToShow)
	d.NodesToHide = slices.Clone(d.NodesToHide)
	d.EdgesToShow = slices.Clone(d.EdgesToShow)
	d.EdgesToHide = slices.Clone(d.EdgesToHide)
	return d
}

// Applied lists what a mutation actually changed. Ids that were unknown or
// already in the requested state are not listed.
type Applied struct {
	ShownNodes  []string `json:"shownNodes,omitempty"`
	HiddenNodes []string `json:"hiddenNodes,omitempty"`
	ShownEdges  []string `json:"shownEdges,omitempty"`
	HiddenEdges []string `json:"hiddenEdges,omitempty"`
}

// Changed reports whether anything changed.
func (a Applied) Changed() bool {
	return len(a.ShownNodes)+len(a.HiddenNodes)+len(a.ShownEdges)+len(a.HiddenEdges) > 0
}
