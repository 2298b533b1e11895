package graph

import (
	"errors"
	"fmt"
	"strings"

	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
)

var (
	// ErrEmptyNodeID is reported for a node without an identifier.
	ErrEmptyNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is reported when a node ID was already ingested.
	// The first occurrence wins.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateEdgeID is reported when an edge ID was already ingested.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrUnknownSource is reported for an edge whose source node does not exist.
	ErrUnknownSource = errors.New("unknown source node")

	// ErrUnknownTarget is reported for an edge whose target node does not exist.
	ErrUnknownTarget = errors.New("unknown target node")
)

// =============================================================================
// Entities
// =============================================================================

// Kind carries the domain flags of a node.
type Kind struct {
	Type      bool `json:"isType,omitempty" yaml:"isType,omitempty" bson:"is_type,omitempty"`
	Violation bool `json:"isViolation,omitempty" yaml:"isViolation,omitempty" bson:"is_violation,omitempty"`
	Exemplar  bool `json:"isExemplar,omitempty" yaml:"isExemplar,omitempty" bson:"is_exemplar,omitempty"`
}

// String returns a compact, comma separated list of the set flags.
func (k Kind) String() string {
	var parts []string
	if k.Type {
		parts = append(parts, "type")
	}
	if k.Violation {
		parts = append(parts, "violation")
	}
	if k.Exemplar {
		parts = append(parts, "exemplar")
	}
	return strings.Join(parts, ",")
}

// Position is a layout coordinate. Positions are owned by the layout; the
// model only stores them so that nodes leaving and re-entering the
// simulation come back where they were.
type Position struct {
	X float64 `json:"x" yaml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" bson:"y"`
}

// Node is a vertex of the disclosed graph.
type Node struct {
	ID       string    `json:"id" yaml:"id" bson:"id"`
	Label    string    `json:"label,omitempty" yaml:"label,omitempty" bson:"label,omitempty"`
	Visible  bool      `json:"visible" yaml:"visible" bson:"visible"`
	Selected bool      `json:"selected,omitempty" yaml:"selected,omitempty" bson:"selected,omitempty"`
	Kind     Kind      `json:"kind" yaml:"kind" bson:"kind"`
	Position *Position `json:"position,omitempty" yaml:"position,omitempty" bson:"position,omitempty"`
}

// DisplayLabel returns the label, falling back to the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID       string `json:"id" yaml:"id" bson:"id"`
	Source   string `json:"source" yaml:"source" bson:"source"`
	Target   string `json:"target" yaml:"target" bson:"target"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty" bson:"label,omitempty"`
	Visible  bool   `json:"visible" yaml:"visible" bson:"visible"`
	Selected bool   `json:"selected,omitempty" yaml:"selected,omitempty" bson:"selected,omitempty"`
}

// Other returns the endpoint of e opposite to id.
func (e Edge) Other(id string) string {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}

// Connects reports whether e joins a and b in either direction.
func (e Edge) Connects(a, b string) bool {
	return (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a)
}

// DefaultEdgeID is the identifier assigned to edges ingested without one.
func DefaultEdgeID(source, target string) string {
	return source + "->" + target
}

// Dataset is the input handed to [Model.Ingest].
//
// Associations optionally defines the neighbor relation of [ModeAssociated]:
// focus node ID to associated node IDs. When nil, the associated relation is
// the union of children and parents.
type Dataset struct {
	Nodes        []Node              `json:"nodes" yaml:"nodes" bson:"nodes"`
	Edges        []Edge              `json:"edges" yaml:"edges" bson:"edges"`
	Associations map[string][]string `json:"associations,omitempty" yaml:"associations,omitempty" bson:"associations,omitempty"`
}

// =============================================================================
// Ingest Report
// =============================================================================

// Dropped describes an entity skipped during ingestion.
type Dropped struct {
	Entity string `json:"entity"` // "node" or "edge"
	ID     string `json:"id"`
	Index  int    `json:"index"` // position in the input slice
	Reason error  `json:"-"`
}

// Message returns a human readable description.
func (d Dropped) Message() string {
	if d.ID == "" {
		return fmt.Sprintf("%s #%d: %v", d.Entity, d.Index, d.Reason)
	}
	return fmt.Sprintf("%s %s: %v", d.Entity, d.ID, d.Reason)
}

// IngestReport tells the caller what was loaded and what was skipped.
type IngestReport struct {
	Nodes   int       `json:"nodes"`
	Edges   int       `json:"edges"`
	Dropped []Dropped `json:"dropped,omitempty"`
}

// OK reports whether nothing was dropped.
func (r *IngestReport) OK() bool { return r == nil || len(r.Dropped) == 0 }

// Err summarizes the dropped entities as a single coded error, or nil.
// The code is DUPLICATE_ID or UNKNOWN_ENDPOINT when all problems share that
// category, INVALID_INPUT otherwise.
func (r *IngestReport) Err() error {
	if r.OK() {
		return nil
	}
	code := rerrors.Code("")
	errs := make([]error, 0, len(r.Dropped))
	for _, d := range r.Dropped {
		c := droppedCode(d.Reason)
		switch {
		case code == "":
			code = c
		case code != c:
			code = rerrors.ErrCodeInvalidInput
		}
		errs = append(errs, errors.New(d.Message()))
	}
	return rerrors.Wrap(code, errors.Join(errs...), "dropped %d of %d entities",
		len(r.Dropped), len(r.Dropped)+r.Nodes+r.Edges)
}

func droppedCode(reason error) rerrors.Code {
	switch {
	case errors.Is(reason, ErrDuplicateNodeID), errors.Is(reason, ErrDuplicateEdgeID):
		return rerrors.ErrCodeDuplicateID
	case errors.Is(reason, ErrUnknownSource), errors.Is(reason, ErrUnknownTarget):
		return rerrors.ErrCodeUnknownEndpoint
	default:
		return rerrors.ErrCodeInvalidInput
	}
}
