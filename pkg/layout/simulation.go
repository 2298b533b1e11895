package layout

import (
	"slices"
	"sync"

	"github.com/matzehuels/graphreveal/pkg/graph"
)

// Simulation is the contract with a continuous physics layout. The physics
// itself is opaque: the coordinator only adds and removes bodies, pins them
// in place, and raises or drops the target energy.
type Simulation interface {
	AddNode(id string, p graph.Position)
	RemoveNode(id string)
	NodeIDs() []string
	Position(id string) (graph.Position, bool)
	Pin(id string)
	Unpin(id string)
	// Reheat sets the alpha target the simulation cools towards and restarts it.
	Reheat(alphaTarget float64)
	// Cool drops the alpha target to zero so the simulation comes to rest.
	Cool()
}

// Board is an in-memory [Simulation] without physics: bodies stay where they
// are placed. Surfaces without a force layout (CLI, HTTP API) use it to keep
// positions and pin state, and tests use it to observe coordination.
type Board struct {
	mu          sync.Mutex
	order       []string
	bodies      map[string]*body
	alphaTarget float64
	reheats     int
}

type body struct {
	pos    graph.Position
	pinned bool
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{bodies: make(map[string]*body)}
}

func (b *Board) AddNode(id string, p graph.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.bodies[id]; ok {
		return
	}
	b.bodies[id] = &body{pos: p}
	b.order = append(b.order, id)
}

func (b *Board) RemoveNode(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.bodies[id]; !ok {
		return
	}
	delete(b.bodies, id)
	b.order = slices.DeleteFunc(b.order, func(s string) bool { return s == id })
}

func (b *Board) NodeIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.order)
}

func (b *Board) Position(id string) (graph.Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bd, ok := b.bodies[id]; ok {
		return bd.pos, true
	}
	return graph.Position{}, false
}

// Move sets the position of a body, as a drag would.
func (b *Board) Move(id string, p graph.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bd, ok := b.bodies[id]; ok {
		bd.pos = p
	}
}

func (b *Board) Pin(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bd, ok := b.bodies[id]; ok {
		bd.pinned = true
	}
}

func (b *Board) Unpin(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bd, ok := b.bodies[id]; ok {
		bd.pinned = false
	}
}

// Pinned reports whether the body is fixed in place.
func (b *Board) Pinned(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	bd, ok := b.bodies[id]
	return ok && bd.pinned
}

func (b *Board) Reheat(alphaTarget float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alphaTarget = alphaTarget
	b.reheats++
}

func (b *Board) Cool() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alphaTarget = 0
}

// AlphaTarget returns the current alpha target.
func (b *Board) AlphaTarget() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alphaTarget
}

// Reheats counts Reheat calls.
func (b *Board) Reheats() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reheats
}

var _ Simulation = (*Board)(nil)
