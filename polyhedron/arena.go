package polyhedron

import (
	"fmt"
	"sync/atomic"
)

// generations hands out a distinct generation to every arena built. A handle is only
// valid for arenas of its generation; clones share the generation of their source since
// their layout is identical.
var generations atomic.Uint32

func nextGeneration() uint32 {
	return generations.Add(1)
}

// handle addresses one slot of an arena.
type handle struct {
	index      int32
	generation uint32
}

func (h handle) valid() bool {
	return h.generation != 0
}

// VertexID identifies a vertex of one polyhedron.
type VertexID struct{ handle }

// HalfEdgeID identifies a half-edge of one polyhedron.
type HalfEdgeID struct{ handle }

// FaceID identifies a face of one polyhedron.
type FaceID struct{ handle }

// Valid reports whether the id refers to anything at all. The zero value does not.
func (v VertexID) Valid() bool { return v.valid() }

// Valid reports whether the id refers to anything at all. The zero value does not.
func (h HalfEdgeID) Valid() bool { return h.valid() }

// Valid reports whether the id refers to anything at all. The zero value does not.
func (f FaceID) Valid() bool { return f.valid() }

// arena is an append-only store of T addressed by generation-checked handles.
type arena[T any] struct {
	items      []T
	generation uint32
}

func newArena[T any](generation uint32, capacity int) arena[T] {
	return arena[T]{items: make([]T, 0, capacity), generation: generation}
}

func (a *arena[T]) add(item T) handle {
	a.items = append(a.items, item)
	return handle{index: int32(len(a.items) - 1), generation: a.generation}
}

// at resolves h. A handle from another arena or out of range is a programming error.
func (a *arena[T]) at(h handle) *T {
	if h.generation != a.generation || h.index < 0 || int(h.index) >= len(a.items) {
		panic(fmt.Sprintf("polyhedron: stale handle %d/%d (arena generation %d, %d items)",
			h.index, h.generation, a.generation, len(a.items)))
	}
	return &a.items[h.index]
}

func (a *arena[T]) handleAt(index int) handle {
	return handle{index: int32(index), generation: a.generation}
}

func (a *arena[T]) len() int {
	return len(a.items)
}

func (a arena[T]) clone() arena[T] {
	return arena[T]{items: append([]T(nil), a.items...), generation: a.generation}
}
