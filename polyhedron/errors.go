package polyhedron

import "github.com/pkg/errors"

var (
	// ErrEmpty is returned when a half-space removes the whole solid.
	ErrEmpty = errors.New("polyhedron is empty")

	// ErrIncomplete is returned when the half-spaces do not bound a solid inside the world
	// bounds.
	ErrIncomplete = errors.New("polyhedron is incomplete")

	// ErrInvalid is returned when an edit would not leave a valid solid.
	ErrInvalid = errors.New("polyhedron is invalid")

	// ErrOutOfBounds is returned when an edit would leave the world bounds.
	ErrOutOfBounds = errors.New("polyhedron exceeds world bounds")
)
