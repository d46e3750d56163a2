package brush

import "github.com/pkg/errors"

var (
	// ErrEmptyBrush is returned when the face planes of a brush enclose nothing.
	ErrEmptyBrush = errors.New("Brush is empty")

	// ErrIncompleteBrush is returned when the face planes of a brush do not bound a solid.
	ErrIncompleteBrush = errors.New("Brush is incomplete")

	// ErrInvalidFace is returned for a face built from collinear points.
	ErrInvalidFace = errors.New("invalid brush face")

	// ErrOutOfBounds is returned when an edit would leave the world bounds.
	ErrOutOfBounds = errors.New("brush exceeds world bounds")

	// ErrIllegalMove is returned when a vertex, edge or face move is not allowed.
	ErrIllegalMove = errors.New("illegal move")

	// ErrDegenerate is returned when an edit would collapse the brush.
	ErrDegenerate = errors.New("degenerate brush")
)
