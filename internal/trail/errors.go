package trail

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

var (
	// ErrEdgeNotFound means a hop names a node pair the catalog has no geometry for.
	ErrEdgeNotFound = errors.New("edge not found")
	// ErrOrientationMismatch means neither end of a geometry touches the trail tail.
	ErrOrientationMismatch = errors.New("orientation mismatch")
)

// EdgeNotFoundError reports a hop whose node pair has no geometry. It wraps ErrEdgeNotFound.
type EdgeNotFoundError struct {
	U, V model.NodeID
}

func (e *EdgeNotFoundError) Error() string {
	return fmt.Sprintf("%v: no geometry between %d and %d", ErrEdgeNotFound, e.U, e.V)
}

func (e *EdgeNotFoundError) Unwrap() error { return ErrEdgeNotFound }

// OrientationError reports a geometry that does not connect to the trail tail. It wraps ErrOrientationMismatch.
type OrientationError struct {
	Index       int // position of the hop in the sequence
	Hop         model.Hop
	Tail        orb.Point
	First, Last orb.Point
}

func (e *OrientationError) Error() string {
	return fmt.Sprintf("%v: hop %d %s: trail ends at %v, geometry runs %v -> %v",
		ErrOrientationMismatch, e.Index, e.Hop, e.Tail, e.First, e.Last)
}

func (e *OrientationError) Unwrap() error { return ErrOrientationMismatch }
