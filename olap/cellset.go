// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package olap

import (
	"github.com/mdxair/mdxair/metadata"
)

// CellSet is the multidimensional result handle returned by one execution
// of a plan. The handle is immutable; a new execution produces a new
// handle.
type CellSet interface {
	// ID returns the unique identity of the handle. Two executions of the
	// same statement return handles with distinct IDs.
	ID() string
	// Axes returns the result axes in ordinal order.
	Axes() []CellSetAxis
	// Cell returns the cell at the given position ordinals, one per axis
	// in ordinal order. The second return is false if any ordinal is out
	// of range.
	Cell(pos ...int) (Cell, bool)
	// Close releases the handle. It is idempotent.
	Close() error
}

// CellSetAxis holds the positions laid out along one axis of a cell set.
type CellSetAxis struct {
	Ordinal   int
	Name      string
	Positions []Position
}

// Position is one point on an axis: a tuple of coordinates.
type Position []Coordinate

// Coordinate is a single element of a position: a hierarchy member or a
// measure. Exactly one field is set.
type Coordinate struct {
	Member  *metadata.Member
	Measure *metadata.Measure
}

// UniqueName returns the fully qualified name of the coordinate.
func (c Coordinate) UniqueName() string {
	if c.Measure != nil {
		return c.Measure.UniqueName()
	}
	return c.Member.UniqueName()
}

// Cell is a single cell of a cell set.
type Cell struct {
	// Value is the aggregated measure value. It is nil when Empty.
	Value any
	// Empty reports that no fact rows contributed to the cell.
	Empty bool
}
