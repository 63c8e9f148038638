// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package rolap

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mdxair/mdxair/olap"
)

// cellSet is the materialised result of one Run call. It is immutable:
// re-executing the statement produces a fresh handle.
type cellSet struct {
	id    string
	axes  []olap.CellSetAxis
	cells map[string]olap.Cell
	done  int32
}

func newCellSet(axes []olap.CellSetAxis, cells map[string]olap.Cell) *cellSet {
	return &cellSet{id: uuid.New().String(), axes: axes, cells: cells}
}

// ID returns the unique identity of this result handle.
func (cs *cellSet) ID() string {
	return cs.id
}

func (cs *cellSet) Axes() []olap.CellSetAxis {
	return cs.axes
}

func (cs *cellSet) Cell(pos ...int) (olap.Cell, bool) {
	if atomic.LoadInt32(&cs.done) == 1 {
		return olap.Cell{}, false
	}
	if len(pos) != len(cs.axes) {
		return olap.Cell{}, false
	}
	for i, p := range pos {
		if p < 0 || p >= len(cs.axes[i].Positions) {
			return olap.Cell{}, false
		}
	}
	cell, ok := cs.cells[positionKey(pos)]
	return cell, ok
}

func (cs *cellSet) Close() error {
	atomic.StoreInt32(&cs.done, 1)
	return nil
}

func positionKey(pos []int) string {
	var sb strings.Builder
	for i, p := range pos {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(p))
	}
	return sb.String()
}
