// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

// Package rolap executes compiled plans against a relational star schema
// through database/sql: hierarchy members map to fact table columns and
// measures are aggregated with SQL. It is the reference Engine and
// DefaultEvaluator implementation.
package rolap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mdxair/mdxair/metadata"
	"github.com/mdxair/mdxair/olap"
)

// Engine runs plans on a SQL database holding the fact tables of the
// cubes it is asked about.
type Engine struct {
	db *sql.DB
}

// NewEngine creates an engine over the given database.
func NewEngine(db *sql.DB) *Engine {
	if db == nil {
		return nil
	}
	return &Engine{db: db}
}

// DB returns the underlying database object.
func (e *Engine) DB() *sql.DB {
	return e.db
}

// Run executes one plan with the given effective parameter values. Each
// cell is aggregated with its own query so that a position may mix
// members and measures freely; the reference engine favours obviously
// correct SQL over batching. Run is safe to call concurrently: all state
// is local and database/sql pools connections.
func (e *Engine) Run(ctx context.Context, plan *olap.Plan, values []any) (olap.CellSet, error) {
	axes := make([]olap.CellSetAxis, len(plan.Axes))
	for i, axis := range plan.Axes {
		coords, err := e.evalSet(axis.Set, values)
		if err != nil {
			return nil, err
		}
		positions := make([]olap.Position, len(coords))
		for j, coord := range coords {
			positions[j] = olap.Position{coord}
		}
		axes[i] = olap.CellSetAxis{Ordinal: axis.Ordinal, Name: axis.Name, Positions: positions}
	}

	slicer, err := e.evalSlicer(plan.Slicer, values)
	if err != nil {
		return nil, err
	}

	cells := map[string]olap.Cell{}
	err = eachPosition(axes, func(pos []int) error {
		var measure *metadata.Measure
		var members []*metadata.Member
		for i, axis := range axes {
			for _, coord := range axis.Positions[pos[i]] {
				if coord.Measure != nil {
					if measure != nil {
						return fmt.Errorf("cell tuple references two measures, %s and %s",
							measure.UniqueName(), coord.Measure.UniqueName())
					}
					measure = coord.Measure
				} else {
					members = append(members, coord.Member)
				}
			}
		}
		if measure == nil {
			return fmt.Errorf("cell tuple references no measure")
		}
		cell, err := e.aggregate(ctx, plan.Cube, measure, members, slicer)
		if err != nil {
			return err
		}
		cells[positionKey(pos)] = cell
		return nil
	})
	if err != nil {
		return nil, err
	}

	return newCellSet(axes, cells), nil
}

// evalSet resolves a set expression to axis coordinates, substituting
// parameter values.
func (e *Engine) evalSet(set olap.SetExpr, values []any) ([]olap.Coordinate, error) {
	switch set := set.(type) {
	case olap.EnumSet:
		var coords []olap.Coordinate
		for _, term := range set.Terms {
			coord, err := evalTerm(term, values)
			if err != nil {
				return nil, err
			}
			coords = append(coords, coord)
		}
		return coords, nil
	case olap.AllMembers:
		var coords []olap.Coordinate
		for _, m := range set.Hierarchy.Members {
			coords = append(coords, olap.Coordinate{Member: m})
		}
		return coords, nil
	case olap.HeadSet:
		coords, err := e.evalSet(set.Set, values)
		if err != nil {
			return nil, err
		}
		count, err := evalNum(set.Count, values)
		if err != nil {
			return nil, err
		}
		n := int(count)
		if n < 0 {
			n = 0
		}
		if n > len(coords) {
			n = len(coords)
		}
		return coords[:n], nil
	}
	return nil, fmt.Errorf("internal error: unknown set expression %T", set)
}

func (e *Engine) evalSlicer(terms []olap.Term, values []any) ([]*metadata.Member, error) {
	var members []*metadata.Member
	for _, term := range terms {
		coord, err := evalTerm(term, values)
		if err != nil {
			return nil, err
		}
		if coord.Measure != nil {
			return nil, fmt.Errorf("measure %s cannot appear in the slicer", coord.Measure.UniqueName())
		}
		members = append(members, coord.Member)
	}
	return members, nil
}

func evalTerm(term olap.Term, values []any) (olap.Coordinate, error) {
	if term.Param != 0 {
		value := values[term.Param-1]
		if value == nil {
			return olap.Coordinate{}, fmt.Errorf("parameter %d is null, no member to evaluate", term.Param)
		}
		m, ok := value.(*metadata.Member)
		if !ok {
			return olap.Coordinate{}, fmt.Errorf("parameter %d resolved to %T, need a member", term.Param, value)
		}
		return olap.Coordinate{Member: m}, nil
	}
	if term.Measure != nil {
		return olap.Coordinate{Measure: term.Measure}, nil
	}
	return olap.Coordinate{Member: term.Member}, nil
}

func evalNum(num olap.NumExpr, values []any) (float64, error) {
	if num.Param == 0 {
		return num.Literal, nil
	}
	value := values[num.Param-1]
	switch value := value.(type) {
	case int:
		return float64(value), nil
	case int32:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case float32:
		return float64(value), nil
	case float64:
		return value, nil
	case nil:
		return 0, fmt.Errorf("parameter %d is null, no number to evaluate", num.Param)
	}
	return 0, fmt.Errorf("parameter %d resolved to %T, need a number", num.Param, value)
}

// aggregate computes one cell: the measure aggregated over the fact rows
// matching the cell's members and the slicer. Slicer members are grouped
// per hierarchy into IN lists; a hierarchy pinned by the cell itself
// overrides the slicer.
func (e *Engine) aggregate(ctx context.Context, cube *metadata.Cube, measure *metadata.Measure, members, slicer []*metadata.Member) (olap.Cell, error) {
	type condition struct {
		column string
		keys   []any
	}
	var conds []condition
	pinned := map[string]bool{}
	for _, m := range members {
		col := m.Hierarchy().Column
		conds = append(conds, condition{column: col, keys: []any{m.Key}})
		pinned[col] = true
	}
	var slicerCols []string
	slicerKeys := map[string][]any{}
	for _, m := range slicer {
		col := m.Hierarchy().Column
		if pinned[col] {
			continue
		}
		if _, ok := slicerKeys[col]; !ok {
			slicerCols = append(slicerCols, col)
		}
		slicerKeys[col] = append(slicerKeys[col], m.Key)
	}
	for _, col := range slicerCols {
		conds = append(conds, condition{column: col, keys: slicerKeys[col]})
	}

	var sb strings.Builder
	var args []any
	fmt.Fprintf(&sb, "SELECT %s(%s) FROM %s",
		strings.ToUpper(measure.Aggregator), measure.Column, cube.Table)
	for i, c := range conds {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(c.column)
		sb.WriteString(" IN (")
		for j, key := range c.keys {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, key)
		}
		sb.WriteString(")")
	}

	var value sql.NullFloat64
	if err := e.db.QueryRowContext(ctx, sb.String(), args...).Scan(&value); err != nil {
		return olap.Cell{}, fmt.Errorf("cannot aggregate %s: %w", measure.UniqueName(), err)
	}
	if !value.Valid {
		return olap.Cell{Empty: true}, nil
	}
	return olap.Cell{Value: value.Float64}, nil
}

// eachPosition invokes f once per element of the cartesian product of the
// axis positions, in odometer order.
func eachPosition(axes []olap.CellSetAxis, f func(pos []int) error) error {
	for _, axis := range axes {
		if len(axis.Positions) == 0 {
			return nil
		}
	}
	pos := make([]int, len(axes))
	for {
		if err := f(pos); err != nil {
			return err
		}
		i := len(axes) - 1
		for ; i >= 0; i-- {
			pos[i]++
			if pos[i] < len(axes[i].Positions) {
				break
			}
			pos[i] = 0
		}
		if i < 0 {
			return nil
		}
	}
}
