// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

// Package olap defines the boundary between the statement layer and its
// collaborators: the compiled plan produced by a Compiler, the Engine that
// runs it, the evaluator for parameter default expressions, and the cell
// set handle an execution returns.
package olap

import (
	"context"

	"github.com/mdxair/mdxair/metadata"
)

// Plan is the compiled form of one statement. It is immutable after
// compilation: the axes, parameter declarations and cube binding describe
// the statement's static shape, not any particular execution.
type Plan struct {
	// Source is the original statement text.
	Source string
	// Cube is the cube the statement was resolved against.
	Cube *metadata.Cube
	// Axes holds one entry per projected axis, in ordinal order.
	Axes []Axis
	// Slicer holds the filter tuple from the WHERE clause, if any.
	Slicer []Term
	// Params holds the parameter declarations in index order, so
	// Params[i].Index == i+1.
	Params []ParamDecl
}

// Axis is one projected axis of a plan.
type Axis struct {
	// Ordinal is 0 for COLUMNS, 1 for ROWS.
	Ordinal int
	Name    string
	Set     SetExpr
}

// ParamDecl declares one statement parameter. Indices are 1-based and
// dense: a plan with N parameters declares exactly indices 1..N.
type ParamDecl struct {
	Index int
	Name  string
	Type  metadata.Datatype
	// Hierarchy is set for member typed parameters only.
	Hierarchy *metadata.Hierarchy
	// Default is the default value expression. It is evaluated each time
	// an execution snapshots an unset parameter, never at compile or bind
	// time.
	Default string
}

// SetExpr is a compiled member set expression appearing on an axis.
type SetExpr interface {
	setExpr()
}

// EnumSet is an explicit set of terms: {[Time].[Q1], [Time].[Q2]}.
type EnumSet struct {
	Terms []Term
}

// AllMembers is the full member set of a hierarchy: [Region].Members.
type AllMembers struct {
	Hierarchy *metadata.Hierarchy
}

// HeadSet takes the first Count elements of Set.
type HeadSet struct {
	Set   SetExpr
	Count NumExpr
}

func (EnumSet) setExpr()    {}
func (AllMembers) setExpr() {}
func (HeadSet) setExpr()    {}

// Term is a single element of a set or slicer tuple. Exactly one field is
// set.
type Term struct {
	Member  *metadata.Member
	Measure *metadata.Measure
	// Param refers to a member typed parameter by index; the engine
	// substitutes the execution's effective value.
	Param int
}

// NumExpr is a numeric argument, either a literal or a reference to a
// numeric parameter by index.
type NumExpr struct {
	Literal float64
	Param   int
}

// Compiler turns statement text into a plan, resolving the cube and
// parameter declarations against a catalog. It is invoked exactly once per
// prepared statement.
type Compiler interface {
	Compile(source string, cat *metadata.Catalog) (*Plan, error)
}

// Engine executes a compiled plan against a data source. The values slice
// carries the effective value of every parameter, values[i] belonging to
// Params[i]. Implementations must support overlapping Run calls on the
// same plan.
type Engine interface {
	Run(ctx context.Context, plan *Plan, values []any) (CellSet, error)
}

// DefaultEvaluator resolves a parameter default expression against the
// current state of the data source. Engines whose default expressions can
// depend on data (e.g. "latest loaded period") implement this alongside
// Engine; otherwise the statement layer falls back to EvaluateLiteral.
type DefaultEvaluator interface {
	EvaluateDefault(ctx context.Context, decl ParamDecl, cube *metadata.Cube) (any, error)
}
