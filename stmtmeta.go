// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package mdxair

import (
	"github.com/mdxair/mdxair/metadata"
)

// ParameterMetadata describes one declared parameter of a prepared
// statement.
type ParameterMetadata struct {
	// Index is the 1-based position of the parameter.
	Index int
	Name  string
	Type  metadata.Datatype
	// Hierarchy is set for member typed parameters only.
	Hierarchy *metadata.Hierarchy
}

// CellSetMetadata describes the shape of the cell set executing a
// statement will produce.
type CellSetMetadata struct {
	Cube *metadata.Cube
	Axes []AxisMetadata
}

// AxisMetadata describes one axis of the result shape.
type AxisMetadata struct {
	Ordinal int
	Name    string
}

// ParameterMetadata returns the declared parameters of the statement in
// index order. It is derived from the compiled plan alone: current
// binding state and past executions never affect it.
func (s *PreparedStatement) ParameterMetadata() ([]ParameterMetadata, error) {
	if s.isClosed() {
		return nil, ErrStatementClosed
	}
	params := make([]ParameterMetadata, len(s.plan.Params))
	for i, decl := range s.plan.Params {
		params[i] = ParameterMetadata{
			Index:     decl.Index,
			Name:      decl.Name,
			Type:      decl.Type,
			Hierarchy: decl.Hierarchy,
		}
	}
	return params, nil
}

// Metadata returns the result shape of the statement. Like parameter
// metadata it is fixed at compile time and identical across any number of
// executions and bind operations.
func (s *PreparedStatement) Metadata() (*CellSetMetadata, error) {
	if s.isClosed() {
		return nil, ErrStatementClosed
	}
	md := &CellSetMetadata{Cube: s.plan.Cube}
	for _, axis := range s.plan.Axes {
		md.Axes = append(md.Axes, AxisMetadata{Ordinal: axis.Ordinal, Name: axis.Name})
	}
	return md, nil
}

// DefaultExpression returns the default value expression of the 1-based
// parameter index. The expression is evaluated at execution time, never
// at bind time, so it may depend on the data source's current state.
func (s *PreparedStatement) DefaultExpression(index int) (string, error) {
	if s.isClosed() {
		return "", ErrStatementClosed
	}
	decl, err := s.params.decl(index)
	if err != nil {
		return "", err
	}
	return decl.Default, nil
}
