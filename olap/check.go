// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package olap

import (
	"fmt"

	"github.com/mdxair/mdxair/metadata"
)

// TypeMismatchError reports a value incompatible with the declared type of
// the parameter it was bound to.
type TypeMismatchError struct {
	Index int
	Want  metadata.Datatype
	Got   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("parameter %d expects %s value, got %s", e.Index, e.Want, e.Got)
}

// HierarchyMismatchError reports a member bound to a parameter declared
// over a different hierarchy.
type HierarchyMismatchError struct {
	Index  int
	Want   *metadata.Hierarchy
	Member *metadata.Member
}

func (e *HierarchyMismatchError) Error() string {
	return fmt.Sprintf("parameter %d expects a member of hierarchy %s, got %s",
		e.Index, e.Want.UniqueName(), e.Member.UniqueName())
}

// CompileError reports invalid statement text or an unresolvable cube
// reference. It is fatal to the statement being prepared.
type CompileError struct {
	Message string
	Line    int
	Column  int
}

func (e *CompileError) Error() string {
	if e.Line > 1 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	if e.Column > 0 {
		return fmt.Sprintf("column %d: %s", e.Column, e.Message)
	}
	return e.Message
}

// CheckValue reports whether value is compatible with the declared type of
// decl. A nil value is compatible with every declared type: null is a
// valid parameter value. Scalar kinds require an exact kind match; member
// typed parameters additionally require the member to belong to the
// declared hierarchy.
func CheckValue(decl ParamDecl, value any) error {
	if value == nil {
		return nil
	}
	switch decl.Type {
	case metadata.DatatypeNumeric:
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return nil
		}
	case metadata.DatatypeString:
		if _, ok := value.(string); ok {
			return nil
		}
	case metadata.DatatypeBoolean:
		if _, ok := value.(bool); ok {
			return nil
		}
	case metadata.DatatypeMember:
		m, ok := value.(*metadata.Member)
		if !ok {
			break
		}
		if m.Hierarchy() != decl.Hierarchy {
			return &HierarchyMismatchError{Index: decl.Index, Want: decl.Hierarchy, Member: m}
		}
		return nil
	}
	return &TypeMismatchError{Index: decl.Index, Want: decl.Type, Got: fmt.Sprintf("%T", value)}
}
