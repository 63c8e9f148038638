// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package olap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mdxair/mdxair/metadata"
)

// EvaluateLiteral resolves a default value expression that does not depend
// on data source state: numeric, string and boolean literals, member paths
// such as [Time].[Q1], and bare hierarchy references, which resolve to the
// hierarchy's default member. Engines with data dependent defaults wrap
// this with their own DefaultEvaluator.
func EvaluateLiteral(decl ParamDecl, cube *metadata.Cube) (any, error) {
	expr := strings.TrimSpace(decl.Default)
	if expr == "" || strings.EqualFold(expr, "NULL") {
		return nil, nil
	}
	switch decl.Type {
	case metadata.DatatypeNumeric:
		n, err := strconv.ParseFloat(expr, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot evaluate default for parameter %d: %q is not numeric", decl.Index, expr)
		}
		return n, nil
	case metadata.DatatypeString:
		if len(expr) >= 2 && expr[0] == '"' && expr[len(expr)-1] == '"' {
			return expr[1 : len(expr)-1], nil
		}
		return expr, nil
	case metadata.DatatypeBoolean:
		if strings.EqualFold(expr, "TRUE") {
			return true, nil
		}
		if strings.EqualFold(expr, "FALSE") {
			return false, nil
		}
		return nil, fmt.Errorf("cannot evaluate default for parameter %d: %q is not boolean", decl.Index, expr)
	case metadata.DatatypeMember:
		return evaluateMemberPath(decl, expr)
	}
	return nil, fmt.Errorf("cannot evaluate default for parameter %d: unknown declared type", decl.Index)
}

// evaluateMemberPath resolves [Hierarchy].[Member] or [Hierarchy] against
// the declared hierarchy.
func evaluateMemberPath(decl ParamDecl, expr string) (any, error) {
	h := decl.Hierarchy
	parts, err := splitBracketPath(expr)
	if err != nil {
		return nil, fmt.Errorf("cannot evaluate default for parameter %d: %s", decl.Index, err)
	}
	if parts[0] != h.Name {
		return nil, fmt.Errorf("cannot evaluate default for parameter %d: hierarchy [%s] is not the declared hierarchy %s",
			decl.Index, parts[0], h.UniqueName())
	}
	var name string
	switch len(parts) {
	case 1:
		name = h.DefaultMember
		if name == "" {
			return nil, fmt.Errorf("cannot evaluate default for parameter %d: hierarchy %s has no default member",
				decl.Index, h.UniqueName())
		}
	case 2:
		name = parts[1]
	default:
		return nil, fmt.Errorf("cannot evaluate default for parameter %d: member path %q is too deep", decl.Index, expr)
	}
	m, ok := h.Member(name)
	if !ok {
		return nil, fmt.Errorf("cannot evaluate default for parameter %d: no member [%s] in hierarchy %s",
			decl.Index, name, h.UniqueName())
	}
	return m, nil
}

// splitBracketPath splits "[A].[B]" into its bracketed segments.
func splitBracketPath(expr string) ([]string, error) {
	var parts []string
	rest := expr
	for {
		if len(rest) == 0 || rest[0] != '[' {
			return nil, fmt.Errorf("malformed member path %q", expr)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("malformed member path %q", expr)
		}
		parts = append(parts, rest[1:end])
		rest = rest[end+1:]
		if rest == "" {
			return parts, nil
		}
		if rest[0] != '.' {
			return nil, fmt.Errorf("malformed member path %q", expr)
		}
		rest = rest[1:]
	}
}
