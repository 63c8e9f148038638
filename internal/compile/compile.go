// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

// Package compile turns statement text into an executable plan. It is
// split into two stages: the parse stage walks the text and extracts the
// axis sets, cube name, slicer and parameter declarations by name, and the
// resolve stage binds those names to catalog metadata.
package compile

import (
	"fmt"

	"github.com/mdxair/mdxair/metadata"
	"github.com/mdxair/mdxair/olap"
)

// Compiler is the reference statement compiler.
type Compiler struct{}

func New() *Compiler {
	return &Compiler{}
}

// Compile parses source and resolves it against the catalog. All failures
// are reported as *olap.CompileError.
func (*Compiler) Compile(source string, cat *metadata.Catalog) (*olap.Plan, error) {
	q, err := newParser().parse(source)
	if err != nil {
		return nil, err
	}

	cube, ok := cat.Cube(q.cube)
	if !ok {
		return nil, compileErrorf("cannot resolve cube [%s]", q.cube)
	}
	r := &resolver{cube: cube}

	params, err := r.resolveParams(q.params)
	if err != nil {
		return nil, err
	}
	r.params = params

	plan := &olap.Plan{
		Source: source,
		Cube:   cube,
		Params: params,
	}

	axisOrdinals := map[string]int{"COLUMNS": 0, "ROWS": 1}
	seen := map[string]bool{}
	for i, axis := range q.axes {
		ordinal, ok := axisOrdinals[axis.name]
		if !ok {
			return nil, compileErrorf("unknown axis name %q", axis.name)
		}
		if seen[axis.name] {
			return nil, compileErrorf("axis %s used twice", axis.name)
		}
		seen[axis.name] = true
		if ordinal != i {
			return nil, compileErrorf("axis %s out of order", axis.name)
		}
		set, err := r.resolveSet(axis.set)
		if err != nil {
			return nil, err
		}
		plan.Axes = append(plan.Axes, olap.Axis{Ordinal: ordinal, Name: axis.name, Set: set})
	}

	for _, term := range q.slicer {
		t, err := r.resolveTerm(term)
		if err != nil {
			return nil, err
		}
		plan.Slicer = append(plan.Slicer, t)
	}

	return plan, nil
}

func compileErrorf(format string, args ...any) error {
	return &olap.CompileError{Message: fmt.Sprintf(format, args...)}
}

// resolver binds raw names from the parse stage to catalog metadata.
type resolver struct {
	cube   *metadata.Cube
	params []olap.ParamDecl
}

// resolveParams turns the parse stage parameter declarations into
// ParamDecls with resolved types. Indices were assigned in textual order
// during parsing and are dense by construction.
func (r *resolver) resolveParams(raw []rawParam) ([]olap.ParamDecl, error) {
	var decls []olap.ParamDecl
	for _, rp := range raw {
		decl := olap.ParamDecl{Index: rp.index, Name: rp.name, Default: rp.def}
		if rp.hierarchy != "" {
			h, ok := r.cube.Hierarchy(rp.hierarchy)
			if !ok {
				return nil, compileErrorf("parameter %q declared over unknown hierarchy [%s]", rp.name, rp.hierarchy)
			}
			decl.Type = metadata.DatatypeMember
			decl.Hierarchy = h
		} else {
			switch rp.typeName {
			case "NUMERIC":
				decl.Type = metadata.DatatypeNumeric
			case "STRING":
				decl.Type = metadata.DatatypeString
			case "BOOLEAN":
				decl.Type = metadata.DatatypeBoolean
			default:
				return nil, compileErrorf("parameter %q has unknown type %s", rp.name, rp.typeName)
			}
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func (r *resolver) resolveSet(set rawSet) (olap.SetExpr, error) {
	switch set := set.(type) {
	case rawEnum:
		var terms []olap.Term
		for _, rt := range set.terms {
			t, err := r.resolveTerm(rt)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		}
		return olap.EnumSet{Terms: terms}, nil
	case rawAll:
		h, ok := r.cube.Hierarchy(set.hierarchy)
		if !ok {
			return nil, compileErrorf("cannot resolve hierarchy [%s] in cube %q", set.hierarchy, r.cube.Name)
		}
		return olap.AllMembers{Hierarchy: h}, nil
	case rawHead:
		inner, err := r.resolveSet(set.set)
		if err != nil {
			return nil, err
		}
		count, err := r.resolveNum(set.count)
		if err != nil {
			return nil, err
		}
		return olap.HeadSet{Set: inner, Count: count}, nil
	}
	return nil, compileErrorf("internal error: unknown set expression %T", set)
}

func (r *resolver) resolveTerm(term rawTerm) (olap.Term, error) {
	if term.param != 0 {
		decl := r.params[term.param-1]
		if decl.Type != metadata.DatatypeMember {
			return olap.Term{}, compileErrorf("parameter %q used as a member but declared %s", decl.Name, decl.Type)
		}
		return olap.Term{Param: term.param}, nil
	}
	path := term.path
	switch len(path) {
	case 1:
		h, ok := r.cube.Hierarchy(path[0])
		if !ok {
			return olap.Term{}, compileErrorf("cannot resolve hierarchy [%s] in cube %q", path[0], r.cube.Name)
		}
		if h.DefaultMember == "" {
			return olap.Term{}, compileErrorf("hierarchy [%s] has no default member", path[0])
		}
		m, _ := h.Member(h.DefaultMember)
		return olap.Term{Member: m}, nil
	case 2:
		if path[0] == "Measures" {
			ms, ok := r.cube.Measure(path[1])
			if !ok {
				return olap.Term{}, compileErrorf("cannot resolve measure [%s] in cube %q", path[1], r.cube.Name)
			}
			return olap.Term{Measure: ms}, nil
		}
		h, ok := r.cube.Hierarchy(path[0])
		if !ok {
			return olap.Term{}, compileErrorf("cannot resolve hierarchy [%s] in cube %q", path[0], r.cube.Name)
		}
		m, ok := h.Member(path[1])
		if !ok {
			return olap.Term{}, compileErrorf("cannot resolve member [%s] in hierarchy [%s]", path[1], path[0])
		}
		return olap.Term{Member: m}, nil
	}
	return olap.Term{}, compileErrorf("member path %v is too deep", path)
}

func (r *resolver) resolveNum(num rawNum) (olap.NumExpr, error) {
	if num.param != 0 {
		decl := r.params[num.param-1]
		if decl.Type != metadata.DatatypeNumeric {
			return olap.NumExpr{}, compileErrorf("parameter %q used as a number but declared %s", decl.Name, decl.Type)
		}
		return olap.NumExpr{Param: num.param}, nil
	}
	return olap.NumExpr{Literal: num.literal}, nil
}
