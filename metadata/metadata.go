// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

// Package metadata describes the multidimensional schema a statement is
// compiled against: catalogs of cubes, their dimensions, hierarchies,
// members and measures, plus the datatypes a statement parameter may
// declare.
package metadata

import (
	"fmt"
)

// Datatype is the declared semantic type of a statement parameter.
type Datatype int

const (
	DatatypeUnknown Datatype = iota
	DatatypeNumeric
	DatatypeString
	DatatypeBoolean
	// DatatypeMember declares a parameter whose values must be members of
	// a specific hierarchy.
	DatatypeMember
)

func (dt Datatype) String() string {
	switch dt {
	case DatatypeNumeric:
		return "NUMERIC"
	case DatatypeString:
		return "STRING"
	case DatatypeBoolean:
		return "BOOLEAN"
	case DatatypeMember:
		return "MEMBER"
	}
	return "UNKNOWN"
}

// Catalog is a set of cubes sharing one data source.
type Catalog struct {
	cubes map[string]*Cube
}

// NewCatalog builds a catalog from cubes. Member and hierarchy lookup
// tables are populated here, so cubes must not be mutated afterwards.
func NewCatalog(cubes ...*Cube) (*Catalog, error) {
	cat := &Catalog{cubes: map[string]*Cube{}}
	for _, cube := range cubes {
		if _, ok := cat.cubes[cube.Name]; ok {
			return nil, fmt.Errorf("duplicate cube %q in catalog", cube.Name)
		}
		if err := cube.link(); err != nil {
			return nil, err
		}
		cat.cubes[cube.Name] = cube
	}
	return cat, nil
}

// Cube returns the named cube, if present.
func (cat *Catalog) Cube(name string) (*Cube, bool) {
	cube, ok := cat.cubes[name]
	return cube, ok
}

// Cube is one multidimensional schema: dimensions with hierarchies of
// members, and measures aggregated from a fact table.
type Cube struct {
	Name string
	// Table is the fact table the measures aggregate over.
	Table      string
	Dimensions []*Dimension
	Measures   []*Measure

	hierarchies map[string]*Hierarchy
	measures    map[string]*Measure
}

// link wires parent references and lookup tables. Called once by
// NewCatalog.
func (c *Cube) link() error {
	c.hierarchies = map[string]*Hierarchy{}
	c.measures = map[string]*Measure{}
	for _, d := range c.Dimensions {
		for _, h := range d.Hierarchies {
			if _, ok := c.hierarchies[h.Name]; ok {
				return fmt.Errorf("duplicate hierarchy %q in cube %q", h.Name, c.Name)
			}
			c.hierarchies[h.Name] = h
			h.dimension = d
			h.members = map[string]*Member{}
			for _, m := range h.Members {
				if _, ok := h.members[m.Name]; ok {
					return fmt.Errorf("duplicate member %q in hierarchy %q", m.Name, h.Name)
				}
				h.members[m.Name] = m
				m.hierarchy = h
			}
			if h.DefaultMember != "" {
				if _, ok := h.members[h.DefaultMember]; !ok {
					return fmt.Errorf("default member %q not found in hierarchy %q", h.DefaultMember, h.Name)
				}
			}
		}
	}
	for _, ms := range c.Measures {
		if _, ok := c.measures[ms.Name]; ok {
			return fmt.Errorf("duplicate measure %q in cube %q", ms.Name, c.Name)
		}
		c.measures[ms.Name] = ms
		ms.cube = c
	}
	return nil
}

// Hierarchy returns the hierarchy with the given name, if present in any
// dimension of the cube.
func (c *Cube) Hierarchy(name string) (*Hierarchy, bool) {
	h, ok := c.hierarchies[name]
	return h, ok
}

// Measure returns the named measure, if present.
func (c *Cube) Measure(name string) (*Measure, bool) {
	m, ok := c.measures[name]
	return m, ok
}

// Dimension groups the hierarchies that organise one axis of analysis.
type Dimension struct {
	Name        string
	Hierarchies []*Hierarchy
}

// Hierarchy is an ordered organising structure within a dimension.
type Hierarchy struct {
	Name string
	// Column is the fact table column holding member keys of this
	// hierarchy.
	Column string
	// DefaultMember names the member used when a member expression does
	// not name one explicitly. May be empty.
	DefaultMember string
	Members       []*Member

	dimension *Dimension
	members   map[string]*Member
}

// Dimension returns the dimension this hierarchy belongs to.
func (h *Hierarchy) Dimension() *Dimension {
	return h.dimension
}

// Member returns the named member of the hierarchy, if present.
func (h *Hierarchy) Member(name string) (*Member, bool) {
	m, ok := h.members[name]
	return m, ok
}

// UniqueName returns the bracketed name of the hierarchy, e.g. "[Time]".
func (h *Hierarchy) UniqueName() string {
	return "[" + h.Name + "]"
}

// Member is a single addressable point within a hierarchy.
type Member struct {
	Name string
	// Key is the value identifying the member in the fact table column of
	// its hierarchy.
	Key any

	hierarchy *Hierarchy
}

// Hierarchy returns the hierarchy the member belongs to.
func (m *Member) Hierarchy() *Hierarchy {
	return m.hierarchy
}

// UniqueName returns the fully qualified member name, e.g. "[Time].[Q1]".
func (m *Member) UniqueName() string {
	return m.hierarchy.UniqueName() + ".[" + m.Name + "]"
}

// Measure is a numeric fact aggregated from the cube's fact table.
type Measure struct {
	Name string
	// Column is the fact table column the aggregator runs over.
	Column string
	// Aggregator is one of "sum", "avg", "count", "min" or "max".
	Aggregator string

	cube *Cube
}

// Cube returns the cube the measure belongs to.
func (ms *Measure) Cube() *Cube {
	return ms.cube
}

// UniqueName returns the fully qualified measure name, e.g.
// "[Measures].[Units]".
func (ms *Measure) UniqueName() string {
	return "[Measures].[" + ms.Name + "]"
}
