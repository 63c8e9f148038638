// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package olap_test

import (
	"testing"

	. "gopkg.in/check.v1"

	"github.com/mdxair/mdxair/metadata"
	"github.com/mdxair/mdxair/olap"
)

// Hook up gocheck into the "go test" runner.
func TestOlap(t *testing.T) { TestingT(t) }

type OlapSuite struct {
	time   *metadata.Hierarchy
	region *metadata.Hierarchy
}

var _ = Suite(&OlapSuite{})

func (s *OlapSuite) SetUpSuite(c *C) {
	cat, err := metadata.ParseCatalog([]byte(`
cubes:
  - name: Sales
    table: sales_fact
    dimensions:
      - name: Time
        hierarchies:
          - name: Time
            column: period
            members:
              - {name: Q1, key: Q1}
      - name: Region
        hierarchies:
          - name: Region
            column: region
            members:
              - {name: North, key: north}
`))
	c.Assert(err, IsNil)
	cube, ok := cat.Cube("Sales")
	c.Assert(ok, Equals, true)
	s.time, _ = cube.Hierarchy("Time")
	s.region, _ = cube.Hierarchy("Region")
}

func (s *OlapSuite) TestCheckValue(c *C) {
	q1, ok := s.time.Member("Q1")
	c.Assert(ok, Equals, true)
	north, ok := s.region.Member("North")
	c.Assert(ok, Equals, true)

	numeric := olap.ParamDecl{Index: 1, Type: metadata.DatatypeNumeric}
	str := olap.ParamDecl{Index: 2, Type: metadata.DatatypeString}
	boolean := olap.ParamDecl{Index: 3, Type: metadata.DatatypeBoolean}
	member := olap.ParamDecl{Index: 4, Type: metadata.DatatypeMember, Hierarchy: s.time}

	var tests = []struct {
		summary string
		decl    olap.ParamDecl
		value   any
		err     string
	}{{
		summary: "int is numeric",
		decl:    numeric,
		value:   42,
	}, {
		summary: "float is numeric",
		decl:    numeric,
		value:   4.2,
	}, {
		summary: "int64 is numeric",
		decl:    numeric,
		value:   int64(42),
	}, {
		summary: "string is not numeric",
		decl:    numeric,
		value:   "42",
		err:     "parameter 1 expects NUMERIC value, got string",
	}, {
		summary: "string value",
		decl:    str,
		value:   "net",
	}, {
		summary: "bool is not a string",
		decl:    str,
		value:   true,
		err:     "parameter 2 expects STRING value, got bool",
	}, {
		summary: "bool value",
		decl:    boolean,
		value:   false,
	}, {
		summary: "int is not a bool",
		decl:    boolean,
		value:   1,
		err:     "parameter 3 expects BOOLEAN value, got int",
	}, {
		summary: "member of the declared hierarchy",
		decl:    member,
		value:   q1,
	}, {
		summary: "member of another hierarchy",
		decl:    member,
		value:   north,
		err:     `parameter 4 expects a member of hierarchy \[Time\], got \[Region\].\[North\]`,
	}, {
		summary: "non-member value for member parameter",
		decl:    member,
		value:   "Q1",
		err:     "parameter 4 expects MEMBER value, got string",
	}}
	for _, t := range tests {
		c.Logf("test: %s", t.summary)
		err := olap.CheckValue(t.decl, t.value)
		if t.err == "" {
			c.Assert(err, IsNil)
		} else {
			c.Assert(err, ErrorMatches, t.err)
		}
	}

	// Null is a valid value for every declared type.
	for _, decl := range []olap.ParamDecl{numeric, str, boolean, member} {
		c.Assert(olap.CheckValue(decl, nil), IsNil)
	}
}
