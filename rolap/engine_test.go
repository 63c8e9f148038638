// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package rolap_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	. "gopkg.in/check.v1"

	"github.com/mdxair/mdxair/internal/compile"
	"github.com/mdxair/mdxair/metadata"
	"github.com/mdxair/mdxair/olap"
	"github.com/mdxair/mdxair/rolap"
)

// Hook up gocheck into the "go test" runner.
func TestRolap(t *testing.T) { TestingT(t) }

type RolapSuite struct{}

var _ = Suite(&RolapSuite{})

var catalogYAML = `
cubes:
  - name: Sales
    table: sales_fact
    dimensions:
      - name: Time
        hierarchies:
          - name: Time
            column: period
            defaultMember: Q1
            members:
              - {name: Q1, key: Q1}
              - {name: Q2, key: Q2}
              - {name: Q3, key: Q3}
      - name: Region
        hierarchies:
          - name: Region
            column: region
            members:
              - {name: North, key: north}
              - {name: South, key: south}
              - {name: East, key: east}
    measures:
      - {name: Units, column: units}
      - {name: Revenue, column: revenue}
      - {name: Orders, column: units, aggregator: count}
`

func (s *RolapSuite) setup(c *C) (*metadata.Catalog, *rolap.Engine) {
	cat, err := metadata.ParseCatalog([]byte(catalogYAML))
	c.Assert(err, IsNil)

	db, err := sql.Open("sqlite3", ":memory:")
	c.Assert(err, IsNil)
	_, err = db.Exec(`
CREATE TABLE sales_fact (
	period text,
	region text,
	units integer,
	revenue real
);`)
	c.Assert(err, IsNil)
	inserts := []string{
		"INSERT INTO sales_fact VALUES ('Q1', 'north', 10, 100);",
		"INSERT INTO sales_fact VALUES ('Q1', 'south', 20, 200);",
		"INSERT INTO sales_fact VALUES ('Q1', 'east', 5, 50);",
		"INSERT INTO sales_fact VALUES ('Q2', 'north', 15, 150);",
		"INSERT INTO sales_fact VALUES ('Q2', 'north', 1, 10);",
		"INSERT INTO sales_fact VALUES ('Q2', 'south', 25, 250);",
	}
	for _, insert := range inserts {
		_, err := db.Exec(insert)
		c.Assert(err, IsNil)
	}
	return cat, rolap.NewEngine(db)
}

func (s *RolapSuite) compilePlan(c *C, cat *metadata.Catalog, source string) *olap.Plan {
	plan, err := compile.New().Compile(source, cat)
	c.Assert(err, IsNil)
	return plan
}

func (s *RolapSuite) TestRunAggregates(c *C) {
	cat, engine := s.setup(c)
	plan := s.compilePlan(c, cat,
		"SELECT {[Measures].[Units], [Measures].[Revenue]} ON COLUMNS, [Region].Members ON ROWS FROM [Sales] WHERE [Time].[Q1]")

	cs, err := engine.Run(context.Background(), plan, nil)
	c.Assert(err, IsNil)
	defer cs.Close()

	axes := cs.Axes()
	c.Assert(axes, HasLen, 2)
	c.Assert(axes[0].Name, Equals, "COLUMNS")
	c.Assert(axes[0].Positions, HasLen, 2)
	c.Assert(axes[0].Positions[0][0].UniqueName(), Equals, "[Measures].[Units]")
	c.Assert(axes[1].Positions, HasLen, 3)
	c.Assert(axes[1].Positions[0][0].UniqueName(), Equals, "[Region].[North]")

	var tests = []struct {
		col, row int
		value    float64
	}{
		{0, 0, 10},  // Units, North
		{0, 1, 20},  // Units, South
		{0, 2, 5},   // Units, East
		{1, 0, 100}, // Revenue, North
		{1, 1, 200}, // Revenue, South
		{1, 2, 50},  // Revenue, East
	}
	for _, t := range tests {
		cell, ok := cs.Cell(t.col, t.row)
		c.Assert(ok, Equals, true)
		c.Assert(cell.Empty, Equals, false)
		c.Assert(cell.Value, Equals, t.value)
	}
}

func (s *RolapSuite) TestRunSumsAcrossRows(c *C) {
	cat, engine := s.setup(c)
	// Two Q2 north fact rows contribute to one cell.
	plan := s.compilePlan(c, cat,
		"SELECT [Measures].[Units] ON COLUMNS, {[Region].[North]} ON ROWS FROM [Sales] WHERE [Time].[Q2]")

	cs, err := engine.Run(context.Background(), plan, nil)
	c.Assert(err, IsNil)
	cell, ok := cs.Cell(0, 0)
	c.Assert(ok, Equals, true)
	c.Assert(cell.Value, Equals, float64(16))
}

func (s *RolapSuite) TestRunCountAggregator(c *C) {
	cat, engine := s.setup(c)
	plan := s.compilePlan(c, cat,
		"SELECT [Measures].[Orders] ON COLUMNS FROM [Sales] WHERE [Time].[Q2]")

	cs, err := engine.Run(context.Background(), plan, nil)
	c.Assert(err, IsNil)
	cell, ok := cs.Cell(0)
	c.Assert(ok, Equals, true)
	c.Assert(cell.Value, Equals, float64(3))
}

func (s *RolapSuite) TestRunEmptyCell(c *C) {
	cat, engine := s.setup(c)
	// No east fact rows in Q2.
	plan := s.compilePlan(c, cat,
		"SELECT [Measures].[Units] ON COLUMNS, {[Region].[East]} ON ROWS FROM [Sales] WHERE [Time].[Q2]")

	cs, err := engine.Run(context.Background(), plan, nil)
	c.Assert(err, IsNil)
	cell, ok := cs.Cell(0, 0)
	c.Assert(ok, Equals, true)
	c.Assert(cell.Empty, Equals, true)
	c.Assert(cell.Value, IsNil)
}

func (s *RolapSuite) TestRunHeadWithParameter(c *C) {
	cat, engine := s.setup(c)
	plan := s.compilePlan(c, cat,
		`SELECT [Measures].[Units] ON COLUMNS, Head([Region].Members, Param("top", NUMERIC, 2)) ON ROWS FROM [Sales]`)

	// The default takes the first two members.
	cs, err := engine.Run(context.Background(), plan, []any{float64(2)})
	c.Assert(err, IsNil)
	c.Assert(cs.Axes()[1].Positions, HasLen, 2)

	// A larger count is clamped to the set size, a negative one to zero.
	cs, err = engine.Run(context.Background(), plan, []any{42})
	c.Assert(err, IsNil)
	c.Assert(cs.Axes()[1].Positions, HasLen, 3)

	cs, err = engine.Run(context.Background(), plan, []any{-1})
	c.Assert(err, IsNil)
	c.Assert(cs.Axes()[1].Positions, HasLen, 0)

	// A null count cannot be evaluated.
	_, err = engine.Run(context.Background(), plan, []any{nil})
	c.Assert(err, ErrorMatches, "parameter 1 is null, no number to evaluate")
}

func (s *RolapSuite) TestRunMemberParameter(c *C) {
	cat, engine := s.setup(c)
	plan := s.compilePlan(c, cat,
		`SELECT [Measures].[Units] ON COLUMNS FROM [Sales] WHERE Param("period", [Time], [Time].[Q1])`)

	cube, _ := cat.Cube("Sales")
	time, _ := cube.Hierarchy("Time")
	q2, _ := time.Member("Q2")

	cs, err := engine.Run(context.Background(), plan, []any{q2})
	c.Assert(err, IsNil)
	cell, _ := cs.Cell(0)
	c.Assert(cell.Value, Equals, float64(41))

	_, err = engine.Run(context.Background(), plan, []any{"Q2"})
	c.Assert(err, ErrorMatches, "parameter 1 resolved to string, need a member")
}

func (s *RolapSuite) TestRunNoMeasure(c *C) {
	cat, engine := s.setup(c)
	plan := s.compilePlan(c, cat,
		"SELECT {[Time].[Q1]} ON COLUMNS FROM [Sales]")

	_, err := engine.Run(context.Background(), plan, nil)
	c.Assert(err, ErrorMatches, "cell tuple references no measure")
}

func (s *RolapSuite) TestCellSetBounds(c *C) {
	cat, engine := s.setup(c)
	plan := s.compilePlan(c, cat,
		"SELECT [Measures].[Units] ON COLUMNS, [Region].Members ON ROWS FROM [Sales]")

	cs, err := engine.Run(context.Background(), plan, nil)
	c.Assert(err, IsNil)

	_, ok := cs.Cell(0)
	c.Assert(ok, Equals, false)
	_, ok = cs.Cell(0, 3)
	c.Assert(ok, Equals, false)
	_, ok = cs.Cell(-1, 0)
	c.Assert(ok, Equals, false)

	// Closing the handle is idempotent and invalidates cell reads.
	c.Assert(cs.Close(), IsNil)
	c.Assert(cs.Close(), IsNil)
	_, ok = cs.Cell(0, 0)
	c.Assert(ok, Equals, false)
}

func (s *RolapSuite) TestCellSetIdentity(c *C) {
	cat, engine := s.setup(c)
	plan := s.compilePlan(c, cat,
		"SELECT [Measures].[Units] ON COLUMNS FROM [Sales]")

	// Every execution returns a fresh handle with its own identity.
	cs1, err := engine.Run(context.Background(), plan, nil)
	c.Assert(err, IsNil)
	defer cs1.Close()
	cs2, err := engine.Run(context.Background(), plan, nil)
	c.Assert(err, IsNil)
	defer cs2.Close()

	c.Assert(cs1.ID(), Not(Equals), "")
	c.Assert(cs2.ID(), Not(Equals), "")
	c.Assert(cs1.ID(), Not(Equals), cs2.ID())
}

func (s *RolapSuite) TestEvaluateDefaultLastPeriod(c *C) {
	cat, engine := s.setup(c)
	cube, _ := cat.Cube("Sales")
	time, _ := cube.Hierarchy("Time")
	decl := olap.ParamDecl{
		Index:     1,
		Name:      "period",
		Type:      metadata.DatatypeMember,
		Hierarchy: time,
		Default:   "LastPeriod([Time])",
	}

	// Q2 is the highest period loaded so far.
	value, err := engine.EvaluateDefault(context.Background(), decl, cube)
	c.Assert(err, IsNil)
	m, ok := value.(*metadata.Member)
	c.Assert(ok, Equals, true)
	c.Assert(m.Name, Equals, "Q2")

	// The default tracks the data source: loading Q3 changes it.
	_, err = engine.DB().Exec("INSERT INTO sales_fact VALUES ('Q3', 'north', 7, 70);")
	c.Assert(err, IsNil)
	value, err = engine.EvaluateDefault(context.Background(), decl, cube)
	c.Assert(err, IsNil)
	c.Assert(value.(*metadata.Member).Name, Equals, "Q3")
}

func (s *RolapSuite) TestEvaluateDefaultLiteralForms(c *C) {
	cat, engine := s.setup(c)
	cube, _ := cat.Cube("Sales")
	time, _ := cube.Hierarchy("Time")

	var tests = []struct {
		summary string
		decl    olap.ParamDecl
		value   any
	}{{
		"numeric literal",
		olap.ParamDecl{Index: 1, Type: metadata.DatatypeNumeric, Default: "2"},
		float64(2),
	}, {
		"string literal",
		olap.ParamDecl{Index: 1, Type: metadata.DatatypeString, Default: `"net"`},
		"net",
	}, {
		"boolean literal",
		olap.ParamDecl{Index: 1, Type: metadata.DatatypeBoolean, Default: "TRUE"},
		true,
	}, {
		"member path",
		olap.ParamDecl{Index: 1, Type: metadata.DatatypeMember, Hierarchy: time, Default: "[Time].[Q2]"},
		nil, // checked below
	}, {
		"bare hierarchy resolves to the default member",
		olap.ParamDecl{Index: 1, Type: metadata.DatatypeMember, Hierarchy: time, Default: "[Time]"},
		nil, // checked below
	}, {
		"null default",
		olap.ParamDecl{Index: 1, Type: metadata.DatatypeString, Default: "NULL"},
		nil,
	}}
	for _, t := range tests {
		c.Logf("test: %s", t.summary)
		value, err := engine.EvaluateDefault(context.Background(), t.decl, cube)
		c.Assert(err, IsNil)
		switch t.summary {
		case "member path":
			c.Assert(value.(*metadata.Member).Name, Equals, "Q2")
		case "bare hierarchy resolves to the default member":
			c.Assert(value.(*metadata.Member).Name, Equals, "Q1")
		default:
			c.Assert(value, Equals, t.value)
		}
	}
}

func (s *RolapSuite) TestEvaluateDefaultErrors(c *C) {
	cat, engine := s.setup(c)
	cube, _ := cat.Cube("Sales")
	time, _ := cube.Hierarchy("Time")

	decl := olap.ParamDecl{Index: 2, Type: metadata.DatatypeNumeric, Default: "LastPeriod([Time])"}
	_, err := engine.EvaluateDefault(context.Background(), decl, cube)
	c.Assert(err, ErrorMatches, "cannot evaluate default for parameter 2: LastPeriod needs a member typed parameter")

	decl = olap.ParamDecl{Index: 1, Type: metadata.DatatypeMember, Hierarchy: time, Default: "LastPeriod([Region])"}
	_, err = engine.EvaluateDefault(context.Background(), decl, cube)
	c.Assert(err, ErrorMatches, `cannot evaluate default for parameter 1: LastPeriod argument "\[Region\]" is not the declared hierarchy \[Time\]`)

	decl = olap.ParamDecl{Index: 1, Type: metadata.DatatypeNumeric, Default: "not-a-number"}
	_, err = engine.EvaluateDefault(context.Background(), decl, cube)
	c.Assert(err, ErrorMatches, `cannot evaluate default for parameter 1: "not-a-number" is not numeric`)
}
