package example

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mdxair/mdxair"
	"github.com/mdxair/mdxair/metadata"
	"github.com/mdxair/mdxair/olap"
	"github.com/mdxair/mdxair/rolap"

	_ "github.com/mattn/go-sqlite3"
)

var catalog = `
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
`

func example() {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		panic(err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
	CREATE TABLE sales_fact (
		period text,
		region text,
		units integer,
		revenue real
	)`)
	if err != nil {
		panic(err)
	}

	facts := []struct {
		period, region string
		units          int
		revenue        float64
	}{
		{"Q1", "north", 10, 100},
		{"Q1", "south", 20, 200},
		{"Q1", "east", 5, 50},
		{"Q2", "north", 16, 160},
		{"Q2", "south", 25, 250},
	}
	for _, f := range facts {
		_, err := db.Exec("INSERT INTO sales_fact VALUES (?, ?, ?, ?)",
			f.period, f.region, f.units, f.revenue)
		if err != nil {
			panic(err)
		}
	}

	cat, err := metadata.ParseCatalog([]byte(catalog))
	if err != nil {
		panic(err)
	}

	conn := mdxair.NewConnection(rolap.NewEngine(db), cat)

	// Report units for the top regions of a period. Both the number of
	// regions and the period are parameters; the period defaults to the
	// latest one loaded into the fact table.
	stmt := conn.MustPrepare(`
		SELECT {[Measures].[Units]} ON COLUMNS,
		       Head([Region].Members, Param("top", NUMERIC, 2)) ON ROWS
		FROM [Sales]
		WHERE Param("period", [Time], LastPeriod([Time]))`)
	defer stmt.Close()

	ctx := context.Background()

	// With nothing bound, the defaults apply: two regions, latest period.
	cs, err := stmt.Execute(ctx)
	if err != nil {
		panic(err)
	}
	printUnits(cs)

	// Bind the period to Q1. The binding is kept across executions until
	// it is unset.
	cube, _ := cat.Cube("Sales")
	time, _ := cube.Hierarchy("Time")
	q1, _ := time.Member("Q1")
	err = stmt.SetMember(2, q1)
	if err != nil {
		panic(err)
	}
	err = stmt.SetInt(1, 3)
	if err != nil {
		panic(err)
	}

	cs, err = stmt.Execute(ctx)
	if err != nil {
		panic(err)
	}
	printUnits(cs)

	// Back to the defaults.
	err = stmt.Unset(1)
	if err != nil {
		panic(err)
	}
	err = stmt.Unset(2)
	if err != nil {
		panic(err)
	}

	cs, err = stmt.Execute(ctx)
	if err != nil {
		panic(err)
	}
	printUnits(cs)
}

func printUnits(cs olap.CellSet) {
	rows := cs.Axes()[1].Positions
	for i, pos := range rows {
		cell, ok := cs.Cell(0, i)
		if !ok {
			continue
		}
		if cell.Empty {
			fmt.Printf("%s: no data\n", pos[0].UniqueName())
			continue
		}
		fmt.Printf("%s: %v units\n", pos[0].UniqueName(), cell.Value)
	}
}
