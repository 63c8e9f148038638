/*
Package mdxair provides precompiled multidimensional statements: a query is
compiled once against a cube catalog, bound with positional parameters, and
executed any number of times, each execution producing a cell set rather
than a flat row set.

The defining behaviour is how parameters hold their values. A statement is
compiled with a fixed set of parameters, indexed 1..N. Every parameter has
a declared type and a default value expression. Until a parameter is set it
is unset, and each execution derives its value by evaluating the default
expression at that moment, so a default such as "the latest loaded period"
can change between executions. Once set, a parameter keeps its value across
executions until it is unset again. Null is a valid value to set: whether a
parameter is set cannot be told from its value, only from IsSet.

# Basics

A Connection ties a cube catalog to an execution engine. Statements are
prepared on the connection and executed with the current bindings:

	cat, err := metadata.LoadCatalogFile("sales.yaml")
	...
	conn := mdxair.NewConnection(engine, cat)
	stmt, err := conn.Prepare(`
		SELECT {[Measures].[Units]} ON COLUMNS,
		       [Region].Members ON ROWS
		FROM [Sales]
		WHERE Param("period", [Time], [Time].[Q1])`)
	...
	cs, err := stmt.Execute(ctx)          // default: Q1
	...
	err = stmt.SetMember(1, q3)
	cs, err = stmt.Execute(ctx)           // Q3, and again until Unset(1)

Parameters appear in the statement text as Param("name", type, default)
calls and are numbered in textual order. The type is NUMERIC, STRING,
BOOLEAN, or a bracketed hierarchy name, in which case only members of that
hierarchy may be bound.

The compiled shape of a statement is available before any execution:
ParameterMetadata describes the declared parameters, Metadata the axes of
the cell sets the statement will produce, and Cube the cube it is bound
to. All three are fixed at compile time.

The rolap package provides an engine that evaluates statements against a
relational star schema through database/sql.
*/
package mdxair
