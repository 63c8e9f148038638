package mdxair_test

import (
	"context"
	"errors"
	"sync"

	. "gopkg.in/check.v1"

	"github.com/mdxair/mdxair"
	"github.com/mdxair/mdxair/metadata"
	"github.com/mdxair/mdxair/olap"
)

// fakeEngine records the parameter values passed to each Run call. It
// deliberately does not implement olap.DefaultEvaluator, so unset
// parameters resolve through their literal default expressions.
type fakeEngine struct {
	mutex  sync.Mutex
	runs   [][]any
	runErr error
	// block, when set, is received from inside Run so a test can hold an
	// execution in flight. Run reports on started before it waits.
	block   chan struct{}
	started chan struct{}
}

func (e *fakeEngine) Run(ctx context.Context, plan *olap.Plan, values []any) (olap.CellSet, error) {
	e.mutex.Lock()
	e.runs = append(e.runs, append([]any{}, values...))
	block := e.block
	started := e.started
	err := e.runErr
	e.mutex.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return fakeCellSet{}, nil
}

func (e *fakeEngine) run(i int) []any {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.runs[i]
}

type fakeCellSet struct{}

func (fakeCellSet) ID() string { return "fake" }

func (fakeCellSet) Axes() []olap.CellSetAxis { return nil }

func (fakeCellSet) Cell(pos ...int) (olap.Cell, bool) { return olap.Cell{}, false }

func (fakeCellSet) Close() error { return nil }

type FakeEngineSuite struct{}

var _ = Suite(&FakeEngineSuite{})

var literalStatement = `
SELECT {[Measures].[Units]} ON COLUMNS,
       Head([Region].Members, Param("top", NUMERIC, 2)) ON ROWS
FROM [Sales]
WHERE Param("period", [Time], [Time].[Q1])`

func fakeConnection(c *C) (*mdxair.Connection, *fakeEngine) {
	cat, err := metadata.ParseCatalog([]byte(salesCatalog))
	c.Assert(err, IsNil)
	engine := &fakeEngine{}
	return mdxair.NewConnection(engine, cat), engine
}

func (s *FakeEngineSuite) TestSnapshotValues(c *C) {
	conn, engine := fakeConnection(c)
	stmt := conn.MustPrepare(literalStatement)
	defer stmt.Close()
	ctx := context.Background()
	q1 := timeMember(c, conn, "Q1")
	q2 := timeMember(c, conn, "Q2")

	// Unset parameters reach the engine as their evaluated defaults.
	_, err := stmt.Execute(ctx)
	c.Assert(err, IsNil)
	c.Assert(engine.run(0), DeepEquals, []any{float64(2), q1})

	// Bound values reach the engine exactly as given.
	c.Assert(stmt.SetInt(1, 42), IsNil)
	_, err = stmt.Execute(ctx)
	c.Assert(err, IsNil)
	c.Assert(engine.run(1), DeepEquals, []any{42, q1})

	// Setting null is not unsetting: the engine sees nil, not the
	// default.
	c.Assert(stmt.SetValue(2, nil), IsNil)
	set, err := stmt.IsSet(2)
	c.Assert(err, IsNil)
	c.Assert(set, Equals, true)
	_, err = stmt.Execute(ctx)
	c.Assert(err, IsNil)
	c.Assert(engine.run(2), DeepEquals, []any{42, nil})

	c.Assert(stmt.SetMember(2, q2), IsNil)
	_, err = stmt.Execute(ctx)
	c.Assert(err, IsNil)
	c.Assert(engine.run(3), DeepEquals, []any{42, q2})

	// Unset restores the defaults.
	c.Assert(stmt.Unset(1), IsNil)
	c.Assert(stmt.Unset(2), IsNil)
	_, err = stmt.Execute(ctx)
	c.Assert(err, IsNil)
	c.Assert(engine.run(4), DeepEquals, []any{float64(2), q1})
}

func (s *FakeEngineSuite) TestExecutionFailureKeepsBindings(c *C) {
	conn, engine := fakeConnection(c)
	stmt := conn.MustPrepare(literalStatement)
	defer stmt.Close()
	ctx := context.Background()

	c.Assert(stmt.SetInt(1, 3), IsNil)
	engine.runErr = errors.New("cube exploded")

	_, err := stmt.Execute(ctx)
	c.Assert(err, ErrorMatches, "cannot execute statement: cube exploded")
	var eerr *mdxair.ExecutionError
	c.Assert(errors.As(err, &eerr), Equals, true)

	// The statement is still usable and the binding survived.
	set, err := stmt.IsSet(1)
	c.Assert(err, IsNil)
	c.Assert(set, Equals, true)

	engine.runErr = nil
	_, err = stmt.Execute(ctx)
	c.Assert(err, IsNil)
	c.Assert(engine.run(1)[0], Equals, 3)
}

func (s *FakeEngineSuite) TestExecuteCancelled(c *C) {
	conn, _ := fakeConnection(c)
	stmt := conn.MustPrepare(literalStatement)
	defer stmt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := stmt.Execute(ctx)
	c.Assert(err, ErrorMatches, "cannot execute statement: context canceled")
	c.Assert(errors.Is(err, context.Canceled), Equals, true)
}

func (s *FakeEngineSuite) TestBindDuringExecute(c *C) {
	conn, engine := fakeConnection(c)
	stmt := conn.MustPrepare(literalStatement)
	defer stmt.Close()

	engine.block = make(chan struct{})
	engine.started = make(chan struct{}, 1)
	errCh := make(chan error, 1)
	go func() {
		_, err := stmt.Execute(context.Background())
		errCh <- err
	}()

	// Wait for the execution to take its snapshot and start running.
	<-engine.started

	// Binding while an execution is in flight succeeds and does not
	// disturb the snapshot that execution already took.
	c.Assert(stmt.SetInt(1, 99), IsNil)
	close(engine.block)
	c.Assert(<-errCh, IsNil)
	c.Assert(engine.run(0)[0], Equals, float64(2))

	engine.block = nil
	engine.started = nil
	_, err := stmt.Execute(context.Background())
	c.Assert(err, IsNil)
	c.Assert(engine.run(1)[0], Equals, 99)
}

func (s *FakeEngineSuite) TestDefaultEvaluationFailure(c *C) {
	conn, _ := fakeConnection(c)
	stmt := conn.MustPrepare(`
SELECT {[Measures].[Units]} ON COLUMNS,
       Head([Region].Members, Param("top", NUMERIC, abc)) ON ROWS
FROM [Sales]`)
	defer stmt.Close()

	_, err := stmt.Execute(context.Background())
	c.Assert(err, ErrorMatches, "cannot execute statement: cannot evaluate default for parameter 1: .*")
	var eerr *mdxair.ExecutionError
	c.Assert(errors.As(err, &eerr), Equals, true)

	// Binding the parameter sidesteps the bad default.
	c.Assert(stmt.SetInt(1, 1), IsNil)
	_, err = stmt.Execute(context.Background())
	c.Assert(err, IsNil)
}
