// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package mdxair

import (
	"context"
	"sync/atomic"

	"github.com/mdxair/mdxair/internal/compile"
	"github.com/mdxair/mdxair/metadata"
	"github.com/mdxair/mdxair/olap"
)

// Connection ties a catalog to the engine that executes statements over
// its data source. Statements prepared on a connection are compiled
// against its catalog and run on its engine.
type Connection struct {
	compiler olap.Compiler
	engine   olap.Engine
	catalog  *metadata.Catalog
	cache    *planCache
}

// NewConnection creates a connection running statements on engine against
// the cubes of cat. If the engine implements olap.DefaultEvaluator it
// also resolves parameter defaults; otherwise defaults are restricted to
// literal expressions.
func NewConnection(engine olap.Engine, cat *metadata.Catalog) *Connection {
	if engine == nil || cat == nil {
		return nil
	}
	return &Connection{
		compiler: compile.New(),
		engine:   engine,
		catalog:  cat,
		cache:    newPlanCache(),
	}
}

// Catalog returns the catalog statements are compiled against.
func (c *Connection) Catalog() *metadata.Catalog {
	return c.catalog
}

// Engine returns the underlying execution engine.
func (c *Connection) Engine() olap.Engine {
	return c.engine
}

// evaluator returns the default value evaluator for this connection's
// statements.
func (c *Connection) evaluator() olap.DefaultEvaluator {
	if eval, ok := c.engine.(olap.DefaultEvaluator); ok {
		return eval
	}
	return literalEvaluator{}
}

// literalEvaluator resolves defaults that do not depend on data source
// state.
type literalEvaluator struct{}

func (literalEvaluator) EvaluateDefault(ctx context.Context, decl olap.ParamDecl, cube *metadata.Cube) (any, error) {
	return olap.EvaluateLiteral(decl, cube)
}

// Prepare compiles a statement and returns a [PreparedStatement] ready to
// be bound and executed any number of times. Compilation happens once:
// the cube binding, the parameter declarations and the result shape are
// all fixed here and never change afterwards.
func (c *Connection) Prepare(source string) (*PreparedStatement, error) {
	plan, err := c.cache.plan(c.compiler, source, c.catalog)
	if err != nil {
		return nil, err
	}
	return &PreparedStatement{
		conn:   c,
		plan:   plan,
		params: newParamStore(plan.Params),
	}, nil
}

// MustPrepare is the same as [Prepare] except that it panics on error.
func (c *Connection) MustPrepare(source string) *PreparedStatement {
	s, err := c.Prepare(source)
	if err != nil {
		panic(err)
	}
	return s
}

// PreparedStatement is a statement compiled once and executable many
// times. Parameters keep their bound values across executions; an unset
// parameter resolves to its default expression, evaluated freshly at each
// execution.
//
// A PreparedStatement may be executed concurrently: each Execute call
// snapshots the bindings independently. Concurrent SetValue and Unset
// calls are serialised internally, though interleaving them with Execute
// from other goroutines makes it unpredictable which bindings a given
// execution observes.
type PreparedStatement struct {
	conn   *Connection
	plan   *olap.Plan
	params *paramStore
	done   int32
}

func (s *PreparedStatement) isClosed() bool {
	return atomic.LoadInt32(&s.done) == 1
}

// Source returns the statement text the plan was compiled from.
func (s *PreparedStatement) Source() (string, error) {
	if s.isClosed() {
		return "", ErrStatementClosed
	}
	return s.plan.Source, nil
}

// Cube returns the cube this statement is based upon.
func (s *PreparedStatement) Cube() (*metadata.Cube, error) {
	if s.isClosed() {
		return nil, ErrStatementClosed
	}
	return s.plan.Cube, nil
}

// SetValue binds a value to the 1-based parameter index. The value must
// be compatible with the declared type of the parameter; a member typed
// parameter only accepts members of its declared hierarchy. Binding nil
// sets the parameter to null, which is distinct from unset. A failed
// SetValue leaves the prior binding untouched.
func (s *PreparedStatement) SetValue(index int, value any) error {
	if s.isClosed() {
		return ErrStatementClosed
	}
	return s.params.set(index, value)
}

// SetInt binds an integer value. See [PreparedStatement.SetValue].
func (s *PreparedStatement) SetInt(index int, value int) error {
	return s.SetValue(index, value)
}

// SetFloat64 binds a float value. See [PreparedStatement.SetValue].
func (s *PreparedStatement) SetFloat64(index int, value float64) error {
	return s.SetValue(index, value)
}

// SetString binds a string value. See [PreparedStatement.SetValue].
func (s *PreparedStatement) SetString(index int, value string) error {
	return s.SetValue(index, value)
}

// SetBool binds a boolean value. See [PreparedStatement.SetValue].
func (s *PreparedStatement) SetBool(index int, value bool) error {
	return s.SetValue(index, value)
}

// SetMember binds a hierarchy member. See [PreparedStatement.SetValue].
func (s *PreparedStatement) SetMember(index int, value *metadata.Member) error {
	return s.SetValue(index, value)
}

// Unset reverts the parameter to its default expression. Unsetting an
// already unset parameter is a no-op.
func (s *PreparedStatement) Unset(index int) error {
	if s.isClosed() {
		return ErrStatementClosed
	}
	return s.params.unset(index)
}

// IsSet reports whether the parameter currently holds an explicitly bound
// value. Note that a parameter set to nil is set: whether a parameter is
// set cannot be told from its value, only from this flag. An unset
// parameter's value is derived by evaluating its default expression at
// execution time.
func (s *PreparedStatement) IsSet(index int) (bool, error) {
	if s.isClosed() {
		return false, ErrStatementClosed
	}
	return s.params.isSet(index)
}

// Execute runs the statement and returns the produced cell set. The
// current bindings are snapshotted at the start of the call: unset
// parameters resolve to their default expression evaluated now, against
// the current state of the data source. Execute never changes binding
// state, on success or failure, so the statement can be re-executed, with
// or without rebinding. Failures are reported as [*ExecutionError]; the
// engine's context cancellation error remains reachable through
// errors.Is.
func (s *PreparedStatement) Execute(ctx context.Context) (olap.CellSet, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.isClosed() {
		return nil, ErrStatementClosed
	}
	values, err := s.params.snapshot(ctx, s.conn.evaluator(), s.plan.Cube)
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}
	cellSet, err := s.conn.engine.Run(ctx, s.plan, values)
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}
	return cellSet, nil
}

// Close releases the statement. All operations on a closed statement
// return [ErrStatementClosed], except Close itself, which is idempotent.
func (s *PreparedStatement) Close() error {
	atomic.StoreInt32(&s.done, 1)
	return nil
}
