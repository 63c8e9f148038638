// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package mdxair

import (
	"context"
	"sync"

	"github.com/mdxair/mdxair/metadata"
	"github.com/mdxair/mdxair/olap"
)

// binding is the state of one parameter. set distinguishes an unset
// parameter from one explicitly set to nil: null is a valid bound value,
// so absence is never inferred from the value slot.
type binding struct {
	set   bool
	value any
}

// paramStore tracks the binding state of the N parameters of one prepared
// statement. The declarations are fixed at compile time; only the
// bindings change. The flag and value of a binding are updated together
// under the mutex so a reader never observes a set flag with a stale
// value.
type paramStore struct {
	mutex sync.RWMutex
	// decls[i] declares parameter i+1.
	decls    []olap.ParamDecl
	bindings []binding
}

func newParamStore(decls []olap.ParamDecl) *paramStore {
	return &paramStore{decls: decls, bindings: make([]binding, len(decls))}
}

// decl returns the declaration of the 1-based parameter index.
func (ps *paramStore) decl(index int) (olap.ParamDecl, error) {
	if index < 1 || index > len(ps.decls) {
		return olap.ParamDecl{}, &InvalidParameterIndexError{Index: index, Count: len(ps.decls)}
	}
	return ps.decls[index-1], nil
}

// set binds a value. The value is checked against the declared type
// before any state changes, so a rejected value leaves the prior binding
// untouched.
func (ps *paramStore) set(index int, value any) error {
	decl, err := ps.decl(index)
	if err != nil {
		return err
	}
	if err := olap.CheckValue(decl, value); err != nil {
		return err
	}
	ps.mutex.Lock()
	ps.bindings[index-1] = binding{set: true, value: value}
	ps.mutex.Unlock()
	return nil
}

// unset discards any bound value. Unsetting an already unset parameter is
// a no-op.
func (ps *paramStore) unset(index int) error {
	if _, err := ps.decl(index); err != nil {
		return err
	}
	ps.mutex.Lock()
	ps.bindings[index-1] = binding{}
	ps.mutex.Unlock()
	return nil
}

func (ps *paramStore) isSet(index int) (bool, error) {
	if _, err := ps.decl(index); err != nil {
		return false, err
	}
	ps.mutex.RLock()
	set := ps.bindings[index-1].set
	ps.mutex.RUnlock()
	return set, nil
}

// snapshot resolves the effective value of every parameter for one
// execution: the bound value if set, otherwise the default expression
// evaluated against the current data source state. The lock is held only
// while the bindings are copied, never during default evaluation, so an
// in-flight execution does not block new bindings or metadata reads. The
// store itself is never mutated.
func (ps *paramStore) snapshot(ctx context.Context, eval olap.DefaultEvaluator, cube *metadata.Cube) ([]any, error) {
	ps.mutex.RLock()
	bindings := make([]binding, len(ps.bindings))
	copy(bindings, ps.bindings)
	ps.mutex.RUnlock()

	values := make([]any, len(bindings))
	for i, b := range bindings {
		if b.set {
			values[i] = b.value
			continue
		}
		value, err := eval.EvaluateDefault(ctx, ps.decls[i], cube)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}
