// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package mdxair

import (
	"sync"

	"github.com/mdxair/mdxair/metadata"
	"github.com/mdxair/mdxair/olap"
)

// planCache caches compiled plans per connection, keyed by statement
// text. Compilation fixes a statement's whole static shape, and plans
// are immutable afterwards, so preparing the same text twice on one
// connection can share a plan while each PreparedStatement still owns its
// own parameter bindings.
//
// The mutex must be locked when accessing the plans map.
type planCache struct {
	plans map[string]*olap.Plan
	mutex sync.RWMutex
}

func newPlanCache() *planCache {
	return &planCache{plans: map[string]*olap.Plan{}}
}

// plan returns the compiled plan for source, compiling it if the cache
// has no entry yet.
func (pc *planCache) plan(compiler olap.Compiler, source string, cat *metadata.Catalog) (*olap.Plan, error) {
	pc.mutex.RLock()
	plan, ok := pc.plans[source]
	pc.mutex.RUnlock()
	if ok {
		return plan, nil
	}

	plan, err := compiler.Compile(source, cat)
	if err != nil {
		return nil, err
	}

	pc.mutex.Lock()
	// Check if a plan has been inserted by someone else since we last
	// checked.
	planAlt, ok := pc.plans[source]
	if ok {
		plan = planAlt
	} else {
		pc.plans[source] = plan
	}
	pc.mutex.Unlock()
	return plan, nil
}
