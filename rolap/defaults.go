// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package rolap

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mdxair/mdxair/metadata"
	"github.com/mdxair/mdxair/olap"
)

// EvaluateDefault resolves a parameter default expression. On top of the
// literal forms handled by olap.EvaluateLiteral, the engine supports
//
//	LastPeriod([Hierarchy])
//
// which resolves to the member of the hierarchy with the highest key
// present in the fact table. The expression is evaluated against the
// database as it is now, so its result can change between executions as
// data is loaded.
func (e *Engine) EvaluateDefault(ctx context.Context, decl olap.ParamDecl, cube *metadata.Cube) (any, error) {
	expr := strings.TrimSpace(decl.Default)
	if inner, ok := functionArg(expr, "LastPeriod"); ok {
		return e.lastPeriod(ctx, decl, cube, inner)
	}
	return olap.EvaluateLiteral(decl, cube)
}

// functionArg matches name(arg) case insensitively and returns the
// trimmed argument text.
func functionArg(expr, name string) (string, bool) {
	if len(expr) < len(name)+2 || !strings.EqualFold(expr[:len(name)], name) {
		return "", false
	}
	rest := strings.TrimSpace(expr[len(name):])
	if len(rest) < 2 || rest[0] != '(' || rest[len(rest)-1] != ')' {
		return "", false
	}
	return strings.TrimSpace(rest[1 : len(rest)-1]), true
}

func (e *Engine) lastPeriod(ctx context.Context, decl olap.ParamDecl, cube *metadata.Cube, arg string) (any, error) {
	if decl.Type != metadata.DatatypeMember {
		return nil, fmt.Errorf("cannot evaluate default for parameter %d: LastPeriod needs a member typed parameter", decl.Index)
	}
	h := decl.Hierarchy
	if arg != h.UniqueName() {
		return nil, fmt.Errorf("cannot evaluate default for parameter %d: LastPeriod argument %q is not the declared hierarchy %s",
			decl.Index, arg, h.UniqueName())
	}

	query := fmt.Sprintf("SELECT MAX(%s) FROM %s", h.Column, cube.Table)
	var key sql.NullString
	if err := e.db.QueryRowContext(ctx, query).Scan(&key); err != nil {
		return nil, fmt.Errorf("cannot evaluate default for parameter %d: %w", decl.Index, err)
	}
	if !key.Valid {
		return nil, fmt.Errorf("cannot evaluate default for parameter %d: no fact rows for hierarchy %s",
			decl.Index, h.UniqueName())
	}
	for _, m := range h.Members {
		if keyText(m.Key) == key.String {
			return m, nil
		}
	}
	return nil, fmt.Errorf("cannot evaluate default for parameter %d: no member of %s has key %q",
		decl.Index, h.UniqueName(), key.String)
}

// keyText normalises a member key for comparison with a value scanned
// from the database.
func keyText(key any) string {
	switch key := key.(type) {
	case string:
		return key
	case []byte:
		return string(key)
	case int:
		return strconv.Itoa(key)
	case int64:
		return strconv.FormatInt(key, 10)
	case float64:
		if key == math.Trunc(key) {
			return strconv.FormatInt(int64(key), 10)
		}
		return strconv.FormatFloat(key, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", key)
}
