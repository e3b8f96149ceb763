// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"context"
	"time"

	"github.com/groundlink/satcore/pkg/log"
)

type sqlTimingKey struct{}

// Hooks satisfies the sqlhooks.Hooks interface, logging every query
// this package issues against either backend at debug level.
type Hooks struct{}

// Before logs the query and its arguments and stashes a start time.
func (h *Hooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("SQL query %s %q", query, args)
	return context.WithValue(ctx, sqlTimingKey{}, time.Now()), nil
}

// After logs the elapsed time recorded by Before.
func (h *Hooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	begin, _ := ctx.Value(sqlTimingKey{}).(time.Time)
	log.Debugf("SQL query took %s", time.Since(begin))
	return ctx, nil
}
