// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"context"
	"time"

	"github.com/swiss-ai/mm-ingest/pkg/log"
)

// Hooks satisfies the sqlhooks.Hooks interface and gives every store a
// debug-level log of each query and its duration without threading a
// logger through each call site.
type Hooks struct{}

func (h *Hooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("store: query %s %q", query, args)
	return context.WithValue(ctx, queryStartKey{}, time.Now()), nil
}

func (h *Hooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	if begin, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		log.Debugf("store: query took %s", time.Since(begin))
	}
	return ctx, nil
}

type queryStartKey struct{}
