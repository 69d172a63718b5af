// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package filter implements the C8 filter contract: a chain of
// pass/reject decisions evaluated per sample inside a worker, short
// circuiting on the first rejection.
package filter

import (
	"context"
	"fmt"

	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// Filter decides whether a sample should continue through the pipeline.
// ok == false with a nil error is a rejection with a reason. A non-nil
// error is reserved for filters that fail outright (e.g. a dedup store
// connection drop); Chain.Run checks it before ok and returns it as an
// error instead of a Verdict.
type Filter interface {
	// Name identifies the filter in logs and rejection reasons.
	Name() string
	// Check reports whether s passes. reason is set whenever ok is
	// false, to explain the rejection.
	Check(ctx context.Context, s schema.Sample) (ok bool, reason string, err error)
}

// Factory builds one Filter instance. Each worker calls Build once at
// startup to get its own filter chain instance (spec §9): filters that
// need no shared state (MinResolution) get a fresh instance per worker
// for free; filters that need cross-worker state (Dedup) reach out to
// an external store instead of sharing Go values between workers.
type Factory interface {
	Name() string
	Build() (Filter, error)
}

// Chain runs filters in order and stops at the first rejection or
// error, per spec §9 "short circuit chain evaluation".
type Chain struct {
	filters []Filter
}

func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Verdict is the outcome of running a sample through a Chain.
type Verdict struct {
	Accepted bool
	// RejectedBy is the filter name that rejected the sample; empty if Accepted.
	RejectedBy string
	Reason     string
}

func (c *Chain) Run(ctx context.Context, s schema.Sample) (Verdict, error) {
	for _, f := range c.filters {
		ok, reason, err := f.Check(ctx, s)
		if err != nil {
			return Verdict{}, fmt.Errorf("filter %s: %w", f.Name(), err)
		}
		if !ok {
			return Verdict{Accepted: false, RejectedBy: f.Name(), Reason: reason}, nil
		}
	}
	return Verdict{Accepted: true}, nil
}

// BuildChain builds one Filter per factory, in order, for use by a
// single worker.
func BuildChain(factories []Factory) (*Chain, error) {
	filters := make([]Filter, 0, len(factories))
	for _, f := range factories {
		filt, err := f.Build()
		if err != nil {
			return nil, fmt.Errorf("filter factory %s: %w", f.Name(), err)
		}
		filters = append(filters, filt)
	}
	return NewChain(filters...), nil
}
