// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package worker implements the C5 worker pool: a fixed number of
// concurrent workers, each owning its own filter chain instance, that
// run samples through the C8 filter contract and report a verdict per
// sample in input order (spec §4.5, §9).
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/swiss-ai/mm-ingest/internal/codec"
	"github.com/swiss-ai/mm-ingest/internal/filter"
	"github.com/swiss-ai/mm-ingest/pkg/log"
	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// Result is one sample's outcome after passing through a worker's filter
// chain, or a description of why it couldn't be processed at all.
type Result struct {
	Sample  schema.Sample
	Verdict filter.Verdict
	// Err is set when the sample could not be decoded or filtered at
	// all (codec corruption, filter infrastructure failure). A non-nil
	// Err always implies Verdict.Accepted == false.
	Err error
}

// job is one sample handed across the worker boundary, plus the shared
// result slot and WaitGroup its batch's ProcessBatch call is waiting on.
type job struct {
	ctx     context.Context
	sample  schema.Sample
	idx     int
	results []Result
	done    *sync.WaitGroup
}

// Pool runs W persistent workers, each built from its own filter chain
// instance via Factories.Build() so dedup/stateful filters always reach
// through the shared external store rather than through shared Go state
// between workers (spec §9). Workers are spawned and their chains built
// once, lazily, on the first call to ProcessBatch (spec §4.5's
// spawned -> initialized -> ready states); every later ProcessBatch call
// reuses the same workers, cycling ready <-> processing instead of
// rebuilding a pool per batch.
type Pool struct {
	Workers   int
	Factories []filter.Factory

	startOnce sync.Once
	startErr  error
	jobs      chan job
	wg        sync.WaitGroup

	closeOnce sync.Once
}

func New(workers int, factories []filter.Factory) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{Workers: workers, Factories: factories}
}

// start builds one filter chain per worker and spawns the worker
// goroutines exactly once. A factory that fails to build surfaces its
// error to the first ProcessBatch caller; the pool never half-starts.
func (p *Pool) start() error {
	p.startOnce.Do(func() {
		chains := make([]*filter.Chain, p.Workers)
		for i := 0; i < p.Workers; i++ {
			chain, err := filter.BuildChain(p.Factories)
			if err != nil {
				p.startErr = fmt.Errorf("worker: build filter chain: %w", err)
				return
			}
			chains[i] = chain
		}

		p.jobs = make(chan job, p.Workers)
		for _, chain := range chains {
			p.wg.Add(1)
			go p.runWorker(chain)
		}
	})
	return p.startErr
}

func (p *Pool) runWorker(chain *filter.Chain) {
	defer p.wg.Done()
	for j := range p.jobs {
		j.results[j.idx] = processOne(j.ctx, chain, j.sample)
		j.done.Done()
	}
}

// ProcessBatch hands each sample to a worker, which encodes it, decodes
// it again (see internal/codec) and runs the decoded copy through its
// worker-local filter chain. The sample reaches the worker as a Go value
// over the jobs channel; the encoded bytes never leave the worker.
// Results are returned in the same order as samples, regardless of which
// worker processed which item.
func (p *Pool) ProcessBatch(ctx context.Context, samples []schema.Sample) ([]Result, error) {
	if err := p.start(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}

	results := make([]Result, len(samples))
	var done sync.WaitGroup
	var sendErr error

	for i, s := range samples {
		done.Add(1)
		select {
		case p.jobs <- job{ctx: ctx, sample: s, idx: i, results: results, done: &done}:
		case <-ctx.Done():
			done.Done() // this sample was never enqueued
			sendErr = ctx.Err()
		}
		if sendErr != nil {
			break
		}
	}

	done.Wait()
	if sendErr != nil {
		return nil, sendErr
	}
	return results, nil
}

// Close stops accepting new work, drains whatever is in flight, and
// releases the worker goroutines (spec §4.5 "draining -> stopped"). It
// is safe to call even if ProcessBatch was never called, and safe to
// call more than once.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		if p.jobs != nil {
			close(p.jobs)
		}
		p.wg.Wait()
	})
	return nil
}

func processOne(ctx context.Context, chain *filter.Chain, s schema.Sample) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("worker: panic: %v", r)
			log.Fields{"dataset_id": s.Meta.DatasetID, "sample_id": s.Meta.SampleID}.Errorf("%v", err)
			res = Result{Sample: s, Err: err}
		}
	}()

	wire, err := codec.Encode(s)
	if err != nil {
		log.Fields{"dataset_id": s.Meta.DatasetID, "sample_id": s.Meta.SampleID}.Errorf("worker: encode failed: %v", err)
		return Result{Sample: s, Err: err}
	}

	decoded, err := codec.Decode(wire)
	if err != nil {
		log.Fields{"dataset_id": s.Meta.DatasetID, "sample_id": s.Meta.SampleID}.Errorf("worker: decode failed: %v", err)
		return Result{Sample: s, Err: err}
	}

	v, err := chain.Run(ctx, decoded)
	if err != nil {
		log.Fields{"dataset_id": s.Meta.DatasetID, "sample_id": s.Meta.SampleID}.Errorf("worker: filter chain failed: %v", err)
		return Result{Sample: decoded, Err: err}
	}

	return Result{Sample: decoded, Verdict: v}
}
