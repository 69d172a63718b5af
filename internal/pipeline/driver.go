// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pipeline implements the C9 driver: the orchestrator that
// drains each adapter in sequence, runs accepted samples through the
// worker pool, and commits durably to the manifest, sink and checkpoint
// stores in the strict order the crash-resumability guarantee depends
// on (spec §4.9).
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/swiss-ai/mm-ingest/internal/adapter"
	"github.com/swiss-ai/mm-ingest/internal/metrics"
	"github.com/swiss-ai/mm-ingest/internal/shard"
	"github.com/swiss-ai/mm-ingest/internal/store"
	"github.com/swiss-ai/mm-ingest/internal/worker"
	"github.com/swiss-ai/mm-ingest/pkg/log"
	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// Sink is the optional C6 destination for accepted samples. A Driver
// with a nil Sink only populates the manifest and checkpoint stores.
type Sink interface {
	WriteBatch(samples []schema.Sample) error
}

var _ Sink = (*shard.Writer)(nil)

// Driver owns the manifest, checkpoint and (optionally) sink stores and
// drives one or more adapters through the worker pool sequentially.
type Driver struct {
	Manifest   *store.ManifestStore
	Checkpoint *store.CheckpointStore
	Pool       *worker.Pool
	Sink       Sink
	BatchSize  int
}

// Run drains adapters in sequence; adapter k+1 only starts after adapter
// k is fully processed (spec §4.9, §5 ordering guarantees).
func (d *Driver) Run(ctx context.Context, adapters []adapter.Adapter) error {
	for _, a := range adapters {
		if err := d.runAdapter(ctx, a); err != nil {
			return fmt.Errorf("pipeline: adapter %s: %w", a.ID(), err)
		}
	}
	return nil
}

func (d *Driver) runAdapter(ctx context.Context, a adapter.Adapter) error {
	complete, err := d.Checkpoint.IsComplete(ctx, a.ID())
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if complete {
		log.Infof("pipeline: adapter %s already complete, skipping", a.ID())
		return nil
	}

	var skip *string
	if last, ok, err := d.Checkpoint.ResumePoint(ctx, a.ID()); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	} else if ok {
		skip = &last
	}

	var (
		accepted, rejected int
		batch              []schema.Sample
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := d.commitBatch(ctx, a.ID(), batch)
		if err != nil {
			return err
		}
		accepted += n
		rejected += len(batch) - n
		batch = batch[:0]
		return nil
	}

	for item := range a.Stream(ctx, skip) {
		if item.Err != nil {
			log.Warnf("pipeline: adapter %s: stream error: %v", a.ID(), item.Err)
			rejected++
			metrics.RejectedSamples.Inc()
			continue
		}

		batch = append(batch, item.Sample)
		if len(batch) >= d.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	if err := flush(); err != nil {
		return err
	}

	if err := d.Checkpoint.MarkComplete(ctx, a.ID()); err != nil {
		return fmt.Errorf("checkpoint: mark complete: %w", err)
	}

	log.Fields{"dataset_id": a.ID(), "accepted": accepted, "rejected": rejected}.Infof("pipeline: adapter run complete")
	return nil
}

// commitBatch runs one batch through the worker pool and commits the
// result in the order spec §4.9 step 5 mandates: manifest, then sink,
// then checkpoint. Reordering these three calls would break crash
// resumability (spec §9), so this is the single place that ordering is
// allowed to happen.
//
// The checkpoint update always records the batch's last sample_id in
// input order, never just the last *accepted* one, and it happens even
// when every sample in the batch was rejected (spec §4.9 step 5c, §9
// "Checkpoint ordering"): a batch is only ever resumed-into, never
// reprocessed, once the driver has finished deciding every sample in it.
func (d *Driver) commitBatch(ctx context.Context, datasetID string, batch []schema.Sample) (int, error) {
	start := time.Now()
	defer func() { metrics.ObserveBatchDuration(time.Since(start)) }()
	checkCommitOrder(stepStart)

	results, err := d.Pool.ProcessBatch(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("worker pool: %w", err)
	}

	var accepted []schema.Sample
	for _, r := range results {
		if r.Err != nil {
			log.Fields{"dataset_id": datasetID, "sample_id": r.Sample.Meta.SampleID}.Warnf("pipeline: sample rejected: %v", r.Err)
			metrics.RejectedSamples.Inc()
			continue
		}
		if !r.Verdict.Accepted {
			log.Fields{"dataset_id": datasetID, "sample_id": r.Sample.Meta.SampleID}.Infof("pipeline: sample rejected by %s: %s", r.Verdict.RejectedBy, r.Verdict.Reason)
			metrics.RejectedSamples.Inc()
			continue
		}
		accepted = append(accepted, r.Sample)
	}

	if len(accepted) > 0 {
		pairs := make([]store.Pair, len(accepted))
		for i, s := range accepted {
			pairs[i] = store.Pair{DatasetID: datasetID, SampleID: s.Meta.SampleID}
		}
		checkCommitOrder(stepManifest)
		if err := d.Manifest.AddBatch(ctx, pairs); err != nil {
			return 0, err
		}
		metrics.AcceptedSamples.Add(float64(len(accepted)))

		if d.Sink != nil {
			checkCommitOrder(stepSink)
			if err := d.Sink.WriteBatch(accepted); err != nil {
				return 0, fmt.Errorf("sink: write batch: %w", err)
			}
		}
	}

	checkCommitOrder(stepCheckpoint)
	lastID := batch[len(batch)-1].Meta.SampleID
	if err := d.Checkpoint.Update(ctx, datasetID, lastID); err != nil {
		return 0, fmt.Errorf("checkpoint: update: %w", err)
	}

	return len(accepted), nil
}
