// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package adapter

import (
	"context"

	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// MemoryAdapter streams a fixed, in-memory slice of samples. It backs
// the pipeline's own tests and is also useful for small datasets that
// fit comfortably in memory without a JSONL file on disk.
type MemoryAdapter struct {
	datasetID string
	samples   []schema.Sample
}

func NewMemoryAdapter(datasetID string, samples []schema.Sample) *MemoryAdapter {
	return &MemoryAdapter{datasetID: datasetID, samples: samples}
}

func (a *MemoryAdapter) ID() string { return a.datasetID }

func (a *MemoryAdapter) Stream(ctx context.Context, skip *string) <-chan schema.SampleOrErr {
	out := make(chan schema.SampleOrErr)

	go func() {
		defer close(out)

		skipping := skip != nil
		for _, s := range a.samples {
			if skipping {
				if s.Meta.SampleID == *skip {
					skipping = false
				}
				continue
			}

			select {
			case out <- schema.SampleOrErr{Sample: s}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
