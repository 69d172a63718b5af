// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package filter

import (
	"context"
	"fmt"

	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// DedupStore is the subset of internal/store.DedupStore this filter
// needs, kept as a local interface so filter tests don't need a real
// sqlite file.
type DedupStore interface {
	CheckAndInsert(ctx context.Context, hash, datasetID, sampleID string) (bool, error)
}

// Dedup rejects a sample if its content hash has already been claimed
// in Store, by any sample of any dataset. The claim is atomic in Store, so
// this is safe to run from every worker concurrently without any
// sharing of Go state between Dedup instances (spec §4.4, §9).
type Dedup struct {
	Store  DedupStore
	Hasher Hasher
}

func (f *Dedup) Name() string { return "dedup" }

func (f *Dedup) Check(ctx context.Context, s schema.Sample) (bool, string, error) {
	hash, err := f.Hasher(s)
	if err != nil {
		return false, "", fmt.Errorf("dedup: hash: %w", err)
	}

	claimed, err := f.Store.CheckAndInsert(ctx, hash, s.Meta.DatasetID, s.Meta.SampleID)
	if err != nil {
		return false, "", err
	}
	if !claimed {
		return false, fmt.Sprintf("duplicate content hash %s", hash), nil
	}
	return true, "", nil
}

// DedupFactory builds a Dedup filter per worker, all sharing the same
// underlying Store (spec §9: dedup state lives in the external store,
// never in per-worker memory).
type DedupFactory struct {
	Store  DedupStore
	Hasher Hasher
}

func (f DedupFactory) Name() string { return "dedup" }

func (f DedupFactory) Build() (Filter, error) {
	hasher := f.Hasher
	if hasher == nil {
		hasher = Sha256Hash
	}
	return &Dedup{Store: f.Store, Hasher: hasher}, nil
}
