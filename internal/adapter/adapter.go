// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package adapter implements the C7 dataset adapter contract: a dataset
// specific source that streams schema.Sample values in a stable, skip
// resumable order.
package adapter

import (
	"context"

	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// Adapter is implemented once per source dataset. ID is stable across
// runs and is the dataset_id threaded through the manifest, checkpoint
// and dedup stores. Stream must emit samples in the same order on every
// run of the same underlying dataset, since resumption relies on
// "everything up to and including skip was already processed".
type Adapter interface {
	ID() string
	// Stream emits samples in order starting after skip (exclusive). A
	// nil skip starts from the beginning. The channel is closed when the
	// source is exhausted or ctx is done.
	Stream(ctx context.Context, skip *string) <-chan schema.SampleOrErr
}
