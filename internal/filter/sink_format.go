// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package filter

import (
	"context"

	"github.com/swiss-ai/mm-ingest/internal/shard"
	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// SinkEncodable rejects any Image/ImageText sample whose image cannot be
// decoded and re-encoded into the sink's configured Target format. This
// is the spec §9 Open Question resolution for an unsupported or corrupt
// source image: the sample is dropped as an ordinary filter rejection,
// logged and counted like any other FilterError, before it ever reaches
// the manifest — not discovered as a write failure after the manifest
// commit has already happened.
type SinkEncodable struct {
	Target schema.ImageFormat
}

func (f SinkEncodable) Name() string { return "sink_encodable" }

func (f SinkEncodable) Check(_ context.Context, s schema.Sample) (bool, string, error) {
	if s.Image == nil {
		return true, "", nil
	}
	if _, err := shard.EncodeImage(s.Image, f.Target); err != nil {
		return false, err.Error(), nil
	}
	return true, "", nil
}

// SinkEncodableFactory builds one SinkEncodable filter per worker. The
// check itself carries no per-worker state, so Build just returns a copy.
type SinkEncodableFactory struct {
	Target schema.ImageFormat
}

func (f SinkEncodableFactory) Name() string { return "sink_encodable" }

func (f SinkEncodableFactory) Build() (Filter, error) {
	return SinkEncodable{Target: f.Target}, nil
}
