// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package codec implements the C1 wire encoding of a sample as a
// self-describing byte stream. Each worker of internal/worker runs every
// sample through Encode and then Decode before filtering it, so filters
// see a decoded copy rather than the caller's value. Workers are
// goroutines, and the sample itself reaches a worker as a Go value; the
// encode/decode round trip happens inside the worker.
package codec

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// ErrCorruptSample is returned by Decode when the bytes don't parse as a
// wireSample or fail the sample's own invariants.
var ErrCorruptSample = errors.New("codec: corrupt sample")

// wireSample mirrors schema.Sample field-for-field. It exists so the
// wire format is decoupled from in-memory layout changes to schema.Sample.
type wireSample struct {
	Variant schema.Variant       `json:"variant"`
	Meta    schema.Metadata      `json:"meta"`
	Text    *schema.TextPayload  `json:"text,omitempty"`
	Image   *schema.ImagePayload `json:"image,omitempty"`
}

// Encode marshals a sample to its wire form. The caller must pass an
// already-validated sample; Encode does not re-validate.
func Encode(s schema.Sample) ([]byte, error) {
	w := wireSample{Variant: s.Variant, Meta: s.Meta, Text: s.Text, Image: s.Image}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	return b, nil
}

// Decode unmarshals wire bytes back into a sample and validates the
// result. On any failure the returned error wraps ErrCorruptSample and
// carries the underlying cause in its message. When the bytes don't
// parse, the message includes a synthetic identifier; when they parse but
// fail validation, the sample is returned too, with a synthetic
// sample_id if its own was empty.
func Decode(b []byte) (schema.Sample, error) {
	var w wireSample
	if err := json.Unmarshal(b, &w); err != nil {
		return schema.Sample{}, fmt.Errorf("%w: %v (synthetic_id=%s)", ErrCorruptSample, err, syntheticID())
	}

	s := schema.Sample{Variant: w.Variant, Meta: w.Meta, Text: w.Text, Image: w.Image}
	if err := s.Validate(); err != nil {
		if s.Meta.SampleID == "" {
			s.Meta.SampleID = syntheticID()
		}
		return s, fmt.Errorf("%w: %v", ErrCorruptSample, err)
	}

	return s, nil
}

func syntheticID() string {
	return "corrupt-" + uuid.NewString()
}
