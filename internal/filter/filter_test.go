// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

func textSample(id string) schema.Sample {
	return schema.Sample{
		Variant: schema.VariantText,
		Meta:    schema.Metadata{DatasetID: "ds", SampleID: id},
		Text:    &schema.TextPayload{Text: "hello " + id},
	}
}

func imageSample(id string, w, h int) schema.Sample {
	return schema.Sample{
		Variant: schema.VariantImage,
		Meta:    schema.Metadata{DatasetID: "ds", SampleID: id},
		Image:   &schema.ImagePayload{Pixels: []byte{1, 2, 3}, Format: schema.ImageFormatPNG, Width: w, Height: h},
	}
}

func TestMinResolutionPassesTextSamples(t *testing.T) {
	f := &MinResolution{MinWidth: 64, MinHeight: 64}
	ok, _, err := f.Check(context.Background(), textSample("0"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMinResolutionRejectsSmallImages(t *testing.T) {
	f := &MinResolution{MinWidth: 64, MinHeight: 64}
	ok, reason, err := f.Check(context.Background(), imageSample("0", 32, 32))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason, "below minimum")
}

func TestMinResolutionAcceptsLargeImages(t *testing.T) {
	f := &MinResolution{MinWidth: 64, MinHeight: 64}
	ok, _, err := f.Check(context.Background(), imageSample("0", 128, 128))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewMinResolutionFactoryFromParams(t *testing.T) {
	fac, err := NewMinResolutionFactory(map[string]any{"min_width": float64(100), "min_height": float64(200)})
	require.NoError(t, err)
	assert.Equal(t, 100, fac.MinWidth)
	assert.Equal(t, 200, fac.MinHeight)
}

type fakeDedupStore struct {
	claimed map[string]bool
}

func (s *fakeDedupStore) CheckAndInsert(_ context.Context, hash, _, _ string) (bool, error) {
	if s.claimed == nil {
		s.claimed = map[string]bool{}
	}
	if s.claimed[hash] {
		return false, nil
	}
	s.claimed[hash] = true
	return true, nil
}

func TestDedupRejectsSecondOccurrence(t *testing.T) {
	store := &fakeDedupStore{}
	f := &Dedup{Store: store, Hasher: Sha256Hash}

	ok, _, err := f.Check(context.Background(), textSample("0"))
	require.NoError(t, err)
	assert.True(t, ok)

	// Same text, different sample_id: same hash, should be rejected.
	dup := textSample("0")
	dup.Meta.SampleID = "1"
	ok, reason, err := f.Check(context.Background(), dup)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason, "duplicate")
}

func TestChainShortCircuits(t *testing.T) {
	store := &fakeDedupStore{}
	chain := NewChain(
		&MinResolution{MinWidth: 64, MinHeight: 64},
		&Dedup{Store: store, Hasher: Sha256Hash},
	)

	v, err := chain.Run(context.Background(), imageSample("0", 10, 10))
	require.NoError(t, err)
	assert.False(t, v.Accepted)
	assert.Equal(t, "min_resolution", v.RejectedBy)
	// Dedup never ran, so it claimed no hash.
	assert.Empty(t, store.claimed)
}

func TestChainAcceptsWhenAllFiltersPass(t *testing.T) {
	store := &fakeDedupStore{}
	chain := NewChain(
		&MinResolution{MinWidth: 1, MinHeight: 1},
		&Dedup{Store: store, Hasher: Sha256Hash},
	)

	v, err := chain.Run(context.Background(), imageSample("0", 10, 10))
	require.NoError(t, err)
	assert.True(t, v.Accepted)
}

func TestSha256HashIsDeterministic(t *testing.T) {
	a, err := Sha256Hash(textSample("0"))
	require.NoError(t, err)
	b, err := Sha256Hash(textSample("0"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Sha256Hash(textSample("1"))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
