// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package shard

import (
	"archive/tar"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

func textSamples(n int) []schema.Sample {
	samples := make([]schema.Sample, n)
	for i := range samples {
		samples[i] = schema.Sample{
			Variant: schema.VariantText,
			Meta:    schema.Metadata{DatasetID: "ds", SampleID: fmt.Sprintf("%d", i)},
			Text:    &schema.TextPayload{Text: "sample text"},
		}
	}
	return samples
}

func imageTextSample(sampleID string) schema.Sample {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return schema.Sample{
		Variant: schema.VariantImageText,
		Meta:    schema.Metadata{DatasetID: "ds", SampleID: sampleID, Attrs: map[string]any{"caption": "a red square"}},
		Text:    &schema.TextPayload{Text: "a red square"},
		Image:   &schema.ImagePayload{Pixels: buf.Bytes(), Format: schema.ImageFormatPNG, Width: 4, Height: 4},
	}
}

func entryNames(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	tr := tar.NewReader(f)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	return names
}

func countEntries(t *testing.T, path string) int {
	t.Helper()
	return len(entryNames(t, path))
}

func TestWriterRolloverBySampleCount(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 1000, 0, schema.ImageFormatPNG)

	require.NoError(t, w.WriteBatch(textSamples(2500)))
	require.NoError(t, w.Close())

	assert.Equal(t, 3, w.ShardsWritten())

	// Each Text sample writes two entries (K.json, K.txt); rollover still
	// trips at 1000 samples, i.e. 2000 entries, per shard.
	assert.Equal(t, 2000, countEntries(t, filepath.Join(dir, "000000.tar")))
	assert.Equal(t, 2000, countEntries(t, filepath.Join(dir, "000001.tar")))
	assert.Equal(t, 1000, countEntries(t, filepath.Join(dir, "000002.tar")))
}

func TestWriterSingleShardWhenUnderTarget(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 1000, 0, schema.ImageFormatPNG)

	require.NoError(t, w.WriteBatch(textSamples(10)))
	require.NoError(t, w.Close())

	assert.Equal(t, 1, w.ShardsWritten())
	assert.Equal(t, 20, countEntries(t, filepath.Join(dir, "000000.tar")))
}

func TestWriterEmptyBatchCreatesNoShard(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 1000, 0, schema.ImageFormatPNG)

	require.NoError(t, w.WriteBatch(nil))
	require.NoError(t, w.Close())

	assert.Equal(t, 0, w.ShardsWritten())
}

func TestWriterCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 1000, 0, schema.ImageFormatPNG)
	require.NoError(t, w.WriteBatch(textSamples(1)))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

// TestWriterImageTextEntriesMatchS1 reproduces spec.md §8 scenario S1's
// literal expectation: an ImageText sample writes exactly three entries
// named K.json/K.<ext>/K.txt, keyed by the 9-digit zero-padded sample_id.
func TestWriterImageTextEntriesMatchS1(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 1000, 0, schema.ImageFormatJPEG)

	require.NoError(t, w.WriteBatch([]schema.Sample{imageTextSample("0"), imageTextSample("2")}))
	require.NoError(t, w.Close())

	names := entryNames(t, filepath.Join(dir, "000000.tar"))
	assert.ElementsMatch(t, []string{
		"000000000.json", "000000000.jpeg", "000000000.txt",
		"000000002.json", "000000002.jpeg", "000000002.txt",
	}, names)
}

func TestWriterTextOnlyHasNoImageEntry(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 1000, 0, schema.ImageFormatPNG)

	require.NoError(t, w.WriteBatch(textSamples(1)))
	require.NoError(t, w.Close())

	names := entryNames(t, filepath.Join(dir, "000000.tar"))
	assert.ElementsMatch(t, []string{"000000000.json", "000000000.txt"}, names)
}
