// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package shard implements the C6 rolling shard writer: accepted
// samples are serialized into tar archives of bounded size, rolling
// over to a new shard once a target is reached (spec §4.6, §8 property 5).
package shard

import (
	"archive/tar"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/swiss-ai/mm-ingest/internal/metrics"
	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// ErrUnsupportedFormat is returned when a sample or sink config names an
// image format the shard writer cannot encode.
var ErrUnsupportedFormat = errors.New("shard: unsupported image format")

// Writer appends accepted samples to a sequence of tar shards under
// OutputDir, rolling over once a shard reaches SamplesPerShard entries
// or TargetShardBytes written bytes — whichever comes first. Rollover is
// only checked after a sample is fully written, so a shard can exceed
// TargetShardBytes by at most one sample's worth of bytes (spec §8
// property 5).
type Writer struct {
	OutputDir        string
	SamplesPerShard  int
	TargetShardBytes int64
	ImageFormat      schema.ImageFormat

	shardIndex   int
	samplesIn    int
	bytesWritten int64
	current      *os.File
	tw           *tar.Writer
}

func NewWriter(outputDir string, samplesPerShard int, targetShardBytes int64, format schema.ImageFormat) *Writer {
	return &Writer{
		OutputDir:        outputDir,
		SamplesPerShard:  samplesPerShard,
		TargetShardBytes: targetShardBytes,
		ImageFormat:      format,
	}
}

// WriteBatch writes each sample as its §6 entries (K.json, plus K.txt for
// Text/ImageText and K.<ext> for Image/ImageText), rolling over to a new
// shard between samples as needed.
func (w *Writer) WriteBatch(samples []schema.Sample) error {
	for _, s := range samples {
		if err := w.ensureOpen(); err != nil {
			return err
		}
		n, err := w.writeSample(s)
		if err != nil {
			return err
		}
		w.samplesIn++
		w.bytesWritten += n

		if w.samplesIn >= w.SamplesPerShard || (w.TargetShardBytes > 0 && w.bytesWritten >= w.TargetShardBytes) {
			if err := w.rollover(); err != nil {
				return err
			}
		}
	}
	return nil
}

// sampleKey renders sample_id as the 9-digit zero-padded numeric key §6
// requires. sample_id is carried as a string end to end (spec §3), but
// its archive rendering is defined only for its numeric value.
func sampleKey(sampleID string) (string, error) {
	n, err := strconv.ParseUint(sampleID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("shard: sample_id %q is not numeric: %w", sampleID, err)
	}
	return fmt.Sprintf("%09d", n), nil
}

// writeSample writes K.json (metadata.attrs), K.txt for Text/ImageText,
// and K.<ext> for Image/ImageText, per the §6 entry table.
func (w *Writer) writeSample(s schema.Sample) (int64, error) {
	key, err := sampleKey(s.Meta.SampleID)
	if err != nil {
		return 0, err
	}

	attrs := s.Meta.Attrs
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrBytes, err := json.Marshal(attrs)
	if err != nil {
		return 0, fmt.Errorf("shard: marshal attrs for %s: %w", s.Meta.SampleID, err)
	}

	var total int64
	n, err := w.writeEntry(key+".json", attrBytes)
	if err != nil {
		return 0, err
	}
	total += n

	if s.Image != nil {
		imgBytes, err := EncodeImage(s.Image, w.ImageFormat)
		if err != nil {
			return 0, fmt.Errorf("shard: encode image for %s: %w", s.Meta.SampleID, err)
		}
		n, err := w.writeEntry(key+"."+w.ImageFormat.Ext(), imgBytes)
		if err != nil {
			return 0, err
		}
		total += n
	}

	if s.Text != nil {
		n, err := w.writeEntry(key+".txt", []byte(s.Text.Text))
		if err != nil {
			return 0, err
		}
		total += n
	}

	return total, nil
}

func (w *Writer) writeEntry(name string, data []byte) (int64, error) {
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Size:     int64(len(data)),
		Mode:     0o644,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return 0, fmt.Errorf("shard: write header %s: %w", name, err)
	}
	if _, err := w.tw.Write(data); err != nil {
		return 0, fmt.Errorf("shard: write entry %s: %w", name, err)
	}
	return int64(len(data)), nil
}

func (w *Writer) ensureOpen() error {
	if w.current != nil {
		return nil
	}
	return w.openShard()
}

func (w *Writer) openShard() error {
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return fmt.Errorf("shard: mkdir %s: %w", w.OutputDir, err)
	}
	name := filepath.Join(w.OutputDir, fmt.Sprintf("%06d.tar", w.shardIndex))
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("shard: create %s: %w", name, err)
	}
	w.current = f
	w.tw = tar.NewWriter(f)
	w.samplesIn = 0
	w.bytesWritten = 0
	return nil
}

func (w *Writer) rollover() error {
	if err := w.closeCurrent(); err != nil {
		return err
	}
	w.shardIndex++
	metrics.ShardRollovers.Inc()
	return nil
}

func (w *Writer) closeCurrent() error {
	if w.current == nil {
		return nil
	}
	if err := w.tw.Close(); err != nil {
		return fmt.Errorf("shard: close tar writer: %w", err)
	}
	if err := w.current.Close(); err != nil {
		return fmt.Errorf("shard: close shard file: %w", err)
	}
	w.current = nil
	w.tw = nil
	return nil
}

// Close flushes and closes the current shard, if one is open. A shard
// that never reached its rollover target is still a valid, complete tar
// file once Close returns.
func (w *Writer) Close() error {
	if w.current == nil {
		return nil
	}
	if err := w.closeCurrent(); err != nil {
		return err
	}
	w.shardIndex++
	return nil
}

// ShardsWritten reports how many shards have been started, including
// any shard still open.
func (w *Writer) ShardsWritten() int {
	if w.current != nil {
		return w.shardIndex + 1
	}
	return w.shardIndex
}
