// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package adapter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/swiss-ai/mm-ingest/pkg/log"
	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// jsonlRecord is one line of a JSONL dataset file: metadata plus either
// inline text or a path to an image file on disk, mirroring the shape a
// Python adapter like medtrinity_demo.py would emit before standardisation.
type jsonlRecord struct {
	SampleID  string         `json:"sample_id"`
	Text      string         `json:"text,omitempty"`
	ImagePath string         `json:"image_path,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// JSONLAdapter streams samples from a newline-delimited JSON file, one
// record per line, with images referenced by path and loaded lazily.
type JSONLAdapter struct {
	datasetID string
	path      string
}

func NewJSONLAdapter(datasetID, path string) *JSONLAdapter {
	return &JSONLAdapter{datasetID: datasetID, path: path}
}

func (a *JSONLAdapter) ID() string { return a.datasetID }

func (a *JSONLAdapter) Stream(ctx context.Context, skip *string) <-chan schema.SampleOrErr {
	out := make(chan schema.SampleOrErr)

	go func() {
		defer close(out)

		f, err := os.Open(a.path)
		if err != nil {
			out <- schema.SampleOrErr{Err: fmt.Errorf("adapter %s: open %s: %w", a.datasetID, a.path, err)}
			return
		}
		defer f.Close()

		skipping := skip != nil
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var rec jsonlRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				out <- schema.SampleOrErr{Err: fmt.Errorf("adapter %s: decode line: %w", a.datasetID, err)}
				continue
			}

			if skipping {
				if rec.SampleID == *skip {
					skipping = false
				}
				continue
			}

			s, err := a.toSample(rec)
			if err != nil {
				log.Warnf("adapter %s: sample %s: %v", a.datasetID, rec.SampleID, err)
				out <- schema.SampleOrErr{Err: err}
				continue
			}

			select {
			case out <- schema.SampleOrErr{Sample: s}:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil && err != io.EOF {
			out <- schema.SampleOrErr{Err: fmt.Errorf("adapter %s: scan: %w", a.datasetID, err)}
		}
	}()

	return out
}

func (a *JSONLAdapter) toSample(rec jsonlRecord) (schema.Sample, error) {
	meta := schema.Metadata{DatasetID: a.datasetID, SampleID: rec.SampleID, Attrs: rec.Attrs}

	switch {
	case rec.Text != "" && rec.ImagePath != "":
		img, err := a.loadImage(rec.ImagePath)
		if err != nil {
			return schema.Sample{}, err
		}
		return schema.Sample{Variant: schema.VariantImageText, Meta: meta, Text: &schema.TextPayload{Text: rec.Text}, Image: img}, nil
	case rec.ImagePath != "":
		img, err := a.loadImage(rec.ImagePath)
		if err != nil {
			return schema.Sample{}, err
		}
		return schema.Sample{Variant: schema.VariantImage, Meta: meta, Image: img}, nil
	default:
		return schema.Sample{Variant: schema.VariantText, Meta: meta, Text: &schema.TextPayload{Text: rec.Text}}, nil
	}
}

func (a *JSONLAdapter) loadImage(path string) (*schema.ImagePayload, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("adapter %s: read image %s: %w", a.datasetID, path, err)
	}
	cfg, format, err := decodeImageConfig(b)
	if err != nil {
		return nil, fmt.Errorf("adapter %s: decode image %s: %w", a.datasetID, path, err)
	}
	imgFormat := schema.ImageFormatPNG
	if format == "jpeg" {
		imgFormat = schema.ImageFormatJPEG
	}
	return &schema.ImagePayload{Pixels: b, Format: imgFormat, Width: cfg.Width, Height: cfg.Height}, nil
}
