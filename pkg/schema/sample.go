// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package schema holds the sample data model (tagged variants, not an
// interface hierarchy — see spec §9 "tagged variants over inheritance")
// and the pipeline's run configuration.
package schema

import "fmt"

// Variant is the tag of a Sample's payload.
type Variant string

const (
	VariantText      Variant = "text"
	VariantImage     Variant = "image"
	VariantImageText Variant = "image_text"
)

// ImageFormat is the closed enumeration of image encodings the pipeline
// understands end to end (decode on ingest, re-encode in the shard
// writer).
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "PNG"
	ImageFormatJPEG ImageFormat = "JPEG"
)

func (f ImageFormat) Valid() bool {
	return f == ImageFormatPNG || f == ImageFormatJPEG
}

// Ext returns the archive entry extension for the format.
func (f ImageFormat) Ext() string {
	switch f {
	case ImageFormatJPEG:
		return "jpeg"
	case ImageFormatPNG:
		return "png"
	default:
		return ""
	}
}

// Metadata identifies a sample and carries adapter-chosen free-form
// attributes. DatasetID is stable per adapter; SampleID is unique within
// one dataset and its sort order must be reproducible across runs of the
// same adapter configuration (spec §3).
type Metadata struct {
	DatasetID string         `json:"dataset_id"`
	SampleID  string         `json:"sample_id"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

func (m Metadata) Validate() error {
	if m.DatasetID == "" {
		return fmt.Errorf("schema: metadata.dataset_id must not be empty")
	}
	if m.SampleID == "" {
		return fmt.Errorf("schema: metadata.sample_id must not be empty")
	}
	return nil
}

// TextPayload is the payload of a Text sample.
type TextPayload struct {
	Text string `json:"text"`
}

// ImagePayload is the payload of an Image sample. Width/Height describe
// Pixels' decoded resolution; they are kept alongside the raw bytes so
// resolution filters don't have to re-decode the image.
type ImagePayload struct {
	Pixels []byte      `json:"pixels"`
	Format ImageFormat `json:"format"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
}

func (p ImagePayload) Validate() error {
	if len(p.Pixels) == 0 {
		return fmt.Errorf("schema: image payload has no pixel data")
	}
	if !p.Format.Valid() {
		return fmt.Errorf("schema: unsupported image format %q", p.Format)
	}
	return nil
}

// Sample is a tagged union over Text/Image/ImageText (spec §3). Which of
// Text, Image are set depends on Variant:
//
//	VariantText:      Text != nil, Image == nil
//	VariantImage:      Text == nil, Image != nil
//	VariantImageText: Text != nil, Image != nil
type Sample struct {
	Variant Variant       `json:"variant"`
	Meta    Metadata      `json:"meta"`
	Text    *TextPayload  `json:"text,omitempty"`
	Image   *ImagePayload `json:"image,omitempty"`
}

// Validate checks the tagged-union invariant from spec §3: exactly one
// variant tag, matching payload(s) present, required metadata non-empty.
func (s Sample) Validate() error {
	if err := s.Meta.Validate(); err != nil {
		return err
	}

	switch s.Variant {
	case VariantText:
		if s.Text == nil || s.Image != nil {
			return fmt.Errorf("schema: text sample must carry Text only")
		}
	case VariantImage:
		if s.Image == nil || s.Text != nil {
			return fmt.Errorf("schema: image sample must carry Image only")
		}
		if err := s.Image.Validate(); err != nil {
			return err
		}
	case VariantImageText:
		if s.Image == nil || s.Text == nil {
			return fmt.Errorf("schema: image_text sample must carry both Image and Text")
		}
		if err := s.Image.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("schema: unknown variant %q", s.Variant)
	}

	return nil
}

// SampleOrErr is what a C7 adapter's Stream channel carries: either a
// decoded sample or the error that prevented decoding it, so a single
// malformed record doesn't silently vanish from the stream.
type SampleOrErr struct {
	Sample Sample
	Err    error
}
