// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package shard

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// EncodeImage decodes an image payload's source bytes and re-encodes
// them into target, converting formats and flattening alpha as needed.
// No third-party codec in the pack covers PNG/JPEG encode plus alpha
// composition better than the standard library (see DESIGN.md), so this
// stays on image/png, image/jpeg and image/draw.
//
// Exported so internal/filter can run the same encode attempt during
// ingest-time filtering (see filter.SinkEncodable): an image that can't
// be decoded or re-encoded for the sink's target format must be dropped
// as an ordinary filter rejection, before it ever reaches the manifest,
// not discovered as a write failure after the manifest commit (spec §9
// Open Question: unsupported/corrupt image format).
func EncodeImage(p *schema.ImagePayload, target schema.ImageFormat) ([]byte, error) {
	if p.Format == target {
		return p.Pixels, nil
	}

	img, _, err := image.Decode(bytes.NewReader(p.Pixels))
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}

	var buf bytes.Buffer
	switch target {
	case schema.ImageFormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case schema.ImageFormatJPEG:
		flattened := flattenAlpha(img)
		if err := jpeg.Encode(&buf, flattened, &jpeg.Options{Quality: 90}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, target)
	}

	return buf.Bytes(), nil
}

// flattenAlpha composites img over an opaque white background, since
// JPEG has no alpha channel.
func flattenAlpha(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}
