// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleValidateText(t *testing.T) {
	s := Sample{
		Variant: VariantText,
		Meta:    Metadata{DatasetID: "ds", SampleID: "0"},
		Text:    &TextPayload{Text: "hello"},
	}
	assert.NoError(t, s.Validate())
}

func TestSampleValidateImage(t *testing.T) {
	s := Sample{
		Variant: VariantImage,
		Meta:    Metadata{DatasetID: "ds", SampleID: "0"},
		Image:   &ImagePayload{Pixels: []byte{1, 2, 3}, Format: ImageFormatPNG, Width: 4, Height: 4},
	}
	assert.NoError(t, s.Validate())
}

func TestSampleValidateImageText(t *testing.T) {
	s := Sample{
		Variant: VariantImageText,
		Meta:    Metadata{DatasetID: "ds", SampleID: "0"},
		Text:    &TextPayload{Text: "caption"},
		Image:   &ImagePayload{Pixels: []byte{1}, Format: ImageFormatJPEG, Width: 1, Height: 1},
	}
	assert.NoError(t, s.Validate())
}

func TestSampleValidateRejectsMismatchedPayload(t *testing.T) {
	cases := []Sample{
		{Variant: VariantText, Meta: Metadata{DatasetID: "ds", SampleID: "0"}},
		{Variant: VariantText, Meta: Metadata{DatasetID: "ds", SampleID: "0"}, Text: &TextPayload{}, Image: &ImagePayload{Pixels: []byte{1}, Format: ImageFormatPNG}},
		{Variant: VariantImage, Meta: Metadata{DatasetID: "ds", SampleID: "0"}},
		{Variant: VariantImageText, Meta: Metadata{DatasetID: "ds", SampleID: "0"}, Text: &TextPayload{}},
		{Variant: "bogus", Meta: Metadata{DatasetID: "ds", SampleID: "0"}},
	}
	for _, s := range cases {
		assert.Error(t, s.Validate())
	}
}

func TestSampleValidateRejectsEmptyIdentifiers(t *testing.T) {
	s := Sample{
		Variant: VariantText,
		Meta:    Metadata{DatasetID: "", SampleID: "0"},
		Text:    &TextPayload{Text: "x"},
	}
	assert.Error(t, s.Validate())
}

func TestImagePayloadValidateRejectsUnsupportedFormat(t *testing.T) {
	p := ImagePayload{Pixels: []byte{1}, Format: "BMP"}
	assert.Error(t, p.Validate())
}

func TestImagePayloadValidateRejectsEmptyPixels(t *testing.T) {
	p := ImagePayload{Format: ImageFormatPNG}
	assert.Error(t, p.Validate())
}
