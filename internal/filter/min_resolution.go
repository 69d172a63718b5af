// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package filter

import (
	"context"
	"fmt"

	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// MinResolution rejects image and image_text samples below a minimum
// width/height. Text samples always pass, since the filter has nothing
// to check on them.
type MinResolution struct {
	MinWidth  int
	MinHeight int
}

func (f *MinResolution) Name() string { return "min_resolution" }

func (f *MinResolution) Check(_ context.Context, s schema.Sample) (bool, string, error) {
	if s.Image == nil {
		return true, "", nil
	}
	if s.Image.Width < f.MinWidth || s.Image.Height < f.MinHeight {
		return false, fmt.Sprintf("image %dx%d below minimum %dx%d", s.Image.Width, s.Image.Height, f.MinWidth, f.MinHeight), nil
	}
	return true, "", nil
}

// MinResolutionFactory builds a MinResolution filter from config params.
// The params map comes straight off schema.FilterConfig.Params, so
// numbers decode as float64 (standard encoding/json behavior).
type MinResolutionFactory struct {
	MinWidth  int
	MinHeight int
}

func (f MinResolutionFactory) Name() string { return "min_resolution" }

func (f MinResolutionFactory) Build() (Filter, error) {
	return &MinResolution{MinWidth: f.MinWidth, MinHeight: f.MinHeight}, nil
}

// NewMinResolutionFactory reads min_width/min_height out of a generic
// params map, defaulting missing values to 0 (no constraint).
func NewMinResolutionFactory(params map[string]any) (MinResolutionFactory, error) {
	w, err := intParam(params, "min_width", 0)
	if err != nil {
		return MinResolutionFactory{}, err
	}
	h, err := intParam(params, "min_height", 0)
	if err != nil {
		return MinResolutionFactory{}, err
	}
	return MinResolutionFactory{MinWidth: w, MinHeight: h}, nil
}

func intParam(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("filter: param %q must be a number, got %T", key, v)
	}
}
