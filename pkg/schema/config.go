// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// FilterConfig names one filter in the chain and its constructor
// parameters. Order in Config.Filters is the order the chain runs in
// (spec §9 "config-driven filter chain ordering").
type FilterConfig struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// SinkConfig controls the optional C6 shard writer stage. A run with
// Sink.Enabled == false only populates the manifest/checkpoint stores,
// useful for dry runs or manifest-only backfills.
type SinkConfig struct {
	Enabled          bool        `json:"enabled"`
	OutputDir        string      `json:"output_dir,omitempty"`
	SamplesPerShard  int         `json:"samples_per_shard,omitempty"`
	TargetShardBytes int64       `json:"target_shard_bytes,omitempty"`
	ImageFormat      ImageFormat `json:"image_format,omitempty"`
}

// Config is the top level run configuration, validated against
// config.schema.json before the driver starts (spec §9 ambient config).
type Config struct {
	DataDir   string         `json:"data_dir"`
	Workers   int            `json:"workers"`
	BatchSize int            `json:"batch_size"`
	Sink      SinkConfig     `json:"sink,omitempty"`
	Filters   []FilterConfig `json:"filters,omitempty"`
}

// LoadConfig validates r against the config schema, then decodes it into
// a Config. The schema's additionalProperties:false already rejects
// unknown fields before decoding; DisallowUnknownFields repeats that
// check at decode time.
func LoadConfig(r io.Reader) (Config, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("schema: read config: %w", err)
	}

	if err := Validate(ConfigSchema, bytes.NewReader(buf)); err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("schema: decode config: %w", err)
	}

	if cfg.Sink.Enabled && cfg.Sink.ImageFormat == "" {
		cfg.Sink.ImageFormat = ImageFormatPNG
	}

	return cfg, nil
}
