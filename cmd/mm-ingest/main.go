// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/swiss-ai/mm-ingest/internal/adapter"
	"github.com/swiss-ai/mm-ingest/internal/filter"
	"github.com/swiss-ai/mm-ingest/internal/pipeline"
	"github.com/swiss-ai/mm-ingest/internal/shard"
	"github.com/swiss-ai/mm-ingest/internal/store"
	"github.com/swiss-ai/mm-ingest/internal/worker"
	"github.com/swiss-ai/mm-ingest/pkg/log"
	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

func main() {
	var (
		flagConfigFile string
		flagDataset    string
		flagJSONL      string
		flagLogLevel   string
	)

	flag.StringVar(&flagConfigFile, "config", "./config.json", "Path to the run configuration `file`")
	flag.StringVar(&flagDataset, "dataset", "", "Dataset `id` to assign the input file to")
	flag.StringVar(&flagJSONL, "jsonl", "", "Path to a `file` of pre-standardized JSONL records to ingest")
	flag.StringVar(&flagLogLevel, "loglevel", "info", "One of: debug, info, warn, err, crit")
	flag.Parse()

	log.SetLogLevel(flagLogLevel)

	if err := run(flagConfigFile, flagDataset, flagJSONL); err != nil {
		log.Errorf("mm-ingest: %v", err)
		os.Exit(1)
	}
}

func run(configPath, datasetID, jsonlPath string) error {
	if datasetID == "" || jsonlPath == "" {
		return fmt.Errorf("both -dataset and -jsonl are required")
	}

	f, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("open config %s: %w", configPath, err)
	}
	defer f.Close()

	cfg, err := schema.LoadConfig(f)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	d, closeStores, err := buildDriver(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	adapters := []adapter.Adapter{adapter.NewJSONLAdapter(datasetID, jsonlPath)}

	log.Infof("mm-ingest: starting run, dataset=%s workers=%d batch_size=%d", datasetID, cfg.Workers, cfg.BatchSize)
	return d.Run(ctx, adapters)
}

func buildDriver(cfg schema.Config) (*pipeline.Driver, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir data dir: %w", err)
	}

	manifest, err := store.OpenManifestStore(filepath.Join(cfg.DataDir, "manifest.db"))
	if err != nil {
		return nil, nil, err
	}
	checkpoint, err := store.OpenCheckpointStore(filepath.Join(cfg.DataDir, "checkpoint.db"))
	if err != nil {
		manifest.Close()
		return nil, nil, err
	}
	dedup, err := store.OpenDedupStore(filepath.Join(cfg.DataDir, "dedup.db"))
	if err != nil {
		manifest.Close()
		checkpoint.Close()
		return nil, nil, err
	}

	factories, err := buildFilterFactories(cfg.Filters, dedup)
	if err != nil {
		manifest.Close()
		checkpoint.Close()
		dedup.Close()
		return nil, nil, err
	}

	var sink pipeline.Sink
	if cfg.Sink.Enabled {
		sink = shard.NewWriter(cfg.Sink.OutputDir, cfg.Sink.SamplesPerShard, cfg.Sink.TargetShardBytes, cfg.Sink.ImageFormat)
		// Reject samples the sink couldn't encode before they ever reach
		// the manifest, rather than discovering it as a write failure
		// after the manifest commit.
		factories = append(factories, filter.SinkEncodableFactory{Target: cfg.Sink.ImageFormat})
	}

	pool := worker.New(cfg.Workers, factories)
	d := &pipeline.Driver{
		Manifest:   manifest,
		Checkpoint: checkpoint,
		Pool:       pool,
		Sink:       sink,
		BatchSize:  cfg.BatchSize,
	}

	closeAll := func() {
		pool.Close()
		manifest.Close()
		checkpoint.Close()
		dedup.Close()
		if w, ok := sink.(*shard.Writer); ok && w != nil {
			w.Close()
		}
	}

	return d, closeAll, nil
}

func buildFilterFactories(configs []schema.FilterConfig, dedup *store.DedupStore) ([]filter.Factory, error) {
	factories := make([]filter.Factory, 0, len(configs))
	for _, fc := range configs {
		switch fc.Name {
		case "min_resolution":
			f, err := filter.NewMinResolutionFactory(fc.Params)
			if err != nil {
				return nil, err
			}
			factories = append(factories, f)
		case "dedup":
			factories = append(factories, filter.DedupFactory{Store: dedup, Hasher: filter.Sha256Hash})
		default:
			return nil, fmt.Errorf("unknown filter %q", fc.Name)
		}
	}
	return factories, nil
}
