// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Pair is a (dataset_id, sample_id) manifest entry.
type Pair struct {
	DatasetID string
	SampleID  string
}

// ManifestStore is the durable allowlist of accepted samples (C2). It is
// written only by the pipeline driver; workers never touch it.
type ManifestStore struct {
	db *sqlx.DB
}

// OpenManifestStore opens (creating if absent) manifest.db at path.
func OpenManifestStore(path string) (*ManifestStore, error) {
	db, err := open(path, "manifest")
	if err != nil {
		return nil, err
	}
	return &ManifestStore{db: db}, nil
}

func (m *ManifestStore) Close() error {
	return m.db.Close()
}

// AddBatch inserts every pair, silently ignoring ones already present.
// The whole batch commits atomically: all pairs land, or (on crash or
// error) none do. Safe to call again with a batch that overlaps a
// previous call — that is the resume story in spec §8 property 2.
func (m *ManifestStore) AddBatch(ctx context.Context, pairs []Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	tx, err := m.db.Beginx()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrManifestCommit, err)
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT OR IGNORE INTO allowlist (dataset_id, sample_id) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: prepare: %v", ErrManifestCommit, err)
	}
	defer stmt.Close()

	for _, p := range pairs {
		if _, err := stmt.ExecContext(ctx, p.DatasetID, p.SampleID); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: insert (%s,%s): %v", ErrManifestCommit, p.DatasetID, p.SampleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrManifestCommit, err)
	}

	return nil
}

// Exists reports whether (datasetID, sampleID) has already been accepted.
func (m *ManifestStore) Exists(ctx context.Context, datasetID, sampleID string) (bool, error) {
	var n int
	err := m.db.GetContext(ctx, &n,
		`SELECT COUNT(1) FROM allowlist WHERE dataset_id = ? AND sample_id = ?`, datasetID, sampleID)
	if err != nil {
		return false, fmt.Errorf("%w: exists: %v", ErrManifestCommit, err)
	}
	return n > 0, nil
}

// Count returns the number of accepted samples for datasetID.
func (m *ManifestStore) Count(ctx context.Context, datasetID string) (int64, error) {
	var n int64
	err := m.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM allowlist WHERE dataset_id = ?`, datasetID)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrManifestCommit, err)
	}
	return n, nil
}

// Iter streams every accepted sample_id for datasetID in lexicographic
// order, calling fn for each. Iteration stops at the first error fn
// returns.
func (m *ManifestStore) Iter(ctx context.Context, datasetID string, fn func(sampleID string) error) error {
	rows, err := m.db.QueryxContext(ctx,
		`SELECT sample_id FROM allowlist WHERE dataset_id = ? ORDER BY sample_id ASC`, datasetID)
	if err != nil {
		return fmt.Errorf("%w: iter: %v", ErrManifestCommit, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sampleID string
		if err := rows.Scan(&sampleID); err != nil {
			return fmt.Errorf("%w: scan: %v", ErrManifestCommit, err)
		}
		if err := fn(sampleID); err != nil {
			return err
		}
	}
	return rows.Err()
}
