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

// DedupStore maps a content hash to the first (dataset_id, sample_id)
// that claimed it (C4). It is opened with multi-reader/multi-writer
// semantics and is the only store workers write to directly.
type DedupStore struct {
	db *sqlx.DB
}

func OpenDedupStore(path string) (*DedupStore, error) {
	db, err := open(path, "dedup")
	if err != nil {
		return nil, err
	}
	// Dedup is the one store workers hit concurrently; a handful of
	// connections lets sqlite's own locking serialize writers instead of
	// every worker queueing behind a single Go-side connection.
	db.SetMaxOpenConns(4)
	return &DedupStore{db: db}, nil
}

func (d *DedupStore) Close() error {
	return d.db.Close()
}

// CheckAndInsert atomically claims hash for (datasetID, sampleID). It
// returns true iff this call is the one that inserted the row — i.e. the
// sample is the unique owner of the hash. No read-then-write: the
// uniqueness check and the insert are the same statement, which is what
// makes this safe under concurrent calls from multiple workers (spec
// §4.4, §9).
func (d *DedupStore) CheckAndInsert(ctx context.Context, hash, datasetID, sampleID string) (bool, error) {
	res, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_hashes (hash, dataset_id, sample_id) VALUES (?, ?, ?)`,
		hash, datasetID, sampleID)
	if err != nil {
		return false, fmt.Errorf("%w: check_and_insert: %v", ErrDedupStore, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows_affected: %v", ErrDedupStore, err)
	}

	return n == 1, nil
}

// Wipe deletes every known hash, forcing a fresh dedup scan on the next
// run. Persistence across runs is the default (spec §9 Open Question);
// this is the explicit opt-in to discard it.
func (d *DedupStore) Wipe(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM seen_hashes`); err != nil {
		return fmt.Errorf("%w: wipe: %v", ErrDedupStore, err)
	}
	return nil
}
