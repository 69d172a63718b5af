// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CheckpointStore is the durable per-dataset resume pointer (C3).
type CheckpointStore struct {
	db *sqlx.DB
}

func OpenCheckpointStore(path string) (*CheckpointStore, error) {
	db, err := open(path, "checkpoint")
	if err != nil {
		return nil, err
	}
	return &CheckpointStore{db: db}, nil
}

func (c *CheckpointStore) Close() error {
	return c.db.Close()
}

// IsComplete reports whether datasetID's stream has already been fully
// consumed by a previous run. An unknown dataset is not complete.
func (c *CheckpointStore) IsComplete(ctx context.Context, datasetID string) (bool, error) {
	var completed int
	err := c.db.GetContext(ctx, &completed, `SELECT completed FROM progress WHERE dataset_id = ?`, datasetID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: is_complete: %v", ErrCheckpointCommit, err)
	}
	return completed != 0, nil
}

// ResumePoint returns the last persisted sample_id for datasetID, or ""
// with ok=false if the dataset has never been checkpointed.
func (c *CheckpointStore) ResumePoint(ctx context.Context, datasetID string) (lastSampleID string, ok bool, err error) {
	var last sql.NullString
	err = c.db.GetContext(ctx, &last, `SELECT last_sample_id FROM progress WHERE dataset_id = ?`, datasetID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: resume_point: %v", ErrCheckpointCommit, err)
	}
	return last.String, last.Valid, nil
}

// Update upserts the resume pointer for datasetID, leaving `completed`
// unchanged. Must be called after the corresponding manifest batch has
// committed (spec §4.3, §4.9) — callers own that ordering, this method
// only performs the write.
func (c *CheckpointStore) Update(ctx context.Context, datasetID, lastSampleID string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO progress (dataset_id, last_sample_id, completed)
		VALUES (?, ?, 0)
		ON CONFLICT(dataset_id) DO UPDATE SET last_sample_id = excluded.last_sample_id`,
		datasetID, lastSampleID)
	if err != nil {
		return fmt.Errorf("%w: update: %v", ErrCheckpointCommit, err)
	}
	return nil
}

// MarkComplete sets completed=true for datasetID so future runs skip it
// entirely (spec §4.9 step 6).
func (c *CheckpointStore) MarkComplete(ctx context.Context, datasetID string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO progress (dataset_id, last_sample_id, completed)
		VALUES (?, NULL, 1)
		ON CONFLICT(dataset_id) DO UPDATE SET completed = 1`,
		datasetID)
	if err != nil {
		return fmt.Errorf("%w: mark_complete: %v", ErrCheckpointCommit, err)
	}
	return nil
}
