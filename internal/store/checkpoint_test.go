// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCheckpoint(t *testing.T) *CheckpointStore {
	t.Helper()
	c, err := OpenCheckpointStore(filepath.Join(t.TempDir(), "checkpoint.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCheckpointUnknownDatasetIsNotComplete(t *testing.T) {
	ctx := context.Background()
	c := openTestCheckpoint(t)

	complete, err := c.IsComplete(ctx, "ds")
	require.NoError(t, err)
	assert.False(t, complete)

	_, ok, err := c.ResumePoint(ctx, "ds")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckpointUpdateThenMarkComplete(t *testing.T) {
	ctx := context.Background()
	c := openTestCheckpoint(t)

	require.NoError(t, c.Update(ctx, "ds", "5"))

	last, ok, err := c.ResumePoint(ctx, "ds")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "5", last)

	complete, err := c.IsComplete(ctx, "ds")
	require.NoError(t, err)
	assert.False(t, complete)

	require.NoError(t, c.MarkComplete(ctx, "ds"))

	complete, err = c.IsComplete(ctx, "ds")
	require.NoError(t, err)
	assert.True(t, complete)

	// A further Update call moves the resume point but leaves completed
	// true (completed is untouched by Update).
	require.NoError(t, c.Update(ctx, "ds", "6"))
	complete, err = c.IsComplete(ctx, "ds")
	require.NoError(t, err)
	assert.True(t, complete)
}
