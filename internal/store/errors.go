// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import "errors"

// ErrManifestCommit and ErrCheckpointCommit are fatal for the current run
// per spec §7: the driver must abort cleanly without advancing past the
// uncommitted batch rather than retry internally.
var (
	ErrManifestCommit   = errors.New("store: manifest commit failed")
	ErrCheckpointCommit = errors.New("store: checkpoint commit failed")
	ErrDedupStore       = errors.New("store: dedup store failed")
)
