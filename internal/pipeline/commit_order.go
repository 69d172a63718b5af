// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package pipeline

// commitStep tags each durable write inside commitBatch so the required
// order (manifest, then sink, then checkpoint; spec §4.9 step 5) can be
// asserted by tests without costing anything in production.
type commitStep int

const (
	// stepStart marks the beginning of a batch's commit sequence, called
	// unconditionally so a batch that skips the manifest/sink steps (all
	// samples rejected) still resets the expected ordering for tests.
	stepStart commitStep = iota
	stepManifest
	stepSink
	stepCheckpoint
)

// mustCommitOrder is nil in production builds, so checkCommitOrder is a
// single nil check on the hot path. Tests that care about ordering set
// this to a function that fails the test on an out-of-sequence step.
var mustCommitOrder func(step commitStep)

func checkCommitOrder(step commitStep) {
	if mustCommitOrder != nil {
		mustCommitOrder(step)
	}
}
