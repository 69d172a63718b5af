// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package log

import (
	"fmt"
	"sort"
	"strings"
)

// Fields is structured context attached to a log line. The pipeline uses
// it to carry dataset_id/sample_id on every filter, codec and store
// error so the offending sample is always identifiable (spec §4.5, §7),
// without every call site hand-rolling a Sprintf.
type Fields map[string]any

// String renders fields in sorted key order so log lines are diffable.
func (f Fields) String() string {
	if len(f) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, f[k]))
	}
	return strings.Join(parts, " ")
}

// Errorf logs at error level with structured fields prefixed to the
// formatted message, e.g. log.Fields{"dataset_id": "x", "sample_id": "y"}.Errorf("filter %s failed: %v", name, err).
func (f Fields) Errorf(format string, v ...interface{}) {
	Errorf("%s "+format, append([]interface{}{f.String()}, v...)...)
}

func (f Fields) Warnf(format string, v ...interface{}) {
	Warnf("%s "+format, append([]interface{}{f.String()}, v...)...)
}

func (f Fields) Infof(format string, v ...interface{}) {
	Infof("%s "+format, append([]interface{}{f.String()}, v...)...)
}
