// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store holds the three durable sqlite-backed stores the pipeline
// driver commits to: the manifest (C2), the checkpoint (C3) and the dedup
// table (C4). Each store owns its own database file under the configured
// data directory; none of them share a connection.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"
)

var registerHooksOnce sync.Once

// open returns a single-connection, WAL-mode sqlite handle for path and
// applies the migrations embedded under migrations/<migrationDir>.
//
// open itself pins SetMaxOpenConns(1); the manifest and checkpoint stores
// keep that default since the pipeline driver is their only writer. The
// dedup store raises it afterward (OpenDedupStore) since workers insert
// into it concurrently and its atomic insert-or-ignore check doesn't
// need external serialization to stay correct.
func open(path, migrationDir string) (*sqlx.DB, error) {
	registerHooksOnce.Do(func() {
		sql.Register("sqlite3WithHooks", sqlhooks.Wrap(&sqlite3.SQLiteDriver{}, &Hooks{}))
	})

	db, err := sqlx.Open("sqlite3WithHooks", fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := migrateUp(db.DB, migrationDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate %s: %w", path, err)
	}

	return db, nil
}
