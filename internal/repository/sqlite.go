// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"
)

var registerSQLiteOnce sync.Once

// ConnectStationLog opens the per-station BridgeMessage log in dir,
// one SQLite file per station ID, hooked the same way the teacher
// wraps its sqlite3 driver with sqlhooks for query-level debug
// logging. SQLite does not support concurrent writers, so the pool is
// capped at a single connection exactly like dbConnection.go.
func ConnectStationLog(dir, stationID string) (*sqlx.DB, error) {
	registerSQLiteOnce.Do(func() {
		sql.Register("sqlite3WithHooks", sqlhooks.Wrap(&sqlite3.SQLiteDriver{}, &Hooks{}))
	})

	path := filepath.Join(dir, fmt.Sprintf("%s.db", stationID))
	db, err := sqlx.Open("sqlite3WithHooks", fmt.Sprintf("%s?_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("repository: open station log %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
