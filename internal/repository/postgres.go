// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Registers the "pgx" stdlib driver used by sqlx.Open below.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ConnectPostgres opens the pooled connection DB Sink, Alert Worker
// and Notifier share, following the teacher's dbConnection.go
// Connect() shape but without its process-wide singleton: each binary
// owns the *sqlx.DB it constructs.
func ConnectPostgres(dsn string, maxOpenConns, maxIdleConns int) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: open postgres: %w", err)
	}

	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	if maxIdleConns <= 0 {
		maxIdleConns = 10
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(3 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: ping postgres: %w", err)
	}

	return db, nil
}
