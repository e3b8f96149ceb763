// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/groundlink/satcore/pkg/log"
)

//go:embed migrations/*
var migrationFiles embed.FS

// MigratePostgres runs every pending postgres/ migration against db,
// the alerts-table schema described in §3.
func MigratePostgres(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("repository: postgres migration driver: %w", err)
	}
	return runMigrations(driver, "migrations/postgres", "postgres")
}

// MigrateSQLite runs every pending sqlite3/ migration against db, the
// bridge_messages log schema described in §3.
func MigrateSQLite(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("repository: sqlite migration driver: %w", err)
	}
	return runMigrations(driver, "migrations/sqlite3", "sqlite3")
}

func runMigrations(driver database.Driver, path, name string) error {
	d, err := iofs.New(migrationFiles, path)
	if err != nil {
		return fmt.Errorf("repository: migration source %q: %w", path, err)
	}

	m, err := migrate.NewWithInstance("iofs", d, name, driver)
	if err != nil {
		return fmt.Errorf("repository: migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("repository: migrate up: %w", err)
	}

	v, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("repository: migration version: %w", err)
	}
	log.Infof("repository: %s schema at version %d (dirty=%v)", name, v, dirty)
	return nil
}
