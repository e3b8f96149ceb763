// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package dbsink

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/groundlink/satcore/pkg/log"
)

// undefinedTable is the Postgres SQLSTATE for "relation does not
// exist" (spec §4.7 step 2 "on UndefinedTable at insert time,
// invalidate cache and recreate").
const undefinedTable = "42P01"

// Sink persists decoded rows into one Postgres table per packet,
// caching which tables are known to exist so repeat inserts for the
// same packet skip the CREATE TABLE round trip.
type Sink struct {
	DB  *sqlx.DB
	log *log.Logger

	mu      sync.Mutex
	known   map[string]bool
	columns map[string]map[string]bool
}

// New returns a Sink writing to db.
func New(db *sqlx.DB) *Sink {
	return &Sink{
		DB:      db,
		log:     log.Component("dbsink"),
		known:   make(map[string]bool),
		columns: make(map[string]map[string]bool),
	}
}

// WriteRows ensures table exists (creating it from the first row's
// inferred schema if needed) and bulk-inserts rows in a single
// multi-row INSERT (spec §4.7 step 3). Table creation is conditional;
// duplicate rows are not detected or rejected at this layer (spec
// §4.7 "Idempotency").
func (s *Sink) WriteRows(table string, rows []map[string]interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	if err := s.ensureTable(table, rows[0]); err != nil {
		return err
	}

	if err := s.insertRows(table, rows); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			s.invalidate(table)
			if err := s.ensureTable(table, rows[0]); err != nil {
				return err
			}
			return s.insertRows(table, rows)
		}
		return err
	}
	return nil
}

func (s *Sink) invalidate(table string) {
	s.mu.Lock()
	delete(s.known, table)
	delete(s.columns, table)
	s.mu.Unlock()
	s.log.Warnf("table %q missing at insert time, recreating", table)
}

func (s *Sink) ensureTable(table string, firstRow map[string]interface{}) error {
	s.mu.Lock()
	exists := s.known[table]
	s.mu.Unlock()
	if exists {
		return nil
	}

	ddl := createTableDDL(table, inferColumns(firstRow))
	if _, err := s.DB.Exec(ddl); err != nil {
		return fmt.Errorf("dbsink: create table %q: %w", table, err)
	}

	cols, err := s.loadColumns(table)
	if err != nil {
		return fmt.Errorf("dbsink: load columns for %q: %w", table, err)
	}

	s.mu.Lock()
	s.known[table] = true
	s.columns[table] = cols
	s.mu.Unlock()
	return nil
}

// loadColumns reads back the table's actual column set from the
// catalog rather than trusting the row that triggered creation —
// a pre-existing table may carry columns no longer present in any
// recent row, and those must still count as known.
func (s *Sink) loadColumns(table string) (map[string]bool, error) {
	rows, err := s.DB.Query(`SELECT column_name FROM information_schema.columns WHERE table_name = $1`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// insertRows builds and runs the multi-row INSERT. Row keys with no
// matching column in the table's known schema are silently dropped
// rather than submitted (spec §4.7 scenario S6: a field added after
// table creation stays out of schema instead of failing the insert).
func (s *Sink) insertRows(table string, rows []map[string]interface{}) error {
	s.mu.Lock()
	known := s.columns[table]
	s.mu.Unlock()

	names := make([]string, 0, len(rows[0]))
	for name := range rows[0] {
		if known != nil && !known[strings.ToLower(name)] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	lowerNames := make([]string, len(names))
	for i, n := range names {
		lowerNames[i] = strings.ToLower(n)
	}

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(table).
		Columns(lowerNames...)

	for _, row := range rows {
		values := make([]interface{}, len(names))
		for i, name := range names {
			values[i] = bindValue(row[name])
		}
		builder = builder.Values(values...)
	}

	if _, err := builder.RunWith(s.DB).Exec(); err != nil {
		return fmt.Errorf("dbsink: insert %d row(s) into %q: %w", len(rows), table, err)
	}
	return nil
}

// bindValue converts a decoded scalar to the value the driver should
// bind: ISO-datetime strings matching the strict pattern are parsed
// back to time.Time (spec §4.7 step 3), everything else binds as-is.
func bindValue(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		if t, ok := parseISODatetime(s); ok {
			return t
		}
	}
	return v
}
