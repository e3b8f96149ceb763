// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package dbsink

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/groundlink/satcore/internal/repository"
)

// setupSinkTest opens a real Postgres connection and returns a Sink
// writing to it, skipping unless TEST_POSTGRES_DSN is set — the same
// opt-in live-database pattern internal/repository's alert tests use,
// since table creation and UndefinedTable recovery can't be exercised
// against a fake driver.
func setupSinkTest(t *testing.T) *Sink {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set, skipping live Postgres test")
	}

	db, err := repository.ConnectPostgres(dsn, 2, 2)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	table := fmt.Sprintf("test_sink_%d", time.Now().UnixNano())
	t.Cleanup(func() { db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q", table)) })

	return New(db)
}

func TestWriteRowsCreatesTableAndInsertsOnFirstWrite(t *testing.T) {
	s := setupSinkTest(t)
	table := fmt.Sprintf("test_sink_%d", time.Now().UnixNano())
	defer s.DB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q", table))

	rows := []map[string]interface{}{
		{"queue_id": json.Number("7"), "value": json.Number("1.5"), "active": true},
		{"queue_id": json.Number("8"), "value": json.Number("2.25"), "active": false},
	}

	require.NoError(t, s.WriteRows(table, rows))

	var count int
	require.NoError(t, s.DB.Get(&count, fmt.Sprintf("SELECT count(*) FROM %q", table)))
	require.Equal(t, 2, count)
}

func TestWriteRowsRecreatesTableDroppedBehindItsBack(t *testing.T) {
	s := setupSinkTest(t)
	table := fmt.Sprintf("test_sink_%d", time.Now().UnixNano())
	defer s.DB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q", table))

	rows := []map[string]interface{}{{"queue_id": json.Number("1")}}
	require.NoError(t, s.WriteRows(table, rows))

	_, err := s.DB.Exec(fmt.Sprintf("DROP TABLE %q", table))
	require.NoError(t, err)

	// The cache still believes table exists; WriteRows must recover
	// from the UndefinedTable error by invalidating and recreating.
	require.NoError(t, s.WriteRows(table, rows))
}

func TestWriteRowsDropsFieldsAddedAfterTableCreation(t *testing.T) {
	s := setupSinkTest(t)
	table := fmt.Sprintf("test_sink_%d", time.Now().UnixNano())
	defer s.DB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q", table))

	first := []map[string]interface{}{{"queue_id": json.Number("1")}}
	require.NoError(t, s.WriteRows(table, first))

	// A later envelope carries a field the table never had. It must be
	// silently dropped rather than fail the insert with UndefinedColumn.
	later := []map[string]interface{}{{"queue_id": json.Number("2"), "new_field": "unexpected"}}
	require.NoError(t, s.WriteRows(table, later))

	var count int
	require.NoError(t, s.DB.Get(&count, fmt.Sprintf("SELECT count(*) FROM %q", table)))
	require.Equal(t, 2, count)

	var cols []string
	require.NoError(t, s.DB.Select(&cols, `SELECT column_name FROM information_schema.columns WHERE table_name = $1`, table))
	for _, c := range cols {
		require.NotEqual(t, "new_field", c)
	}
}
