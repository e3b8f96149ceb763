// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dbsink implements the DB Sink Worker (C7): it persists
// decoded packet envelopes into one Postgres table per packet,
// inferring the table's columns from the first row it ever sees.
package dbsink

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// isoDatetime matches the strict RFC3339 shape spec §4.7 names:
// datetime strings surviving the bus's JSON round trip are parsed back
// to timestamps before binding rather than left as TEXT.
var isoDatetime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)

// parseISODatetime returns the parsed time and true if s matches the
// strict ISO-8601 datetime pattern, else the zero time and false.
func parseISODatetime(s string) (time.Time, bool) {
	if !isoDatetime.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// TableName derives the target table from a decoded packet's name:
// strip the "RAW__TLM__<TARGET>__" source-target wrapper (the same
// wrapper the Health Consumer strips to resolve a schema, spec §4.6),
// then lowercase the remainder for a conventional Postgres identifier.
func TableName(packetName string) string {
	const wrapper = "RAW__TLM__"
	name := packetName
	if strings.HasPrefix(name, wrapper) {
		rest := strings.TrimPrefix(name, wrapper)
		if idx := strings.Index(rest, "__"); idx >= 0 {
			name = rest[idx+2:]
		} else {
			name = rest
		}
	}
	return strings.ToLower(name)
}

// column is one inferred column of a sink table.
type column struct {
	name    string
	sqlType string
}

// sqlColumnType maps a decoded scalar value to the Postgres type spec
// §4.7 step 2 names: bool->BOOLEAN, int->BIGINT, float->DOUBLE
// PRECISION, datetime->TIMESTAMPTZ, else TEXT. JSON numbers arrive as
// json.Number (the caller decodes with UseNumber so integers and
// floats stay distinguishable — plain float64 unmarshaling would lose
// that distinction for every whole-number value).
func sqlColumnType(v interface{}) string {
	switch val := v.(type) {
	case bool:
		return "BOOLEAN"
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return "BIGINT"
		}
		return "DOUBLE PRECISION"
	case string:
		if _, ok := parseISODatetime(val); ok {
			return "TIMESTAMPTZ"
		}
		return "TEXT"
	default:
		return "TEXT"
	}
}

// inferColumns builds the column list for a sink table from the first
// decoded row. The bus wire envelope flattens each row to a JSON
// object (map[string]interface{}), which loses the field order the
// decoder produced (spec §4.2 "Determinism" applies to decode output,
// not to this already-flattened wire shape) — columns are sorted by
// name instead, so CREATE TABLE is deterministic across identical
// first rows regardless of Go's randomized map iteration.
func inferColumns(row map[string]interface{}) []column {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]column, 0, len(names))
	for _, name := range names {
		cols = append(cols, column{name: strings.ToLower(name), sqlType: sqlColumnType(row[name])})
	}
	return cols
}

// createTableDDL builds a CREATE TABLE IF NOT EXISTS statement for
// table with the given inferred columns, plus the surrogate primary
// key and insert timestamp spec §4.7 step 2 requires.
func createTableDDL(table string, cols []column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", pgx.Identifier{table}.Sanitize())
	b.WriteString("  id BIGSERIAL PRIMARY KEY,\n")
	for _, c := range cols {
		fmt.Fprintf(&b, "  %s %s,\n", pgx.Identifier{c.name}.Sanitize(), c.sqlType)
	}
	b.WriteString("  created_at TIMESTAMPTZ DEFAULT now()\n")
	b.WriteString(")")
	return b.String()
}
