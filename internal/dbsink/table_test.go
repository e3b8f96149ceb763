// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package dbsink

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableNameStripsSourceTargetWrapper(t *testing.T) {
	require.Equal(t, "health_obc", TableName("RAW__TLM__OBC__HEALTH_OBC"))
	require.Equal(t, "health_eps", TableName("RAW__TLM__SAT1__HEALTH_EPS"))
	require.Equal(t, "health_obc", TableName("HEALTH_OBC"), "no-op when the wrapper isn't present")
}

func TestParseISODatetimeAcceptsStrictRFC3339(t *testing.T) {
	_, ok := parseISODatetime("2026-01-09T08:55:28Z")
	require.True(t, ok)

	_, ok = parseISODatetime("2026-01-09T08:55:28.123456Z")
	require.True(t, ok)

	_, ok = parseISODatetime("2026-01-09T08:55:28+05:00")
	require.True(t, ok)
}

func TestParseISODatetimeRejectsNonDatetimeStrings(t *testing.T) {
	for _, s := range []string{"not a date", "2026-01-09", "08:55:28", ""} {
		_, ok := parseISODatetime(s)
		require.False(t, ok, "%q should not parse as a datetime", s)
	}
}

func TestSQLColumnTypeInfersEachKind(t *testing.T) {
	require.Equal(t, "BOOLEAN", sqlColumnType(true))
	require.Equal(t, "BIGINT", sqlColumnType(json.Number("42")))
	require.Equal(t, "DOUBLE PRECISION", sqlColumnType(json.Number("3.14")))
	require.Equal(t, "TIMESTAMPTZ", sqlColumnType("2026-01-09T08:55:28Z"))
	require.Equal(t, "TEXT", sqlColumnType("ACTIVE"))
	require.Equal(t, "TEXT", sqlColumnType(nil))
}

func TestInferColumnsIsSortedAndDeterministic(t *testing.T) {
	row := map[string]interface{}{
		"Queue_ID":    json.Number("7"),
		"Value":       json.Number("1.5"),
		"Active":      true,
		"Sample_Time": "2026-01-09T08:55:28Z",
	}

	cols := inferColumns(row)
	require.Len(t, cols, 4)
	for i := 1; i < len(cols); i++ {
		require.Less(t, cols[i-1].name, cols[i].name, "columns must be sorted by name")
	}
}

func TestCreateTableDDLIncludesSurrogateKeyAndTimestamp(t *testing.T) {
	cols := []column{{name: "queue_id", sqlType: "BIGINT"}, {name: "value", sqlType: "DOUBLE PRECISION"}}
	ddl := createTableDDL("health_obc", cols)

	require.Contains(t, ddl, `CREATE TABLE IF NOT EXISTS "health_obc"`)
	require.Contains(t, ddl, "id BIGSERIAL PRIMARY KEY")
	require.Contains(t, ddl, `"queue_id" BIGINT`)
	require.Contains(t, ddl, `"value" DOUBLE PRECISION`)
	require.Contains(t, ddl, "created_at TIMESTAMPTZ DEFAULT now()")
}
