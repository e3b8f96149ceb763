// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func setupBridgeLogTest(t *testing.T) *BridgeLogRepository {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	// In-memory SQLite is one database per connection; cap the pool at
	// one so migrations and inserts all see the same database, the
	// same constraint ConnectStationLog applies for real station files.
	db.SetMaxOpenConns(1)

	require.NoError(t, MigrateSQLite(db.DB))
	return NewBridgeLogRepository(db)
}

func TestBridgeLogInsertAndRecentByTopic(t *testing.T) {
	repo := setupBridgeLogTest(t)

	for i := 0; i < 3; i++ {
		_, err := repo.Insert(&BridgeMessage{
			Direction:   DirectionAtoB,
			Bytes:       10 + i,
			RawBlob:     []byte{0x01, 0x02},
			DisplayText: "hex",
			StationID:   "station-1",
			MQTTTopic:   "cosmos/command",
			TSUTC:       time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	recent, err := repo.RecentByTopic("cosmos/command", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, 12, recent[0].Bytes)
}

func TestBridgeLogTotalBytes(t *testing.T) {
	repo := setupBridgeLogTest(t)

	_, err := repo.Insert(&BridgeMessage{
		Direction: DirectionAtoB, Bytes: 5, RawBlob: []byte{0x1},
		DisplayText: "x", StationID: "station-1", MQTTTopic: "cosmos/command",
	})
	require.NoError(t, err)
	_, err = repo.Insert(&BridgeMessage{
		Direction: DirectionAtoB, Bytes: 7, RawBlob: []byte{0x2},
		DisplayText: "y", StationID: "station-1", MQTTTopic: "cosmos/command",
	})
	require.NoError(t, err)

	total, err := repo.TotalBytes("station-1", DirectionAtoB)
	require.NoError(t, err)
	require.EqualValues(t, 12, total)
}

func TestBridgeLogDeleteOlderThanRemovesOnlyStaleRows(t *testing.T) {
	repo := setupBridgeLogTest(t)

	old := time.Now().UTC().Add(-48 * time.Hour)
	fresh := time.Now().UTC()

	_, err := repo.Insert(&BridgeMessage{
		Direction: DirectionAtoB, Bytes: 1, RawBlob: []byte{0x1},
		DisplayText: "old", StationID: "station-1", MQTTTopic: "cosmos/command", TSUTC: old,
	})
	require.NoError(t, err)
	_, err = repo.Insert(&BridgeMessage{
		Direction: DirectionAtoB, Bytes: 1, RawBlob: []byte{0x2},
		DisplayText: "fresh", StationID: "station-1", MQTTTopic: "cosmos/command", TSUTC: fresh,
	})
	require.NoError(t, err)

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	deleted, err := repo.DeleteOlderThan(cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	remaining, err := repo.RecentByTopic("cosmos/command", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "fresh", remaining[0].DisplayText)
}
