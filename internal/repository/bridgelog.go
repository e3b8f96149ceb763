// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// Bridge message directions (§3 "BridgeMessage"). DirectionHealth is
// an addition for the health sub-runner (§4.5 last paragraph), which
// logs sband/xband health records into the same per-station table
// rather than a separate schema — mqtt_topic plus station_id already
// partition "HEALTH_SBAND_LOG"/"HEALTH_XBAND_LOG" the way the spec
// names them.
const (
	DirectionAtoB   = "AtoB"
	DirectionBtoA   = "BtoA"
	DirectionHealth = "Health"
)

// BridgeMessage is one logged frame crossing a station's bridge (§3).
type BridgeMessage struct {
	ID          int64     `db:"id"`
	TSUTC       time.Time `db:"ts_utc"`
	Direction   string    `db:"direction"`
	Bytes       int       `db:"bytes"`
	RawBlob     []byte    `db:"raw_blob"`
	DisplayText string    `db:"display_text"`
	StationID   string    `db:"station_id"`
	MQTTTopic   string    `db:"mqtt_topic"`
}

// BridgeLogRepository appends to and queries one station's SQLite
// message log. SQLite allows only one writer at a time (dbConnection.go
// caps MaxOpenConns at 1 for the same reason), so inserts are also
// serialized here to avoid SQLITE_BUSY under concurrent A/B traffic.
type BridgeLogRepository struct {
	DB *sqlx.DB
	mu sync.Mutex
}

// NewBridgeLogRepository wraps a per-station SQLite connection opened
// by ConnectStationLog.
func NewBridgeLogRepository(db *sqlx.DB) *BridgeLogRepository {
	return &BridgeLogRepository{DB: db}
}

// Insert appends one bridge message to the log.
func (r *BridgeLogRepository) Insert(m *BridgeMessage) (int64, error) {
	if m.TSUTC.IsZero() {
		m.TSUTC = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := sq.Insert("bridge_messages").
		Columns("ts_utc", "direction", "bytes", "raw_blob", "display_text", "station_id", "mqtt_topic").
		Values(m.TSUTC, m.Direction, m.Bytes, m.RawBlob, m.DisplayText, m.StationID, m.MQTTTopic).
		RunWith(r.DB).
		Exec()
	if err != nil {
		return 0, fmt.Errorf("repository: insert bridge message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("repository: bridge message last insert id: %w", err)
	}
	return id, nil
}

// RecentByTopic returns the limit most recent messages logged for
// topic, newest first. The Bridge Runner does not call it; its live
// in-memory counters are not merged with these rows.
func (r *BridgeLogRepository) RecentByTopic(topic string, limit int) ([]BridgeMessage, error) {
	var rows []BridgeMessage
	err := r.DB.Select(&rows,
		"SELECT * FROM bridge_messages WHERE mqtt_topic = ? ORDER BY ts_utc DESC, id DESC LIMIT ?",
		topic, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: recent bridge messages for %q: %w", topic, err)
	}
	return rows, nil
}

// DeleteOlderThan removes every logged message older than cutoff and
// returns how many rows were dropped — the periodic retention sweep
// (spec Design Notes, domain stack "periodic housekeeping") that keeps
// a long-lived station's SQLite log from growing unbounded.
func (r *BridgeLogRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.DB.Exec("DELETE FROM bridge_messages WHERE ts_utc < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("repository: delete bridge messages older than %s: %w", cutoff, err)
	}
	return res.RowsAffected()
}

// TotalBytes sums the bytes column for a station/direction pair. The
// Bridge Runner does not call it, and its live byte counters are not
// combined with this total.
func (r *BridgeLogRepository) TotalBytes(stationID, direction string) (int64, error) {
	var total int64
	err := r.DB.Get(&total,
		"SELECT COALESCE(SUM(bytes), 0) FROM bridge_messages WHERE station_id = ? AND direction = ?",
		stationID, direction)
	if err != nil {
		return 0, fmt.Errorf("repository: total bytes for %s/%s: %w", stationID, direction, err)
	}
	return total, nil
}
