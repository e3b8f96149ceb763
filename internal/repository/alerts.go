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

	"github.com/groundlink/satcore/pkg/log"
)

// Alert severities (§3 "AlertRecord").
const (
	SeverityYellow = "YELLOW"
	SeverityAmber  = "AMBER"
	SeverityRed    = "RED"
)

// Alert lifecycle states (§4.10 "Alert").
const (
	StatusIdentified = "alert_identified"
	StatusNotified   = "alert_notified"
	StatusAck        = "acknowledged"
	StatusResolved   = "resolved"
	StatusDismissed  = "dismissed"
)

// validTransitions is the lattice from §4.10: transitions not listed
// here are rejected by SetStatus.
var validTransitions = map[string]map[string]bool{
	StatusIdentified: {StatusNotified: true},
	StatusNotified:   {StatusAck: true},
	StatusAck:        {StatusResolved: true, StatusDismissed: true},
}

// ErrInvalidTransition is returned by SetStatus when from->to is not a
// lattice edge.
type ErrInvalidTransition struct {
	From, To string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("repository: invalid alert status transition %q -> %q", e.From, e.To)
}

// AlertRecord is one row of the alerts table (§3 "AlertRecord").
type AlertRecord struct {
	ID              int64     `db:"id"`
	TimestampUTC    time.Time `db:"timestamp_utc"`
	PacketRaw       string    `db:"packet_raw"`
	PacketMatched   string    `db:"packet_matched"`
	SubmoduleID     *int      `db:"submodule_id"`
	SubmoduleName   *string   `db:"submodule_name"`
	QueueID         int       `db:"queue_id"`
	Metric          string    `db:"metric"`
	Value           float64   `db:"value"`
	MinBound        *float64  `db:"min_bound"`
	MaxBound        *float64  `db:"max_bound"`
	Severity        string    `db:"severity"`
	SeverityPercent float64   `db:"severity_percent"`
	Reason          string    `db:"reason"`
	Status          string    `db:"status"`
	EngineTime      time.Time `db:"engine_time"`
}

// AlertRepository persists AlertRecords in Postgres, enforcing the
// status-transition lattice on every update (§4.10).
type AlertRepository struct {
	DB    *sqlx.DB
	mu    sync.Mutex
	stmts sq.StatementBuilderType
}

// NewAlertRepository wraps db with squirrel's dollar-placeholder
// builder, matching postgres's parameter syntax (the teacher's own
// repository uses `?`, since sqlite/mysql both accept it; postgres
// does not, so this is a deliberate divergence from the teacher's
// literal placeholder style, not from its squirrel-based query-
// building approach).
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{DB: db, stmts: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// Insert creates a new alert in StatusIdentified and returns its ID.
func (r *AlertRepository) Insert(a *AlertRecord) (int64, error) {
	a.Status = StatusIdentified
	if a.EngineTime.IsZero() {
		a.EngineTime = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var id int64
	row := r.stmts.Insert("alerts").
		Columns("timestamp_utc", "packet_raw", "packet_matched", "submodule_id", "submodule_name",
			"queue_id", "metric", "value", "min_bound", "max_bound", "severity", "severity_percent",
			"reason", "status", "engine_time").
		Values(a.TimestampUTC, a.PacketRaw, a.PacketMatched, a.SubmoduleID, a.SubmoduleName,
			a.QueueID, a.Metric, a.Value, a.MinBound, a.MaxBound, a.Severity, a.SeverityPercent,
			a.Reason, a.Status, a.EngineTime).
		Suffix("RETURNING id").
		RunWith(r.DB).
		QueryRow()

	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("repository: insert alert: %w", err)
	}
	a.ID = id
	return id, nil
}

// Get loads one alert by ID.
func (r *AlertRepository) Get(id int64) (*AlertRecord, error) {
	var a AlertRecord
	if err := r.DB.Get(&a, "SELECT * FROM alerts WHERE id = $1", id); err != nil {
		return nil, fmt.Errorf("repository: get alert %d: %w", id, err)
	}
	return &a, nil
}

// SetStatus transitions the alert to next, rejecting any transition
// not present in validTransitions.
func (r *AlertRepository) SetStatus(id int64, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var current string
	if err := r.DB.Get(&current, "SELECT status FROM alerts WHERE id = $1", id); err != nil {
		return fmt.Errorf("repository: read alert %d status: %w", id, err)
	}

	if !validTransitions[current][next] {
		return &ErrInvalidTransition{From: current, To: next}
	}

	_, err := r.stmts.Update("alerts").
		Set("status", next).
		Where(sq.Eq{"id": id}).
		RunWith(r.DB).
		Exec()
	if err != nil {
		return fmt.Errorf("repository: update alert %d status: %w", id, err)
	}

	log.Debugf("repository: alert %d %s -> %s", id, current, next)
	return nil
}
