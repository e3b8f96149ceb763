// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidTransitionsFormsALattice(t *testing.T) {
	require.True(t, validTransitions[StatusIdentified][StatusNotified])
	require.True(t, validTransitions[StatusNotified][StatusAck])
	require.True(t, validTransitions[StatusAck][StatusResolved])
	require.True(t, validTransitions[StatusAck][StatusDismissed])

	require.False(t, validTransitions[StatusIdentified][StatusAck])
	require.False(t, validTransitions[StatusResolved][StatusIdentified])
	require.False(t, validTransitions[StatusDismissed][StatusAck])
}

func TestErrInvalidTransitionMessage(t *testing.T) {
	err := &ErrInvalidTransition{From: StatusResolved, To: StatusNotified}
	require.Contains(t, err.Error(), "resolved")
	require.Contains(t, err.Error(), "alert_notified")
}

// setupPostgresTest opens a repository against TEST_POSTGRES_DSN and
// skips the test when it isn't set, the standard opt-in pattern for
// tests that need a live database rather than requiring one to run
// the suite at all.
func setupPostgresTest(t *testing.T) *AlertRepository {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set, skipping postgres-backed test")
	}

	db, err := ConnectPostgres(dsn, 5, 5)
	require.NoError(t, err)
	require.NoError(t, MigratePostgres(db.DB))
	t.Cleanup(func() {
		db.Exec("DELETE FROM alerts")
		db.Close()
	})
	return NewAlertRepository(db)
}

func TestAlertInsertAndStatusLifecycle(t *testing.T) {
	repo := setupPostgresTest(t)

	minB, maxB := 10.0, 90.0
	id, err := repo.Insert(&AlertRecord{
		TimestampUTC:    time.Now().UTC(),
		PacketRaw:       "RAW__TLM__SAT1__HEALTH_EPS",
		PacketMatched:   "HEALTH_EPS",
		QueueID:         3,
		Metric:          "Battery_Total_Voltage_V",
		Value:           3.2,
		MinBound:        &minB,
		MaxBound:        &maxB,
		Severity:        SeverityRed,
		SeverityPercent: 100,
		Reason:          "value below minimum bound",
	})
	require.NoError(t, err)

	got, err := repo.Get(id)
	require.NoError(t, err)
	require.Equal(t, StatusIdentified, got.Status)

	require.NoError(t, repo.SetStatus(id, StatusNotified))
	require.NoError(t, repo.SetStatus(id, StatusAck))
	require.NoError(t, repo.SetStatus(id, StatusResolved))

	err = repo.SetStatus(id, StatusNotified)
	require.Error(t, err)
}
