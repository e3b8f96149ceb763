// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package bridgesvc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountersRecordAccumulatesPerStationTopic(t *testing.T) {
	c := NewCounters()
	c.Record("st1", "cosmos/command", 10)
	c.Record("st1", "cosmos/command", 5)
	c.Record("st1", "SatOS/uplink", 20)
	c.Record("st2", "cosmos/command", 1)

	snap := c.Snapshot()
	require.Len(t, snap, 3)

	byKey := make(map[string]Snapshot, len(snap))
	for _, s := range snap {
		byKey[s.Station+"|"+s.Topic] = s
	}

	require.Equal(t, int64(2), byKey["st1|cosmos/command"].Messages)
	require.Equal(t, int64(15), byKey["st1|cosmos/command"].Bytes)
	require.Equal(t, int64(1), byKey["st1|SatOS/uplink"].Messages)
	require.Equal(t, int64(1), byKey["st2|cosmos/command"].Messages)
}
