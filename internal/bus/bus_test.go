// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package bus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRawPacketSubject(t *testing.T) {
	require.Equal(t, "pkt.HEALTH_OBC", RawPacketSubject("HEALTH_OBC"))
}

func TestDeadLetterSubject(t *testing.T) {
	require.Equal(t, "pkt.HEALTH_OBC.dead", DeadLetterSubject(RawPacketSubject("HEALTH_OBC")))
}

func TestNewRejectsEmptyAddress(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestDecodedEnvelopeJSONShape(t *testing.T) {
	env := DecodedEnvelope{
		Meta: Meta{PacketName: "ADCS_CSS_VECTOR", TimestampUTC: time.Unix(1767948928, 0).UTC()},
		Data: []map[string]interface{}{
			{"Sun_Vector_Z": 16.367},
		},
	}

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	meta, ok := decoded["meta"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "ADCS_CSS_VECTOR", meta["packet_name"])

	data, ok := decoded["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
}

func TestRawEnvelopeJSONFieldNames(t *testing.T) {
	env := RawEnvelope{Packet: "HEALTH_OBC", BufferBase64: "AAA=", ReceivedTimeNs: 123}
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"__packet":"HEALTH_OBC"`)
	require.Contains(t, string(raw), `"buffer_base64":"AAA="`)
}
