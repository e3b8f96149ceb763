// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package bridgesvc

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/groundlink/satcore/internal/codec"
)

// buildFrame assembles a minimal well-formed frame around payload,
// mirroring internal/codec's own test fixture (offsets copied from its
// wire layout since they're unexported outside that package).
func buildFrame(payload []byte) []byte {
	const (
		offCSP       = 0
		offSOF1      = 4
		offSOF2      = 5
		offCTRL      = 6
		offTimestamp = 7
		offSeq       = 11
		offSatID     = 13
		offGndID     = 14
		offQOS       = 15
		offSAID      = 16
		offDAID      = 17
		offRMID      = 18
		offTCTMID    = 19
		offExtHdrLen = 21
		offExtHdrDat = 22
		offCOID      = 23
		offLen       = 25
		offPayload   = 27
		crcLen       = 1
		authLen      = 32
		eofLen       = 1
	)

	buf := make([]byte, offPayload+len(payload)+crcLen+authLen+eofLen)
	copy(buf[offCSP:], []byte{0x98, 0xBA, 0x76, 0x00})
	buf[offSOF1] = 0xAA
	buf[offSOF2] = 0xBB
	buf[offCTRL] = 0x01
	copy(buf[offTimestamp:], []byte{0x00, 0xDF, 0xC2, 0x69})
	buf[offSeq] = 0x00
	buf[offSeq+1] = 0x03
	buf[offSatID] = 0x05
	buf[offGndID] = 0x01
	buf[offQOS] = 0x00
	buf[offSAID] = 0x02
	buf[offDAID] = 0x03
	buf[offRMID] = 0x00
	buf[offTCTMID] = 0x00
	buf[offTCTMID+1] = 0x10
	buf[offExtHdrLen] = 0x01
	buf[offExtHdrDat] = 0x00
	buf[offCOID] = 0x00
	buf[offCOID+1] = 0x00
	buf[offLen] = byte(len(payload))
	buf[offLen+1] = byte(len(payload) >> 8)
	copy(buf[offPayload:], payload)
	crcOff := offPayload + len(payload)
	buf[crcOff] = 0x00
	authOff := crcOff + crcLen
	for i := 0; i < authLen; i++ {
		buf[authOff+i] = 0xEE
	}
	buf[authOff+authLen] = 0x7E
	return buf
}

func testCodec() *codec.Codec {
	var keys codec.Keys
	for i := range keys.K0 {
		keys.K0[i] = byte(i)
	}
	for i := range keys.K1 {
		keys.K1[i] = byte(255 - i)
	}
	return codec.New(keys)
}

func TestHandleUplinkWrapsEncryptedFrameInJSONEnvelope(t *testing.T) {
	c := testCodec()
	frame := buildFrame([]byte{0x01, 0x02, 0x03, 0x04})

	wireOut, rawHex, err := handleUplink(c, frame)
	require.NoError(t, err)
	require.Equal(t, "98ba7600aabb0100", rawHex[:16])

	var env uplinkEnvelope
	require.NoError(t, json.Unmarshal(wireOut, &env))

	decoded, err := base64.StdEncoding.DecodeString(env.Message)
	require.NoError(t, err)
	require.Len(t, decoded, len(frame))
	require.NotEqual(t, frame, decoded, "payload region must be encrypted")
}

func TestHandleUplinkThenHandleDownlinkRoundTrips(t *testing.T) {
	c := testCodec()
	frame := buildFrame([]byte{0xAA, 0xBB, 0xCC, 0xDD})

	wireOut, _, err := handleUplink(c, frame)
	require.NoError(t, err)

	plaintext, err := handleDownlink(c, wireOut)
	require.NoError(t, err)
	require.Equal(t, frame, plaintext)
}

func TestHandleDownlinkRejectsMalformedJSON(t *testing.T) {
	c := testCodec()
	_, err := handleDownlink(c, []byte("not json"))
	require.Error(t, err)
}

func TestHandleDownlinkRejectsBadBase64(t *testing.T) {
	c := testCodec()
	body, err := json.Marshal(uplinkEnvelope{Message: "not-base64!!"})
	require.NoError(t, err)

	_, err = handleDownlink(c, body)
	require.Error(t, err)
}

func TestLogEntryFieldsMatchInputs(t *testing.T) {
	e := logEntry("st1", "AtoB", "cosmos/command", "deadbeef", []byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.Equal(t, "st1", e.StationID)
	require.Equal(t, "AtoB", e.Direction)
	require.Equal(t, "cosmos/command", e.MQTTTopic)
	require.Equal(t, 4, e.Bytes)
	require.Equal(t, "deadbeef", e.DisplayText)
}
