// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package bridgesvc

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/groundlink/satcore/internal/codec"
	"github.com/groundlink/satcore/internal/repository"
)

// uplinkEnvelope is the JSON wrapper published to broker B (§4.5).
type uplinkEnvelope struct {
	Message string `json:"message"`
}

// handleUplink implements the A->B routing rule: encrypt the command
// frame and forward it to B wrapped in {"message": base64}. Returns
// the bytes published to B and the hex display text logged for the
// inbound RX side, so the caller can log both legs.
func handleUplink(c *codec.Codec, payload []byte) (wireOut []byte, rawHex string, err error) {
	rawHex = hex.EncodeToString(payload)

	encrypted, err := c.Encrypt(payload)
	if err != nil {
		return nil, rawHex, fmt.Errorf("bridgesvc: encrypt uplink frame: %w", err)
	}

	env := uplinkEnvelope{Message: base64.StdEncoding.EncodeToString(encrypted)}
	wireOut, err = json.Marshal(env)
	if err != nil {
		return nil, rawHex, fmt.Errorf("bridgesvc: marshal uplink envelope: %w", err)
	}
	return wireOut, rawHex, nil
}

// handleDownlink implements the B->A routing rule: parse the JSON
// envelope, base64-decode, decrypt, and return the plaintext frame to
// publish to A. A parse or decrypt failure is returned as an error;
// the caller still logs the inbound message but drops the A-side
// publish (§4.5 "Failure semantics").
func handleDownlink(c *codec.Codec, payload []byte) (plaintext []byte, err error) {
	var env uplinkEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("bridgesvc: parse downlink envelope: %w", err)
	}

	encrypted, err := base64.StdEncoding.DecodeString(env.Message)
	if err != nil {
		return nil, fmt.Errorf("bridgesvc: base64 decode downlink message: %w", err)
	}

	plaintext, err = c.Decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("bridgesvc: decrypt downlink frame: %w", err)
	}
	return plaintext, nil
}

// logEntry builds a repository.BridgeMessage for one logged leg of a
// routed message.
func logEntry(stationID, direction, topic, displayText string, raw []byte) *repository.BridgeMessage {
	return &repository.BridgeMessage{
		Direction:   direction,
		Bytes:       len(raw),
		RawBlob:     raw,
		DisplayText: displayText,
		StationID:   stationID,
		MQTTTopic:   topic,
	}
}
