// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsMinimalDocument(t *testing.T) {
	doc := `{"log-level":"info","bus":{"address":"nats://localhost:4222"}}`
	require.NoError(t, Validate(strings.NewReader(doc)))
}

func TestValidateRejectsWrongType(t *testing.T) {
	doc := `{"bus":{"address":123}}`
	require.Error(t, Validate(strings.NewReader(doc)))
}

func TestInitMissingFileKeepsDefaults(t *testing.T) {
	Keys = ProgramConfig{Bus: BusConfig{Address: "nats://localhost:4222"}}
	require.NoError(t, Init("/nonexistent/satcore-config.json"))
	require.Equal(t, "nats://localhost:4222", Keys.Bus.Address)
}

func TestOverlayEnvPrefersRABBITMQURLForBusAddress(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "nats://broker.example:4222")
	c := ProgramConfig{Bus: BusConfig{Address: "nats://localhost:4222"}}
	overlayEnv(&c)
	require.Equal(t, "nats://broker.example:4222", c.Bus.Address)
}

func TestAlertConfigByQueueID(t *testing.T) {
	c := AlertConfig{Packets: []AlertPacketConfig{
		{QueueID: 6, PacketName: "ADCS_CURRENT_STATE"},
		{QueueID: 7, PacketName: "ADCS_CSS_VECTOR"},
	}}
	idx := c.ByQueueID()
	require.Len(t, idx, 2)
	require.Equal(t, "ADCS_CSS_VECTOR", idx[7].PacketName)
}
