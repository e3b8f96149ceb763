// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingestsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/groundlink/satcore/internal/config"
)

func TestDialURLIncludesScopePasswordAndSubscriptions(t *testing.T) {
	in := New(nil, config.UpstreamConfig{
		Host: "telemetry.example", Port: 8443, Scope: "mission-1", Password: "secret",
		Packets: []string{"HEALTH_OBC", "HEALTH_EPS"}, Items: []string{"SAT1"},
	})

	u := in.dialURL()
	require.Equal(t, "wss", u.Scheme)
	require.Equal(t, "telemetry.example:8443", u.Host)
	require.Contains(t, u.RawQuery, "scope=mission-1")
	require.Contains(t, u.RawQuery, "password=secret")
	require.Contains(t, u.RawQuery, "packet=HEALTH_OBC")
	require.Contains(t, u.RawQuery, "packet=HEALTH_EPS")
	require.Contains(t, u.RawQuery, "item=SAT1")
}

func TestHandleRecordRejectsMissingPacketName(t *testing.T) {
	in := New(nil, config.UpstreamConfig{})
	err := in.handleRecord(context.Background(), []byte(`{"buffer":"AAA="}`))
	require.Error(t, err)
}

func TestHandleRecordRejectsMalformedJSON(t *testing.T) {
	in := New(nil, config.UpstreamConfig{})
	err := in.handleRecord(context.Background(), []byte(`not json`))
	require.Error(t, err)
}
