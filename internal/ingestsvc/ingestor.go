// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ingestsvc implements the Telemetry Ingestor (C4): it
// subscribes to the upstream streaming telemetry source over
// WebSocket and forwards every raw packet record verbatim onto the
// bus, keyed by packet name.
package ingestsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/groundlink/satcore/internal/bus"
	"github.com/groundlink/satcore/internal/config"
	"github.com/groundlink/satcore/pkg/log"
	"github.com/groundlink/satcore/pkg/retry"
)

// reconnectDelay is the fixed backoff §4.4 specifies ("Reconnects with
// 5s backoff on any failure"). Run waits this long between connection
// attempts in its own loop, without pkg/retry, so the delay never
// grows and attempts never run out.
const reconnectDelay = 5 * time.Second

// upstreamRecord extracts just enough of one upstream record to route
// it; the full original bytes (not this struct) are what gets
// forwarded, so any other fields the upstream attaches pass through
// untouched.
type upstreamRecord struct {
	Packet string `json:"__packet"`
	Buffer string `json:"buffer"`
}

// Ingestor subscribes to the upstream WebSocket telemetry source and
// republishes every record onto bus.ExchangeTelemetryRaw.
type Ingestor struct {
	Bus *bus.Bus
	cfg config.UpstreamConfig
	log *log.Logger
}

// New constructs an Ingestor for the given upstream configuration.
func New(b *bus.Bus, cfg config.UpstreamConfig) *Ingestor {
	return &Ingestor{Bus: b, cfg: cfg, log: log.Component("ingestor")}
}

// Run connects to the upstream source and forwards records until ctx
// is cancelled, reconnecting with a 5s backoff on any read/dial
// failure (§4.4).
func (in *Ingestor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := in.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			in.log.Warnf("connection lost: %v, reconnecting in %s", err, reconnectDelay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// runOnce dials the upstream source once and reads until the
// connection fails or ctx is cancelled.
func (in *Ingestor) runOnce(ctx context.Context) error {
	u := in.dialURL()

	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("ingestsvc: dial %s: %w", u.Host, err)
	}
	defer conn.Close()

	in.log.Infof("connected to %s", u.Host)

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		conn.Close()
		close(done)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				return ctx.Err()
			default:
			}
			return fmt.Errorf("ingestsvc: read: %w", err)
		}

		if err := in.handleRecord(ctx, data); err != nil {
			in.log.Errorf("forwarding record failed: %v", err)
		}
	}
}

// handleRecord forwards one record verbatim to telemetry.raw, keyed
// by its __packet field.
func (in *Ingestor) handleRecord(ctx context.Context, data []byte) error {
	var rec upstreamRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if rec.Packet == "" {
		return fmt.Errorf("record missing __packet field")
	}

	return retry.Do(ctx, func(attempt int) (bool, error) {
		err := in.Bus.PublishRaw(ctx, rec.Packet, data)
		return err != nil, err
	}, 3, time.Second, 0.2)
}

// dialURL builds the upstream WebSocket URL from host/port/scope plus
// the packet and item subscription lists and the access password
// (§6 "Required environment: API host, port, scope, password").
func (in *Ingestor) dialURL() *url.URL {
	q := url.Values{}
	q.Set("scope", in.cfg.Scope)
	q.Set("password", in.cfg.Password)
	for _, p := range in.cfg.Packets {
		q.Add("packet", p)
	}
	for _, item := range in.cfg.Items {
		q.Add("item", item)
	}

	return &url.URL{
		Scheme:   "wss",
		Host:     fmt.Sprintf("%s:%d", in.cfg.Host, in.cfg.Port),
		Path:     "/telemetry",
		RawQuery: q.Encode(),
	}
}
