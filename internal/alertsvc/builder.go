// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package alertsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/groundlink/satcore/internal/bus"
	"github.com/groundlink/satcore/internal/config"
	"github.com/groundlink/satcore/pkg/log"
)

const decodedSubjectWildcard = "decoded.>"

// Builder evaluates every decoded row against the configured metric
// thresholds and publishes an AlertDetectedEvent for each crossing
// (spec §4.8).
type Builder struct {
	Bus     *bus.Bus
	Cfg     config.AlertConfig
	byQueue map[int]config.AlertPacketConfig
	log     *log.Logger
}

// NewBuilder returns a Builder reading decoded envelopes from b and
// evaluating them against cfg.
func NewBuilder(b *bus.Bus, cfg config.AlertConfig) *Builder {
	return &Builder{Bus: b, Cfg: cfg, byQueue: cfg.ByQueueID(), log: log.Component("alertsvc.builder")}
}

// Run subscribes the builder to the decoded exchange until ctx is
// cancelled.
func (b *Builder) Run(ctx context.Context) error {
	if err := b.Bus.SubscribeQueue(ctx, decodedSubjectWildcard, bus.QueueDecodedAlerts, b.handle); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (b *Builder) handle(ctx context.Context, msg *bus.Message) error {
	dec := json.NewDecoder(bytes.NewReader(msg.Data))
	dec.UseNumber()

	var env bus.DecodedEnvelope
	if err := dec.Decode(&env); err != nil {
		return fmt.Errorf("alertsvc: parse decoded envelope on %q: %w", msg.Subject, err)
	}

	alerts := evaluateEnvelope(env, b.byQueue, b.Cfg)
	for _, alert := range alerts {
		payload, err := json.Marshal(alert)
		if err != nil {
			return fmt.Errorf("alertsvc: marshal alert for %q: %w", env.Meta.PacketName, err)
		}
		if err := b.Bus.Publish(ctx, bus.QueueAlertDetected, payload); err != nil {
			return fmt.Errorf("alertsvc: publish alert for %q: %w", env.Meta.PacketName, err)
		}
		b.log.Infof("alert detected: %s %s severity=%s (%.1f%%)", env.Meta.PacketName, alert.Metric, alert.Severity, alert.SeverityPercent)
	}
	return nil
}
