// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package healthsvc implements the Health Consumer (C6): it subscribes
// to every raw packet on the bus, decodes the ones whose name names a
// health packet, and republishes the decoded rows for the DB Sink and
// Alert Builder to pick up.
package healthsvc

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/groundlink/satcore/internal/bus"
	"github.com/groundlink/satcore/internal/decoder"
	"github.com/groundlink/satcore/pkg/log"
)

const (
	rawSubjectWildcard = "pkt.>"
	durableName        = "q.health.consumer"
	packetNameMarker   = "HEALTH_"
)

// Consumer decodes HEALTH_* raw packets and republishes the results.
type Consumer struct {
	Bus      *bus.Bus
	Registry *decoder.Registry
	log      *log.Logger
}

// New returns a Consumer reading from b and resolving schemas from reg.
func New(b *bus.Bus, reg *decoder.Registry) *Consumer {
	return &Consumer{Bus: b, Registry: reg, log: log.Component("healthsvc")}
}

// Run subscribes the consumer to the raw packet stream until ctx is
// cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.Bus.SubscribeQueue(ctx, rawSubjectWildcard, durableName, c.handle); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

// outcome is the pure result of processing one raw packet: skip is set
// for packets this consumer ignores; otherwise exactly one of decoded
// or event is set, and handle publishes event (if any) to the inbound
// subject's dead-letter sibling.
type outcome struct {
	skip    bool
	decoded *bus.DecodedEnvelope
	event   interface{}
}

// process runs the pure decode pipeline (§4.6 steps 1-3) with no I/O,
// so it can be exercised without a live bus connection.
func process(reg *decoder.Registry, log *log.Logger, packetName string, data []byte) outcome {
	if !strings.Contains(packetName, packetNameMarker) {
		return outcome{skip: true}
	}

	var env bus.RawEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Errorf("malformed raw envelope for %q: %v", packetName, err)
		return outcome{event: bus.DecoderFailedEvent{
			PacketName: packetName,
			Error:      fmt.Sprintf("malformed raw envelope: %v", err),
		}}
	}

	raw, err := base64.StdEncoding.DecodeString(env.BufferBase64)
	if err != nil {
		log.Errorf("bad base64 buffer for %q: %v", packetName, err)
		return outcome{event: bus.DecoderFailedEvent{
			PacketName: packetName,
			Error:      fmt.Sprintf("bad base64 buffer: %v", err),
		}}
	}
	hexPayload := hex.EncodeToString(raw)

	schemaName := strings.TrimPrefix(stripRawTLMPrefix(packetName), packetNameMarker)
	schema, ok := reg.Lookup(schemaName)
	if !ok {
		log.Warnf("no schema registered for %q", schemaName)
		return outcome{event: bus.DecoderNotFoundEvent{
			PacketName: packetName,
			HexPayload: hexPayload,
			Error:      fmt.Sprintf("no schema registered for %q", schemaName),
		}}
	}

	rows, warnings, err := decoder.DecodeHex(schema, reg.Mappings(), hexPayload)
	if err != nil {
		log.Errorf("decode failed for %q: %v", packetName, err)
		return outcome{event: bus.DecoderFailedEvent{
			PacketName: packetName,
			HexPayload: hexPayload,
			Error:      err.Error(),
		}}
	}
	for _, w := range warnings {
		log.Warnf("decode warning for %q instance %d: %s", packetName, w.Instance, w.Message)
	}

	rowData := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		rowData = append(rowData, row.Map())
	}

	timestamp := time.UnixMilli(env.ReceivedTimeNs / int64(time.Millisecond)).UTC()
	return outcome{decoded: &bus.DecodedEnvelope{
		Meta: bus.Meta{PacketName: packetName, TimestampUTC: timestamp},
		Data: rowData,
	}}
}

// handle decodes one raw packet message; per spec §4.6 the input is
// always acked (Bus does this regardless of the error this returns),
// so decode failures are routed to a dead-letter subject here rather
// than propagated as a retryable error.
func (c *Consumer) handle(ctx context.Context, msg *bus.Message) error {
	// pkt.> also matches the dead-letter siblings published below; they
	// are acked without decoding so each failure is recorded once.
	if strings.HasSuffix(msg.Subject, ".dead") {
		return nil
	}
	packetName := strings.TrimPrefix(msg.Subject, "pkt.")
	result := process(c.Registry, c.log, packetName, msg.Data)

	switch {
	case result.skip:
		return nil
	case result.event != nil:
		return c.publishEvent(ctx, bus.DeadLetterSubject(msg.Subject), result.event)
	default:
		payload, err := json.Marshal(result.decoded)
		if err != nil {
			return fmt.Errorf("healthsvc: marshal decoded envelope: %w", err)
		}
		if err := c.Bus.PublishDecoded(ctx, packetName, payload); err != nil {
			return fmt.Errorf("healthsvc: publish decoded %q: %w", packetName, err)
		}
		return nil
	}
}

// stripRawTLMPrefix removes the "RAW__TLM__<TARGET>__" prefix spec §4.6
// names, if present; schema names in the registry are the bare tail.
func stripRawTLMPrefix(packetName string) string {
	const marker = "__"
	if !strings.HasPrefix(packetName, "RAW__TLM__") {
		return packetName
	}
	rest := strings.TrimPrefix(packetName, "RAW__TLM__")
	idx := strings.Index(rest, marker)
	if idx < 0 {
		return rest
	}
	return rest[idx+len(marker):]
}

func (c *Consumer) publishEvent(ctx context.Context, subject string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("healthsvc: marshal event for %q: %w", subject, err)
	}
	if err := c.Bus.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("healthsvc: publish event to %q: %w", subject, err)
	}
	return nil
}
