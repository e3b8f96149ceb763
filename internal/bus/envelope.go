// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package bus

import "time"

// RawEnvelope is the wire shape of a raw packet record forwarded
// verbatim from the Telemetry Ingestor onto ExchangeTelemetryRaw.
type RawEnvelope struct {
	Packet         string `json:"__packet"`
	BufferBase64   string `json:"buffer_base64"`
	ReceivedTimeNs int64  `json:"received_time_ns"`
}

// Meta is the header of a decoded packet envelope.
type Meta struct {
	PacketName   string    `json:"packet_name"`
	TimestampUTC time.Time `json:"timestamp_utc"`
}

// DecodedEnvelope is the wire shape of a decoded packet published to
// ExchangeTelemetryDecoded; Data holds one flattened map per decoded
// row, in the order Decode produced them.
type DecodedEnvelope struct {
	Meta Meta                     `json:"meta"`
	Data []map[string]interface{} `json:"data"`
}

// DecoderNotFoundEvent is published to the inbound raw subject's
// dead-letter sibling (DeadLetterSubject, e.g. "pkt.HEALTH_X.dead")
// when no schema matches an inbound packet name (scenario S5). There
// is no separate decoder.not_found subject.
type DecoderNotFoundEvent struct {
	PacketName string `json:"packet_name"`
	HexPayload string `json:"hex_payload"`
	Error      string `json:"error"`
}

// DecoderFailedEvent is published to the same dead-letter sibling when
// the raw envelope cannot be parsed, or a schema was found but decoding
// raised InputError/SchemaError. There is no separate decoder.failed
// subject.
type DecoderFailedEvent struct {
	PacketName string `json:"packet_name"`
	HexPayload string `json:"hex_payload"`
	Error      string `json:"error"`
}

// AlertDetectedEvent is published to alert.detected by the Alert
// Builder (§4.8) when a metric crosses a configured threshold. Fields
// mirror internal/repository.AlertRecord minus the columns only the
// database assigns (id, status, engine_time).
type AlertDetectedEvent struct {
	TimestampUTC    time.Time `json:"timestamp_utc"`
	PacketRaw       string    `json:"packet_raw"`
	PacketMatched   string    `json:"packet_matched"`
	SubmoduleID     *int      `json:"submodule_id,omitempty"`
	SubmoduleName   *string   `json:"submodule_name,omitempty"`
	QueueID         int       `json:"queue_id"`
	Metric          string    `json:"metric"`
	Value           float64   `json:"value"`
	MinBound        *float64  `json:"min_bound,omitempty"`
	MaxBound        *float64  `json:"max_bound,omitempty"`
	Severity        string    `json:"severity"`
	SeverityPercent float64   `json:"severity_percent"`
	Reason          string    `json:"reason"`
}

// AlertNotifyEvent is published to alert.notify by the Alert Worker
// (§4.9) once it has persisted the detected alert and captured its
// database ID.
type AlertNotifyEvent struct {
	AlertDetectedEvent
	DBID int64 `json:"db_id"`
}
