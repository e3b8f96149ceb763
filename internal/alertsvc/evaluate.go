// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package alertsvc implements the Alert Builder, Alert Worker, and
// Notifier (C8/C9): threshold evaluation over decoded rows, persisting
// detected alerts, and delivering a notification for each one.
package alertsvc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/groundlink/satcore/internal/bus"
	"github.com/groundlink/satcore/internal/config"
)

// asFloat converts a decoded scalar to float64, accepting every shape
// the bus's JSON round trip can produce (plain float64 from a default
// json.Unmarshal, or json.Number if the caller opted into UseNumber).
func asFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case int64:
		return float64(val), true
	default:
		return 0, false
	}
}

// asInt converts a decoded scalar to int, for Queue_ID/Submodule_ID
// fields.
func asInt(v interface{}) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// evaluateMetric applies spec §4.8's threshold rule to one metric
// value against its configured bound and the effective severity
// thresholds (per-packet overriding global), returning nil (no alert)
// when the percent of band used is below the yellow threshold, or when
// an in-bounds value has a one-sided or degenerate bound.
func evaluateMetric(metric string, v float64, bound config.MetricBound, th config.SeverityThresholds) *bus.AlertDetectedEvent {
	min, max := bound.Min, bound.Max

	if (min != nil && v < *min) || (max != nil && v > *max) {
		return &bus.AlertDetectedEvent{
			Metric:          metric,
			Value:           v,
			MinBound:        min,
			MaxBound:        max,
			Severity:        "RED",
			SeverityPercent: 100,
			Reason:          fmt.Sprintf("%s value %v outside bound [%v, %v]", metric, v, boundString(min), boundString(max)),
		}
	}

	if min == nil || max == nil || *max == *min {
		// Without both bounds the "distance from center" computation
		// is undefined; a one-sided or degenerate bound can only ever
		// trigger the RED out-of-bounds branch above.
		return nil
	}

	distance := minFloat(v-*min, *max-v)
	rng := *max - *min
	percentUsed := 100 * (1 - distance/rng)

	severity := ""
	switch {
	case percentUsed >= th.RedPercent:
		severity = "RED"
	case percentUsed >= th.AmberPercent:
		severity = "AMBER"
	case percentUsed >= th.YellowPercent:
		severity = "YELLOW"
	default:
		return nil
	}

	return &bus.AlertDetectedEvent{
		Metric:          metric,
		Value:           v,
		MinBound:        min,
		MaxBound:        max,
		Severity:        severity,
		SeverityPercent: percentUsed,
		Reason:          fmt.Sprintf("%s at %.1f%% of band [%v, %v]", metric, percentUsed, boundString(min), boundString(max)),
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func boundString(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

// evaluateRow runs every configured metric in packetCfg against one
// decoded row and returns the alerts it crosses a threshold for.
func evaluateRow(row map[string]interface{}, packetCfg config.AlertPacketConfig, cfg config.AlertConfig, packetName string, timestamp time.Time) []bus.AlertDetectedEvent {
	th := cfg.Thresholds
	if packetCfg.Thresholds != nil {
		th = *packetCfg.Thresholds
	}

	var submoduleID *int
	var submoduleName *string
	if raw, ok := row["Submodule_ID"]; ok {
		if id, ok := asInt(raw); ok {
			submoduleID = &id
			if name, ok := cfg.Submodules[strconv.Itoa(id)]; ok {
				submoduleName = &name
			}
		}
	}

	var out []bus.AlertDetectedEvent
	for metric, bound := range packetCfg.Metrics {
		raw, ok := row[metric]
		if !ok {
			continue
		}
		v, ok := asFloat(raw)
		if !ok {
			continue
		}

		alert := evaluateMetric(metric, v, bound, th)
		if alert == nil {
			continue
		}
		alert.TimestampUTC = timestamp
		alert.PacketRaw = packetName
		alert.PacketMatched = packetCfg.PacketName
		alert.QueueID = packetCfg.QueueID
		alert.SubmoduleID = submoduleID
		alert.SubmoduleName = submoduleName
		out = append(out, *alert)
	}
	return out
}

// evaluateEnvelope runs every row of a decoded envelope against the
// packet config matching its Queue_ID, per spec §4.8 "for each decoded
// instance row with known Queue_ID".
func evaluateEnvelope(env bus.DecodedEnvelope, byQueue map[int]config.AlertPacketConfig, cfg config.AlertConfig) []bus.AlertDetectedEvent {
	var out []bus.AlertDetectedEvent
	for _, row := range env.Data {
		qidRaw, ok := row["Queue_ID"]
		if !ok {
			continue
		}
		qid, ok := asInt(qidRaw)
		if !ok {
			continue
		}
		packetCfg, ok := byQueue[qid]
		if !ok {
			continue
		}
		out = append(out, evaluateRow(row, packetCfg, cfg, env.Meta.PacketName, env.Meta.TimestampUTC)...)
	}
	return out
}
