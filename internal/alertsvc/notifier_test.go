// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package alertsvc

import (
	"strings"
	"testing"
	"time"

	"github.com/groundlink/satcore/internal/bus"
)

func sampleNotifyEvent() bus.AlertNotifyEvent {
	min, max := 10.0, 90.0
	id := 3
	name := "EPS"
	return bus.AlertNotifyEvent{
		AlertDetectedEvent: bus.AlertDetectedEvent{
			TimestampUTC:    time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC),
			PacketRaw:       "RAW__TLM__OBC__HEALTH_EPS",
			PacketMatched:   "EPS",
			SubmoduleID:     &id,
			SubmoduleName:   &name,
			QueueID:         7,
			Metric:          "bus_voltage",
			Value:           95.5,
			MinBound:        &min,
			MaxBound:        &max,
			Severity:        "RED",
			SeverityPercent: 100,
			Reason:          "bus_voltage value 95.5 outside bound [10, 90]",
		},
		DBID: 42,
	}
}

func TestRenderMessageIncludesAllLabeledFields(t *testing.T) {
	body := renderMessage(sampleNotifyEvent())

	for _, want := range []string{
		"Severity       : RED",
		"Metric         : bus_voltage",
		"Value          : 95.5",
		"Submodule      : EPS (ID: 3)",
		"Min Limit      : 10",
		"Max Limit      : 90",
		"Reason         : bus_voltage value 95.5 outside bound [10, 90]",
		"Packet (raw)   : RAW__TLM__OBC__HEALTH_EPS",
		"Packet (match) : EPS",
		"Alert ID       : 42",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("renderMessage output missing %q, got:\n%s", want, body)
		}
	}
}

func TestRenderMessageHandlesMissingSubmodule(t *testing.T) {
	event := sampleNotifyEvent()
	event.SubmoduleID = nil
	event.SubmoduleName = nil

	body := renderMessage(event)
	if !strings.Contains(body, "Submodule      : - (ID: -)") {
		t.Errorf("expected placeholder submodule fields, got:\n%s", body)
	}
}

func TestSubjectLineNamesSeverityAndMetric(t *testing.T) {
	got := subjectLine(sampleNotifyEvent())
	want := "[ALERT] RED - bus_voltage"
	if got != want {
		t.Errorf("subjectLine() = %q, want %q", got, want)
	}
}

