// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package alertsvc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/groundlink/satcore/internal/bus"
	"github.com/groundlink/satcore/internal/repository"
	"github.com/groundlink/satcore/pkg/log"
)

const alertWorkerDurable = "q.alert.worker"

// Worker consumes detected alerts, persists them, and republishes each
// with its database ID for the Notifier to pick up (spec §4.9).
type Worker struct {
	Bus  *bus.Bus
	Repo *repository.AlertRepository
	log  *log.Logger
}

// NewWorker returns a Worker persisting alerts from b into repo.
func NewWorker(b *bus.Bus, repo *repository.AlertRepository) *Worker {
	return &Worker{Bus: b, Repo: repo, log: log.Component("alertsvc.worker")}
}

// Run subscribes the worker to alert.detected until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Bus.SubscribeQueue(ctx, bus.QueueAlertDetected, alertWorkerDurable, w.handle); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (w *Worker) handle(ctx context.Context, msg *bus.Message) error {
	var detected bus.AlertDetectedEvent
	if err := json.Unmarshal(msg.Data, &detected); err != nil {
		return fmt.Errorf("alertsvc: parse detected alert: %w", err)
	}

	record := &repository.AlertRecord{
		TimestampUTC:    detected.TimestampUTC,
		PacketRaw:       detected.PacketRaw,
		PacketMatched:   detected.PacketMatched,
		SubmoduleID:     detected.SubmoduleID,
		SubmoduleName:   detected.SubmoduleName,
		QueueID:         detected.QueueID,
		Metric:          detected.Metric,
		Value:           detected.Value,
		MinBound:        detected.MinBound,
		MaxBound:        detected.MaxBound,
		Severity:        detected.Severity,
		SeverityPercent: detected.SeverityPercent,
		Reason:          detected.Reason,
	}

	id, err := w.Repo.Insert(record)
	if err != nil {
		return fmt.Errorf("alertsvc: insert alert: %w", err)
	}

	notify := bus.AlertNotifyEvent{AlertDetectedEvent: detected, DBID: id}
	payload, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("alertsvc: marshal notify event for alert %d: %w", id, err)
	}
	if err := w.Bus.Publish(ctx, bus.QueueAlertNotify, payload); err != nil {
		return fmt.Errorf("alertsvc: publish notify event for alert %d: %w", id, err)
	}

	w.log.Infof("alert %d persisted (%s %s)", id, detected.Metric, detected.Severity)
	return nil
}
