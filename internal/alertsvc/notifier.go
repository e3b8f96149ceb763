// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package alertsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/groundlink/satcore/internal/bus"
	"github.com/groundlink/satcore/internal/config"
	"github.com/groundlink/satcore/internal/repository"
	"github.com/groundlink/satcore/pkg/log"
	"github.com/groundlink/satcore/pkg/retry"
)

const notifierDurable = "q.alert.notifier"

// renderMessage builds the plaintext notification body for a notified
// alert, grounded in the original notifier's email layout.
func renderMessage(n bus.AlertNotifyEvent) string {
	submodule := "-"
	if n.SubmoduleName != nil {
		submodule = *n.SubmoduleName
	}
	submoduleID := "-"
	if n.SubmoduleID != nil {
		submoduleID = fmt.Sprintf("%d", *n.SubmoduleID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ALERT DETECTED\n")
	fmt.Fprintf(&b, "-----------------------------------------\n")
	fmt.Fprintf(&b, "Severity       : %s\n", n.Severity)
	fmt.Fprintf(&b, "Metric         : %s\n", n.Metric)
	fmt.Fprintf(&b, "Value          : %v\n", n.Value)
	fmt.Fprintf(&b, "Submodule      : %s (ID: %s)\n", submodule, submoduleID)
	fmt.Fprintf(&b, "Min Limit      : %s\n", boundString(n.MinBound))
	fmt.Fprintf(&b, "Max Limit      : %s\n", boundString(n.MaxBound))
	fmt.Fprintf(&b, "Reason         : %s\n", n.Reason)
	fmt.Fprintf(&b, "Timestamp      : %s\n", n.TimestampUTC.Format(time.RFC3339))
	fmt.Fprintf(&b, "Packet (raw)   : %s\n", n.PacketRaw)
	fmt.Fprintf(&b, "Packet (match) : %s\n", n.PacketMatched)
	fmt.Fprintf(&b, "Alert ID       : %d\n", n.DBID)
	fmt.Fprintf(&b, "-----------------------------------------\n")
	return b.String()
}

func subjectLine(n bus.AlertNotifyEvent) string {
	return fmt.Sprintf("[ALERT] %s - %s", n.Severity, n.Metric)
}

// Notifier consumes notify events, delivers a message, and marks the
// alert notified once delivery succeeds (spec §4.9).
type Notifier struct {
	Bus  *bus.Bus
	Repo *repository.AlertRepository
	Cfg  config.NotifierConfig
	log  *log.Logger

	// send is overridable in tests; defaults to smtpSend.
	send func(cfg config.NotifierConfig, subject, body string) error
}

// NewNotifier returns a Notifier delivering via cfg (SMTP, or mock
// logging when cfg.Mock is set).
func NewNotifier(b *bus.Bus, repo *repository.AlertRepository, cfg config.NotifierConfig) *Notifier {
	return &Notifier{Bus: b, Repo: repo, Cfg: cfg, log: log.Component("alertsvc.notifier"), send: smtpSend}
}

// Run subscribes the notifier to alert.notify until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	if err := n.Bus.SubscribeQueue(ctx, bus.QueueAlertNotify, notifierDurable, n.handle); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (n *Notifier) handle(_ context.Context, msg *bus.Message) error {
	var event bus.AlertNotifyEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return fmt.Errorf("alertsvc: parse notify event: %w", err)
	}

	subject := subjectLine(event)
	body := renderMessage(event)

	if n.Cfg.Mock {
		n.log.Infof("(mock email) %s: %s", subject, strings.ReplaceAll(body, "\n", " | "))
	} else {
		// A single in-process retry on transient send failures (spec
		// §4.9); ctx is not wired into retry.Do's sleep here since the
		// bus handler context is request-scoped per message, not the
		// process lifetime.
		err := retry.Do(context.Background(), func(attempt int) (bool, error) {
			return attempt < 2, n.send(n.Cfg, subject, body)
		}, 2, time.Second, 0.2)
		if err != nil {
			return fmt.Errorf("alertsvc: send notification for alert %d: %w", event.DBID, err)
		}
	}

	if err := n.Repo.SetStatus(event.DBID, repository.StatusNotified); err != nil {
		return fmt.Errorf("alertsvc: mark alert %d notified: %w", event.DBID, err)
	}

	n.log.Infof("alert %d notified (%s %s)", event.DBID, event.Metric, event.Severity)
	return nil
}

// smtpSend sends body as a plaintext email via cfg.SMTPAddr, with no
// authentication beyond what the relay itself requires at the network
// level (spec's external interfaces section names no SMTP credentials
// for this component).
func smtpSend(cfg config.NotifierConfig, subject, body string) error {
	msg := fmt.Sprintf("Subject: %s\r\nFrom: %s\r\nTo: %s\r\n\r\n%s", subject, cfg.From, strings.Join(cfg.To, ", "), body)
	return smtp.SendMail(cfg.SMTPAddr, nil, cfg.From, cfg.To, []byte(msg))
}
