// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bus wraps NATS JetStream as the durable topic exchange
// described by the system's messaging contracts: persistent messages,
// manual acknowledgement with an effective prefetch of one, and a
// sibling dead-letter subject for any message a consumer could not
// process.
//
// # Configuration
//
//	{
//	  "bus": {
//	    "address": "nats://localhost:4222",
//	    "username": "user",
//	    "password": "secret"
//	  }
//	}
//
// The connection string is read from the RABBITMQ_URL environment
// variable for compatibility with the deployment tooling that predates
// this implementation (see internal/config); it addresses a NATS
// server, not a RabbitMQ broker.
//
// # Usage
//
//	b, err := bus.New(cfg)
//	...
//	err = b.PublishRaw(ctx, "HEALTH_OBC", payload)
//	...
//	err = b.SubscribeQueue(ctx, "pkt.HEALTH_OBC", "q.health.consumer", func(ctx context.Context, m *Message) error {
//	    return process(m.Data)
//	})
package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/groundlink/satcore/pkg/log"
)

// Exchange and queue names, per the messaging contracts.
const (
	ExchangeTelemetryRaw     = "telemetry.raw"
	ExchangeTelemetryDecoded = "telemetry.decoded"

	QueueDecodedDBPersistence = "q.decoded.db_persistence"
	QueueDecodedAlerts        = "q.decoded.alerts"
	QueueAlertDetected        = "alert.detected"
	QueueAlertNotify          = "alert.notify"
)

// RawPacketSubject returns the routing key a raw packet with the given
// name is published under, e.g. "pkt.HEALTH_OBC".
func RawPacketSubject(packetName string) string { return "pkt." + packetName }

// DeadLetterSubject returns the sibling dead-letter subject for a
// failed subject, e.g. "pkt.HEALTH_OBC" -> "pkt.HEALTH_OBC.dead".
func DeadLetterSubject(subject string) string { return subject + ".dead" }

// Config configures the underlying NATS connection and JetStream
// stream retention.
type Config struct {
	Address       string
	Username      string
	Password      string
	CredsFilePath string
	// MaxAge bounds how long an unconsumed message is retained by a
	// stream before JetStream drops it.
	MaxAge time.Duration
}

// Message is one delivered bus message. It carries no ack controls:
// SubscribeQueue acks every message once the handler returns, whatever
// the handler returned.
type Message struct {
	Subject string
	Data    []byte
}

// Bus wraps a JetStream-backed NATS connection. It holds no process-
// wide singleton state; callers construct one per process and pass it
// into the components that need it.
type Bus struct {
	conn *nats.Conn
	js   nats.JetStreamContext

	mu   sync.Mutex
	subs []*nats.Subscription

	maxAge time.Duration
}

// New connects to the configured NATS server, enables JetStream, and
// ensures the durable streams this system depends on exist.
func New(cfg Config) (*Bus, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("bus: address is required")
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("bus: disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("bus: reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := "?"
			if sub != nil {
				subject = sub.Subject
			}
			log.Errorf("bus: async error on %q: %v", subject, err)
		}),
	)

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("bus: connect failed: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("bus: JetStream context failed: %w", err)
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	b := &Bus{conn: nc, js: js, maxAge: maxAge}

	for _, stream := range []struct {
		name     string
		subjects []string
	}{
		{name: "TELEMETRY_RAW", subjects: []string{"pkt.>"}},
		{name: "TELEMETRY_DECODED", subjects: []string{"decoded.>"}},
		{name: "ALERTS", subjects: []string{"alert.>"}},
	} {
		if err := b.ensureStream(stream.name, stream.subjects); err != nil {
			nc.Close()
			return nil, err
		}
	}

	log.Infof("bus: connected to %s", cfg.Address)
	return b, nil
}

// ensureStream creates the named JetStream stream if it doesn't
// already exist; idempotent, like the teacher's dbConnection.go
// treats schema migration as safe to run on every startup.
func (b *Bus) ensureStream(name string, subjects []string) error {
	_, err := b.js.StreamInfo(name)
	if err == nil {
		return nil
	}
	_, err = b.js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  subjects,
		Retention: nats.LimitsPolicy,
		Storage:   nats.FileStorage,
		MaxAge:    b.maxAge,
	})
	if err != nil {
		return fmt.Errorf("bus: creating stream %q: %w", name, err)
	}
	return nil
}

// Publish sends a persistent (JetStream-acknowledged) message on
// subject.
func (b *Bus) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := b.js.Publish(subject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("bus: publish to %q failed: %w", subject, err)
	}
	return nil
}

// PublishRaw publishes a raw packet envelope with routing key
// "pkt.<packetName>" (spec §4.4).
func (b *Bus) PublishRaw(ctx context.Context, packetName string, data []byte) error {
	return b.Publish(ctx, RawPacketSubject(packetName), data)
}

// PublishDecoded publishes a decoded envelope with routing key
// "decoded.<packetName>"; both DB Sink and Alert Builder bind wildcard
// queues to this exchange.
func (b *Bus) PublishDecoded(ctx context.Context, packetName string, data []byte) error {
	return b.Publish(ctx, "decoded."+packetName, data)
}

// PublishDeadLetter records a processing failure on subject's sibling
// dead-letter subject; the original message is still acked by the
// caller so no poison-message loop forms (spec §4.3 "Contracts").
func (b *Bus) PublishDeadLetter(ctx context.Context, subject string, data []byte) error {
	return b.Publish(ctx, DeadLetterSubject(subject), data)
}

// Handler processes one delivered message. A non-nil error still
// results in the message being acked (per spec §4.3: "on exception the
// message is acked to avoid poison loops"); the caller is responsible
// for routing the failure to a dead-letter subject itself.
type Handler func(ctx context.Context, msg *Message) error

// SubscribeQueue binds a durable, queue-grouped consumer to subject
// with manual ack and MaxAckPending(1) — the JetStream equivalent of
// prefetch=1 — so messages are processed one at a time per consumer
// replica and redelivered only on crash, never silently dropped.
func (b *Bus) SubscribeQueue(ctx context.Context, subject, durable string, handler Handler) error {
	sub, err := b.js.QueueSubscribe(subject, durable, func(msg *nats.Msg) {
		err := handler(ctx, &Message{Subject: msg.Subject, Data: msg.Data})
		if err != nil {
			log.Errorf("bus: handler for %q failed: %v", msg.Subject, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			log.Warnf("bus: ack failed for %q: %v", msg.Subject, ackErr)
		}
	}, nats.Durable(durable), nats.ManualAck(), nats.MaxAckPending(1))
	if err != nil {
		return fmt.Errorf("bus: queue subscribe to %q (durable %q) failed: %w", subject, durable, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	log.Infof("bus: subscribed to %q (durable %q)", subject, durable)
	return nil
}

// Flush flushes the connection buffer, ensuring all published messages
// have been sent before returning.
func (b *Bus) Flush() error { return b.conn.Flush() }

// Close unsubscribes every durable consumer and closes the connection.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if err := sub.Drain(); err != nil {
			log.Warnf("bus: drain failed: %v", err)
		}
	}
	b.subs = nil

	if b.conn != nil {
		b.conn.Close()
	}
	log.Info("bus: connection closed")
}

// IsConnected reports whether the underlying connection is live.
func (b *Bus) IsConnected() bool { return b.conn != nil && b.conn.IsConnected() }
