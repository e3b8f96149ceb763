// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package bridgesvc

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/groundlink/satcore/internal/codec"
	"github.com/groundlink/satcore/internal/config"
	"github.com/groundlink/satcore/internal/repository"
	"github.com/groundlink/satcore/pkg/log"
	"github.com/groundlink/satcore/pkg/retry"
)

// Fixed topic names not configurable per station (§4.5).
const (
	TopicCommand     = "cosmos/command"
	TopicTelemetry   = "cosmos/telemetry"
	TopicUplinkLog   = "SatOS/uplink"
	TopicDownlinkLog = "SatOS/downlink"
)

// Station runs one station's A/B bridge plus optional health
// sub-runner, each as an independently supervised goroutine (§4.12):
// a crash in one is isolated and restarted with pkg/retry rather than
// taking the whole station down.
type Station struct {
	cfg       config.StationConfig
	codec     *codec.Codec
	bridgeLog *repository.BridgeLogRepository
	counters  *Counters
	log       *log.Logger

	mu      sync.Mutex
	clientA *Client
	clientB *Client
}

// NewStation constructs a Station for cfg, wired to the shared frame
// codec and this station's own SQLite bridge log.
func NewStation(cfg config.StationConfig, c *codec.Codec, bridgeLog *repository.BridgeLogRepository, counters *Counters) *Station {
	return &Station{
		cfg:       cfg,
		codec:     c,
		bridgeLog: bridgeLog,
		counters:  counters,
		log:       log.Component(fmt.Sprintf("bridge.%s", cfg.ID)),
	}
}

// Run supervises the station's bridge goroutine (and, if configured,
// its health sub-runner) until ctx is cancelled, restarting either on
// crash via pkg/retry.
func (s *Station) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = retry.Do(ctx, func(attempt int) (bool, error) {
			err := s.runBridge(ctx)
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			if err != nil {
				s.log.Errorf("bridge crashed (attempt %d): %v", attempt, err)
			}
			return true, err
		}, 0, time.Second, 0.3)
	}()

	if s.cfg.SBandTopic != "" || s.cfg.XBandTopic != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = retry.Do(ctx, func(attempt int) (bool, error) {
				err := s.runHealthSubRunner(ctx)
				if ctx.Err() != nil {
					return false, ctx.Err()
				}
				if err != nil {
					s.log.Errorf("health sub-runner crashed (attempt %d): %v", attempt, err)
				}
				return true, err
			}, 0, time.Second, 0.3)
		}()
	}

	wg.Wait()
	return ctx.Err()
}

// runBridge connects both clients and wires the routing handlers; it
// returns an error if a connect or subscribe fails, and otherwise
// blocks until ctx is cancelled. A dropped connection is left to the
// MQTT client's own reconnect and does not end it.
func (s *Station) runBridge(ctx context.Context) error {
	a := NewClient(s.cfg.ID, "A", s.cfg.BrokerA, nil)
	b := NewClient(s.cfg.ID, "B", s.cfg.BrokerB, nil)

	s.mu.Lock()
	s.clientA, s.clientB = a, b
	s.mu.Unlock()

	if err := a.Connect(); err != nil {
		return err
	}
	if err := b.Connect(); err != nil {
		return err
	}
	defer a.Disconnect()
	defer b.Disconnect()

	if err := a.Subscribe(TopicCommand, s.onUplink(b)); err != nil {
		return fmt.Errorf("bridgesvc: subscribe %s: %w", TopicCommand, err)
	}
	if err := b.Subscribe(s.cfg.BrokerB.TopicDownlink, s.onDownlink(a)); err != nil {
		return fmt.Errorf("bridgesvc: subscribe %s: %w", s.cfg.BrokerB.TopicDownlink, err)
	}

	<-ctx.Done()
	return ctx.Err()
}

// onUplink handles a message received from broker A on cosmos/command
// (§4.5 routing rule 1).
func (s *Station) onUplink(b *Client) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		payload := msg.Payload()
		s.counters.Record(s.cfg.ID, TopicCommand, len(payload))
		s.persist(logEntry(s.cfg.ID, repository.DirectionAtoB, TopicCommand, hex.EncodeToString(payload), payload))

		wireOut, _, err := handleUplink(s.codec, payload)
		if err != nil {
			s.log.Errorf("uplink encrypt failed: %v", err)
			return
		}

		if err := b.Publish(s.cfg.BrokerB.TopicUplink, wireOut); err != nil {
			s.log.Errorf("uplink publish to B failed: %v", err)
			return
		}

		s.counters.Record(s.cfg.ID, TopicUplinkLog, len(wireOut))
		s.persist(logEntry(s.cfg.ID, repository.DirectionAtoB, TopicUplinkLog, string(wireOut), wireOut))
	}
}

// onDownlink handles a message received from broker B on
// topic_downlink (§4.5 routing rule 2).
func (s *Station) onDownlink(a *Client) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		payload := msg.Payload()
		s.counters.Record(s.cfg.ID, TopicDownlinkLog, len(payload))
		s.persist(logEntry(s.cfg.ID, repository.DirectionBtoA, TopicDownlinkLog, string(payload), payload))

		plaintext, err := handleDownlink(s.codec, payload)
		if err != nil {
			// Parse/decrypt errors drop the A-side publish but the
			// inbound message is still logged above (§4.5 "Failure
			// semantics").
			s.log.Errorf("downlink decrypt failed: %v", err)
			return
		}

		if err := a.Publish(TopicTelemetry, plaintext); err != nil {
			s.log.Errorf("downlink publish to A failed: %v", err)
			return
		}

		s.counters.Record(s.cfg.ID, TopicTelemetry, len(plaintext))
		s.persist(logEntry(s.cfg.ID, repository.DirectionBtoA, TopicTelemetry, hex.EncodeToString(plaintext), plaintext))
	}
}

// runHealthSubRunner subscribes to the station's sband/xband health
// topics on broker B and logs every record (§4.5 last paragraph).
func (s *Station) runHealthSubRunner(ctx context.Context) error {
	b := NewClient(s.cfg.ID, "health", s.cfg.BrokerB, nil)
	if err := b.Connect(); err != nil {
		return err
	}
	defer b.Disconnect()

	if s.cfg.SBandTopic != "" {
		if err := b.Subscribe(s.cfg.SBandTopic, s.onHealthRecord(s.cfg.SBandTopic)); err != nil {
			return fmt.Errorf("bridgesvc: subscribe %s: %w", s.cfg.SBandTopic, err)
		}
	}
	if s.cfg.XBandTopic != "" {
		if err := b.Subscribe(s.cfg.XBandTopic, s.onHealthRecord(s.cfg.XBandTopic)); err != nil {
			return fmt.Errorf("bridgesvc: subscribe %s: %w", s.cfg.XBandTopic, err)
		}
	}

	<-ctx.Done()
	return ctx.Err()
}

func (s *Station) onHealthRecord(topic string) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		payload := msg.Payload()
		s.counters.Record(s.cfg.ID, topic, len(payload))
		s.persist(logEntry(s.cfg.ID, repository.DirectionHealth, topic, hex.EncodeToString(payload), payload))
	}
}

func (s *Station) persist(m *repository.BridgeMessage) {
	if s.bridgeLog == nil {
		return
	}
	if _, err := s.bridgeLog.Insert(m); err != nil {
		s.log.Warnf("bridge log insert failed: %v", err)
	}
}
