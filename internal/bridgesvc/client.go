// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bridgesvc implements the Bridge Runner (C5): one pair of
// MQTT clients (A, anonymous local broker; B, TLS authenticated
// ground-station broker) per station, routing, encrypting/decrypting,
// logging, and counting traffic crossing between them.
package bridgesvc

import (
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/groundlink/satcore/internal/config"
	"github.com/groundlink/satcore/pkg/log"
)

// ClientState is a MQTT client's connection state (§4.5).
type ClientState int

const (
	Disconnected ClientState = iota
	Connecting
	Connected
)

func (s ClientState) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	default:
		return "Disconnected"
	}
}

// StatusEvent is emitted on every state transition (§4.5 "transitions
// emit status events").
type StatusEvent struct {
	StationID string
	Side      string // "A" or "B"
	State     ClientState
	Err       error
}

// Client wraps one paho MQTT connection with the
// Disconnected->Connecting->Connected->Disconnected state machine.
type Client struct {
	mu     sync.RWMutex
	state  ClientState
	client mqtt.Client

	stationID string
	side      string
	onStatus  func(StatusEvent)
}

// NewClient builds (but does not connect) an MQTT client for endpoint,
// tagged with stationID/side for status reporting.
func NewClient(stationID, side string, ep config.MQTTEndpoint, onStatus func(StatusEvent)) *Client {
	c := &Client{stationID: stationID, side: side, onStatus: onStatus, state: Disconnected}

	opts := mqtt.NewClientOptions().
		AddBroker(ep.Address).
		SetClientID(fmt.Sprintf("satcore-bridge-%s-%s", stationID, side)).
		SetAutoReconnect(true).
		SetConnectTimeout(30 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) { c.setState(Connected, nil) }).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) { c.setState(Disconnected, err) }).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) { c.setState(Connecting, nil) })

	if ep.Username != "" {
		opts.SetUsername(ep.Username)
		opts.SetPassword(ep.Password)
	}
	if ep.TLS {
		// Verification is explicitly configurable rather than silently
		// disabled (spec Design Notes open question (c), recorded in
		// DESIGN.md).
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: ep.InsecureSkipVerify})
	}

	c.client = mqtt.NewClient(opts)
	return c
}

func (c *Client) setState(s ClientState, err error) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()

	log.Component("bridge").Infof("station %s side %s -> %s", c.stationID, c.side, s)
	if c.onStatus != nil {
		c.onStatus(StatusEvent{StationID: c.stationID, Side: c.side, State: s, Err: err})
	}
}

// State returns the client's current connection state.
func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Connect dials the broker and blocks until the initial connect
// attempt resolves (subsequent reconnects happen in the background via
// paho's AutoReconnect).
func (c *Client) Connect() error {
	c.setState(Connecting, nil)
	token := c.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		c.setState(Disconnected, err)
		return fmt.Errorf("bridgesvc: connect station %s side %s: %w", c.stationID, c.side, err)
	}
	return nil
}

// Subscribe registers handler for topic at QoS 0 (§4.5 "QoS 0").
func (c *Client) Subscribe(topic string, handler mqtt.MessageHandler) error {
	token := c.client.Subscribe(topic, 0, handler)
	token.Wait()
	return token.Error()
}

// Publish sends payload to topic at QoS 0, not retained.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 0, false, payload)
	token.Wait()
	return token.Error()
}

// Disconnect gracefully closes the connection.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
	c.setState(Disconnected, nil)
}
