// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates the program configuration shared
// by every cmd/ binary: bus connection, upstream telemetry source,
// station bridge list, alert thresholds, and storage DSNs.
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/groundlink/satcore/pkg/log"
)

// Keys holds the process-wide configuration after Init runs, following
// the teacher's package-level `Keys` convention (internal/config/
// config.go) rather than threading a *ProgramConfig through every
// constructor.
var Keys = ProgramConfig{
	LogLevel: "info",
	Bus:      BusConfig{Address: "nats://localhost:4222"},
	Postgres: PostgresConfig{MaxOpenConns: 10, MaxIdleConns: 10},
	SQLite:   SQLiteConfig{Dir: "./var/bridge"},
	Notifier: NotifierConfig{Mock: true},
}

// Init reads flagConfigFile (if present), validates it against the
// embedded schema, decodes it over the defaults in Keys, then overlays
// environment variables that the deployment tooling already defines
// (RABBITMQ_URL -> Bus.Address; see DESIGN.md "(d)" for why that name
// addresses a NATS server here, not RabbitMQ).
func Init(flagConfigFile string) error {
	if flagConfigFile != "" {
		raw, err := os.ReadFile(flagConfigFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return err
			}
		} else {
			if err := Validate(bytes.NewReader(raw)); err != nil {
				return err
			}
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&Keys); err != nil {
				return err
			}
		}
	}

	overlayEnv(&Keys)
	return nil
}

// overlayEnv applies the subset of configuration that deployment
// tooling conventionally passes as environment variables rather than
// in the JSON file (credentials, connection strings).
func overlayEnv(c *ProgramConfig) {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.Bus.Address = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("UPSTREAM_PASSWORD"); v != "" {
		c.Upstream.Password = v
	}
	if v := os.Getenv("COSMOS_KEY_0"); v != "" {
		c.Codec.K0Hex = v
	}
	if v := os.Getenv("COSMOS_KEY_1"); v != "" {
		c.Codec.K1Hex = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	log.SetLevel(c.LogLevel)
}
