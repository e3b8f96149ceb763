// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

// BusConfig configures the durable topic exchange (internal/bus).
// Address is read from the RABBITMQ_URL environment variable by
// Init's env overlay — see DESIGN.md "(d) RABBITMQ_URL names a NATS
// connection string" for why that name persists here.
type BusConfig struct {
	Address       string `json:"address"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	CredsFilePath string `json:"creds_file"`
}

// UpstreamConfig describes the streaming telemetry source the
// Telemetry Ingestor (C4) subscribes to.
type UpstreamConfig struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Scope    string   `json:"scope"`
	Password string   `json:"password"`
	Packets  []string `json:"packets"`
	Items    []string `json:"items"`
}

// MQTTEndpoint is one side of a station's bridge (broker A or B).
type MQTTEndpoint struct {
	Address            string `json:"address"`
	Username           string `json:"username"`
	Password           string `json:"password"`
	TLS                bool   `json:"tls"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify"`
	TopicUplink        string `json:"topic_uplink"`
	TopicDownlink      string `json:"topic_downlink"`
	TopicCommand       string `json:"topic_command"`
	TopicTelemetry     string `json:"topic_telemetry"`
}

// StationConfig is one ground-station bridge instance (§4.5).
type StationConfig struct {
	ID          string       `json:"id"`
	BrokerA     MQTTEndpoint `json:"broker_a"`
	BrokerB     MQTTEndpoint `json:"broker_b"`
	HealthTopic string       `json:"health_topic"`
	// SBandTopic / XBandTopic are the two health sub-runner subjects
	// (§4.5 last paragraph); empty disables that sub-runner.
	SBandTopic string `json:"sband_topic"`
	XBandTopic string `json:"xband_topic"`
}

// MetricBound is a {min, max} pair an Alert Builder metric must stay
// within; either side may be nil to mean "unbounded on this side".
type MetricBound struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// SeverityThresholds are the percent-used cutoffs for YELLOW/AMBER/RED.
type SeverityThresholds struct {
	YellowPercent float64 `json:"yellow_percent"`
	AmberPercent  float64 `json:"amber_percent"`
	RedPercent    float64 `json:"red_percent"`
}

// AlertPacketConfig configures threshold evaluation for one packet's
// queue ID (§4.8).
type AlertPacketConfig struct {
	QueueID    int                    `json:"queue_id"`
	PacketName string                 `json:"packet_name"`
	Thresholds *SeverityThresholds    `json:"thresholds"`
	Metrics    map[string]MetricBound `json:"metrics"`
}

// AlertConfig is the Alert Builder's full configuration (§4.8).
type AlertConfig struct {
	Thresholds SeverityThresholds  `json:"thresholds"`
	Submodules map[string]string   `json:"submodules"`
	Packets    []AlertPacketConfig `json:"packets"`
}

// ByQueueID indexes Packets for O(1) lookup during evaluation.
func (c *AlertConfig) ByQueueID() map[int]AlertPacketConfig {
	idx := make(map[int]AlertPacketConfig, len(c.Packets))
	for _, p := range c.Packets {
		idx[p.QueueID] = p
	}
	return idx
}

// PostgresConfig configures the decoded-data / alert database.
type PostgresConfig struct {
	DSN             string `json:"dsn"`
	MaxOpenConns    int    `json:"max_open_conns"`
	MaxIdleConns    int    `json:"max_idle_conns"`
}

// SQLiteConfig configures the per-station bridge log database.
type SQLiteConfig struct {
	Dir string `json:"dir"`
}

// CodecConfig supplies the two 256-bit frame keys the codec selects
// between via EXT_HDR_DATA. The wire format calls these "compiled in"
// but they are hex strings here instead (see internal/codec.Keys'
// doc comment) so they can be rotated via the COSMOS_KEY_0/
// COSMOS_KEY_1 environment variables without a rebuild.
type CodecConfig struct {
	K0Hex string `json:"k0_hex"`
	K1Hex string `json:"k1_hex"`
}

// MetricsConfig configures the process metrics HTTP endpoint. Empty
// Addr disables it.
type MetricsConfig struct {
	Addr string `json:"addr"`
}

// RetentionConfig configures the periodic bridge-log housekeeping
// sweep. Zero MaxAge disables it.
type RetentionConfig struct {
	MaxAge string `json:"max_age"`
}

// NotifierConfig configures the Notifier (C9). Mock mode logs the
// rendered message instead of sending it over SMTP.
type NotifierConfig struct {
	Mock     bool     `json:"mock"`
	SMTPAddr string   `json:"smtp_addr"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

// ProgramConfig is the root configuration shape shared by every
// cmd/ binary; each binary decodes the whole file but only reads the
// sections it needs.
type ProgramConfig struct {
	LogLevel string `json:"log-level"`

	Bus       BusConfig       `json:"bus"`
	Upstream  UpstreamConfig  `json:"upstream"`
	Postgres  PostgresConfig  `json:"postgres"`
	SQLite    SQLiteConfig    `json:"sqlite"`
	Codec     CodecConfig     `json:"codec"`
	Notifier  NotifierConfig  `json:"notifier"`
	Metrics   MetricsConfig   `json:"metrics"`
	Retention RetentionConfig `json:"retention"`

	Stations []StationConfig `json:"stations"`
	Alerts   AlertConfig     `json:"alerts"`

	// Account runtimeEnv.DropPrivileges switches to; none of the cmd
	// binaries calls it, so these fields drop no permissions.
	User  string `json:"user"`
	Group string `json:"group"`
}
