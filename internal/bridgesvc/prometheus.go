// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package bridgesvc

import "github.com/prometheus/client_golang/prometheus"

var (
	messagesDesc = prometheus.NewDesc(
		"bridge_messages_total",
		"Bridge messages relayed, by station and topic.",
		[]string{"station", "topic"}, nil)
	bytesDesc = prometheus.NewDesc(
		"bridge_bytes_total",
		"Bridge bytes relayed, by station and topic.",
		[]string{"station", "topic"}, nil)
)

// PrometheusCollector adapts Counters' point-in-time snapshots to the
// prometheus.Collector interface, so the per-(station, topic) counters
// the bridge already keeps for status reporting can be scraped without
// a second, parallel set of prometheus.Counter instances to keep in
// sync on every Record call.
type PrometheusCollector struct {
	Counters *Counters
}

func (p *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- messagesDesc
	ch <- bytesDesc
}

func (p *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range p.Counters.Snapshot() {
		ch <- prometheus.MustNewConstMetric(messagesDesc, prometheus.CounterValue, float64(s.Messages), s.Station, s.Topic)
		ch <- prometheus.MustNewConstMetric(bytesDesc, prometheus.CounterValue, float64(s.Bytes), s.Station, s.Topic)
	}
}
