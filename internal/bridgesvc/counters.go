// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package bridgesvc

import "sync"

// counterKey identifies one (station, topic) counter entry (spec §5
// "Stats counters use per-(station, topic) entries guarded by a single
// mutex; reads are snapshot copies").
type counterKey struct {
	station string
	topic   string
}

// Counters tracks live, in-memory message/byte counts per station and
// topic. They are not merged with the per-station SQLite totals kept
// by internal/repository.BridgeLogRepository.
type Counters struct {
	mu       sync.Mutex
	messages map[counterKey]int64
	bytes    map[counterKey]int64
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{
		messages: make(map[counterKey]int64),
		bytes:    make(map[counterKey]int64),
	}
}

// Record adds one message of size n bytes to the (station, topic) entry.
func (c *Counters) Record(station, topic string, n int) {
	k := counterKey{station: station, topic: topic}
	c.mu.Lock()
	c.messages[k]++
	c.bytes[k] += int64(n)
	c.mu.Unlock()
}

// Snapshot is an immutable copy of one counter entry.
type Snapshot struct {
	Station  string
	Topic    string
	Messages int64
	Bytes    int64
}

// Snapshot returns a point-in-time copy of every counter entry.
func (c *Counters) Snapshot() []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Snapshot, 0, len(c.messages))
	for k, msgs := range c.messages {
		out = append(out, Snapshot{Station: k.station, Topic: k.topic, Messages: msgs, Bytes: c.bytes[k]})
	}
	return out
}
