// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package dbsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/groundlink/satcore/internal/bus"
	"github.com/groundlink/satcore/pkg/log"
)

// decodedSubjectWildcard binds the DB Sink to every packet published
// on the decoded exchange (spec §4.7 "for each decoded envelope").
const decodedSubjectWildcard = "decoded.>"

// Worker drains the decoded exchange and persists each envelope.
type Worker struct {
	Bus  *bus.Bus
	Sink *Sink
	log  *log.Logger
}

// NewWorker returns a Worker writing decoded envelopes from b into sink.
func NewWorker(b *bus.Bus, sink *Sink) *Worker {
	return &Worker{Bus: b, Sink: sink, log: log.Component("dbsink")}
}

// Run subscribes the worker to the decoded exchange until ctx is
// cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Bus.SubscribeQueue(ctx, decodedSubjectWildcard, bus.QueueDecodedDBPersistence, w.handle); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

// handle parses one decoded envelope and writes it to its packet's
// table. Numbers are decoded with json.Number so integer and float
// columns stay distinguishable (spec §4.7 step 2 "infer column types
// from the first row").
func (w *Worker) handle(_ context.Context, msg *bus.Message) error {
	dec := json.NewDecoder(bytes.NewReader(msg.Data))
	dec.UseNumber()

	var env bus.DecodedEnvelope
	if err := dec.Decode(&env); err != nil {
		return fmt.Errorf("dbsink: parse decoded envelope on %q: %w", msg.Subject, err)
	}

	table := TableName(env.Meta.PacketName)
	if err := w.Sink.WriteRows(table, env.Data); err != nil {
		return fmt.Errorf("dbsink: write %q: %w", table, err)
	}

	w.log.Debugf("wrote %d row(s) to %q", len(env.Data), table)
	return nil
}
