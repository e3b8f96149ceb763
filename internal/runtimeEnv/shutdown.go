// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package runtimeEnv

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownContext returns a context cancelled on SIGINT/SIGTERM, and
// the stop function the caller must defer to release the signal
// handler. Every long-lived worker loop (ingestor, bridge, health
// consumer, db sink, alert builder/worker, notifier) watches ctx.Done()
// between I/O operations, per spec §5's <=200ms shutdown-latency
// requirement.
func ShutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
