// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/groundlink/satcore/internal/bridgesvc"
	"github.com/groundlink/satcore/internal/codec"
	"github.com/groundlink/satcore/internal/config"
	"github.com/groundlink/satcore/internal/repository"
	"github.com/groundlink/satcore/internal/runtimeEnv"
	"github.com/groundlink/satcore/pkg/log"
)

func main() {
	var flagConfigFile string
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Overwrite the global config options by those specified in `config.json`")
	flag.Parse()

	if err := runtimeEnv.LoadEnv("./.env"); err != nil {
		log.Warnf("no ./.env file loaded: %v", err)
	}

	if err := config.Init(flagConfigFile); err != nil {
		log.Fatal(err)
	}

	keys, err := loadCodecKeys(config.Keys.Codec)
	if err != nil {
		log.Fatal(err)
	}
	c := codec.New(keys)
	counters := bridgesvc.NewCounters()

	ctx, stop := runtimeEnv.ShutdownContext()
	defer stop()

	var wg sync.WaitGroup
	errCh := make(chan error, len(config.Keys.Stations))
	bridgeLogs := make([]*repository.BridgeLogRepository, 0, len(config.Keys.Stations))

	for _, stationCfg := range config.Keys.Stations {
		db, err := repository.ConnectStationLog(config.Keys.SQLite.Dir, stationCfg.ID)
		if err != nil {
			log.Fatalf("station %s: opening bridge log: %v", stationCfg.ID, err)
		}
		if err := repository.MigrateSQLite(db.DB); err != nil {
			log.Fatalf("station %s: migrating bridge log: %v", stationCfg.ID, err)
		}

		bridgeLog := repository.NewBridgeLogRepository(db)
		bridgeLogs = append(bridgeLogs, bridgeLog)
		station := bridgesvc.NewStation(stationCfg, c, bridgeLog, counters)

		wg.Add(1)
		go func(id string, db interface{ Close() error }) {
			defer wg.Done()
			defer db.Close()
			if err := station.Run(ctx); err != nil && ctx.Err() == nil {
				errCh <- fmt.Errorf("station %s: %w", id, err)
			}
		}(stationCfg.ID, db)
	}

	stopMetrics := startMetricsServer(config.Keys.Metrics, counters)
	defer stopMetrics()

	scheduler := startRetentionSweep(config.Keys.Retention, bridgeLogs)
	if scheduler != nil {
		defer scheduler.Shutdown()
	}

	runtimeEnv.SystemdNotifiy(true, "running")
	wg.Wait()
	runtimeEnv.SystemdNotifiy(false, "shutting down")

	close(errCh)
	for err := range errCh {
		log.Error(err)
	}
	log.Info("bridge: shutdown complete")
}

// loadCodecKeys decodes the two hex-encoded 256-bit frame keys from
// config (see internal/config.CodecConfig's doc comment for why these
// aren't compiled in).
func loadCodecKeys(cfg config.CodecConfig) (codec.Keys, error) {
	var keys codec.Keys
	k0, err := hex.DecodeString(cfg.K0Hex)
	if err != nil {
		return keys, fmt.Errorf("cmd/bridge: decoding k0_hex: %w", err)
	}
	k1, err := hex.DecodeString(cfg.K1Hex)
	if err != nil {
		return keys, fmt.Errorf("cmd/bridge: decoding k1_hex: %w", err)
	}
	if len(k0) != 32 || len(k1) != 32 {
		return keys, fmt.Errorf("cmd/bridge: codec keys must each be 32 bytes, got %d and %d", len(k0), len(k1))
	}
	copy(keys.K0[:], k0)
	copy(keys.K1[:], k1)
	return keys, nil
}

// startMetricsServer registers the bridge's counters with the default
// Prometheus registry and serves them at cfg.Addr; a blank Addr
// disables the endpoint entirely. Returns a no-op stop func either way
// so callers can defer it unconditionally.
func startMetricsServer(cfg config.MetricsConfig, counters *bridgesvc.Counters) func() {
	if cfg.Addr == "" {
		return func() {}
	}

	prometheus.MustRegister(&bridgesvc.PrometheusCollector{Counters: counters})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server: %v", err)
		}
	}()
	log.Infof("metrics listening at %s", cfg.Addr)

	return func() { server.Close() }
}

// startRetentionSweep schedules a daily bridge-log housekeeping job
// pruning rows older than cfg.MaxAge across every station's log; a
// blank/zero MaxAge disables the sweep entirely and returns nil.
func startRetentionSweep(cfg config.RetentionConfig, bridgeLogs []*repository.BridgeLogRepository) gocron.Scheduler {
	if cfg.MaxAge == "" {
		return nil
	}
	maxAge, err := time.ParseDuration(cfg.MaxAge)
	if err != nil || maxAge <= 0 {
		log.Warnf("retention.max_age %q invalid, disabling sweep: %v", cfg.MaxAge, err)
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Errorf("retention scheduler: %v", err)
		return nil
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			cutoff := time.Now().UTC().Add(-maxAge)
			for _, bl := range bridgeLogs {
				n, err := bl.DeleteOlderThan(cutoff)
				if err != nil {
					log.Errorf("retention sweep: %v", err)
					continue
				}
				if n > 0 {
					log.Infof("retention sweep: pruned %d bridge log rows older than %s", n, cutoff)
				}
			}
		}),
	)
	if err != nil {
		log.Errorf("retention job: %v", err)
		return nil
	}

	scheduler.Start()
	log.Infof("retention sweep scheduled every 24h, max age %s", maxAge)
	return scheduler
}
