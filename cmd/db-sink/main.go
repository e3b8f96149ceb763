// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"flag"

	"github.com/joho/godotenv"

	"github.com/groundlink/satcore/internal/bus"
	"github.com/groundlink/satcore/internal/config"
	"github.com/groundlink/satcore/internal/dbsink"
	"github.com/groundlink/satcore/internal/repository"
	"github.com/groundlink/satcore/internal/runtimeEnv"
	"github.com/groundlink/satcore/pkg/log"
)

func main() {
	var flagConfigFile string
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Overwrite the global config options by those specified in `config.json`")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warnf("no ./.env file loaded: %v", err)
	}

	if err := config.Init(flagConfigFile); err != nil {
		log.Fatal(err)
	}

	db, err := repository.ConnectPostgres(config.Keys.Postgres.DSN, config.Keys.Postgres.MaxOpenConns, config.Keys.Postgres.MaxIdleConns)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Decoded-packet tables are created on demand by the sink itself
	// (internal/dbsink.Sink.ensureTable); only the alerts schema goes
	// through golang-migrate, and only the Alert Worker owns that.

	b, err := bus.New(bus.Config{
		Address:       config.Keys.Bus.Address,
		Username:      config.Keys.Bus.Username,
		Password:      config.Keys.Bus.Password,
		CredsFilePath: config.Keys.Bus.CredsFilePath,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer b.Close()

	ctx, stop := runtimeEnv.ShutdownContext()
	defer stop()

	runtimeEnv.SystemdNotifiy(true, "running")
	w := dbsink.NewWorker(b, dbsink.New(db))
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
	runtimeEnv.SystemdNotifiy(false, "shutting down")
	log.Info("db-sink: shutdown complete")
}
