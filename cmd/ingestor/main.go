// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"flag"

	"github.com/joho/godotenv"

	"github.com/groundlink/satcore/internal/bus"
	"github.com/groundlink/satcore/internal/config"
	"github.com/groundlink/satcore/internal/ingestsvc"
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
	in := ingestsvc.New(b, config.Keys.Upstream)
	if err := in.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
	runtimeEnv.SystemdNotifiy(false, "shutting down")
	log.Info("ingestor: shutdown complete")
}
