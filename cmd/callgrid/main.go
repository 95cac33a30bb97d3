// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattermost/callgrid/service"
)

func run(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.IsValid(); err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	srvc, err := service.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	if err := srvc.Start(); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	<-ctx.Done()

	if err := srvc.Stop(); err != nil {
		return fmt.Errorf("failed to stop service: %w", err)
	}

	return nil
}

func main() {
	var configPath string
	var showVersion bool
	flag.StringVar(&configPath, "config", "config/config.toml", "Path to the configuration file for the callgrid service.")
	flag.BoolVar(&showVersion, "version", false, "Print version information and exit.")
	flag.Parse()

	if showVersion {
		fmt.Println(service.GetVersionInfo().String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configPath); err != nil {
		log.Fatalf("callgrid: %s", err.Error())
	}
}
