// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package main

import (
	"fmt"

	"github.com/mattermost/callgrid/service"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// loadConfig reads the config file and returns a new service.Config.
// Settings missing from the file keep their default value, and environment
// variables (e.g. CALLGRID_LOGGER_FILELEVEL) override both.
func loadConfig(path string) (service.Config, error) {
	var cfg service.Config
	cfg.SetDefaults()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config file: %w", err)
	}
	if err := envconfig.Process("callgrid", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to process env overrides: %w", err)
	}
	return cfg, nil
}
