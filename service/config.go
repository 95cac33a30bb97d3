// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"fmt"

	"github.com/mattermost/callgrid/call"
	"github.com/mattermost/callgrid/grid"
	"github.com/mattermost/callgrid/logger"
	"github.com/mattermost/callgrid/service/api"
	"github.com/mattermost/callgrid/service/ws"
)

type APIConfig struct {
	HTTP api.Config      `toml:"http"`
	WS   ws.ServerConfig `toml:"ws"`
}

func (c APIConfig) IsValid() error {
	if err := c.HTTP.IsValid(); err != nil {
		return fmt.Errorf("failed to validate http config: %w", err)
	}

	if err := c.WS.IsValid(); err != nil {
		return fmt.Errorf("failed to validate ws config: %w", err)
	}

	return nil
}

type StoreConfig struct {
	DataSource string `toml:"data_source"`
}

func (c StoreConfig) IsValid() error {
	if c.DataSource == "" {
		return fmt.Errorf("invalid DataSource value: should not be empty")
	}
	return nil
}

type Config struct {
	API    APIConfig
	Grid   grid.LayoutConfig
	Call   call.Config
	Store  StoreConfig
	Logger logger.Config
}

func (c Config) IsValid() error {
	if err := c.API.IsValid(); err != nil {
		return err
	}

	if err := c.Grid.IsValid(); err != nil {
		return fmt.Errorf("failed to validate grid config: %w", err)
	}

	if err := c.Call.IsValid(); err != nil {
		return fmt.Errorf("failed to validate call config: %w", err)
	}

	if err := c.Store.IsValid(); err != nil {
		return err
	}

	return c.Logger.IsValid()
}

func (c *Config) SetDefaults() {
	c.API.HTTP.SetDefaults()
	c.API.WS.SetDefaults()
	c.Grid.SetDefaults()
	c.Call.SetDefaults()
	c.Store.DataSource = "/tmp/callgrid_db"
	c.Logger.EnableConsole = true
	c.Logger.ConsoleJSON = false
	c.Logger.ConsoleLevel = "INFO"
	c.Logger.EnableFile = true
	c.Logger.FileJSON = true
	c.Logger.FileLocation = "callgrid.log"
	c.Logger.FileLevel = "DEBUG"
	c.Logger.EnableColor = false
}
