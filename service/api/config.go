// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package api

import (
	"crypto/tls"
	"fmt"
	"time"
)

type TLSConfig struct {
	Enable   bool
	CertFile string `toml:"cert_file"`
	CertKey  string `toml:"cert_key"`
}

func (c TLSConfig) IsValid() error {
	if c.Enable {
		if c.CertFile == "" {
			return fmt.Errorf("invalid CertFile value: should not be empty")
		}

		if c.CertKey == "" {
			return fmt.Errorf("invalid CertKey value: should not be empty")
		}

		if _, err := tls.LoadX509KeyPair(c.CertFile, c.CertKey); err != nil {
			return fmt.Errorf("failed to load cert files: %w", err)
		}
	}
	return nil
}

type Config struct {
	ListenAddress string `toml:"listen_address"`
	TLS           TLSConfig
	// ReadTimeout and WriteTimeout don't apply to upgraded WebSocket
	// connections.
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	IdleTimeout     time.Duration `toml:"idle_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

func (c Config) IsValid() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("invalid ListenAddress value: should not be empty")
	}
	if err := c.TLS.IsValid(); err != nil {
		return fmt.Errorf("invalid TLS config: %w", err)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("invalid ReadTimeout value: should not be negative")
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("invalid WriteTimeout value: should not be negative")
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("invalid IdleTimeout value: should not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout value: should be greater than zero")
	}
	return nil
}

func (c *Config) SetDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = ":8045"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 60 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}
