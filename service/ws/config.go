// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package ws

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	// ReadBufferSize specifies the size of the internal buffer
	// used to read from a ws connection.
	ReadBufferSize int `toml:"read_buffer_size"`
	// WriteBufferSize specifies the size of the internal buffer
	// used to write to a ws connection.
	WriteBufferSize int `toml:"write_buffer_size"`
	// PingInterval specifies the interval at which the server should send ping
	// messages to its connections. If the client doesn't respond in 2*PingInterval
	// the server will consider the client as disconnected and drop the connection.
	PingInterval time.Duration `toml:"ping_interval"`
	// MessageRateLimit is the maximum sustained number of messages per second
	// accepted from a single connection. Messages above the limit are dropped.
	MessageRateLimit float64 `toml:"message_rate_limit"`
	// MessageBurst is the number of messages a connection can send at once
	// before the rate limit applies.
	MessageBurst int `toml:"message_burst"`
}

func (c ServerConfig) IsValid() error {
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("invalid ReadBufferSize value: should be greater than zero")
	}
	if c.WriteBufferSize <= 0 {
		return fmt.Errorf("invalid WriteBufferSize value: should be greater than zero")
	}
	if c.PingInterval < time.Second {
		return fmt.Errorf("invalid PingInterval value: should be at least 1 second")
	}
	if c.MessageRateLimit <= 0 {
		return fmt.Errorf("invalid MessageRateLimit value: should be greater than zero")
	}
	if c.MessageBurst <= 0 {
		return fmt.Errorf("invalid MessageBurst value: should be greater than zero")
	}

	return nil
}

func (c *ServerConfig) SetDefaults() {
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = 1024
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = 1024
	}
	if c.PingInterval == 0 {
		c.PingInterval = 10 * time.Second
	}
	if c.MessageRateLimit == 0 {
		c.MessageRateLimit = 10
	}
	if c.MessageBurst == 0 {
		c.MessageBurst = 20
	}
}
