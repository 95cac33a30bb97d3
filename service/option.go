// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"context"
	"fmt"
	"net"
	"time"
)

type ClientOption func(c *Client) error
type DialContextFn func(ctx context.Context, network, addr string) (net.Conn, error)

// WithDialFunc lets the caller set an optional dialing function to setup the
// HTTP/WebSocket connections used by the client.
func WithDialFunc(dialFn DialContextFn) ClientOption {
	return func(c *Client) error {
		if dialFn == nil {
			return fmt.Errorf("invalid dial func: should not be nil")
		}
		c.dialFn = dialFn
		return nil
	}
}

// WithRequestTimeout sets a limit on the duration of every HTTP request made
// by the client. Zero means no limit.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout < 0 {
			return fmt.Errorf("invalid request timeout: should not be negative")
		}
		c.requestTimeout = timeout
		return nil
	}
}
