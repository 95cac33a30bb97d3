// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"fmt"
	"net/url"
	"strings"
)

const wsAPIPath = "/ws"

type ClientConfig struct {
	URL string

	httpURL string
	wsURL   string
}

func (c *ClientConfig) Parse() error {
	if c.URL == "" {
		return fmt.Errorf("invalid URL value: should not be empty")
	}

	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("failed to parse url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return fmt.Errorf("invalid url scheme: %q is not valid", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("invalid url host: should not be empty")
	}

	c.httpURL = c.URL
	u.Path += wsAPIPath
	c.wsURL = u.String()

	return nil
}
