// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package ws

type ServerOption func(s *Server) error

// WithUpgradeCb lets the caller set an optional callback to be called prior to
// performing the websocket upgrade. Returning an error aborts the upgrade.
func WithUpgradeCb(cb UpgradeCb) ServerOption {
	return func(s *Server) error {
		s.upgradeCb = cb
		return nil
	}
}

// WithConnCountCb lets the caller track the number of open connections.
func WithConnCountCb(cb func(delta int)) ServerOption {
	return func(s *Server) error {
		s.connCountCb = cb
		return nil
	}
}
