// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/mattermost/callgrid/logger"
	"github.com/mattermost/callgrid/service/api"

	"github.com/stretchr/testify/require"
)

type TestHelper struct {
	srvc   *Service
	client *Client
	cfg    Config
	tb     testing.TB
	apiURL string
	dbDir  string
}

func newTestServiceConfig(tb testing.TB, dbDir string) Config {
	tb.Helper()

	var cfg Config
	cfg.API.HTTP = api.Config{ListenAddress: ":0"}
	cfg.API.HTTP.SetDefaults()
	cfg.API.WS.PingInterval = time.Second
	cfg.API.WS.SetDefaults()
	cfg.Grid.SetDefaults()
	cfg.Call.SetDefaults()
	cfg.Store.DataSource = dbDir
	cfg.Logger = logger.Config{
		EnableConsole: true,
		ConsoleLevel:  "ERROR",
	}
	require.NoError(tb, cfg.IsValid())

	return cfg
}

func SetupTestHelper(tb testing.TB) *TestHelper {
	tb.Helper()

	dbDir, err := os.MkdirTemp("", "db")
	require.NoError(tb, err)

	th := &TestHelper{
		cfg:   newTestServiceConfig(tb, dbDir),
		tb:    tb,
		dbDir: dbDir,
	}
	th.start()

	return th
}

func (th *TestHelper) start() {
	var err error
	th.srvc, err = New(th.cfg)
	require.NoError(th.tb, err)
	require.NotNil(th.tb, th.srvc)

	err = th.srvc.Start()
	require.NoError(th.tb, err)

	_, port, err := net.SplitHostPort(th.srvc.apiServer.Addr())
	require.NoError(th.tb, err)
	th.apiURL = "http://localhost:" + port

	th.client, err = NewClient(ClientConfig{URL: th.apiURL})
	require.NoError(th.tb, err)
	require.NotNil(th.tb, th.client)
}

func (th *TestHelper) stop() {
	err := th.srvc.Stop()
	require.NoError(th.tb, err)

	err = th.client.Close()
	require.NoError(th.tb, err)
}

// restart stops the service and starts a new one on the same data store.
func (th *TestHelper) restart() {
	th.stop()
	th.start()
}

func (th *TestHelper) Teardown() {
	th.stop()

	err := os.RemoveAll(th.dbDir)
	require.NoError(th.tb, err)
}

// newWSClient returns a client connected over WebSocket, closed on cleanup.
func (th *TestHelper) newWSClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{URL: th.apiURL})
	require.NoError(t, err)
	require.NoError(t, c.Connect())
	t.Cleanup(func() {
		_ = c.Close()
	})
	return c
}

func requireClientMessage(t *testing.T, c *Client, msgType string) ClientMessage {
	t.Helper()
	for {
		select {
		case msg, ok := <-c.ReceiveCh():
			require.True(t, ok, "receive channel closed")
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.ErrorCh():
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			require.FailNow(t, "timed out waiting for message", msgType)
		}
	}
}
