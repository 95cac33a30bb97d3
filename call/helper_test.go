// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package call

import (
	"testing"
	"time"

	"github.com/mattermost/mattermost/server/public/shared/mlog"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *mlog.Logger {
	t.Helper()
	log, err := mlog.NewLogger()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, log.Shutdown())
	})
	return log
}

func newTestConfig() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

func newTestCall(t *testing.T, opts ...Option) *Call {
	t.Helper()
	c, err := NewCall("callID", newTestConfig(), newTestLogger(t), opts...)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func requireEvent(t *testing.T, ch <-chan Event, evType EventType) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		require.Equal(t, evType, ev.Type)
		return ev
	case <-time.After(time.Second):
		require.FailNow(t, "timed out waiting for event", evType.String())
	}
	return Event{}
}

func requireNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		require.FailNow(t, "unexpected event", ev.Type.String())
	default:
	}
}
