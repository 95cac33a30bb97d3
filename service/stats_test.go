// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func getStats(t *testing.T, th *TestHelper) Stats {
	t.Helper()
	resp, err := http.Get(th.apiURL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	return stats
}

func TestGetStats(t *testing.T) {
	th := SetupTestHelper(t)
	defer th.Teardown()

	t.Run("invalid method", func(t *testing.T) {
		resp, err := http.Post(th.apiURL+"/stats", "", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("empty", func(t *testing.T) {
		require.Equal(t, Stats{}, getStats(t, th))
	})

	t.Run("calls and participants", func(t *testing.T) {
		_, err := th.client.Join("callA", "sessionA", "userA")
		require.NoError(t, err)
		_, err = th.client.Join("callA", "sessionB", "userB")
		require.NoError(t, err)
		_, err = th.client.Join("callB", "sessionC", "userC")
		require.NoError(t, err)

		require.Equal(t, Stats{Calls: 2, Participants: 3}, getStats(t, th))

		require.NoError(t, th.client.EndCall("callA"))
		require.Equal(t, Stats{Calls: 1, Participants: 1}, getStats(t, th))
	})

	t.Run("ws connections", func(t *testing.T) {
		c := th.newWSClient(t)
		require.Eventually(t, func() bool {
			return getStats(t, th).WSConnections == 1
		}, time.Second, 10*time.Millisecond)

		require.NoError(t, c.Close())
		require.Eventually(t, func() bool {
			return getStats(t, th).WSConnections == 0
		}, time.Second, 10*time.Millisecond)
	})
}
