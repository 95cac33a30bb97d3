// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package call

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigIsValid(t *testing.T) {
	t.Run("empty config", func(t *testing.T) {
		var cfg Config
		err := cfg.IsValid()
		require.EqualError(t, err, "invalid VAD config: invalid LevelsSampleSize value: should be greater than 1")
	})

	t.Run("invalid SubscriberQueueSize", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.SubscriberQueueSize = -1
		err := cfg.IsValid()
		require.EqualError(t, err, "invalid SubscriberQueueSize value: should be greater than zero")
	})

	t.Run("invalid AudioLevelExtensionID", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.AudioLevelExtensionID = 15
		err := cfg.IsValid()
		require.EqualError(t, err, "invalid AudioLevelExtensionID value: 15 is not in allowed range [1, 14]")
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := newTestConfig()
		require.NoError(t, cfg.IsValid())
		require.Equal(t, defaultSubscriberQueueSize, cfg.SubscriberQueueSize)
		require.Equal(t, uint8(1), cfg.AudioLevelExtensionID)
	})
}
