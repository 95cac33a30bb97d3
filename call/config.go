// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package call

import (
	"fmt"

	"github.com/mattermost/callgrid/call/vad"
)

const defaultSubscriberQueueSize = 32

type Config struct {
	// VAD configures the voice activity detection used to rank speakers.
	VAD vad.MonitorConfig `toml:"vad"`
	// SubscriberQueueSize is the number of pending events kept per
	// subscriber. Events exceeding it are dropped.
	SubscriberQueueSize int `toml:"subscriber_queue_size"`
	// AudioLevelExtensionID is the RTP header extension ID negotiated for
	// the audio level extension.
	AudioLevelExtensionID uint8 `toml:"audio_level_extension_id"`
}

func (c Config) IsValid() error {
	if err := c.VAD.IsValid(); err != nil {
		return fmt.Errorf("invalid VAD config: %w", err)
	}

	if c.SubscriberQueueSize <= 0 {
		return fmt.Errorf("invalid SubscriberQueueSize value: should be greater than zero")
	}

	// One-byte header extensions IDs are in the [1, 14] range.
	if c.AudioLevelExtensionID < 1 || c.AudioLevelExtensionID > 14 {
		return fmt.Errorf("invalid AudioLevelExtensionID value: %d is not in allowed range [1, 14]", c.AudioLevelExtensionID)
	}

	return nil
}

func (c *Config) SetDefaults() {
	c.VAD.SetDefaults()
	if c.SubscriberQueueSize == 0 {
		c.SubscriberQueueSize = defaultSubscriberQueueSize
	}
	if c.AudioLevelExtensionID == 0 {
		c.AudioLevelExtensionID = 1
	}
}
