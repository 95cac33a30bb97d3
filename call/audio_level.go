// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package call

import (
	"fmt"

	"github.com/pion/rtp"
)

const maxAudioLevel = 127

// AudioLevelFromRTP reads the RFC 6464 audio level header extension out of a
// raw RTP packet and returns it as loudness (0 is silence, 127 is the loudest).
// The boolean is false when the packet carries no such extension.
func AudioLevelFromRTP(data []byte, extID uint8) (uint8, bool, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal rtp packet: %w", err)
	}

	extData := pkt.GetExtension(extID)
	if extData == nil {
		return 0, false, nil
	}

	var ext rtp.AudioLevelExtension
	if err := ext.Unmarshal(extData); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal audio level extension: %w", err)
	}

	// The extension carries -dBov.
	return maxAudioLevel - ext.Level, true, nil
}
