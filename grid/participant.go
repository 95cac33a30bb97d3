// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package grid

import (
	"math"
)

// RemoteParticipant is the state of a single remote device currently joined
// to a call.
type RemoteParticipant struct {
	// ID is the stable identifier of the remote device (session).
	ID string `json:"id" msgpack:"id"`
	// UserID identifies the user owning the device. Several devices can
	// belong to the same user.
	UserID string `json:"userID" msgpack:"userID"`
	// SpeakerRank is the recent speaking prominence of the participant.
	// Lower is more prominent. Nil means no speaking activity was recorded.
	SpeakerRank *int `json:"speakerRank,omitempty" msgpack:"speakerRank,omitempty"`
	AudioMuted  bool `json:"audioMuted" msgpack:"audioMuted"`
	VideoMuted  bool `json:"videoMuted" msgpack:"videoMuted"`
}

// rankKey returns the sorting key for p. An absent rank sorts after any
// present one.
func (p RemoteParticipant) rankKey() int {
	if p.SpeakerRank == nil {
		return math.MaxInt
	}
	return *p.SpeakerRank
}
