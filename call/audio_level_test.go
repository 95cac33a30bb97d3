// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package call

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

func newAudioPacket(t *testing.T, extID uint8, level uint8) []byte {
	t.Helper()

	pkt := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    111,
			SequenceNumber: 1,
			Timestamp:      960,
			SSRC:           0x1234,
		},
		Payload: []byte{0x01, 0x02, 0x03},
	}

	if extID != 0 {
		ext := rtp.AudioLevelExtension{Level: level, Voice: true}
		extData, err := ext.Marshal()
		require.NoError(t, err)
		err = pkt.SetExtension(extID, extData)
		require.NoError(t, err)
	}

	data, err := pkt.Marshal()
	require.NoError(t, err)
	return data
}

func TestAudioLevelFromRTP(t *testing.T) {
	t.Run("invalid packet", func(t *testing.T) {
		_, ok, err := AudioLevelFromRTP([]byte{0x80}, 1)
		require.Error(t, err)
		require.False(t, ok)
	})

	t.Run("no extension", func(t *testing.T) {
		level, ok, err := AudioLevelFromRTP(newAudioPacket(t, 0, 0), 1)
		require.NoError(t, err)
		require.False(t, ok)
		require.Zero(t, level)
	})

	t.Run("other extension id", func(t *testing.T) {
		_, ok, err := AudioLevelFromRTP(newAudioPacket(t, 3, 20), 1)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("silence", func(t *testing.T) {
		level, ok, err := AudioLevelFromRTP(newAudioPacket(t, 1, 127), 1)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, uint8(0), level)
	})

	t.Run("loud", func(t *testing.T) {
		level, ok, err := AudioLevelFromRTP(newAudioPacket(t, 1, 7), 1)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, uint8(120), level)
	})
}

func TestPushRTP(t *testing.T) {
	c := newTestCall(t)
	require.NoError(t, c.Join("A", "userA"))

	t.Run("invalid packet", func(t *testing.T) {
		require.Error(t, c.PushRTP("A", []byte{0x80}))
	})

	t.Run("missing participant", func(t *testing.T) {
		err := c.PushRTP("B", newAudioPacket(t, c.cfg.AudioLevelExtensionID, 100))
		require.ErrorIs(t, err, ErrParticipantNotFound)
	})

	t.Run("voice detected", func(t *testing.T) {
		for i := 0; i < c.cfg.VAD.LevelsSampleSize; i++ {
			require.NoError(t, c.PushRTP("A", newAudioPacket(t, c.cfg.AudioLevelExtensionID, 117)))
		}
		require.Nil(t, c.Participants()["A"].SpeakerRank)

		require.NoError(t, c.PushRTP("A", newAudioPacket(t, c.cfg.AudioLevelExtensionID, 7)))
		rank := c.Participants()["A"].SpeakerRank
		require.NotNil(t, rank)
		require.Zero(t, *rank)
	})
}
