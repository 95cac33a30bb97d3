// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package call

type EventType int

const (
	// EventRemoteDeviceStatesChanged is sent when the state (speaker rank,
	// mute status, presence) of any remote device changed.
	EventRemoteDeviceStatesChanged EventType = iota + 1
	// EventJoinedMembersChanged is sent when a device joined or left.
	EventJoinedMembersChanged
	// EventEnded is the last event delivered to a subscriber.
	EventEnded
)

func (t EventType) String() string {
	switch t {
	case EventRemoteDeviceStatesChanged:
		return "remote_device_states_changed"
	case EventJoinedMembersChanged:
		return "joined_members_changed"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}

type EndReason string

const (
	EndReasonHangup         EndReason = "hangup"
	EndReasonServerShutdown EndReason = "server_shutdown"
)

type Event struct {
	Type   EventType
	CallID string
	// Reason is only set for EventEnded.
	Reason EndReason
}
