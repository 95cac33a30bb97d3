// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package grid

import (
	"sort"

	"github.com/samber/lo"
)

// Rank returns every participant exactly once, ordered by ascending speaker
// rank. Participants without a rank come last. Equal keys are ordered by ID so
// the result never depends on map iteration order.
func Rank(participants map[string]RemoteParticipant) []RemoteParticipant {
	ranked := lo.Values(participants)
	sort.Slice(ranked, func(i, j int) bool {
		ki, kj := ranked[i].rankKey(), ranked[j].rankKey()
		if ki != kj {
			return ki < kj
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// Visible returns the first min(capacity, len(participants)) elements of
// Rank(participants). A non positive capacity yields an empty sequence.
func Visible(participants map[string]RemoteParticipant, capacity int) []RemoteParticipant {
	if capacity <= 0 || len(participants) == 0 {
		return []RemoteParticipant{}
	}
	ranked := Rank(participants)
	if capacity < len(ranked) {
		ranked = ranked[:capacity]
	}
	return ranked
}

// At returns the participant occupying the grid position index. The boolean
// is false when nobody should be rendered at that position.
func At(participants map[string]RemoteParticipant, capacity, index int) (RemoteParticipant, bool) {
	visible := Visible(participants, capacity)
	if index < 0 || index >= len(visible) {
		return RemoteParticipant{}, false
	}
	return visible[index], true
}

// Cells returns exactly capacity grid positions. Positions past the number of
// visible participants are nil.
func Cells(participants map[string]RemoteParticipant, capacity int) []*RemoteParticipant {
	if capacity <= 0 {
		return []*RemoteParticipant{}
	}
	cells := make([]*RemoteParticipant, capacity)
	for i, p := range Visible(participants, capacity) {
		cells[i] = &p
	}
	return cells
}
