// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package call

import (
	"sort"

	"github.com/samber/lo"
)

// SpeakerTracker assigns speaker ranks. The participant that most recently
// started speaking has rank 0. Participants that never spoke are unranked.
// It is not safe for concurrent use.
type SpeakerTracker struct {
	seq       uint64
	lastSpoke map[string]uint64
}

func NewSpeakerTracker() *SpeakerTracker {
	return &SpeakerTracker{
		lastSpoke: make(map[string]uint64),
	}
}

// Spoke records that id started speaking. It returns whether the ranks changed.
func (t *SpeakerTracker) Spoke(id string) bool {
	if s, ok := t.lastSpoke[id]; ok && s == t.seq {
		return false
	}
	t.seq++
	t.lastSpoke[id] = t.seq
	return true
}

// Remove forgets id. It returns whether the ranks changed.
func (t *SpeakerTracker) Remove(id string) bool {
	if _, ok := t.lastSpoke[id]; !ok {
		return false
	}
	delete(t.lastSpoke, id)
	return true
}

// Ranks returns the dense ranks of the participants that spoke.
func (t *SpeakerTracker) Ranks() map[string]int {
	ids := lo.Keys(t.lastSpoke)
	sort.Slice(ids, func(i, j int) bool {
		return t.lastSpoke[ids[i]] > t.lastSpoke[ids[j]]
	})

	ranks := make(map[string]int, len(ids))
	for i, id := range ids {
		ranks[id] = i
	}
	return ranks
}
