// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package grid

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newParticipants(ranks map[string]*int) map[string]RemoteParticipant {
	participants := make(map[string]RemoteParticipant, len(ranks))
	for id, rank := range ranks {
		participants[id] = RemoteParticipant{
			ID:          id,
			UserID:      "user_" + id,
			SpeakerRank: rank,
		}
	}
	return participants
}

func ids(participants []RemoteParticipant) []string {
	return lo.Map(participants, func(p RemoteParticipant, _ int) string {
		return p.ID
	})
}

func randomParticipants(r *rand.Rand, n int) map[string]RemoteParticipant {
	ranks := make(map[string]*int, n)
	for i := 0; i < n; i++ {
		var rank *int
		if r.Intn(3) > 0 {
			rank = lo.ToPtr(r.Intn(n))
		}
		ranks[fmt.Sprintf("p%03d", i)] = rank
	}
	return newParticipants(ranks)
}

func TestRank(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		require.Empty(t, Rank(nil))
		require.Empty(t, Rank(map[string]RemoteParticipant{}))
	})

	t.Run("ascending rank, absent last", func(t *testing.T) {
		participants := newParticipants(map[string]*int{
			"A": lo.ToPtr(2),
			"B": nil,
			"C": lo.ToPtr(0),
			"D": lo.ToPtr(1),
		})
		require.Equal(t, []string{"C", "D", "A", "B"}, ids(Rank(participants)))
	})

	t.Run("absent ranks ordered by id", func(t *testing.T) {
		participants := newParticipants(map[string]*int{
			"z": nil,
			"a": nil,
			"m": nil,
			"b": lo.ToPtr(5),
		})
		for i := 0; i < 20; i++ {
			require.Equal(t, []string{"b", "a", "m", "z"}, ids(Rank(participants)))
		}
	})

	t.Run("equal ranks ordered by id", func(t *testing.T) {
		participants := newParticipants(map[string]*int{
			"y": lo.ToPtr(1),
			"x": lo.ToPtr(1),
			"w": lo.ToPtr(0),
		})
		require.Equal(t, []string{"w", "x", "y"}, ids(Rank(participants)))
	})

	t.Run("properties", func(t *testing.T) {
		r := rand.New(rand.NewSource(42))
		for n := 0; n < 40; n++ {
			participants := randomParticipants(r, n)
			ranked := Rank(participants)
			require.Len(t, ranked, len(participants))

			seen := make(map[string]bool, len(ranked))
			seenAbsent := false
			for i, p := range ranked {
				require.False(t, seen[p.ID], "duplicate %s", p.ID)
				seen[p.ID] = true
				require.Equal(t, participants[p.ID], p)

				if p.SpeakerRank == nil {
					seenAbsent = true
				} else {
					require.False(t, seenAbsent, "present rank after absent rank")
				}

				if i > 0 && ranked[i-1].SpeakerRank != nil && p.SpeakerRank != nil {
					require.LessOrEqual(t, *ranked[i-1].SpeakerRank, *p.SpeakerRank)
				}
			}
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		participants := newParticipants(map[string]*int{
			"A": lo.ToPtr(1),
			"B": lo.ToPtr(0),
		})
		_ = Rank(participants)
		require.Len(t, participants, 2)
		require.Equal(t, 1, *participants["A"].SpeakerRank)
	})
}

func TestVisible(t *testing.T) {
	participants := newParticipants(map[string]*int{
		"A": lo.ToPtr(2),
		"B": nil,
		"C": lo.ToPtr(0),
		"D": lo.ToPtr(1),
	})

	t.Run("lowest priority excluded", func(t *testing.T) {
		require.Equal(t, []string{"C", "D", "A"}, ids(Visible(participants, 3)))
	})

	t.Run("zero capacity", func(t *testing.T) {
		require.Empty(t, Visible(participants, 0))
		require.NotNil(t, Visible(participants, 0))
	})

	t.Run("negative capacity", func(t *testing.T) {
		require.Empty(t, Visible(participants, -1))
	})

	t.Run("capacity larger than participants", func(t *testing.T) {
		require.Equal(t, []string{"C", "D", "A", "B"}, ids(Visible(participants, 16)))
	})

	t.Run("empty participants", func(t *testing.T) {
		require.Empty(t, Visible(nil, 6))
	})

	t.Run("prefix of rank", func(t *testing.T) {
		r := rand.New(rand.NewSource(7))
		for n := 0; n < 20; n++ {
			participants := randomParticipants(r, n)
			ranked := Rank(participants)
			for c := 0; c <= 20; c++ {
				visible := Visible(participants, c)
				require.Len(t, visible, min(c, len(participants)))
				require.Equal(t, ranked[:len(visible)], visible)
			}
		}
	})
}

func TestAt(t *testing.T) {
	participants := newParticipants(map[string]*int{
		"A": lo.ToPtr(2),
		"B": nil,
		"C": lo.ToPtr(0),
		"D": lo.ToPtr(1),
	})

	t.Run("in range", func(t *testing.T) {
		p, ok := At(participants, 3, 0)
		require.True(t, ok)
		require.Equal(t, "C", p.ID)

		p, ok = At(participants, 3, 2)
		require.True(t, ok)
		require.Equal(t, "A", p.ID)
	})

	t.Run("beyond capacity", func(t *testing.T) {
		p, ok := At(participants, 3, 3)
		require.False(t, ok)
		require.Empty(t, p)
	})

	t.Run("beyond participants", func(t *testing.T) {
		_, ok := At(participants, 16, 4)
		require.False(t, ok)
	})

	t.Run("negative index", func(t *testing.T) {
		_, ok := At(participants, 16, -1)
		require.False(t, ok)
	})

	t.Run("matches visible", func(t *testing.T) {
		r := rand.New(rand.NewSource(3))
		for n := 0; n < 15; n++ {
			participants := randomParticipants(r, n)
			for c := 0; c <= 16; c++ {
				visible := Visible(participants, c)
				for i := 0; i < 20; i++ {
					p, ok := At(participants, c, i)
					if i >= min(c, len(participants)) {
						require.False(t, ok)
						continue
					}
					require.True(t, ok)
					require.Equal(t, visible[i], p)
				}
			}
		}
	})
}

func TestCells(t *testing.T) {
	participants := newParticipants(map[string]*int{
		"A": lo.ToPtr(1),
		"B": lo.ToPtr(0),
	})

	t.Run("pads with empty cells", func(t *testing.T) {
		cells := Cells(participants, 4)
		require.Len(t, cells, 4)
		require.Equal(t, "B", cells[0].ID)
		require.Equal(t, "A", cells[1].ID)
		require.Nil(t, cells[2])
		require.Nil(t, cells[3])
	})

	t.Run("truncates", func(t *testing.T) {
		cells := Cells(participants, 1)
		require.Len(t, cells, 1)
		require.Equal(t, "B", cells[0].ID)
	})

	t.Run("zero capacity", func(t *testing.T) {
		require.Empty(t, Cells(participants, 0))
	})
}
