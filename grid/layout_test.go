// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package grid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLayoutConfigIsValid(t *testing.T) {
	t.Run("empty config", func(t *testing.T) {
		var cfg LayoutConfig
		err := cfg.IsValid()
		require.EqualError(t, err, "invalid DefaultColumns value: should be greater than zero")
	})

	t.Run("missing default rows", func(t *testing.T) {
		cfg := LayoutConfig{DefaultColumns: 2}
		err := cfg.IsValid()
		require.EqualError(t, err, "invalid DefaultRows value: should be greater than zero")
	})

	t.Run("invalid column breakpoint", func(t *testing.T) {
		cfg := DefaultLayoutConfig()
		cfg.Columns = append(cfg.Columns, Breakpoint{Above: 100, Count: 0})
		err := cfg.IsValid()
		require.EqualError(t, err, "invalid Columns value: breakpoint 2: invalid Count value: should be greater than zero")
	})

	t.Run("negative row threshold", func(t *testing.T) {
		cfg := DefaultLayoutConfig()
		cfg.Rows[0].Above = -1
		err := cfg.IsValid()
		require.EqualError(t, err, "invalid Rows value: breakpoint 0: invalid Above value: should not be negative")
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := DefaultLayoutConfig()
		require.NoError(t, cfg.IsValid())
	})
}

func TestLayoutConfigSetDefaults(t *testing.T) {
	t.Run("keeps custom values", func(t *testing.T) {
		cfg := LayoutConfig{
			Columns:     Breakpoints{{Above: 2000, Count: 6}},
			DefaultRows: 1,
		}
		cfg.SetDefaults()
		require.Equal(t, Breakpoints{{Above: 2000, Count: 6}}, cfg.Columns)
		require.Equal(t, 1, cfg.DefaultRows)
		require.Equal(t, defaultColumns, cfg.DefaultColumns)
		require.Equal(t, Breakpoints{{Above: 1024, Count: 4}}, cfg.Rows)
	})
}

func TestCapacity(t *testing.T) {
	cfg := DefaultLayoutConfig()

	tcs := []struct {
		name     string
		width    float64
		height   float64
		columns  int
		rows     int
		capacity int
	}{
		{"desktop", 1200, 1200, 4, 4, 16},
		{"tablet", 900, 900, 3, 3, 9},
		{"tall phone", 500, 2000, 2, 4, 8},
		{"phone", 500, 500, 2, 3, 6},
		{"width on threshold", 1080, 500, 3, 3, 9},
		{"height on threshold", 500, 1024, 2, 3, 6},
		{"zero size", 0, 0, 2, 3, 6},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.columns, cfg.MaxColumns(tc.width))
			require.Equal(t, tc.rows, cfg.MaxRows(tc.height))
			require.Equal(t, tc.capacity, cfg.Capacity(tc.width, tc.height))
		})
	}

	t.Run("unordered breakpoints", func(t *testing.T) {
		cfg := LayoutConfig{
			Columns:        Breakpoints{{Above: 768, Count: 3}, {Above: 1080, Count: 4}},
			DefaultColumns: 2,
			DefaultRows:    1,
		}
		require.Equal(t, 4, cfg.MaxColumns(1200))
		require.Equal(t, 3, cfg.MaxColumns(900))
		require.Equal(t, 2, cfg.MaxColumns(100))
	})
}

func TestBreakpointsDecode(t *testing.T) {
	var bps Breakpoints
	err := bps.Decode(`[{"above":1080,"count":4},{"above":768,"count":3}]`)
	require.NoError(t, err)
	require.Equal(t, Breakpoints{{Above: 1080, Count: 4}, {Above: 768, Count: 3}}, bps)

	err = bps.Decode("invalid")
	require.Error(t, err)
}
