// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package grid

import (
	"encoding/json"
	"fmt"
	"sort"
)

const (
	defaultColumns = 2
	defaultRows    = 3
)

// Breakpoint maps display sizes strictly greater than Above to Count
// rows or columns.
type Breakpoint struct {
	Above float64 `toml:"above" json:"above"`
	Count int     `toml:"count" json:"count"`
}

func (b Breakpoint) IsValid() error {
	if b.Above < 0 {
		return fmt.Errorf("invalid Above value: should not be negative")
	}
	if b.Count <= 0 {
		return fmt.Errorf("invalid Count value: should be greater than zero")
	}
	return nil
}

type Breakpoints []Breakpoint

func (bps Breakpoints) IsValid() error {
	for i, b := range bps {
		if err := b.IsValid(); err != nil {
			return fmt.Errorf("breakpoint %d: %w", i, err)
		}
	}
	return nil
}

// Decode lets envconfig parse breakpoints from a JSON encoded value
// (e.g. `[{"above":1080,"count":4}]`).
func (bps *Breakpoints) Decode(value string) error {
	return json.Unmarshal([]byte(value), bps)
}

// resolve returns the count of the breakpoint with the highest threshold that
// size exceeds, or fallback if none does.
func (bps Breakpoints) resolve(size float64, fallback int) int {
	sorted := make(Breakpoints, len(bps))
	copy(sorted, bps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Above > sorted[j].Above
	})
	for _, b := range sorted {
		if size > b.Above {
			return b.Count
		}
	}
	return fallback
}

// LayoutConfig holds the presentation policy used to derive the grid capacity
// from the available display area.
type LayoutConfig struct {
	Columns        Breakpoints `toml:"columns"`
	DefaultColumns int         `toml:"default_columns"`
	Rows           Breakpoints `toml:"rows"`
	DefaultRows    int         `toml:"default_rows"`
}

func (c LayoutConfig) IsValid() error {
	if c.DefaultColumns <= 0 {
		return fmt.Errorf("invalid DefaultColumns value: should be greater than zero")
	}
	if c.DefaultRows <= 0 {
		return fmt.Errorf("invalid DefaultRows value: should be greater than zero")
	}
	if err := c.Columns.IsValid(); err != nil {
		return fmt.Errorf("invalid Columns value: %w", err)
	}
	if err := c.Rows.IsValid(); err != nil {
		return fmt.Errorf("invalid Rows value: %w", err)
	}
	return nil
}

func (c *LayoutConfig) SetDefaults() {
	if len(c.Columns) == 0 {
		c.Columns = Breakpoints{
			{Above: 1080, Count: 4},
			{Above: 768, Count: 3},
		}
	}
	if c.DefaultColumns == 0 {
		c.DefaultColumns = defaultColumns
	}
	if len(c.Rows) == 0 {
		c.Rows = Breakpoints{
			{Above: 1024, Count: 4},
		}
	}
	if c.DefaultRows == 0 {
		c.DefaultRows = defaultRows
	}
}

// DefaultLayoutConfig returns the stock phone/tablet/desktop breakpoints.
func DefaultLayoutConfig() LayoutConfig {
	var cfg LayoutConfig
	cfg.SetDefaults()
	return cfg
}

func (c LayoutConfig) MaxColumns(width float64) int {
	return c.Columns.resolve(width, c.DefaultColumns)
}

func (c LayoutConfig) MaxRows(height float64) int {
	return c.Rows.resolve(height, c.DefaultRows)
}

// Capacity returns the maximum number of tiles that fit a display of the
// given size.
func (c LayoutConfig) Capacity(width, height float64) int {
	return c.MaxColumns(width) * c.MaxRows(height)
}
