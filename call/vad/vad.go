// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package vad

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/samber/lo"
)

const (
	defaultLevelsSampleSize      = 50
	defaultActivationThreshold   = 10
	defaultDeactivationThreshold = 4
	defaultMinActivationDuration = 2 * time.Second
)

// VoiceCB is called every time the detected voice state flips.
type VoiceCB func(voice bool)

type MonitorConfig struct {
	// LevelsSampleSize is the number of audio levels the detection window holds.
	LevelsSampleSize int `toml:"levels_sample_size"`
	// MinActivationDuration is the minimum time voice is considered active
	// once detected.
	MinActivationDuration time.Duration `toml:"min_activation_duration"`
	// ActivationThreshold is the standard deviation of the window above which
	// voice is detected.
	ActivationThreshold int `toml:"activation_threshold"`
	// DeactivationThreshold is the standard deviation of the window below
	// which voice is no longer detected.
	DeactivationThreshold int `toml:"deactivation_threshold"`
}

func (c *MonitorConfig) SetDefaults() {
	if c.LevelsSampleSize == 0 {
		c.LevelsSampleSize = defaultLevelsSampleSize
	}
	if c.MinActivationDuration == 0 {
		c.MinActivationDuration = defaultMinActivationDuration
	}
	if c.ActivationThreshold == 0 {
		c.ActivationThreshold = defaultActivationThreshold
	}
	if c.DeactivationThreshold == 0 {
		c.DeactivationThreshold = defaultDeactivationThreshold
	}
}

func (c MonitorConfig) IsValid() error {
	if c.LevelsSampleSize <= 1 {
		return fmt.Errorf("invalid LevelsSampleSize value: should be greater than 1")
	}
	if c.MinActivationDuration <= 0 {
		return fmt.Errorf("invalid MinActivationDuration value: should be greater than zero")
	}
	if c.ActivationThreshold <= 0 {
		return fmt.Errorf("invalid ActivationThreshold value: should be greater than zero")
	}
	if c.DeactivationThreshold <= 0 {
		return fmt.Errorf("invalid DeactivationThreshold value: should be greater than zero")
	}
	if c.DeactivationThreshold > c.ActivationThreshold {
		return fmt.Errorf("invalid DeactivationThreshold value: should not exceed ActivationThreshold")
	}
	return nil
}

// Monitor detects voice activity out of a stream of audio loudness levels.
type Monitor struct {
	cfg MonitorConfig
	cb  VoiceCB
	now func() time.Time

	levels         []uint8
	levelsPtr      int
	lastActivation time.Time
	voice          bool

	mut sync.Mutex
}

// NewMonitor creates a voice activity monitor. The now function is optional
// and defaults to time.Now.
func NewMonitor(cfg MonitorConfig, cb VoiceCB, now func() time.Time) (*Monitor, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cb == nil {
		return nil, fmt.Errorf("voice event callback is required")
	}

	if now == nil {
		now = time.Now
	}

	return &Monitor{
		cfg:    cfg,
		cb:     cb,
		now:    now,
		levels: make([]uint8, 0, cfg.LevelsSampleSize),
	}, nil
}

func avg(samples []uint8) float64 {
	if len(samples) == 0 {
		return 0
	}
	total := lo.SumBy(samples, func(s uint8) float64 { return float64(s) })
	return math.Round(total / float64(len(samples)))
}

func stdDev(samples []uint8) float64 {
	if len(samples) < 2 {
		return 0
	}
	mean := avg(samples)
	total := lo.SumBy(samples, func(s uint8) float64 {
		return math.Pow(float64(s)-mean, 2)
	})
	// Bessel's correction, the window is a subset of the stream.
	return math.Round(math.Sqrt(total / float64(len(samples)-1)))
}

// PushAudioLevel adds a loudness sample (higher is louder). The callback is
// run synchronously when the voice state changes.
func (m *Monitor) PushAudioLevel(level uint8) {
	m.mut.Lock()
	changed, voice := m.push(level)
	m.mut.Unlock()

	if changed {
		m.cb(voice)
	}
}

func (m *Monitor) push(level uint8) (bool, bool) {
	if len(m.levels) < m.cfg.LevelsSampleSize {
		m.levels = append(m.levels, level)
		return false, m.voice
	}

	m.levels[m.levelsPtr] = level
	m.levelsPtr = (m.levelsPtr + 1) % m.cfg.LevelsSampleSize

	dev := int(stdDev(m.levels))
	now := m.now()

	switch {
	case !m.voice && dev > m.cfg.ActivationThreshold:
		m.voice = true
		m.lastActivation = now
		return true, true
	case m.voice && dev < m.cfg.DeactivationThreshold:
		if now.Sub(m.lastActivation) < m.cfg.MinActivationDuration {
			return false, true
		}
		m.voice = false
		return true, false
	}

	return false, m.voice
}

// Voice reports whether voice is currently detected.
func (m *Monitor) Voice() bool {
	m.mut.Lock()
	defer m.mut.Unlock()
	return m.voice
}

// Reset clears the detection window. The callback is notified if voice was
// active.
func (m *Monitor) Reset() {
	m.mut.Lock()
	wasActive := m.voice
	m.levelsPtr = 0
	m.levels = m.levels[:0]
	m.lastActivation = time.Time{}
	m.voice = false
	m.mut.Unlock()

	if wasActive {
		m.cb(false)
	}
}
