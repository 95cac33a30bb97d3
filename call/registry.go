// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package call

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mattermost/callgrid/service/store"

	"github.com/mattermost/mattermost/server/public/shared/mlog"
	"github.com/vmihailenco/msgpack/v5"
)

const rosterKeyPrefix = "call:"

var ErrCallNotFound = errors.New("call not found")

type RegistryMetrics interface {
	Metrics
	IncCalls()
	DecCalls()
}

// rosterEntry is the persisted part of a participant. Speaker ranks are
// transient and not persisted.
type rosterEntry struct {
	ID         string `msgpack:"id"`
	UserID     string `msgpack:"userID"`
	AudioMuted bool   `msgpack:"audioMuted"`
	VideoMuted bool   `msgpack:"videoMuted"`
}

// Registry holds the active calls. When a store is set, the roster of every
// call is persisted so that it can be restored after a restart.
type Registry struct {
	cfg     Config
	store   store.Store
	log     mlog.LoggerIFace
	metrics RegistryMetrics

	calls map[string]*Call
	mut   sync.RWMutex

	// saveMut orders roster writes with the roster delete done when a call
	// ends.
	saveMut sync.Mutex
}

func NewRegistry(cfg Config, st store.Store, log mlog.LoggerIFace, metrics RegistryMetrics) (*Registry, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	if log == nil {
		return nil, fmt.Errorf("invalid logger: should not be nil")
	}

	if metrics == nil {
		return nil, fmt.Errorf("invalid metrics: should not be nil")
	}

	return &Registry{
		cfg:     cfg,
		store:   st,
		log:     log,
		metrics: metrics,
		calls:   make(map[string]*Call),
	}, nil
}

func rosterKey(callID string) string {
	return rosterKeyPrefix + callID
}

func (r *Registry) newCall(callID string) (*Call, error) {
	return NewCall(callID, r.cfg, r.log, WithMetrics(r.metrics), WithRosterChangeCb(r.saveRoster))
}

// GetCall returns the call with the given id, or nil.
func (r *Registry) GetCall(callID string) *Call {
	r.mut.RLock()
	defer r.mut.RUnlock()
	return r.calls[callID]
}

// GetOrCreateCall returns the call with the given id, creating it if needed.
func (r *Registry) GetOrCreateCall(callID string) (*Call, error) {
	r.mut.Lock()
	defer r.mut.Unlock()

	if c := r.calls[callID]; c != nil {
		return c, nil
	}

	c, err := r.newCall(callID)
	if err != nil {
		return nil, err
	}
	r.calls[callID] = c
	r.metrics.IncCalls()

	r.log.Debug("call created", mlog.String("callID", callID))

	return c, nil
}

// EndCall ends and removes a call, deleting its persisted roster.
func (r *Registry) EndCall(callID string, reason EndReason) error {
	r.mut.Lock()
	c := r.calls[callID]
	delete(r.calls, callID)
	r.mut.Unlock()

	if c == nil {
		return fmt.Errorf("%w: %s", ErrCallNotFound, callID)
	}

	r.metrics.DecCalls()

	r.saveMut.Lock()
	defer r.saveMut.Unlock()

	if err := c.End(reason); err != nil {
		return fmt.Errorf("failed to end call: %w", err)
	}

	if r.store != nil {
		if err := r.store.Delete(rosterKey(callID)); err != nil {
			return fmt.Errorf("failed to delete roster: %w", err)
		}
	}

	return nil
}

// CallIDs returns the ids of the active calls, sorted.
func (r *Registry) CallIDs() []string {
	r.mut.RLock()
	defer r.mut.RUnlock()
	ids := make([]string, 0, len(r.calls))
	for id := range r.calls {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Shutdown ends every active call. The persisted rosters are kept.
func (r *Registry) Shutdown() {
	r.mut.Lock()
	calls := r.calls
	r.calls = make(map[string]*Call)
	r.mut.Unlock()

	for _, c := range calls {
		// Unhook persistence first so the stored roster survives.
		c.mut.Lock()
		c.rosterChangeCb = nil
		c.mut.Unlock()

		if err := c.End(EndReasonServerShutdown); err != nil {
			r.log.Warn("failed to end call", mlog.String("callID", c.ID()), mlog.Err(err))
		}
		r.metrics.DecCalls()
	}
}

func (r *Registry) saveRoster(c *Call) {
	if r.store == nil {
		return
	}

	r.saveMut.Lock()
	defer r.saveMut.Unlock()

	if c.IsEnded() {
		return
	}

	participants := c.Participants()
	roster := make([]rosterEntry, 0, len(participants))
	for _, p := range participants {
		roster = append(roster, rosterEntry{
			ID:         p.ID,
			UserID:     p.UserID,
			AudioMuted: p.AudioMuted,
			VideoMuted: p.VideoMuted,
		})
	}
	sort.Slice(roster, func(i, j int) bool {
		return roster[i].ID < roster[j].ID
	})

	data, err := msgpack.Marshal(roster)
	if err != nil {
		r.log.Error("failed to marshal roster", mlog.String("callID", c.ID()), mlog.Err(err))
		return
	}

	if err := r.store.Set(rosterKey(c.ID()), data); err != nil {
		r.log.Error("failed to save roster", mlog.String("callID", c.ID()), mlog.Err(err))
	}
}

// Load restores the calls persisted in the store. It returns the number of
// restored calls.
func (r *Registry) Load() (int, error) {
	if r.store == nil {
		return 0, nil
	}

	type storedRoster struct {
		callID  string
		entries []rosterEntry
	}

	// Restoring joins participants, which saves rosters back to the store, so
	// records are collected before any call is touched.
	var rosters []storedRoster
	err := r.store.Scan(rosterKeyPrefix, func(key string, data []byte) error {
		callID := strings.TrimPrefix(key, rosterKeyPrefix)
		var entries []rosterEntry
		if err := msgpack.Unmarshal(data, &entries); err != nil {
			r.log.Error("failed to unmarshal roster, skipping", mlog.String("callID", callID), mlog.Err(err))
			return nil
		}
		rosters = append(rosters, storedRoster{callID: callID, entries: entries})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan rosters: %w", err)
	}

	var n int
	for _, roster := range rosters {
		c, err := r.GetOrCreateCall(roster.callID)
		if err != nil {
			return n, fmt.Errorf("failed to create call %s: %w", roster.callID, err)
		}

		for _, entry := range roster.entries {
			if err := c.Join(entry.ID, entry.UserID); err != nil && !errors.Is(err, ErrParticipantExists) {
				return n, fmt.Errorf("failed to restore participant %s: %w", entry.ID, err)
			}
			if entry.AudioMuted || entry.VideoMuted {
				if err := c.SetMuted(entry.ID, entry.AudioMuted, entry.VideoMuted); err != nil {
					return n, fmt.Errorf("failed to restore participant %s: %w", entry.ID, err)
				}
			}
		}
		n++
	}

	if n > 0 {
		r.log.Info("restored calls", mlog.Int("count", n))
	}

	return n, nil
}
