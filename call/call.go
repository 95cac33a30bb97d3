// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package call

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mattermost/callgrid/call/vad"
	"github.com/mattermost/callgrid/grid"

	"github.com/mattermost/mattermost/server/public/shared/mlog"
)

var (
	ErrEmptyID             = errors.New("empty id")
	ErrCallEnded           = errors.New("call has ended")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantExists   = errors.New("participant already joined")
)

type Metrics interface {
	IncParticipants()
	DecParticipants()
	IncSpeakerChanges()
}

type Option func(c *Call) error

func WithMetrics(m Metrics) Option {
	return func(c *Call) error {
		c.metrics = m
		return nil
	}
}

// WithRosterChangeCb sets a callback run every time the set of participants
// or their mute state changes.
func WithRosterChangeCb(cb func(c *Call)) Option {
	return func(c *Call) error {
		c.rosterChangeCb = cb
		return nil
	}
}

type participant struct {
	state   grid.RemoteParticipant
	monitor *vad.Monitor
}

// Call holds the state of the remote devices joined to a group call and
// notifies subscribers of every change.
type Call struct {
	id             string
	cfg            Config
	log            mlog.LoggerIFace
	metrics        Metrics
	rosterChangeCb func(c *Call)

	participants map[string]*participant
	speakers     *SpeakerTracker
	subs         map[int]chan Event
	nextSubID    int
	ended        bool

	mut sync.RWMutex
}

func NewCall(id string, cfg Config, log mlog.LoggerIFace, opts ...Option) (*Call, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	c := &Call{
		id:           id,
		cfg:          cfg,
		log:          log,
		participants: make(map[string]*participant),
		speakers:     NewSpeakerTracker(),
		subs:         make(map[int]chan Event),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	return c, nil
}

func (c *Call) ID() string {
	return c.id
}

func (c *Call) IsEnded() bool {
	c.mut.RLock()
	defer c.mut.RUnlock()
	return c.ended
}

// Subscribe registers for call events. The returned function unsubscribes and
// is safe to call more than once. The channel is closed after EventEnded or on
// unsubscribe.
func (c *Call) Subscribe() (<-chan Event, func()) {
	c.mut.Lock()
	defer c.mut.Unlock()

	ch := make(chan Event, c.cfg.SubscriberQueueSize)
	if c.ended {
		ch <- Event{Type: EventEnded, CallID: c.id}
		close(ch)
		return ch, func() {}
	}

	subID := c.nextSubID
	c.nextSubID++
	c.subs[subID] = ch

	return ch, func() {
		c.mut.Lock()
		defer c.mut.Unlock()
		if ch, ok := c.subs[subID]; ok {
			delete(c.subs, subID)
			close(ch)
		}
	}
}

// notify must be called with the lock held.
func (c *Call) notify(types ...EventType) {
	for _, t := range types {
		ev := Event{Type: t, CallID: c.id}
		for subID, ch := range c.subs {
			select {
			case ch <- ev:
			default:
				c.log.Warn("subscriber queue is full, dropping event",
					mlog.String("callID", c.id), mlog.Int("subID", subID), mlog.String("event", t.String()))
			}
		}
	}
}

func (c *Call) rosterChanged() {
	c.mut.RLock()
	cb := c.rosterChangeCb
	c.mut.RUnlock()
	if cb != nil {
		cb(c)
	}
}

// Join adds a remote device to the call.
func (c *Call) Join(id, userID string) error {
	if id == "" {
		return ErrEmptyID
	}

	monitor, err := vad.NewMonitor(c.cfg.VAD, func(voice bool) {
		if err := c.SetSpeaking(id, voice); err != nil && !errors.Is(err, ErrCallEnded) {
			c.log.Debug("failed to set speaking state", mlog.String("callID", c.id), mlog.String("participantID", id), mlog.Err(err))
		}
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to create vad monitor: %w", err)
	}

	c.mut.Lock()
	if c.ended {
		c.mut.Unlock()
		return ErrCallEnded
	}
	if _, ok := c.participants[id]; ok {
		c.mut.Unlock()
		return fmt.Errorf("%w: %s", ErrParticipantExists, id)
	}
	c.participants[id] = &participant{
		state: grid.RemoteParticipant{
			ID:     id,
			UserID: userID,
		},
		monitor: monitor,
	}
	c.notify(EventJoinedMembersChanged, EventRemoteDeviceStatesChanged)
	c.mut.Unlock()

	c.log.Debug("participant joined", mlog.String("callID", c.id), mlog.String("participantID", id))
	if c.metrics != nil {
		c.metrics.IncParticipants()
	}
	c.rosterChanged()

	return nil
}

// Leave removes a remote device from the call.
func (c *Call) Leave(id string) error {
	c.mut.Lock()
	if c.ended {
		c.mut.Unlock()
		return ErrCallEnded
	}
	if _, ok := c.participants[id]; !ok {
		c.mut.Unlock()
		return fmt.Errorf("%w: %s", ErrParticipantNotFound, id)
	}
	delete(c.participants, id)
	c.speakers.Remove(id)
	c.notify(EventJoinedMembersChanged, EventRemoteDeviceStatesChanged)
	c.mut.Unlock()

	c.log.Debug("participant left", mlog.String("callID", c.id), mlog.String("participantID", id))
	if c.metrics != nil {
		c.metrics.DecParticipants()
	}
	c.rosterChanged()

	return nil
}

func (c *Call) SetMuted(id string, audio, video bool) error {
	c.mut.Lock()
	if c.ended {
		c.mut.Unlock()
		return ErrCallEnded
	}
	p, ok := c.participants[id]
	if !ok {
		c.mut.Unlock()
		return fmt.Errorf("%w: %s", ErrParticipantNotFound, id)
	}
	if p.state.AudioMuted == audio && p.state.VideoMuted == video {
		c.mut.Unlock()
		return nil
	}
	p.state.AudioMuted = audio
	p.state.VideoMuted = video
	c.notify(EventRemoteDeviceStatesChanged)
	c.mut.Unlock()

	c.rosterChanged()

	return nil
}

// SetSpeaking updates the speaking state of a device. Only the start of
// speaking activity affects speaker ranks.
func (c *Call) SetSpeaking(id string, speaking bool) error {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.ended {
		return ErrCallEnded
	}
	if _, ok := c.participants[id]; !ok {
		return fmt.Errorf("%w: %s", ErrParticipantNotFound, id)
	}
	if !speaking {
		return nil
	}

	if c.speakers.Spoke(id) {
		if c.metrics != nil {
			c.metrics.IncSpeakerChanges()
		}
		c.notify(EventRemoteDeviceStatesChanged)
	}

	return nil
}

// PushAudioLevel feeds a loudness sample (0 is silence) for the given device
// into its voice activity monitor.
func (c *Call) PushAudioLevel(id string, level uint8) error {
	c.mut.RLock()
	if c.ended {
		c.mut.RUnlock()
		return ErrCallEnded
	}
	p, ok := c.participants[id]
	c.mut.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrParticipantNotFound, id)
	}

	p.monitor.PushAudioLevel(level)

	return nil
}

// PushRTP extracts the audio level out of a raw RTP packet sent by the given
// device. Packets without the audio level extension are ignored.
func (c *Call) PushRTP(id string, data []byte) error {
	level, ok, err := AudioLevelFromRTP(data, c.cfg.AudioLevelExtensionID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return c.PushAudioLevel(id, level)
}

// End terminates the call. Subscribers receive EventEnded and their channels
// are closed.
func (c *Call) End(reason EndReason) error {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.ended {
		return ErrCallEnded
	}
	c.ended = true

	ev := Event{Type: EventEnded, CallID: c.id, Reason: reason}
	for subID, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.log.Warn("subscriber queue is full, dropping end event",
				mlog.String("callID", c.id), mlog.Int("subID", subID))
		}
		close(ch)
		delete(c.subs, subID)
	}

	if c.metrics != nil {
		for range c.participants {
			c.metrics.DecParticipants()
		}
	}

	c.log.Debug("call ended", mlog.String("callID", c.id), mlog.String("reason", string(reason)))

	return nil
}

// Participant returns a copy of the state of the given device.
func (c *Call) Participant(id string) (grid.RemoteParticipant, bool) {
	c.mut.RLock()
	defer c.mut.RUnlock()
	p, ok := c.participants[id]
	if !ok {
		return grid.RemoteParticipant{}, false
	}
	state := p.state
	if rank, ok := c.speakers.Ranks()[id]; ok {
		state.SpeakerRank = &rank
	}
	return state, true
}

// Participants returns a snapshot of the remote devices states, keyed by ID,
// with their current speaker ranks.
func (c *Call) Participants() map[string]grid.RemoteParticipant {
	c.mut.RLock()
	defer c.mut.RUnlock()

	ranks := c.speakers.Ranks()
	snapshot := make(map[string]grid.RemoteParticipant, len(c.participants))
	for id, p := range c.participants {
		state := p.state
		if rank, ok := ranks[id]; ok {
			state.SpeakerRank = &rank
		}
		snapshot[id] = state
	}

	return snapshot
}
