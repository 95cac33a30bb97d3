// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package view

import (
	"fmt"
	"sync"

	"github.com/mattermost/callgrid/call"
	"github.com/mattermost/callgrid/grid"

	"github.com/mattermost/mattermost/server/public/shared/mlog"
)

// Frame is what a renderer needs to draw the grid: one entry per tile, nil
// for tiles with nobody to show.
type Frame struct {
	CallID   string                    `json:"callID" msgpack:"callID"`
	Columns  int                       `json:"columns" msgpack:"columns"`
	Rows     int                       `json:"rows" msgpack:"rows"`
	Capacity int                       `json:"capacity" msgpack:"capacity"`
	Cells    []*grid.RemoteParticipant `json:"cells" msgpack:"cells"`
	Ended    bool                      `json:"ended" msgpack:"ended"`
}

// EmptyCells returns the number of tiles with nobody to show.
func (f Frame) EmptyCells() int {
	var n int
	for _, c := range f.Cells {
		if c == nil {
			n++
		}
	}
	return n
}

// NewFrame computes the frame for the given call participants and display
// size.
func NewFrame(callID string, participants map[string]grid.RemoteParticipant, layout grid.LayoutConfig, width, height float64) Frame {
	columns := layout.MaxColumns(width)
	rows := layout.MaxRows(height)
	capacity := columns * rows
	return Frame{
		CallID:   callID,
		Columns:  columns,
		Rows:     rows,
		Capacity: capacity,
		Cells:    grid.Cells(participants, capacity),
	}
}

// Renderer draws frames. Render is never called concurrently for the same
// GridView.
type Renderer interface {
	Render(frame Frame)
}

type RendererFunc func(frame Frame)

func (f RendererFunc) Render(frame Frame) {
	f(frame)
}

// DisplaySize returns the currently available display area.
type DisplaySize func() (width, height float64)

type Metrics interface {
	IncGridRenders(emptyCells int)
}

// GridView keeps a renderer in sync with the participants of a call. All
// rendering happens on a single goroutine.
type GridView struct {
	call     *call.Call
	layout   grid.LayoutConfig
	size     DisplaySize
	renderer Renderer
	log      mlog.LoggerIFace
	metrics  Metrics

	evCh        <-chan call.Event
	unsubscribe func()
	resizeCh    chan struct{}
	closeCh     chan struct{}
	doneCh      chan struct{}
	closeOnce   sync.Once
}

func New(c *call.Call, layout grid.LayoutConfig, size DisplaySize, renderer Renderer, log mlog.LoggerIFace, metrics Metrics) (*GridView, error) {
	if c == nil {
		return nil, fmt.Errorf("invalid call: should not be nil")
	}
	if err := layout.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid layout config: %w", err)
	}
	if size == nil {
		return nil, fmt.Errorf("invalid display size: should not be nil")
	}
	if renderer == nil {
		return nil, fmt.Errorf("invalid renderer: should not be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("invalid logger: should not be nil")
	}

	v := &GridView{
		call:     c,
		layout:   layout,
		size:     size,
		renderer: renderer,
		log:      log,
		metrics:  metrics,
		resizeCh: make(chan struct{}, 1),
		closeCh:  make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	v.evCh, v.unsubscribe = c.Subscribe()

	go v.loop()

	return v, nil
}

// Resize asks the view to render again after a display size change.
func (v *GridView) Resize() {
	select {
	case v.resizeCh <- struct{}{}:
	default:
	}
}

// Done is closed once the view stopped rendering, either because the call
// ended or because Close was called.
func (v *GridView) Done() <-chan struct{} {
	return v.doneCh
}

func (v *GridView) Close() {
	v.closeOnce.Do(func() {
		close(v.closeCh)
	})
	<-v.doneCh
}

func (v *GridView) render() {
	width, height := v.size()
	frame := NewFrame(v.call.ID(), v.call.Participants(), v.layout, width, height)
	v.renderer.Render(frame)
	if v.metrics != nil {
		v.metrics.IncGridRenders(frame.EmptyCells())
	}
}

func (v *GridView) loop() {
	defer close(v.doneCh)
	defer v.unsubscribe()

	v.render()

	for {
		select {
		case ev, ok := <-v.evCh:
			if !ok {
				return
			}
			switch ev.Type {
			case call.EventRemoteDeviceStatesChanged, call.EventJoinedMembersChanged:
				v.render()
			case call.EventEnded:
				v.log.Debug("call ended, stopping grid view", mlog.String("callID", ev.CallID), mlog.String("reason", string(ev.Reason)))
				v.renderer.Render(Frame{CallID: ev.CallID, Ended: true, Cells: []*grid.RemoteParticipant{}})
				return
			}
		case <-v.resizeCh:
			v.render()
		case <-v.closeCh:
			return
		}
	}
}
