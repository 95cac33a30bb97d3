// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"sync"

	"github.com/mattermost/callgrid/call"
	"github.com/mattermost/callgrid/view"
)

// session is the state of a renderer connected over WebSocket.
type session struct {
	connID string

	mut    sync.RWMutex
	width  float64
	height float64
	call   *call.Call
	view   *view.GridView
}

func newSession(connID string) *session {
	return &session{
		connID: connID,
	}
}

func (s *session) displaySize() (float64, float64) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	return s.width, s.height
}

func (s *session) setDisplaySize(width, height float64) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.width = width
	s.height = height
}

// currentView returns the view rendering the given call, if any is still
// running.
func (s *session) currentView(c *call.Call) *view.GridView {
	s.mut.RLock()
	defer s.mut.RUnlock()
	if s.call != c || s.view == nil {
		return nil
	}
	select {
	case <-s.view.Done():
		return nil
	default:
		return s.view
	}
}

// swapView replaces the current view, returning the previous one.
func (s *session) swapView(c *call.Call, v *view.GridView) *view.GridView {
	s.mut.Lock()
	defer s.mut.Unlock()
	prev := s.view
	s.call = c
	s.view = v
	return prev
}

func (s *session) close() {
	if v := s.swapView(nil, nil); v != nil {
		v.Close()
	}
}

func (s *Service) addSession(connID string) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.sessions[connID] = newSession(connID)
}

func (s *Service) getSession(connID string) *session {
	s.mut.RLock()
	defer s.mut.RUnlock()
	return s.sessions[connID]
}

func (s *Service) removeSession(connID string) {
	s.mut.Lock()
	us := s.sessions[connID]
	delete(s.sessions, connID)
	s.mut.Unlock()

	if us != nil {
		us.close()
	}
}

func (s *Service) closeSessions() {
	s.mut.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mut.Unlock()

	for _, us := range sessions {
		us.close()
	}
}
