// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/mattermost/callgrid/call"
	"github.com/mattermost/callgrid/service/ws"
	"github.com/mattermost/callgrid/view"

	"github.com/mattermost/mattermost/server/public/shared/mlog"
)

const (
	wsDirectionIn  = "in"
	wsDirectionOut = "out"
)

func (s *Service) wsUpgradeHandler(connID string, _ http.ResponseWriter, r *http.Request) error {
	s.log.Debug("ws: upgrading connection", mlog.String("connID", connID), mlog.String("remoteAddr", r.RemoteAddr))
	return nil
}

func (s *Service) wsConnCount(delta int) {
	if delta > 0 {
		s.metrics.IncWSConnections()
	} else {
		s.metrics.DecWSConnections()
	}
}

func (s *Service) wsReader() {
	defer s.readerWg.Done()

	for msg := range s.wsServer.ReceiveCh() {
		switch msg.Type {
		case ws.OpenMessage:
			s.log.Debug("ws: connection opened", mlog.String("connID", msg.ConnID))
			s.addSession(msg.ConnID)
		case ws.CloseMessage:
			s.log.Debug("ws: connection closed", mlog.String("connID", msg.ConnID))
			s.removeSession(msg.ConnID)
		case ws.TextMessage, ws.BinaryMessage:
			if err := s.handleClientMessage(msg); err != nil {
				s.log.Debug("ws: failed to handle message", mlog.String("connID", msg.ConnID), mlog.Err(err))
				s.sendError(msg.ConnID, err)
			}
		default:
			s.log.Warn("ws: unexpected message type", mlog.String("type", msg.Type.String()))
		}
	}
}

func (s *Service) handleClientMessage(msg ws.Message) error {
	us := s.getSession(msg.ConnID)
	if us == nil {
		return fmt.Errorf("session not found for connection %s", msg.ConnID)
	}

	var cm ClientMessage
	if err := cm.Unpack(msg.Data); err != nil {
		return fmt.Errorf("%w: failed to unpack message: %s", errInvalidRequest, err.Error())
	}
	s.metrics.IncWSMessages(cm.Type, wsDirectionIn)

	switch cm.Type {
	case ClientMessageDisplay:
		display, ok := cm.Data.(DisplayMessage)
		if !ok {
			return fmt.Errorf("%w: unexpected display data", errInvalidRequest)
		}
		return s.handleDisplay(us, display)
	default:
		return fmt.Errorf("%w: unexpected message type %q", errInvalidRequest, cm.Type)
	}
}

// handleDisplay starts rendering the requested call on the session, or
// re-renders it if the call is already shown.
func (s *Service) handleDisplay(us *session, msg DisplayMessage) error {
	if !isValidSize(msg.Width) || !isValidSize(msg.Height) {
		return fmt.Errorf("%w: invalid display size", errInvalidRequest)
	}

	c := s.registry.GetCall(msg.CallID)
	if c == nil {
		return fmt.Errorf("%w: %s", call.ErrCallNotFound, msg.CallID)
	}

	us.setDisplaySize(msg.Width, msg.Height)

	if v := us.currentView(c); v != nil {
		v.Resize()
		return nil
	}

	// The previous view is stopped first so its frames can't follow the
	// new call's frames.
	if prev := us.swapView(nil, nil); prev != nil {
		prev.Close()
	}

	v, err := view.New(c, s.cfg.Grid, us.displaySize, view.RendererFunc(func(frame view.Frame) {
		s.sendFrame(us.connID, frame)
	}), s.log, s.metrics)
	if err != nil {
		return fmt.Errorf("failed to create grid view: %w", err)
	}
	us.swapView(c, v)

	return nil
}

func isValidSize(size float64) bool {
	return !math.IsNaN(size) && !math.IsInf(size, 0) && size > 0
}

func (s *Service) send(connID string, cm *ClientMessage) {
	data, err := cm.Pack()
	if err != nil {
		s.log.Error("failed to pack message", mlog.String("type", cm.Type), mlog.Err(err))
		return
	}

	err = s.wsServer.Send(ws.Message{
		ConnID: connID,
		Type:   ws.BinaryMessage,
		Data:   data,
	})
	if err != nil {
		if !errors.Is(err, ws.ErrServerClosed) {
			s.log.Error("failed to send ws message", mlog.String("connID", connID), mlog.Err(err))
		}
		return
	}

	s.metrics.IncWSMessages(cm.Type, wsDirectionOut)
}

func (s *Service) sendFrame(connID string, frame view.Frame) {
	s.send(connID, NewClientMessage(ClientMessageGrid, frame))
}

func (s *Service) sendError(connID string, err error) {
	s.send(connID, NewClientMessage(ClientMessageError, ErrorMessage{
		Code:    errorStatus(err),
		Message: err.Error(),
	}))
}
