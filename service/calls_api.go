// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/mattermost/callgrid/call"
	"github.com/mattermost/callgrid/service/api"
	"github.com/mattermost/callgrid/view"

	"github.com/mattermost/mattermost/server/public/shared/mlog"
)

const (
	maxRequestBodySize = 64 * 1024
	maxRTPPacketSize   = 1500
)

var errInvalidRequest = errors.New("invalid request")

type JoinRequest struct {
	ID     string `json:"id"`
	UserID string `json:"userID"`
}

type SpeakingRequest struct {
	Speaking bool `json:"speaking"`
}

type MutedRequest struct {
	Audio bool `json:"audio"`
	Video bool `json:"video"`
}

type CallsResponse struct {
	Calls []string `json:"calls"`
}

func (s *Service) registerCallsHandlers() {
	s.apiServer.RegisterHandleFunc("GET /calls", s.handleGetCalls)
	s.apiServer.RegisterHandleFunc("DELETE /calls/{callID}", s.handleEndCall)
	s.apiServer.RegisterHandleFunc("GET /calls/{callID}/grid", s.handleGetGrid)
	s.apiServer.RegisterHandleFunc("POST /calls/{callID}/participants", s.handleJoin)
	s.apiServer.RegisterHandleFunc("DELETE /calls/{callID}/participants/{participantID}", s.handleLeave)
	s.apiServer.RegisterHandleFunc("POST /calls/{callID}/participants/{participantID}/speaking", s.handleSpeaking)
	s.apiServer.RegisterHandleFunc("POST /calls/{callID}/participants/{participantID}/muted", s.handleMuted)
	s.apiServer.RegisterHandleFunc("POST /calls/{callID}/participants/{participantID}/rtp", s.handleRTP)
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, errInvalidRequest), errors.Is(err, call.ErrEmptyID):
		return http.StatusBadRequest
	case errors.Is(err, call.ErrCallNotFound), errors.Is(err, call.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, call.ErrParticipantExists):
		return http.StatusConflict
	case errors.Is(err, call.ErrCallEnded):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", mlog.Err(err))
	}
	if err := api.WriteError(w, status, err); err != nil {
		s.log.Error("failed to write error response", mlog.Err(err))
	}
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	if err := api.WriteJSON(w, status, v); err != nil {
		s.log.Error("failed to encode data", mlog.Err(err))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: failed to decode body: %s", errInvalidRequest, err.Error())
	}
	return nil
}

func parseSize(r *http.Request, name string) (float64, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0, fmt.Errorf("%w: %s is required", errInvalidRequest, name)
	}
	size, err := strconv.ParseFloat(value, 64)
	if err != nil || !isValidSize(size) {
		return 0, fmt.Errorf("%w: invalid %s value %q", errInvalidRequest, name, value)
	}
	return size, nil
}

func (s *Service) getCall(callID string) (*call.Call, error) {
	c := s.registry.GetCall(callID)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", call.ErrCallNotFound, callID)
	}
	return c, nil
}

func (s *Service) handleGetCalls(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, CallsResponse{Calls: s.registry.CallIDs()})
}

func (s *Service) handleEndCall(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.EndCall(r.PathValue("callID"), call.EndReasonHangup); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleGetGrid(w http.ResponseWriter, r *http.Request) {
	width, err := parseSize(r, "width")
	if err != nil {
		s.writeError(w, err)
		return
	}
	height, err := parseSize(r, "height")
	if err != nil {
		s.writeError(w, err)
		return
	}

	c, err := s.getCall(r.PathValue("callID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	frame := view.NewFrame(c.ID(), c.Participants(), s.cfg.Grid, width, height)
	s.metrics.IncGridRenders(frame.EmptyCells())
	s.writeJSON(w, http.StatusOK, frame)
}

func (s *Service) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.ID == "" {
		s.writeError(w, fmt.Errorf("%w: id is required", errInvalidRequest))
		return
	}

	c, err := s.registry.GetOrCreateCall(r.PathValue("callID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := c.Join(req.ID, req.UserID); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeParticipant(w, c, req.ID, http.StatusCreated)
}

func (s *Service) handleLeave(w http.ResponseWriter, r *http.Request) {
	c, err := s.getCall(r.PathValue("callID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := c.Leave(r.PathValue("participantID")); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleSpeaking(w http.ResponseWriter, r *http.Request) {
	var req SpeakingRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	c, err := s.getCall(r.PathValue("callID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	participantID := r.PathValue("participantID")
	if err := c.SetSpeaking(participantID, req.Speaking); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeParticipant(w, c, participantID, http.StatusOK)
}

func (s *Service) handleMuted(w http.ResponseWriter, r *http.Request) {
	var req MutedRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	c, err := s.getCall(r.PathValue("callID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	participantID := r.PathValue("participantID")
	if err := c.SetMuted(participantID, req.Audio, req.Video); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeParticipant(w, c, participantID, http.StatusOK)
}

func (s *Service) handleRTP(w http.ResponseWriter, r *http.Request) {
	c, err := s.getCall(r.PathValue("callID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	packet, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRTPPacketSize))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: failed to read packet: %s", errInvalidRequest, err.Error()))
		return
	}

	if err := c.PushRTP(r.PathValue("participantID"), packet); err != nil {
		if !errors.Is(err, call.ErrParticipantNotFound) && !errors.Is(err, call.ErrCallEnded) {
			err = fmt.Errorf("%w: %s", errInvalidRequest, err.Error())
		}
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Service) writeParticipant(w http.ResponseWriter, c *call.Call, participantID string, status int) {
	p, ok := c.Participant(participantID)
	if !ok {
		s.writeError(w, fmt.Errorf("%w: %s", call.ErrParticipantNotFound, participantID))
		return
	}
	s.writeJSON(w, status, p)
}
