// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mattermost/mattermost/server/public/shared/mlog"
)

type HandleFunc func(http.ResponseWriter, *http.Request)

// RegisterHandleFunc registers hf for the given pattern. Patterns follow the
// http.ServeMux syntax, including method and wildcard segments
// (e.g. "GET /calls/{callID}/grid").
func (s *Server) RegisterHandleFunc(pattern string, hf HandleFunc) {
	s.mux.HandleFunc(pattern, hf)
}

func (s *Server) RegisterHandler(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets WebSocket upgrades go through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("api: request served",
			mlog.String("method", r.Method),
			mlog.String("path", r.URL.Path),
			mlog.Int("status", rec.status),
			mlog.Duration("duration", time.Since(start)),
		)
	})
}
