// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/mattermost/mattermost/server/public/shared/mlog"
)

type Server struct {
	cfg      Config
	listener net.Listener
	srv      *http.Server
	mux      *http.ServeMux
	log      mlog.LoggerIFace

	serveErrCh chan error
	mut        sync.Mutex
}

func NewServer(cfg Config, log mlog.LoggerIFace) (*Server, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, fmt.Errorf("invalid logger: should not be nil")
	}

	mux := http.NewServeMux()
	s := &Server{
		log:        log,
		cfg:        cfg,
		mux:        mux,
		serveErrCh: make(chan error, 1),
	}
	s.srv = &http.Server{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		Handler:      s.logRequests(mux),
	}
	return s, nil
}

func (s *Server) tlsConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(s.cfg.TLS.CertFile, s.cfg.TLS.CertKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load cert files: %w", err)
	}
	return &tls.Config{
		MinVersion:       tls.VersionTLS12,
		CurvePreferences: []tls.CurveID{tls.CurveP256},
		Certificates:     []tls.Certificate{cert},
		// WebSocket upgrades need HTTP/1.1.
		NextProtos: []string{"http/1.1"},
	}, nil
}

// Start binds the listener and serves in the background. Errors occurring
// while serving are returned by Stop.
func (s *Server) Start() error {
	s.mut.Lock()
	defer s.mut.Unlock()

	if s.listener != nil {
		return fmt.Errorf("server is already started")
	}

	var tlsCfg *tls.Config
	if s.cfg.TLS.Enable {
		var err error
		if tlsCfg, err = s.tlsConfig(); err != nil {
			return err
		}
	}

	listener, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	if tlsCfg != nil {
		listener = tls.NewListener(listener, tlsCfg)
	}

	s.log.Info("api: server is listening", mlog.String("addr", s.listener.Addr().String()), mlog.Bool("tls", tlsCfg != nil))

	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Critical("api: failed to serve", mlog.Err(err))
			s.serveErrCh <- err
		}
	}()

	return nil
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	select {
	case err := <-s.serveErrCh:
		return fmt.Errorf("server failed while serving: %w", err)
	default:
	}

	s.log.Info("api: server was shutdown")
	return nil
}

func (s *Server) Addr() string {
	s.mut.Lock()
	defer s.mut.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
