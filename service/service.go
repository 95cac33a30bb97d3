// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"fmt"
	"sync"

	"github.com/mattermost/callgrid/call"
	"github.com/mattermost/callgrid/logger"
	"github.com/mattermost/callgrid/service/api"
	"github.com/mattermost/callgrid/service/perf"
	"github.com/mattermost/callgrid/service/store"
	"github.com/mattermost/callgrid/service/ws"

	"github.com/mattermost/mattermost/server/public/shared/mlog"
)

type Service struct {
	cfg       Config
	apiServer *api.Server
	wsServer  *ws.Server
	store     store.Store
	registry  *call.Registry
	metrics   *perf.Metrics
	log       *mlog.Logger

	sessions map[string]*session
	mut      sync.RWMutex
	readerWg sync.WaitGroup
}

func New(cfg Config) (*Service, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:      cfg,
		metrics:  perf.NewMetrics("callgrid", nil),
		sessions: make(map[string]*session),
	}

	var err error
	s.log, err = logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	s.log.Info("callgrid: starting up", GetVersionInfo().logFields()...)

	s.store, err = store.New(cfg.Store.DataSource)
	if err != nil {
		s.shutdownLogger()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	s.log.Info("initiated data store", mlog.String("DataSource", cfg.Store.DataSource))

	s.registry, err = call.NewRegistry(cfg.Call, s.store, s.log, s.metrics)
	if err != nil {
		s.closeStore()
		s.shutdownLogger()
		return nil, fmt.Errorf("failed to create call registry: %w", err)
	}

	s.apiServer, err = api.NewServer(cfg.API.HTTP, s.log)
	if err != nil {
		s.closeStore()
		s.shutdownLogger()
		return nil, fmt.Errorf("failed to create api server: %w", err)
	}

	s.wsServer, err = ws.NewServer(cfg.API.WS, s.log,
		ws.WithUpgradeCb(s.wsUpgradeHandler),
		ws.WithConnCountCb(s.wsConnCount),
	)
	if err != nil {
		s.closeStore()
		s.shutdownLogger()
		return nil, fmt.Errorf("failed to create ws server: %w", err)
	}

	s.apiServer.RegisterHandleFunc("GET /version", s.getVersion)
	s.apiServer.RegisterHandleFunc("GET /stats", s.getStats)
	s.apiServer.RegisterHandleFunc("GET /system", s.getSystemInfo)
	s.apiServer.RegisterHandler("GET /metrics", s.metrics.Handler())
	s.apiServer.RegisterHandler("GET /ws", s.wsServer)
	s.registerCallsHandlers()

	return s, nil
}

func (s *Service) Start() error {
	n, err := s.registry.Load()
	if err != nil {
		return fmt.Errorf("failed to load calls: %w", err)
	}
	s.log.Info("restored calls", mlog.Int("count", n))

	s.readerWg.Add(1)
	go s.wsReader()

	if err := s.apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	return nil
}

func (s *Service) Stop() error {
	s.log.Info("callgrid: shutting down")

	if err := s.apiServer.Stop(); err != nil {
		return fmt.Errorf("failed to stop API server: %w", err)
	}

	s.registry.Shutdown()
	s.closeSessions()

	s.wsServer.Close()
	s.readerWg.Wait()
	s.closeSessions()

	if err := s.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}

	return s.log.Shutdown()
}

func (s *Service) closeStore() {
	if err := s.store.Close(); err != nil {
		s.log.Error("failed to close store", mlog.Err(err))
	}
}

func (s *Service) shutdownLogger() {
	if err := s.log.Shutdown(); err != nil {
		fmt.Printf("failed to shutdown logger: %s\n", err.Error())
	}
}
