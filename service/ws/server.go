// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package ws

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mattermost/mattermost/server/public/shared/mlog"
)

const (
	sendChSize    = 256
	receiveChSize = 256
	writeWait     = 10 * time.Second
)

var (
	ErrServerClosed = errors.New("ws server is closed")
	ErrConnNotFound = errors.New("ws connection not found")
)

// UpgradeCb is called before upgrading a connection. An error aborts the
// upgrade, in which case the callback is responsible for writing the response.
type UpgradeCb func(connID string, w http.ResponseWriter, r *http.Request) error

type Server struct {
	cfg         ServerConfig
	log         mlog.LoggerIFace
	conns       map[string]*conn
	upgradeCb   UpgradeCb
	connCountCb func(delta int)
	sendCh      chan Message
	receiveCh   chan Message
	closeCh     chan struct{}
	closed      bool
	handlersWg  sync.WaitGroup
	writerWg    sync.WaitGroup
	mut         sync.RWMutex
}

func NewServer(cfg ServerConfig, log mlog.LoggerIFace, opts ...ServerOption) (*Server, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	if log == nil {
		return nil, fmt.Errorf("invalid logger: should not be nil")
	}

	s := &Server{
		cfg:       cfg,
		log:       log,
		conns:     make(map[string]*conn),
		sendCh:    make(chan Message, sendChSize),
		receiveCh: make(chan Message, receiveChSize),
		closeCh:   make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	s.writerWg.Add(1)
	go s.connWriter()

	return s, nil
}

// ReceiveCh returns the channel of incoming messages. It is closed once the
// server is closed.
func (s *Server) ReceiveCh() <-chan Message {
	return s.receiveCh
}

// Send queues a message to be written to the connection it addresses.
func (s *Server) Send(msg Message) error {
	select {
	case <-s.closeCh:
		return ErrServerClosed
	default:
	}

	select {
	case s.sendCh <- msg:
		return nil
	case <-s.closeCh:
		return ErrServerClosed
	}
}

func (s *Server) receive(msg Message) {
	select {
	case s.receiveCh <- msg:
	case <-s.closeCh:
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mut.Lock()
	if s.closed {
		s.mut.Unlock()
		http.Error(w, "server is closed", http.StatusServiceUnavailable)
		return
	}
	s.handlersWg.Add(1)
	s.mut.Unlock()
	defer s.handlersWg.Done()

	connID := newID()

	if s.upgradeCb != nil {
		if err := s.upgradeCb(connID, w, r); err != nil {
			s.log.Error("upgradeCb failed", mlog.Err(err))
			return
		}
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  s.cfg.ReadBufferSize,
		WriteBufferSize: s.cfg.WriteBufferSize,
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("failed to upgrade connection", mlog.Err(err))
		return
	}

	conn := newConn(connID, ws, s.cfg)
	defer func() {
		if err := conn.close(); err != nil {
			s.log.Debug("failed to close ws conn", mlog.String("connID", connID), mlog.Err(err))
		}
	}()
	if err := conn.extendDeadline(); err != nil {
		s.log.Error("failed to set read deadline", mlog.Err(err))
		return
	}
	if !s.addConn(conn) {
		s.log.Error("failed to add conn", mlog.String("connID", connID))
		return
	}
	defer s.removeConn(conn.id)

	if s.connCountCb != nil {
		s.connCountCb(1)
		defer s.connCountCb(-1)
	}

	go s.pinger(conn)

	s.receive(newOpenMessage(connID))
	defer s.receive(newCloseMessage(connID))

	for {
		msgType, data, dropped, err := conn.read()
		if dropped > 0 {
			s.log.Warn("ws message rate exceeded, dropped messages", mlog.String("connID", connID), mlog.Int("dropped", dropped))
		}
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("ws read failed", mlog.String("connID", connID), mlog.Err(err))
			}
			return
		}

		s.receive(Message{
			ConnID: connID,
			Type:   msgType,
			Data:   data,
		})
	}
}

func (s *Server) pinger(c *conn) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.ping(); err != nil {
				s.log.Debug("failed to send ping", mlog.String("connID", c.id), mlog.Err(err))
				return
			}
		case <-c.closeCh:
			return
		}
	}
}

// CloseConn closes the connection with the given id.
func (s *Server) CloseConn(connID string) error {
	c := s.getConn(connID)
	if c == nil {
		return ErrConnNotFound
	}
	return c.close()
}

// Close closes all the connections and stops the server. ReceiveCh is closed
// once every connection handler returned.
func (s *Server) Close() {
	s.mut.Lock()
	if s.closed {
		s.mut.Unlock()
		return
	}
	s.closed = true
	close(s.closeCh)
	s.mut.Unlock()

	for _, conn := range s.getConns() {
		if err := conn.close(); err != nil {
			s.log.Error("failed to close ws conn", mlog.Err(err))
		}
	}

	s.handlersWg.Wait()
	s.writerWg.Wait()
	close(s.receiveCh)
}

func (s *Server) connWriter() {
	defer s.writerWg.Done()
	for {
		select {
		case msg := <-s.sendCh:
			s.write(msg)
		case <-s.closeCh:
			return
		}
	}
}

func (s *Server) write(msg Message) {
	conn := s.getConn(msg.ConnID)
	if conn == nil {
		s.log.Debug("failed to get conn for sending", mlog.String("connID", msg.ConnID))
		return
	}

	if err := conn.write(msg.Type, msg.Data); err != nil {
		s.log.Error("failed to write message", mlog.String("connID", msg.ConnID), mlog.Err(err))
	}
}
