// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package ws

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	connMaxReadBytes = 64 * 1024
)

// conn wraps a client connection. Only the server writer goroutine calls
// write, control frames are safe to send concurrently.
type conn struct {
	id        string
	ws        *websocket.Conn
	limiter   *rate.Limiter
	pongWait  time.Duration
	closeCh   chan struct{}
	closeOnce sync.Once
}

func newConn(id string, ws *websocket.Conn, cfg ServerConfig) *conn {
	c := &conn{
		id:       id,
		ws:       ws,
		limiter:  rate.NewLimiter(rate.Limit(cfg.MessageRateLimit), cfg.MessageBurst),
		pongWait: 2 * cfg.PingInterval,
		closeCh:  make(chan struct{}),
	}

	ws.SetReadLimit(connMaxReadBytes)
	ws.SetPongHandler(func(string) error {
		return c.extendDeadline()
	})

	return c
}

func (c *conn) extendDeadline() error {
	return c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
}

// read returns the next data message that fits within the rate limit.
// Messages over the limit are counted in dropped.
func (c *conn) read() (MessageType, []byte, int, error) {
	var dropped int
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return 0, nil, dropped, err
		}
		if err := c.extendDeadline(); err != nil {
			return 0, nil, dropped, fmt.Errorf("failed to set read deadline: %w", err)
		}
		if !c.limiter.Allow() {
			dropped++
			continue
		}
		if mt == websocket.BinaryMessage {
			return BinaryMessage, data, dropped, nil
		}
		return TextMessage, data, dropped, nil
	}
}

func (c *conn) write(msgType MessageType, data []byte) error {
	var mt int
	switch msgType {
	case TextMessage:
		mt = websocket.TextMessage
	case BinaryMessage:
		mt = websocket.BinaryMessage
	case CloseMessage:
		mt = websocket.CloseMessage
	default:
		return fmt.Errorf("unexpected message type %s", msgType.String())
	}

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	return c.ws.WriteMessage(mt, data)
}

func (c *conn) ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// close closes the underlying connection, which makes a pending read fail.
func (c *conn) close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.ws.Close()
	})
	return err
}

func (s *Server) addConn(c *conn) bool {
	if c == nil {
		return false
	}
	s.mut.Lock()
	defer s.mut.Unlock()
	if s.closed {
		return false
	}
	if _, ok := s.conns[c.id]; ok {
		return false
	}
	s.conns[c.id] = c
	return true
}

func (s *Server) removeConn(connID string) bool {
	s.mut.Lock()
	defer s.mut.Unlock()
	if _, ok := s.conns[connID]; !ok {
		return false
	}
	delete(s.conns, connID)
	return true
}

func (s *Server) getConn(connID string) *conn {
	s.mut.RLock()
	defer s.mut.RUnlock()
	return s.conns[connID]
}

func (s *Server) getConns() []*conn {
	s.mut.RLock()
	defer s.mut.RUnlock()
	conns := make([]*conn, 0, len(s.conns))
	for _, conn := range s.conns {
		conns = append(conns, conn)
	}
	return conns
}
