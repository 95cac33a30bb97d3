// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/mattermost/callgrid/grid"
	"github.com/mattermost/callgrid/view"

	"github.com/gorilla/websocket"
)

const (
	msgChSize   = 64
	errorChSize = 8
)

// APIError is returned when the service replies with an unexpected status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the HTTP API and, once connected, receives grid frames
// over WebSocket.
type Client struct {
	cfg *ClientConfig

	httpClient     *http.Client
	dialFn         DialContextFn
	requestTimeout time.Duration

	wsConn    *websocket.Conn
	wsMut     sync.Mutex
	receiveCh chan ClientMessage
	errorCh   chan error
	readerWg  sync.WaitGroup
}

func NewClient(cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	var c Client

	if err := cfg.Parse(); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	c.cfg = &cfg

	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if c.dialFn == nil {
		c.dialFn = (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           c.dialFn,
		MaxConnsPerHost:       100,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		ResponseHeaderTimeout: 10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   1 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c.httpClient = &http.Client{
		Transport: transport,
		Timeout:   c.requestTimeout,
	}

	return &c, nil
}

func (c *Client) do(method, path string, body io.Reader, contentType string, expectedStatus int, out any) error {
	req, err := http.NewRequest(method, c.cfg.httpURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding http response failed: %w", err)
	}

	return nil
}

func (c *Client) doJSON(method, path string, reqData any, expectedStatus int, out any) error {
	var buf bytes.Buffer
	if reqData != nil {
		if err := json.NewEncoder(&buf).Encode(reqData); err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
	}
	return c.do(method, path, &buf, "application/json", expectedStatus, out)
}

func participantPath(callID, participantID string) string {
	return "/calls/" + url.PathEscape(callID) + "/participants/" + url.PathEscape(participantID)
}

// Join adds a remote participant to the given call, creating the call if
// needed.
func (c *Client) Join(callID, participantID, userID string) (grid.RemoteParticipant, error) {
	var p grid.RemoteParticipant
	err := c.doJSON(http.MethodPost, "/calls/"+url.PathEscape(callID)+"/participants", JoinRequest{
		ID:     participantID,
		UserID: userID,
	}, http.StatusCreated, &p)
	return p, err
}

func (c *Client) Leave(callID, participantID string) error {
	return c.doJSON(http.MethodDelete, participantPath(callID, participantID), nil, http.StatusNoContent, nil)
}

func (c *Client) SetSpeaking(callID, participantID string, speaking bool) (grid.RemoteParticipant, error) {
	var p grid.RemoteParticipant
	err := c.doJSON(http.MethodPost, participantPath(callID, participantID)+"/speaking", SpeakingRequest{
		Speaking: speaking,
	}, http.StatusOK, &p)
	return p, err
}

func (c *Client) SetMuted(callID, participantID string, audio, video bool) (grid.RemoteParticipant, error) {
	var p grid.RemoteParticipant
	err := c.doJSON(http.MethodPost, participantPath(callID, participantID)+"/muted", MutedRequest{
		Audio: audio,
		Video: video,
	}, http.StatusOK, &p)
	return p, err
}

// PushRTP forwards a raw RTP packet received from the given participant.
func (c *Client) PushRTP(callID, participantID string, packet []byte) error {
	return c.do(http.MethodPost, participantPath(callID, participantID)+"/rtp", bytes.NewReader(packet),
		"application/octet-stream", http.StatusAccepted, nil)
}

func (c *Client) EndCall(callID string) error {
	return c.doJSON(http.MethodDelete, "/calls/"+url.PathEscape(callID), nil, http.StatusNoContent, nil)
}

func (c *Client) Calls() ([]string, error) {
	var resp CallsResponse
	if err := c.doJSON(http.MethodGet, "/calls", nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Calls, nil
}

// Grid returns the grid frame of the given call for a display of the given
// size.
func (c *Client) Grid(callID string, width, height float64) (view.Frame, error) {
	q := url.Values{}
	q.Set("width", strconv.FormatFloat(width, 'f', -1, 64))
	q.Set("height", strconv.FormatFloat(height, 'f', -1, 64))

	var frame view.Frame
	err := c.doJSON(http.MethodGet, "/calls/"+url.PathEscape(callID)+"/grid?"+q.Encode(), nil, http.StatusOK, &frame)
	return frame, err
}

// Connect opens the WebSocket connection used to receive grid frames.
func (c *Client) Connect() error {
	if c.wsConn != nil {
		return fmt.Errorf("ws client is already initialized")
	}

	dialer := websocket.Dialer{
		NetDialContext:   c.dialFn,
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.Dial(c.cfg.wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}

	c.wsConn = conn
	c.receiveCh = make(chan ClientMessage, msgChSize)
	c.errorCh = make(chan error, errorChSize)

	c.readerWg.Add(1)
	go c.msgReader()

	return nil
}

func (c *Client) Send(msg ClientMessage) error {
	if c.wsConn == nil {
		return fmt.Errorf("ws client is not initialized")
	}

	data, err := msg.Pack()
	if err != nil {
		return fmt.Errorf("failed to pack message: %w", err)
	}

	c.wsMut.Lock()
	defer c.wsMut.Unlock()
	return c.wsConn.WriteMessage(websocket.BinaryMessage, data)
}

// Display asks the service to render the given call for a display of the
// given size. It can be called again to switch call or resize.
func (c *Client) Display(callID string, width, height float64) error {
	return c.Send(*NewClientMessage(ClientMessageDisplay, DisplayMessage{
		CallID: callID,
		Width:  width,
		Height: height,
	}))
}

// ReceiveCh returns the channel of messages received over WebSocket. It is
// closed when the connection drops.
func (c *Client) ReceiveCh() <-chan ClientMessage {
	return c.receiveCh
}

func (c *Client) ErrorCh() <-chan error {
	return c.errorCh
}

func (c *Client) Close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	if c.wsConn == nil {
		return nil
	}

	c.wsMut.Lock()
	err := c.wsConn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.wsMut.Unlock()
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		log.Printf("failed to send close message: %s", err.Error())
	}

	closeErr := c.wsConn.Close()
	c.readerWg.Wait()
	return closeErr
}

func (c *Client) sendError(err error) {
	select {
	case c.errorCh <- err:
	default:
		log.Printf("failed to send error: channel is full")
	}
}

func (c *Client) msgReader() {
	defer c.readerWg.Done()
	defer close(c.receiveCh)

	for {
		mt, data, err := c.wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.sendError(fmt.Errorf("failed to read message: %w", err))
			}
			return
		}

		if mt != websocket.BinaryMessage {
			c.sendError(fmt.Errorf("unexpected msg type: %d", mt))
			continue
		}

		var cm ClientMessage
		if err := cm.Unpack(data); err != nil {
			c.sendError(fmt.Errorf("failed to unpack message: %w", err))
			continue
		}

		select {
		case c.receiveCh <- cm:
		default:
			c.sendError(fmt.Errorf("failed to send client message: channel is full"))
		}
	}
}
