// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"fmt"

	"github.com/mattermost/callgrid/view"

	"github.com/vmihailenco/msgpack/v5"
)

type ClientMessage struct {
	Type string `msgpack:"type"`
	Data any    `msgpack:"data,omitempty"`
}

const (
	ClientMessageDisplay = "display"
	ClientMessageGrid    = "grid"
	ClientMessageError   = "error"
)

// DisplayMessage is sent by renderers to select the call they show and the
// size of the area available to the grid.
type DisplayMessage struct {
	CallID string  `msgpack:"callID"`
	Width  float64 `msgpack:"width"`
	Height float64 `msgpack:"height"`
}

type ErrorMessage struct {
	Code    int    `msgpack:"code"`
	Message string `msgpack:"message"`
}

var _ msgpack.CustomEncoder = (*ClientMessage)(nil)

func (cm *ClientMessage) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeMulti(cm.Type, cm.Data)
}

var _ msgpack.CustomDecoder = (*ClientMessage)(nil)

func (cm *ClientMessage) DecodeMsgpack(dec *msgpack.Decoder) error {
	msgType, err := dec.DecodeString()
	if err != nil {
		return fmt.Errorf("failed to decode msg.Type: %w", err)
	}
	cm.Type = msgType

	switch cm.Type {
	case ClientMessageDisplay:
		var msg DisplayMessage
		if err := dec.Decode(&msg); err != nil {
			return fmt.Errorf("failed to decode display message: %w", err)
		}
		cm.Data = msg
	case ClientMessageGrid:
		var frame view.Frame
		if err := dec.Decode(&frame); err != nil {
			return fmt.Errorf("failed to decode grid frame: %w", err)
		}
		cm.Data = frame
	case ClientMessageError:
		var msg ErrorMessage
		if err := dec.Decode(&msg); err != nil {
			return fmt.Errorf("failed to decode error message: %w", err)
		}
		cm.Data = msg
	default:
		data, err := dec.DecodeInterface()
		if err != nil {
			return fmt.Errorf("failed to decode msg.Data: %w", err)
		}
		cm.Data = data
	}

	return nil
}

func NewClientMessage(msgType string, data any) *ClientMessage {
	return &ClientMessage{
		Type: msgType,
		Data: data,
	}
}

func (cm *ClientMessage) Pack() ([]byte, error) {
	return msgpack.Marshal(cm)
}

func (cm *ClientMessage) Unpack(data []byte) error {
	return msgpack.Unmarshal(data, cm)
}
