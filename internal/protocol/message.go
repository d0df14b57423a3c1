// Package protocol defines the JSON envelope exchanged over the websocket.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"shed/internal/game"
)

// Message is the envelope for every websocket frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> server types handled by the connection itself. Every other
// inbound type is passed to the match as a game action.
const (
	TypeJoin  = "join"
	TypeLeave = "leave"
	TypePing  = "ping"
)

// Server -> client types not produced by the match.
const (
	TypeJoined   = "joined"
	TypeRejected = string(game.EventRejected)
	TypeError    = "error"
	TypePong     = "pong"
)

var ErrEmptyType = errors.New("message type is required")

// --- Client -> Server ---

type JoinPayload struct {
	PlayerID string `json:"playerId"`
}

// --- Server -> Client ---

type JoinedPayload struct {
	Code     string `json:"code"`
	GameType string `json:"gameType"`
	PlayerID string `json:"playerId"`
}

// RejectedPayload tells a client why its last action was refused.
type RejectedPayload struct {
	Action  string `json:"action,omitempty"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewMessage marshals payload into an envelope of the given type.
func NewMessage(msgType string, payload any) ([]byte, error) {
	if payload == nil {
		return json.Marshal(Message{Type: msgType})
	}
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return json.Marshal(Message{Type: msgType, Payload: p})
}

// Decode parses one inbound frame.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if msg.Type == "" {
		return Message{}, ErrEmptyType
	}
	return msg, nil
}

// DecodePayload unmarshals the message payload into v.
func (m Message) DecodePayload(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", m.Type)
	}
	return json.Unmarshal(m.Payload, v)
}

// Action converts the message into a game action.
func (m Message) Action() game.Action {
	return game.Action{Type: m.Type, Payload: m.Payload}
}

// Rejected builds the payload for a refused action.
func Rejected(action string, err error) RejectedPayload {
	return RejectedPayload{
		Action:  action,
		Reason:  game.ReasonOf(err),
		Message: err.Error(),
	}
}
