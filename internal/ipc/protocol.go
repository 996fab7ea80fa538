package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/peektile/internal/config"
)

// MessageType tags the variant carried in a Message.
type MessageType string

// Requests, sent by clients.
const (
	TypeSetProfile   MessageType = "set_profile"
	TypeGetPositions MessageType = "get_positions"
	TypePing         MessageType = "ping"
	TypeShutdown     MessageType = "shutdown"
)

// Responses and unsolicited events, sent by the daemon.
const (
	TypePositions        MessageType = "positions"
	TypePong             MessageType = "pong"
	TypePositionChanged  MessageType = "position_changed"
	TypeCharacterAdded   MessageType = "character_added"
	TypeCharacterRemoved MessageType = "character_removed"
	TypeReady            MessageType = "ready"
	TypeError            MessageType = "error"
)

// IsEvent reports whether t is sent unsolicited by the daemon.
func (t MessageType) IsEvent() bool {
	switch t {
	case TypePositionChanged, TypeCharacterAdded, TypeCharacterRemoved:
		return true
	}
	return false
}

// Message is the envelope of every frame.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SetProfilePayload replaces the daemon's active profile and global
// settings for the rest of its run.
type SetProfilePayload struct {
	Profile config.Profile        `json:"profile"`
	Global  config.GlobalSettings `json:"global"`
}

// PositionsPayload answers get_positions.
type PositionsPayload struct {
	Characters map[string]config.CharacterSettings `json:"characters"`
}

// CharacterPayload carries a character's preview geometry. It is the
// payload of position_changed and character_added.
type CharacterPayload struct {
	Character string `json:"character"`
	X         int16  `json:"x"`
	Y         int16  `json:"y"`
	Width     uint16 `json:"width"`
	Height    uint16 `json:"height"`
}

// CharacterRemovedPayload is the payload of character_removed.
type CharacterRemovedPayload struct {
	Character string `json:"character"`
}

// ErrorPayload is the payload of error.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewMessage builds an envelope. A nil payload is omitted.
func NewMessage(t MessageType, payload any) (Message, error) {
	msg := Message{Type: t}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	msg.Payload = data
	return msg, nil
}

// NewErrorMessage builds an error reply.
func NewErrorMessage(text string) Message {
	msg, _ := NewMessage(TypeError, ErrorPayload{Message: text})
	return msg
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to parse %s payload: %w", m.Type, err)
	}
	return nil
}
