package ipc

import (
	"encoding/json"
	"testing"
)

func TestMessageType_IsEvent(t *testing.T) {
	tests := []struct {
		t    MessageType
		want bool
	}{
		{TypePositionChanged, true},
		{TypeCharacterAdded, true},
		{TypeCharacterRemoved, true},
		{TypePong, false},
		{TypePositions, false},
		{TypeReady, false},
		{TypeError, false},
		{TypePing, false},
	}
	for _, tt := range tests {
		if got := tt.t.IsEvent(); got != tt.want {
			t.Errorf("%s.IsEvent() = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestNewMessage_WireShape(t *testing.T) {
	msg, err := NewMessage(TypeCharacterRemoved, CharacterRemovedPayload{Character: "Bob"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"character_removed","payload":{"character":"Bob"}}`
	if string(data) != want {
		t.Fatalf("wire = %s, want %s", data, want)
	}

	bare, err := NewMessage(TypePing, nil)
	if err != nil {
		t.Fatal(err)
	}
	data, _ = json.Marshal(bare)
	if string(data) != `{"type":"ping"}` {
		t.Fatalf("bare wire = %s", data)
	}
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("boom")
	if msg.Type != TypeError {
		t.Fatalf("type = %q", msg.Type)
	}
	var payload ErrorPayload
	if err := msg.Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.Message != "boom" {
		t.Fatalf("message = %q", payload.Message)
	}
}

func TestDecode_MissingPayload(t *testing.T) {
	var payload PositionsPayload
	if err := (Message{Type: TypePositions}).Decode(&payload); err == nil {
		t.Fatal("expected error for missing payload")
	}
}
