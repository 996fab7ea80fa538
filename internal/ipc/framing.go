package ipc

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxMessageSize bounds a single frame's payload.
const MaxMessageSize = 10 * 1024 * 1024

// ErrMessageTooLarge is returned when a frame announces or would carry a
// payload over MaxMessageSize. Oversized frames are rejected before any
// payload buffer is allocated.
var ErrMessageTooLarge = errors.New("message too large")

// WriteFrame writes payload behind a 4-byte little-endian length prefix.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLarge, len(payload), MaxMessageSize)
	}
	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed payload. A clean EOF before the
// length prefix is returned as io.EOF.
func ReadFrame(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame length: %w", err)
	}

	n := binary.LittleEndian.Uint32(prefix[:])
	if n > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLarge, n, MaxMessageSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("failed to read frame payload: %w", err)
	}
	return payload, nil
}

// WriteMessage encodes msg as JSON and writes it as one frame.
func WriteMessage(w io.Writer, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return WriteFrame(w, data)
}

// ReadMessage reads one frame and decodes it. Decoding failures are
// reported as *DecodeError so callers can tell them from I/O errors.
func ReadMessage(r io.Reader) (Message, error) {
	data, err := ReadFrame(r)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, &DecodeError{Err: err}
	}
	if msg.Type == "" {
		return Message{}, &DecodeError{Err: errors.New("missing message type")}
	}
	return msg, nil
}

// DecodeError is a well-framed message whose payload is not a valid
// envelope.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "malformed message: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
