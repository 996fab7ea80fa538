package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/1broseidon/peektile/internal/config"
	"github.com/1broseidon/peektile/internal/runtimepath"
)

const defaultClientTimeout = 5 * time.Second

// Client talks to a running daemon. Each call opens its own connection.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default runtime socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; dial surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the socket at socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    defaultClientTimeout,
	}
}

func (c *Client) dial() (net.Conn, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	return conn, nil
}

// roundTrip sends req and returns the first reply that is not an event.
// An error reply becomes a Go error.
func (c *Client) roundTrip(req Message) (Message, error) {
	conn, err := c.dial()
	if err != nil {
		return Message{}, err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if err := WriteMessage(conn, req); err != nil {
		return Message{}, fmt.Errorf("failed to send request: %w", err)
	}

	for {
		resp, err := ReadMessage(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Message{}, errors.New("daemon closed the connection without replying")
			}
			return Message{}, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.Type.IsEvent() {
			continue
		}
		if resp.Type == TypeError {
			var payload ErrorPayload
			if err := resp.Decode(&payload); err != nil {
				return Message{}, fmt.Errorf("daemon error: %w", err)
			}
			return Message{}, fmt.Errorf("daemon error: %s", payload.Message)
		}
		return resp, nil
	}
}

func expect(resp Message, want MessageType) error {
	if resp.Type != want {
		return fmt.Errorf("unexpected reply %q, want %q", resp.Type, want)
	}
	return nil
}

// Ping checks if the daemon is responding.
func (c *Client) Ping() error {
	resp, err := c.roundTrip(Message{Type: TypePing})
	if err != nil {
		return err
	}
	return expect(resp, TypePong)
}

// Positions retrieves the live character settings of the active profile.
func (c *Client) Positions() (map[string]config.CharacterSettings, error) {
	resp, err := c.roundTrip(Message{Type: TypeGetPositions})
	if err != nil {
		return nil, err
	}
	if err := expect(resp, TypePositions); err != nil {
		return nil, err
	}
	var payload PositionsPayload
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Characters == nil {
		payload.Characters = map[string]config.CharacterSettings{}
	}
	return payload.Characters, nil
}

// SetProfile replaces the daemon's active profile and global settings.
func (c *Client) SetProfile(profile config.Profile, global config.GlobalSettings) error {
	req, err := NewMessage(TypeSetProfile, SetProfilePayload{Profile: profile, Global: global})
	if err != nil {
		return err
	}
	resp, err := c.roundTrip(req)
	if err != nil {
		return err
	}
	return expect(resp, TypeReady)
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown() error {
	resp, err := c.roundTrip(Message{Type: TypeShutdown})
	if err != nil {
		return err
	}
	return expect(resp, TypeReady)
}

// Subscribe keeps a connection open and calls fn for every event the
// daemon broadcasts until ctx is done or the daemon goes away.
func (c *Client) Subscribe(ctx context.Context, fn func(Message)) error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		msg, err := ReadMessage(conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return errors.New("daemon closed the connection")
			}
			return fmt.Errorf("failed to read event: %w", err)
		}
		if msg.Type.IsEvent() {
			fn(msg)
		}
	}
}
