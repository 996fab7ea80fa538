package ipc

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/1broseidon/peektile/internal/runtimepath"
)

const broadcastWriteTimeout = time.Second

// Request is a client message the main loop must answer. The loop sends
// exactly one reply on Reply, which is buffered and never blocks.
type Request struct {
	Message Message
	Reply   chan<- Message
}

type clientConn struct {
	conn    net.Conn
	writeMu sync.Mutex

	// replying is set while a request read from conn awaits its reply.
	// Guarded by Server.mu.
	replying bool
}

func (c *clientConn) send(msg Message, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if timeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(timeout))
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	return WriteMessage(c.conn, msg)
}

// Server handles IPC connections from clients. Each connection is served
// by its own goroutine; requests that touch daemon state are handed to the
// main loop through Requests.
type Server struct {
	socketPath string
	listener   net.Listener
	requests   chan Request
	done       chan struct{}
	logger     zerolog.Logger

	mu           sync.Mutex
	conns        map[*clientConn]struct{}
	shuttingDown bool
	wg           sync.WaitGroup
}

// NewServer creates a server for socketPath, or the default runtime socket
// when socketPath is empty. buffer bounds the pending request queue.
func NewServer(socketPath string, buffer int, logger zerolog.Logger) (*Server, error) {
	if socketPath == "" {
		p, err := runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
		socketPath = p
	}

	return &Server{
		socketPath: socketPath,
		requests:   make(chan Request, buffer),
		done:       make(chan struct{}),
		logger:     logger,
		conns:      make(map[*clientConn]struct{}),
	}, nil
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.socketPath
}

// Requests delivers client requests for the main loop.
func (s *Server) Requests() <-chan Request {
	return s.requests
}

// Start binds the socket, restricts it to the owner and begins accepting
// connections. A stale socket left by a previous run is removed first.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0700); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info().Str("socket", s.socketPath).Msg("IPC server listening")

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) isShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isShuttingDown() {
				return
			}
			s.logger.Warn().Err(err).Msg("IPC accept error")
			time.Sleep(50 * time.Millisecond)
			continue
		}

		c := &clientConn{conn: conn}
		s.mu.Lock()
		if s.shuttingDown {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(c)
	}
}

func (s *Server) handleConnection(c *clientConn) {
	defer s.wg.Done()
	defer s.drop(c)

	s.logger.Debug().Msg("IPC client connected")
	for {
		msg, err := ReadMessage(c.conn)
		if err != nil {
			var decodeErr *DecodeError
			switch {
			case errors.Is(err, io.EOF):
				s.logger.Debug().Msg("IPC client disconnected")
			case errors.As(err, &decodeErr):
				s.logger.Warn().Err(err).Msg("malformed IPC message, closing connection")
				c.send(NewErrorMessage(err.Error()), broadcastWriteTimeout)
			case errors.Is(err, ErrMessageTooLarge):
				s.logger.Warn().Err(err).Msg("oversized IPC message, closing connection")
			default:
				if !s.isShuttingDown() {
					s.logger.Debug().Err(err).Msg("IPC read error")
				}
			}
			return
		}

		if !s.beginReply(c) {
			return
		}
		reply, ok := s.handleMessage(msg)
		if ok {
			var timeout time.Duration
			if s.isShuttingDown() {
				timeout = broadcastWriteTimeout
			}
			if err := c.send(reply, timeout); err != nil {
				s.logger.Debug().Err(err).Msg("failed to send IPC reply")
				ok = false
			}
		}
		if !s.endReply(c) || !ok {
			return
		}
	}
}

// beginReply marks c as owing a reply so Stop leaves it open until the
// reply is written. It fails once the server is stopping.
func (s *Server) beginReply(c *clientConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shuttingDown {
		return false
	}
	c.replying = true
	return true
}

// endReply clears the mark set by beginReply. It reports whether the
// connection may keep reading.
func (s *Server) endReply(c *clientConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.replying = false
	return !s.shuttingDown
}

// handleMessage answers ping directly and forwards everything that needs
// daemon state to the main loop. ok is false when the server is stopping.
func (s *Server) handleMessage(msg Message) (Message, bool) {
	switch msg.Type {
	case TypePing:
		return Message{Type: TypePong}, true
	case TypeGetPositions, TypeSetProfile, TypeShutdown:
	default:
		return NewErrorMessage(fmt.Sprintf("unexpected message type %q", msg.Type)), true
	}

	reply := make(chan Message, 1)
	select {
	case s.requests <- Request{Message: msg, Reply: reply}:
	case <-s.done:
		return Message{}, false
	}

	select {
	case r := <-reply:
		return r, true
	case <-s.done:
		// A shutdown request is answered just before the loop stops us.
		select {
		case r := <-reply:
			return r, true
		default:
			return Message{}, false
		}
	}
}

func (s *Server) drop(c *clientConn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	c.conn.Close()
}

// Broadcast sends msg to every connected client. A client that cannot take
// the message within a second is disconnected.
func (s *Server) Broadcast(msg Message) {
	s.mu.Lock()
	conns := make([]*clientConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.send(msg, broadcastWriteTimeout); err != nil {
			s.logger.Debug().Err(err).Str("type", string(msg.Type)).Msg("dropping IPC client after failed broadcast")
			c.conn.Close()
		}
	}
}

// Stop closes the listener and every idle connection, waits for pending
// replies to be written and for all connection goroutines, then removes
// the socket file.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return
	}
	s.shuttingDown = true
	close(s.done)
	for c := range s.conns {
		if !c.replying {
			c.conn.Close()
		}
	}
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
	s.logger.Info().Msg("IPC server stopped")
}
