package inspector

import (
	"net"
	"sync"

	"github.com/gobwas/pool/pbytes"

	"github.com/wsinspect/inspectorsocket/ws"
)

// frameHeaderBudget covers the largest header an unmasked text frame can
// have (2 base bytes plus the 8-byte extended length), so the pooled buffer
// AppendFrame writes into never needs to grow past its borrowed capacity.
const frameHeaderBudget = 10

// Mode reports which half of the protocol a Socket is currently speaking.
type Mode int

const (
	// ModeHTTP is the initial mode: the handshake engine is scanning for a
	// complete HTTP request.
	ModeHTTP Mode = iota
	// ModeWebSocket is entered once a request has been upgraded; the
	// WebSocket frame decoder owns the connection's bytes from here on.
	ModeWebSocket
)

// ReadFunc receives decoded WebSocket messages. A nil err with a non-nil
// payload carries one decoded text message. A nil err with a nil payload
// signals that the peer initiated the close handshake. A non-nil err
// reports a transport failure or, as a *ws.ProtocolError, a framing
// violation; in both cases the connection is torn down as soon as the
// callback returns.
type ReadFunc func(sock *Socket, payload []byte, err error)

// CloseFunc is invoked exactly once, after the close handshake (or an
// abrupt transport failure) has fully torn the connection down.
type CloseFunc func(sock *Socket)

// Socket is a single accepted TCP connection carried through an HTTP
// handshake and, once upgraded, a WebSocket session. It is the sole owner
// of its transport and read buffer.
type Socket struct {
	conn   net.Conn
	policy Policy
	buf    *buffer
	mode   Mode

	userMu   sync.RWMutex
	userData any

	lastErr error

	writeMu sync.Mutex

	condMu        sync.Mutex
	cond          *sync.Cond
	reading       bool
	onRead        ReadFunc
	onClosed      CloseFunc
	shuttingDown  bool
	closeSent     bool
	receivedClose bool
	peerEOF       bool

	teardownOnce sync.Once
}

// Accept blocks on ln.Accept, then starts the handshake engine for the
// resulting connection on its own goroutine. userData is stored immediately
// so a Policy can retrieve it from the first callback onward.
func Accept(ln net.Listener, policy Policy, userData any) (*Socket, error) {
	conn, err := ln.Accept()
	if err != nil {
		return nil, err
	}
	return newSocket(conn, policy, userData), nil
}

func newSocket(conn net.Conn, policy Policy, userData any) *Socket {
	s := &Socket{
		conn:     conn,
		policy:   policy,
		buf:      newBuffer(),
		mode:     ModeHTTP,
		userData: userData,
	}
	s.cond = sync.NewCond(&s.condMu)
	go s.handshakeLoop()
	return s
}

// Write queues p for the transport. In ModeWebSocket it is first framed as
// a single unmasked text frame; in ModeHTTP it is sent verbatim (useful for
// a Policy that wants to serve a plain HTTP response itself via OnRequest
// style hooks before ever upgrading). Safe for concurrent use.
func (s *Socket) Write(p []byte) error {
	if s.mode != ModeWebSocket {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		_, err := s.conn.Write(p)
		return err
	}

	buf := pbytes.GetLen(len(p) + frameHeaderBudget)
	defer pbytes.Put(buf)
	frame := ws.AppendFrame(buf[:0], ws.OpText, p, [4]byte{}, false)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.Write(frame)
	return err
}

// IsActive reports whether the socket is neither shutting down nor already
// closed.
func (s *Socket) IsActive() bool {
	s.condMu.Lock()
	defer s.condMu.Unlock()
	return !s.shuttingDown
}

// Mode reports the socket's current protocol mode.
func (s *Socket) Mode() Mode {
	return s.mode
}

// UserData returns the opaque value associated with the socket.
func (s *Socket) UserData() any {
	s.userMu.RLock()
	defer s.userMu.RUnlock()
	return s.userData
}

// SetUserData replaces the opaque value associated with the socket.
func (s *Socket) SetUserData(v any) {
	s.userMu.Lock()
	s.userData = v
	s.userMu.Unlock()
}

// LastHandshakeError returns the error, if any, that caused the most recent
// EventFailed notification, or, after the upgrade, the transport error that
// ended the session. It is nil when the handshake failed because the Policy
// denied it.
func (s *Socket) LastHandshakeError() error {
	return s.lastErr
}

// RemoteAddr reports the underlying transport's remote address.
func (s *Socket) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

func (s *Socket) handshakeLoop() {
	for s.mode == ModeHTTP && s.IsActive() {
		chunk := s.buf.spare(growthQuantum)
		n, err := s.conn.Read(chunk)
		if n > 0 {
			s.buf.grew(n)
			s.scanRequests()
		}
		if err != nil {
			if s.mode == ModeHTTP && s.IsActive() {
				s.lastErr = err
				s.policy.Decide(s, EventFailed, "")
				s.teardown()
			}
			return
		}
	}
}

func (s *Socket) enterWebSocketMode() {
	s.mode = ModeWebSocket
	go s.wsReadLoop()
}

func (s *Socket) teardown() {
	s.teardownOnce.Do(func() {
		s.condMu.Lock()
		s.shuttingDown = true
		s.condMu.Unlock()
		s.cond.Broadcast()

		s.conn.Close()
		s.buf.release()

		if cb := s.onClosed; cb != nil {
			cb(s)
		}
	})
}
