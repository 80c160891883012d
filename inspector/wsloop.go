package inspector

import (
	"fmt"

	"github.com/wsinspect/inspectorsocket/ws"
)

// ErrNotWebSocket is returned by ReadStart, ReadStop and Close when called
// before the handshake has upgraded the connection.
var ErrNotWebSocket = fmt.Errorf("socket is not in websocket mode")

// ErrShuttingDown is returned by ReadStart when a close is already in
// progress.
var ErrShuttingDown = fmt.Errorf("socket is shutting down")

// ErrAlreadyClosing is returned by Close when it is called a second time.
var ErrAlreadyClosing = fmt.Errorf("socket is already closing")

// ReadStart installs onRead and arms the read loop. It requires the socket
// to already be in ModeWebSocket. While the socket is shutting down only a
// nil onRead is accepted, mirroring the shutdown coordinator's own internal
// restart that drains bytes without delivering them anywhere.
func (s *Socket) ReadStart(onRead ReadFunc) error {
	if s.mode != ModeWebSocket {
		return ErrNotWebSocket
	}

	s.condMu.Lock()
	defer s.condMu.Unlock()
	if s.shuttingDown && onRead != nil {
		return ErrShuttingDown
	}
	s.onRead = onRead
	s.reading = true
	s.cond.Broadcast()
	return nil
}

// ReadStop disarms the read loop and clears the installed callback. A read
// already in flight is not interrupted; frames it yields are still
// delivered to the callback that was installed when that read began.
func (s *Socket) ReadStop() error {
	if s.mode != ModeWebSocket {
		return ErrNotWebSocket
	}

	s.condMu.Lock()
	defer s.condMu.Unlock()
	s.reading = false
	s.onRead = nil
	return nil
}

// Close sends a close frame and waits, via the socket's own read loop, for
// the peer's. onClosed fires exactly once after both sides' close frames
// have been exchanged (or immediately, if the peer's EOF was already
// observed before Close was called). Close is non-cancelable.
func (s *Socket) Close(onClosed CloseFunc) error {
	if s.mode != ModeWebSocket {
		return ErrNotWebSocket
	}

	s.condMu.Lock()
	if s.shuttingDown {
		s.condMu.Unlock()
		return ErrAlreadyClosing
	}
	s.shuttingDown = true
	s.onClosed = onClosed
	eof := s.peerEOF
	s.condMu.Unlock()

	if eof {
		s.teardown()
		return nil
	}

	if err := s.sendCloseFrame(); err != nil {
		s.teardown()
		return err
	}

	// Keep draining bytes, with no user callback, to observe the peer's
	// close frame (or its EOF) without delivering anything further.
	s.condMu.Lock()
	s.onRead = nil
	s.reading = true
	s.condMu.Unlock()
	s.cond.Broadcast()

	return nil
}

func (s *Socket) sendCloseFrame() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.Write(ws.EncodeCloseFrame())
	if err == nil {
		s.condMu.Lock()
		s.closeSent = true
		s.condMu.Unlock()
	}
	return err
}

func (s *Socket) wsReadLoop() {
	for {
		s.condMu.Lock()
		for !s.reading && !s.shuttingDown {
			s.cond.Wait()
		}
		if s.shuttingDown && !s.reading {
			s.condMu.Unlock()
			return
		}
		cb := s.onRead
		s.condMu.Unlock()

		// Bytes pipelined with the handshake's final TCP segment (or left
		// over from a prior armed period) may already form a complete
		// frame; drain those before blocking on the next read.
		if len(s.buf.live()) > 0 {
			if done := s.decodeLoop(cb); done {
				return
			}
		}

		chunk := s.buf.spare(growthQuantum)
		n, err := s.conn.Read(chunk)
		if n > 0 {
			s.buf.grew(n)
			if done := s.decodeLoop(cb); done {
				return
			}
		}
		if err != nil {
			s.handleTransportError(err, cb)
			return
		}
	}
}

// decodeLoop drains every complete frame currently buffered, invoking cb
// for each text message and handling close/error frames through the
// shutdown coordinator. It returns true once the connection has been fully
// torn down, telling wsReadLoop to stop.
func (s *Socket) decodeLoop(cb ReadFunc) bool {
	for {
		consumed, payload, _, status := ws.DecodeFrame(s.buf.live(), true)
		switch status {
		case ws.StatusIncomplete:
			return false

		case ws.StatusError:
			if cb != nil {
				cb(s, nil, ws.NewProtocolError())
			}
			s.teardown()
			return true

		case ws.StatusClose:
			s.buf.consume(consumed)
			return s.handleCloseReceived(cb)

		case ws.StatusOk:
			s.buf.consume(consumed)
			if cb != nil {
				cb(s, payload, nil)
			}
		}
	}
}

func (s *Socket) handleCloseReceived(cb ReadFunc) bool {
	s.condMu.Lock()
	s.receivedClose = true
	alreadySent := s.closeSent
	s.condMu.Unlock()

	if !alreadySent {
		if cb != nil {
			cb(s, nil, nil)
		}
		s.sendCloseFrame()
	}
	s.teardown()
	return true
}

func (s *Socket) handleTransportError(err error, cb ReadFunc) {
	s.condMu.Lock()
	s.peerEOF = true
	s.condMu.Unlock()

	if cb != nil {
		cb(s, nil, err)
	}
	s.lastErr = err
	s.teardown()
}
