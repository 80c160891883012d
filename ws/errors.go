package ws

import "fmt"

// ProtocolError is returned to a ReadFunc when DecodeFrame reports
// StatusError: a fragmented frame, a non-text/close opcode, an unmasked
// client frame, a compressed frame, or an oversized length field. The
// specific cause is not distinguished any further, the same way the
// original single-threaded implementation collapses every framing
// violation into one generic protocol error before closing the connection.
type ProtocolError struct {
	err error
}

func (e *ProtocolError) Error() string { return e.err.Error() }

// ErrProtocol is the sentinel wrapped by every *ProtocolError this package
// produces.
var ErrProtocol = fmt.Errorf("websocket protocol violation")

// NewProtocolError wraps ErrProtocol as a *ProtocolError for callers outside
// this package (the inspector read loop) that need to hand DecodeFrame's
// StatusError outcome to a user callback as an error value.
func NewProtocolError() *ProtocolError {
	return &ProtocolError{err: ErrProtocol}
}
