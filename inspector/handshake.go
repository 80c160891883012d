package inspector

import (
	"bytes"
	"fmt"

	"github.com/gobwas/httphead"
	"github.com/gobwas/pool/pbufio"

	"github.com/wsinspect/inspectorsocket/ws"
)

// Errors the handshake engine can produce. Each leads to a 400 response and
// EventFailed, except for the transport errors which skip straight to
// EventFailed with no bytes written.
var (
	ErrBadRequestMethod = fmt.Errorf("request method must be GET")
	ErrMalformedRequest = fmt.Errorf("malformed http request, or proto below HTTP/1.1")
	ErrBadUpgrade       = fmt.Errorf("missing or unrecognized Upgrade header")
	ErrBadConnection    = fmt.Errorf("missing or unrecognized Connection header")
	ErrBadSecKey        = fmt.Errorf("missing Sec-WebSocket-Key header")
)

const (
	headerUpgrade    = "Upgrade"
	headerConnection = "Connection"
	headerSecKey     = "Sec-WebSocket-Key"
)

var (
	upgradeToken = []byte("websocket")
	connOWSToken = []byte("upgrade")

	respUpgrade = []byte("HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: ")
	respBadRequest = []byte("HTTP/1.0 400 Bad Request\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		"WebSockets request was expected\r\n")
)

// scanRequests looks for complete HTTP requests at the front of the
// handshake buffer and dispatches each one in turn, the same way a single
// call into an incremental byte parser can surface more than one pipelined
// request from one TCP read. It stops as soon as a request is incomplete,
// or as soon as one request upgrades the connection (there is nothing left
// in HTTP mode to dispatch after that).
//
// Each request's bytes are copied out of the buffer and consumed before
// dispatchRequest is called, not after. dispatchRequest's Decide(EventUpgraded,
// ...) call is free to call ReadStart synchronously, which arms the
// WebSocket read loop on its own goroutine immediately; that goroutine reads
// s.buf the moment it wakes, with no coordination with this one beyond
// ordinary goroutine creation. Consuming first means the handshake goroutine
// is done touching s.buf before that loop can possibly start, instead of
// racing it to run a trailing consume after the fact.
func (s *Socket) scanRequests() {
	for s.mode == ModeHTTP {
		live := s.buf.live()
		end := bytes.Index(live, []byte("\r\n\r\n"))
		if end == -1 {
			return
		}
		header := append([]byte(nil), live[:end]...)
		s.buf.consume(end + 4)

		s.dispatchRequest(header)
		if !s.IsActive() || s.mode != ModeHTTP {
			// dispatchRequest failed the handshake (connection already torn
			// down, buffer released) or upgraded us (the WebSocket read
			// loop owns the buffer from here on); either way there is
			// nothing left here to scan.
			return
		}
	}
}

func (s *Socket) dispatchRequest(header []byte) {
	lines := bytes.Split(header, []byte("\r\n"))

	method, uri, ok := parseRequestLine(lines[0])
	if !ok {
		s.failHandshake(ErrMalformedRequest, "")
		return
	}
	path := string(uri)

	if !bytes.Equal(method, []byte("GET")) {
		s.failHandshake(ErrBadRequestMethod, path)
		return
	}

	var upgradeSeen, hasUpgrade, hasConnection bool
	var secKey string
	for _, line := range lines[1:] {
		k, v, ok := parseHeaderLine(line)
		if !ok {
			s.failHandshake(ErrMalformedRequest, path)
			return
		}
		switch string(k) {
		case headerUpgrade:
			upgradeSeen = true
			hasUpgrade = bytes.EqualFold(v, upgradeToken)
		case headerConnection:
			hasConnection = connectionHasUpgradeToken(v)
		case headerSecKey:
			secKey = string(v)
		}
	}

	switch {
	case !upgradeSeen:
		// No upgrade intent at all; this is an ordinary GET.
		s.decideHTTPGet(path)
	case !hasUpgrade:
		s.failHandshake(ErrBadUpgrade, path)
	case !hasConnection:
		s.failHandshake(ErrBadConnection, path)
	case secKey == "":
		s.failHandshake(ErrBadSecKey, path)
	default:
		s.decideUpgrade(path, secKey)
	}
}

func (s *Socket) decideHTTPGet(path string) {
	if !s.policy.Decide(s, EventHTTPGet, path) {
		s.failHandshake(nil, path)
	}
}

func (s *Socket) decideUpgrade(path, secKey string) {
	if !s.policy.Decide(s, EventUpgrading, path) {
		s.failHandshake(nil, path)
		return
	}
	// Switch modes before the 101 goes out, so that a peer that has read the
	// response already finds the socket in ModeWebSocket.
	s.enterWebSocketMode()
	if err := s.writeUpgradeResponse(secKey); err != nil {
		s.lastErr = err
		s.policy.Decide(s, EventFailed, path)
		s.teardown()
		return
	}
	s.policy.Decide(s, EventUpgraded, path)
}

func (s *Socket) writeUpgradeResponse(secKey string) error {
	bw := pbufio.GetWriter(s.conn, 256)
	defer pbufio.PutWriter(bw)

	if _, err := bw.Write(respUpgrade); err != nil {
		return err
	}
	if _, err := bw.WriteString(ws.ComputeAccept(secKey)); err != nil {
		return err
	}
	if _, err := bw.WriteString("\r\n\r\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func (s *Socket) failHandshake(err error, path string) {
	s.lastErr = err

	bw := pbufio.GetWriter(s.conn, 128)
	bw.Write(respBadRequest)
	bw.Flush()
	pbufio.PutWriter(bw)

	s.policy.Decide(s, EventFailed, path)
	s.teardown()
}

// parseRequestLine splits a request line like "GET /ws HTTP/1.1" into its
// method and request-URI, verifying that the protocol version is at least
// HTTP/1.1.
func parseRequestLine(line []byte) (method, uri []byte, ok bool) {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 == -1 {
		return nil, nil, false
	}
	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 == -1 {
		return nil, nil, false
	}
	method = line[:sp1]
	uri = rest[:sp2]
	proto := rest[sp2+1:]

	if !isHTTP11OrLater(proto) {
		return nil, nil, false
	}
	return method, uri, true
}

func isHTTP11OrLater(proto []byte) bool {
	const prefix = "HTTP/1."
	if len(proto) < len(prefix)+1 || string(proto[:len(prefix)]) != prefix {
		return false
	}
	minor := proto[len(prefix)]
	return minor >= '1' && minor <= '9'
}

// parseHeaderLine splits a header line on its first colon and trims
// surrounding whitespace from the value, the way every HTTP/1.1 header line
// must be read. Header names are matched case-sensitively by the caller, so
// no canonicalization happens here.
func parseHeaderLine(line []byte) (key, value []byte, ok bool) {
	colon := bytes.IndexByte(line, ':')
	if colon == -1 {
		return nil, nil, false
	}
	key = line[:colon]
	value = bytes.TrimSpace(line[colon+1:])
	return key, value, true
}

// connectionHasUpgradeToken reports whether the comma-separated Connection
// header value carries the "upgrade" token, case-insensitively, as RFC 6455
// requires (a value like "keep-alive, Upgrade" is just as valid as a bare
// "Upgrade").
func connectionHasUpgradeToken(value []byte) bool {
	found := false
	httphead.ScanTokens(value, func(token []byte) bool {
		if bytes.EqualFold(token, connOWSToken) {
			found = true
			return false
		}
		return true
	})
	return found
}
