/*
Package ws implements the wire-level pieces of an RFC 6455 WebSocket server
endpoint that only ever speaks text frames: computing the handshake accept
value, and encoding and decoding the hybi-17 frame format.

The package favors a non-blocking, slice-in/slice-out shape over the usual
io.Reader/io.Writer style, since callers own a single growable byte buffer fed
by arbitrary TCP reads and need to know whether a frame is fully buffered
before acting on it:

	for {
		consumed, payload, compressed, status := ws.DecodeFrame(buf, true)
		switch status {
		case ws.StatusIncomplete:
			return // wait for more bytes
		case ws.StatusError:
			// protocol violation
		case ws.StatusClose:
			// peer initiated close
		case ws.StatusOk:
			// payload is ready
		}
		buf = buf[consumed:]
	}

Outbound frames are produced with EncodeFrame, which always writes a single,
final text frame; a zero mask, as a server uses, leaves it unmasked:

	conn.Write(ws.EncodeFrame([]byte("hello"), [4]byte{}, false))
*/
package ws
