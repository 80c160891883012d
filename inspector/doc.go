/*
Package inspector drives a single TCP connection through an HTTP/1.1
handshake and, once upgraded, a text-only WebSocket session, the way a
debugging agent publishes a localhost endpoint for a front-end to attach
to.

Accept takes over an already-listening net.Listener's next connection:

	sock, err := inspector.Accept(ln, policy, nil)

policy is consulted at each handshake Event and decides whether the
connection progresses:

	policy := inspector.PolicyFunc(func(sock *inspector.Socket, event inspector.Event, path string) bool {
		return path != "/forbidden"
	})

Once EventUpgraded fires, the caller arms reads and starts sending:

	sock.ReadStart(func(sock *inspector.Socket, payload []byte, err error) {
		if err != nil || payload == nil {
			return
		}
		sock.Write(payload) // echo
	})

Close runs the two-sided close handshake and reports completion once:

	sock.Close(func(sock *inspector.Socket) {
		log.Printf("closed %s", sock.RemoteAddr())
	})
*/
package inspector
