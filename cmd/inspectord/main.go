// Command inspectord is a minimal demonstration of package inspector: it
// listens on a TCP port, accepts inspector connections, serving each on its
// own goroutine, and echoes every text message it receives back to the
// sender.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wsinspect/inspectorsocket/inspector"
)

var addr = flag.String("listen", "127.0.0.1:9223", "addr to listen")

func main() {
	log.SetFlags(0)
	flag.Parse()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("listen %q error: %v", *addr, err)
	}
	log.Printf("inspector socket listening on %s", ln.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-sig
		log.Printf("signal %q received; shutting down", s)
		cancel()
		ln.Close()
	}()

	policy := inspector.PolicyFunc(func(sock *inspector.Socket, event inspector.Event, path string) bool {
		log.Printf("%s %s: %q", sock.RemoteAddr(), event, path)
		if event == inspector.EventUpgraded {
			if upgraded, ok := sock.UserData().(chan struct{}); ok {
				upgraded <- struct{}{}
			}
		}
		return true
	})

	for {
		upgraded := make(chan struct{}, 1)
		sock, err := inspector.Accept(ln, policy, upgraded)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("accept error: %v", err)
			continue
		}
		go serve(sock, upgraded)
	}
}

func serve(sock *inspector.Socket, upgraded chan struct{}) {
	deadline := time.NewTimer(30 * time.Second)
	defer deadline.Stop()

	select {
	case <-upgraded:
	case <-deadline.C:
		return
	}

	sock.ReadStart(func(sock *inspector.Socket, payload []byte, err error) {
		switch {
		case err != nil:
			log.Printf("%s: read error: %v", sock.RemoteAddr(), err)
		case payload == nil:
			sock.Close(func(sock *inspector.Socket) {
				log.Printf("%s: closed", sock.RemoteAddr())
			})
		default:
			if werr := sock.Write(payload); werr != nil {
				log.Printf("%s: write error: %v", sock.RemoteAddr(), werr)
			}
		}
	})
}
