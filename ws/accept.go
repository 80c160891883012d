package ws

import (
	"crypto/sha1"
	"encoding/base64"
	"hash"
	"sync"
)

// acceptSize is len(base64.StdEncoding.EncodedLen(sha1.Size)).
const acceptSize = 28

// webSocketMagic is the GUID RFC6455 requires every accept value to be
// derived from.
var webSocketMagic = []byte("258EAFA5-E914-47DA-95CA-C5AB0DC85B11")

var sha1Pool sync.Pool

func acquireSha1() hash.Hash {
	if h := sha1Pool.Get(); h != nil {
		return h.(hash.Hash)
	}
	return sha1.New()
}

func releaseSha1(h hash.Hash) {
	h.Reset()
	sha1Pool.Put(h)
}

// ComputeAccept computes the Sec-WebSocket-Accept value for a client's
// Sec-WebSocket-Key header value. The result is always 28 ASCII bytes and
// carries no terminator; callers writing it into an HTTP header do not need
// to trim anything.
func ComputeAccept(key string) string {
	sha := acquireSha1()
	defer releaseSha1(sha)

	sha.Write(strToBytes(key))
	sha.Write(webSocketMagic)

	var sum [sha1.Size]byte
	sha.Sum(sum[:0])

	var dst [acceptSize]byte
	base64.StdEncoding.Encode(dst[:], sum[:])
	return string(dst[:])
}
