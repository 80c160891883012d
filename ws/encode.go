package ws

import "encoding/binary"

// EncodeFrame encodes payload as a single, final frame. mask of [4]byte{}
// produces an unmasked frame (the only form a server is allowed to send);
// any other mask produces a masked frame with the payload XORed into a
// fresh copy, leaving the caller's slice untouched.
func EncodeFrame(payload []byte, mask [4]byte, compressed bool) []byte {
	return AppendFrame(nil, OpText, payload, mask, compressed)
}

// EncodeCloseFrame encodes a zero-length close frame (opcode 8, no status
// code). This is the only close frame shape this package ever emits or
// expects to emit; peers that send a close frame carrying a status code are
// still accepted by DecodeFrame, but this server never echoes that code
// back.
func EncodeCloseFrame() []byte {
	return AppendFrame(nil, OpClose, nil, [4]byte{}, false)
}

// AppendFrame appends the encoding of an opcode/payload/mask combination to
// dst and returns the grown slice, in the style of strconv.AppendInt. A
// caller that holds a pooled buffer (sized by an estimate of the frame's
// length) can pass it as dst to avoid an allocation per frame; passing nil
// behaves like EncodeFrame/EncodeCloseFrame.
func AppendFrame(dst []byte, opcode OpCode, payload []byte, mask [4]byte, compressed bool) []byte {
	masked := mask != [4]byte{}
	length := int64(len(payload))

	var lenByte byte
	var extra int
	switch {
	case length < 126:
		lenByte = byte(length)
	case length <= len16:
		lenByte = 126
		extra = 2
	case length <= len64:
		lenByte = 127
		extra = 8
	}
	if masked {
		extra += 4
	}

	head := 2 + extra
	start := len(dst)
	dst = append(dst, make([]byte, head+len(payload))...)

	dst[start] = bit0 | byte(opcode) // FIN always set; this package never fragments.
	if compressed {
		dst[start] |= bit1
	}
	dst[start+1] = lenByte
	if masked {
		dst[start+1] |= bit0
	}

	pos := start + 2
	switch lenByte {
	case 126:
		binary.BigEndian.PutUint16(dst[pos:], uint16(length))
		pos += 2
	case 127:
		binary.BigEndian.PutUint64(dst[pos:], uint64(length))
		pos += 8
	}
	if masked {
		copy(dst[pos:], mask[:])
		pos += 4
	}

	copy(dst[pos:], payload)
	if masked {
		Cipher(dst[pos:pos+len(payload)], mask[:], 0)
	}
	return dst
}
