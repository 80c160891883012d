package ws

import (
	"bytes"
	"testing"
)

func TestDecodeFrameRoundTrip(t *testing.T) {
	for _, text := range []string{"", "hello", "a longer message that forces the 16-bit length path to be exercised for real"} {
		t.Run(text, func(t *testing.T) {
			mask := [4]byte{0xde, 0xad, 0xbe, 0xef}
			frame := EncodeFrame([]byte(text), mask, false)

			consumed, payload, compressed, status := DecodeFrame(frame, true)
			if status != StatusOk {
				t.Fatalf("status = %v; want StatusOk", status)
			}
			if compressed {
				t.Errorf("compressed = true; want false")
			}
			if consumed != len(frame) {
				t.Errorf("consumed = %d; want %d", consumed, len(frame))
			}
			if !bytes.Equal(payload, []byte(text)) {
				t.Errorf("payload = %q; want %q", payload, text)
			}
		})
	}
}

func TestDecodeFrameIncomplete(t *testing.T) {
	mask := [4]byte{1, 2, 3, 4}
	frame := EncodeFrame([]byte("hello, world"), mask, false)

	for n := 0; n < len(frame); n++ {
		consumed, payload, _, status := DecodeFrame(frame[:n], true)
		if status != StatusIncomplete {
			t.Fatalf("prefix len %d: status = %v; want StatusIncomplete", n, status)
		}
		if consumed != 0 || payload != nil {
			t.Fatalf("prefix len %d: consumed=%d payload=%v; want zero values", n, consumed, payload)
		}
	}
}

func TestDecodeFrameUnmaskedFromClientIsError(t *testing.T) {
	frame := EncodeFrame([]byte("hi"), [4]byte{}, false)
	_, _, _, status := DecodeFrame(frame, true)
	if status != StatusError {
		t.Fatalf("status = %v; want StatusError", status)
	}
}

func TestDecodeFrameNonFinalIsError(t *testing.T) {
	frame := EncodeFrame([]byte("hi"), [4]byte{1, 2, 3, 4}, false)
	frame[0] &^= bit0 // clear FIN
	_, _, _, status := DecodeFrame(frame, true)
	if status != StatusError {
		t.Fatalf("status = %v; want StatusError", status)
	}
}

func TestDecodeFrameReservedBitsAreError(t *testing.T) {
	frame := EncodeFrame([]byte("hi"), [4]byte{1, 2, 3, 4}, false)
	frame[0] |= bit2 // set rsv2
	_, _, _, status := DecodeFrame(frame, true)
	if status != StatusError {
		t.Fatalf("status = %v; want StatusError", status)
	}
}

func TestDecodeFrameRejectsBinaryOpcode(t *testing.T) {
	frame := EncodeFrame([]byte("hi"), [4]byte{1, 2, 3, 4}, false)
	frame[0] = bit0 | byte(OpBinary)
	_, _, _, status := DecodeFrame(frame, true)
	if status != StatusError {
		t.Fatalf("status = %v; want StatusError", status)
	}
}

func TestDecodeFrameClose(t *testing.T) {
	frame := EncodeCloseFrame()
	consumed, payload, _, status := DecodeFrame(frame, false)
	if status != StatusClose {
		t.Fatalf("status = %v; want StatusClose", status)
	}
	if consumed != len(frame) {
		t.Errorf("consumed = %d; want %d", consumed, len(frame))
	}
	if len(payload) != 0 {
		t.Errorf("payload = %v; want empty", payload)
	}
}

func TestDecodeFrameRejectsOverflowingExtendedLength(t *testing.T) {
	// A masked frame header claiming a length near the int64 max: head(2) +
	// extended-length(8) + mask(4) + length must not wrap total negative.
	frame := []byte{
		bit0 | byte(OpText), // FIN, OpText
		bit0 | 127,          // masked, 64-bit length follows
		0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, // length = MaxInt64
		1, 2, 3, 4, // mask
	}
	consumed, payload, _, status := DecodeFrame(frame, true)
	if status != StatusError {
		t.Fatalf("status = %v; want StatusError", status)
	}
	if consumed != 0 || payload != nil {
		t.Fatalf("consumed=%d payload=%v; want zero values", consumed, payload)
	}
}

func TestDecodeFrameReportsCompressedOnError(t *testing.T) {
	frame := EncodeFrame([]byte("hi"), [4]byte{1, 2, 3, 4}, true)
	frame[0] &^= bit0 // clear FIN, forcing StatusError
	_, _, compressed, status := DecodeFrame(frame, true)
	if status != StatusError {
		t.Fatalf("status = %v; want StatusError", status)
	}
	if !compressed {
		t.Errorf("compressed = false; want true")
	}
}
