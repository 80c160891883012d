package ws

import (
	"bytes"
	"testing"
)

func TestEncodeFrameUnmaskedShape(t *testing.T) {
	frame := EncodeFrame([]byte("hi"), [4]byte{}, false)
	if len(frame) != 4 {
		t.Fatalf("len(frame) = %d; want 4", len(frame))
	}
	if frame[0] != bit0|byte(OpText) {
		t.Errorf("frame[0] = %#x; want FIN|OpText", frame[0])
	}
	if frame[1] != 2 {
		t.Errorf("frame[1] = %d; want 2 (no mask bit, length 2)", frame[1])
	}
	if !bytes.Equal(frame[2:], []byte("hi")) {
		t.Errorf("payload = %q; want %q", frame[2:], "hi")
	}
}

func TestEncodeFrameExtendedLength(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 200)
	frame := EncodeFrame(payload, [4]byte{}, false)
	if frame[1] != 126 {
		t.Fatalf("frame[1] = %d; want 126", frame[1])
	}
	if len(frame) != 2+2+len(payload) {
		t.Fatalf("len(frame) = %d; want %d", len(frame), 2+2+len(payload))
	}
}

func TestEncodeCloseFrameIsTwoBytes(t *testing.T) {
	frame := EncodeCloseFrame()
	if !bytes.Equal(frame, []byte{0x88, 0x00}) {
		t.Errorf("EncodeCloseFrame() = %#x; want 0x88 0x00", frame)
	}
}

func TestEncodeFrameMaskLeavesInputUntouched(t *testing.T) {
	payload := []byte("don't mutate me")
	original := append([]byte(nil), payload...)

	EncodeFrame(payload, [4]byte{1, 2, 3, 4}, false)

	if !bytes.Equal(payload, original) {
		t.Errorf("EncodeFrame mutated its input payload: got %q, want %q", payload, original)
	}
}
