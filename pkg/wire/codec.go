package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// Frame flags. The first byte of every frame says how the rest is encoded.
const (
	frameRaw    byte = 0x00
	frameSnappy byte = 0x01
)

// CompressionThreshold is the payload size above which frames are
// snappy-compressed. Conformance values are kilobytes of repeated bytes, so
// compression pays for itself quickly.
const CompressionThreshold = 512

// ErrEmptyFrame indicates a zero-length frame was received.
var ErrEmptyFrame = errors.New("empty wire frame")

// Encode serializes a message into a frame: one flag byte followed by the
// JSON body, snappy-compressed when the body exceeds the threshold.
func Encode(msg *Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	if len(body) > CompressionThreshold {
		compressed := snappy.Encode(nil, body)
		frame := make([]byte, 1+len(compressed))
		frame[0] = frameSnappy
		copy(frame[1:], compressed)
		return frame, nil
	}
	frame := make([]byte, 1+len(body))
	frame[0] = frameRaw
	copy(frame[1:], body)
	return frame, nil
}

// Decode parses a frame produced by Encode.
func Decode(frame []byte) (*Message, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}
	body := frame[1:]
	switch frame[0] {
	case frameSnappy:
		decoded, err := snappy.Decode(nil, body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress frame: %w", err)
		}
		body = decoded
	case frameRaw:
		// body used as-is
	default:
		return nil, fmt.Errorf("unknown frame flag 0x%02x", frame[0])
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &msg, nil
}
