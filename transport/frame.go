// Package transport carries relay envelopes over QUIC streams.
// Frames are a 4-byte big-endian length prefix followed by one JSON
// envelope; the engine never sees framing, only decoded events.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"

	"chat-relay/errors"
)

// MaxFrameSize caps a single envelope on the wire. Message text is
// truncated server-side anyway; the cap protects the decoder from
// hostile length prefixes.
const MaxFrameSize = 1 << 20

func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	if len(payload) > MaxFrameSize {
		return nil, errors.ErrFrameTooLarge
	}
	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out[:4], uint32(len(payload)))
	copy(out[4:], payload)
	return out, nil
}

func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return nil, fmt.Errorf("invalid frame size")
	}
	if n > MaxFrameSize {
		return nil, errors.ErrFrameTooLarge
	}
	payload := make([]byte, int(n))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
