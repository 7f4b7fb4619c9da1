package domain

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeBinary serializes the payload with msgpack. This is the compact
// boundary format used when payloads are handed to out-of-process consumers.
func (p Payload) EncodeBinary() ([]byte, error) {
	raw, err := msgpack.Marshal(map[string]any(p))
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return raw, nil
}

// DecodePayload deserializes a msgpack-encoded payload.
func DecodePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := msgpack.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return p, nil
}
