package wire

import (
	"encoding/hex"
	"fmt"
)

// Opaque8 is an 8-byte field preserved exactly as it appears on the wire.
// It marshals to and from hex text.
type Opaque8 [8]byte

func (o Opaque8) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(o[:])), nil
}

func (o *Opaque8) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != len(o) {
		return fmt.Errorf("expected %d bytes, got %d", len(o), len(b))
	}
	copy(o[:], b)
	return nil
}

// HexBytes is a variable-length byte field that marshals to hex text.
type HexBytes []byte

func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h)), nil
}

func (h *HexBytes) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	*h = b
	return nil
}
