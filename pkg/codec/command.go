package codec

import (
	"bytes"
	"fmt"
	"strings"
)

// CommandNameSize is the width of a command name on the wire.
const CommandNameSize = 12

// CommandNameCodec encodes protocol command names as 12 bytes of ASCII
// followed by zero padding. Names longer than the field are rejected, never
// truncated.
//
// A name that fills all 12 bytes carries no terminator. It is accepted
// unless RequireTerminator is set. Text selects how bytes above 0x7f are
// decoded.
type CommandNameCodec struct {
	RequireTerminator bool
	Text              TextMode
}

// CommandName is the default command-name codec; it accepts full-width names.
var CommandName = CommandNameCodec{}

func (c CommandNameCodec) Encode(v string, buf []byte, offset int) (int, error) {
	if len(v) > CommandNameSize || (c.RequireTerminator && len(v) == CommandNameSize) {
		return 0, fmt.Errorf("%w: %q is %d bytes", ErrNameTooLong, v, len(v))
	}
	if err := checkASCII(v); err != nil {
		return 0, err
	}
	if strings.IndexByte(v, 0) >= 0 {
		return 0, fmt.Errorf("%w: %q contains a null byte", ErrMalformedPaddedString, v)
	}
	if err := checkSpace(buf, offset, CommandNameSize); err != nil {
		return 0, err
	}
	field := buf[offset : offset+CommandNameSize]
	n := copy(field, v)
	clear(field[n:])
	return CommandNameSize, nil
}

func (c CommandNameCodec) Decode(buf []byte, offset, end int) (string, int, error) {
	if err := checkData(buf, offset, end, CommandNameSize); err != nil {
		return "", 0, err
	}
	field := buf[offset : offset+CommandNameSize]
	stop := bytes.IndexByte(field, 0)
	if stop < 0 {
		if c.RequireTerminator {
			return "", 0, fmt.Errorf("%w: no terminator in %q", ErrMalformedPaddedString, field)
		}
		stop = CommandNameSize
	}
	for _, b := range field[stop:] {
		if b != 0 {
			return "", 0, fmt.Errorf("%w: non-null byte after terminator in %q", ErrMalformedPaddedString, field)
		}
	}
	name, err := decodeText(field[:stop], c.Text)
	if err != nil {
		return "", 0, err
	}
	return name, CommandNameSize, nil
}

func (CommandNameCodec) EncodingLength(string) int { return CommandNameSize }

func (CommandNameCodec) Size() int { return CommandNameSize }

// TextMode selects how text fields treat bytes above 0x7f when decoding.
// Encoding always requires 7-bit ASCII.
type TextMode uint8

const (
	// StrictASCII rejects bytes above 0x7f with ErrNotASCII.
	StrictASCII TextMode = iota
	// MaskHighBit clears the high bit of every byte, so any input decodes.
	MaskHighBit
)

// ParseTextMode accepts "strict" or "mask". An empty string means strict.
func ParseTextMode(s string) (TextMode, error) {
	switch s {
	case "", "strict":
		return StrictASCII, nil
	case "mask":
		return MaskHighBit, nil
	}
	return StrictASCII, fmt.Errorf("unknown text mode %q (want strict or mask)", s)
}

func (m TextMode) String() string {
	if m == MaskHighBit {
		return "mask"
	}
	return "strict"
}

func decodeText(b []byte, mode TextMode) (string, error) {
	if mode != MaskHighBit {
		s := string(b)
		return s, checkASCII(s)
	}
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = c & 0x7f
	}
	return string(out), nil
}

func checkASCII(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return fmt.Errorf("%w: byte 0x%02x at index %d", ErrNotASCII, s[i], i)
		}
	}
	return nil
}
