package codec

import "fmt"

// Codec encodes and decodes values of type T at explicit offsets into
// caller-owned buffers. Implementations hold no mutable state and never
// retain a buffer past the call.
type Codec[T any] interface {
	// Encode writes v into buf starting at offset and returns the number of
	// bytes written. Space is checked before anything is written; after any
	// other error the contents of buf[offset:] are unspecified.
	Encode(v T, buf []byte, offset int) (int, error)
	// Decode reads a value from buf[offset:end] and returns it together with
	// the number of bytes consumed.
	Decode(buf []byte, offset, end int) (T, int, error)
	// EncodingLength returns the exact number of bytes Encode writes for v.
	EncodingLength(v T) int
}

// Sizer is implemented by codecs whose encoding width does not depend on the value.
type Sizer interface {
	Size() int
}

// FixedSize returns the constant width of c, if it has one.
func FixedSize[T any](c Codec[T]) (int, bool) {
	s, ok := c.(Sizer)
	if !ok {
		return 0, false
	}
	return s.Size(), true
}

// Marshal encodes v into a newly allocated slice of exactly EncodingLength(v) bytes.
func Marshal[T any](c Codec[T], v T) ([]byte, error) {
	buf := make([]byte, c.EncodingLength(v))
	n, err := c.Encode(v, buf, 0)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Unmarshal decodes a single value that must span all of data.
func Unmarshal[T any](c Codec[T], data []byte) (T, error) {
	v, n, err := c.Decode(data, 0, len(data))
	if err != nil {
		var zero T
		return zero, err
	}
	if n != len(data) {
		var zero T
		return zero, fmt.Errorf("%w: %d of %d bytes unread", ErrTrailingData, len(data)-n, len(data))
	}
	return v, nil
}
