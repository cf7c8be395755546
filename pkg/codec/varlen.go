package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
)

// pver is passed to the btcd varint routines, which ignore it.
const pver = 0

type varInt struct{}

// VarInt is the Bitcoin CompactSize unsigned integer used for every length
// prefix. Decoding rejects non-minimal encodings, as the network does.
var VarInt Codec[uint64] = varInt{}

func (varInt) Encode(v uint64, buf []byte, offset int) (int, error) {
	n := wire.VarIntSerializeSize(v)
	if err := checkSpace(buf, offset, n); err != nil {
		return 0, err
	}
	w := &sliceWriter{buf: buf[offset : offset+n]}
	if err := wire.WriteVarInt(w, pver, v); err != nil {
		return 0, err
	}
	return n, nil
}

func (varInt) Decode(buf []byte, offset, end int) (uint64, int, error) {
	avail, err := checkRange(buf, offset, end)
	if err != nil {
		return 0, 0, err
	}
	r := bytes.NewReader(buf[offset:end])
	v, err := wire.ReadVarInt(r, pver)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, 0, fmt.Errorf("%w: truncated varint at offset %d", ErrInsufficientData, offset)
		}
		return 0, 0, fmt.Errorf("%w: %v", ErrNonCanonicalVarInt, err)
	}
	return v, avail - r.Len(), nil
}

func (varInt) EncodingLength(v uint64) int { return wire.VarIntSerializeSize(v) }

// sliceWriter is an io.Writer over a preallocated destination.
type sliceWriter struct {
	buf []byte
	n   int
}

func (w *sliceWriter) Write(p []byte) (int, error) {
	if len(w.buf)-w.n < len(p) {
		return 0, ErrBufferTooSmall
	}
	copy(w.buf[w.n:], p)
	w.n += len(p)
	return len(p), nil
}

// decodeCount reads a length prefix and checks that count units of at least
// one byte each can still fit before end.
func decodeCount(buf []byte, offset, end int) (int, int, error) {
	count, n, err := VarInt.Decode(buf, offset, end)
	if err != nil {
		return 0, 0, err
	}
	if remaining := uint64(end - offset - n); count > remaining {
		return 0, 0, fmt.Errorf("%w: declared length %d exceeds %d remaining bytes", ErrInsufficientData, count, remaining)
	}
	return int(count), n, nil
}

type varBuffer struct{}

// VarBuffer is a varint byte count followed by that many raw bytes.
var VarBuffer Codec[[]byte] = varBuffer{}

func (varBuffer) Encode(v []byte, buf []byte, offset int) (int, error) {
	total := varBuffer{}.EncodingLength(v)
	if err := checkSpace(buf, offset, total); err != nil {
		return 0, err
	}
	n, err := VarInt.Encode(uint64(len(v)), buf, offset)
	if err != nil {
		return 0, err
	}
	copy(buf[offset+n:], v)
	return total, nil
}

func (varBuffer) Decode(buf []byte, offset, end int) ([]byte, int, error) {
	length, n, err := decodeCount(buf, offset, end)
	if err != nil {
		return nil, 0, err
	}
	start := offset + n
	out := make([]byte, length)
	copy(out, buf[start:start+length])
	return out, n + length, nil
}

func (varBuffer) EncodingLength(v []byte) int {
	return wire.VarIntSerializeSize(uint64(len(v))) + len(v)
}

// VarStringCodec is a varint-prefixed ASCII string. Text selects how bytes
// above 0x7f are decoded.
type VarStringCodec struct {
	Text TextMode
}

// VarString is the strict VarStringCodec.
var VarString Codec[string] = VarStringCodec{}

func (VarStringCodec) Encode(v string, buf []byte, offset int) (int, error) {
	if err := checkASCII(v); err != nil {
		return 0, err
	}
	return VarBuffer.Encode([]byte(v), buf, offset)
}

func (c VarStringCodec) Decode(buf []byte, offset, end int) (string, int, error) {
	length, n, err := decodeCount(buf, offset, end)
	if err != nil {
		return "", 0, err
	}
	start := offset + n
	s, err := decodeText(buf[start:start+length], c.Text)
	if err != nil {
		return "", 0, err
	}
	return s, n + length, nil
}

func (VarStringCodec) EncodingLength(v string) int {
	return wire.VarIntSerializeSize(uint64(len(v))) + len(v)
}

// maxArrayPrealloc bounds the capacity reserved for variable-width elements
// before any of them has been decoded. The count prefix only guarantees one
// byte per element, which says little about the in-memory size of T.
const maxArrayPrealloc = 1024

// ArrayCodec is a varint element count followed by each element in order.
type ArrayCodec[T any] struct {
	elem Codec[T]
}

// VarArray builds an ArrayCodec over elem. Elements must encode to at least
// one byte.
func VarArray[T any](elem Codec[T]) ArrayCodec[T] {
	return ArrayCodec[T]{elem: elem}
}

func (c ArrayCodec[T]) Encode(v []T, buf []byte, offset int) (int, error) {
	total := c.EncodingLength(v)
	if err := checkSpace(buf, offset, total); err != nil {
		return 0, err
	}
	cursor := offset
	n, err := VarInt.Encode(uint64(len(v)), buf, cursor)
	if err != nil {
		return 0, err
	}
	cursor += n
	for i, item := range v {
		n, err := c.elem.Encode(item, buf, cursor)
		if err != nil {
			return 0, wrapField(fmt.Sprintf("[%d]", i), err)
		}
		cursor += n
	}
	return cursor - offset, nil
}

func (c ArrayCodec[T]) Decode(buf []byte, offset, end int) ([]T, int, error) {
	count, n, err := decodeCount(buf, offset, end)
	if err != nil {
		return nil, 0, err
	}
	cursor := offset + n
	remaining := end - cursor
	prealloc := min(count, maxArrayPrealloc)
	if size, ok := FixedSize(c.elem); ok && size > 0 {
		if count > remaining/size {
			return nil, 0, fmt.Errorf("%w: %d elements of %d bytes exceed %d remaining bytes", ErrInsufficientData, count, size, remaining)
		}
		prealloc = count
	}
	out := make([]T, 0, prealloc)
	for i := 0; i < count; i++ {
		item, n, err := c.elem.Decode(buf, cursor, end)
		if err != nil {
			return nil, 0, wrapField(fmt.Sprintf("[%d]", i), err)
		}
		out = append(out, item)
		cursor += n
	}
	return out, cursor - offset, nil
}

func (c ArrayCodec[T]) EncodingLength(v []T) int {
	total := wire.VarIntSerializeSize(uint64(len(v)))
	for _, item := range v {
		total += c.elem.EncodingLength(item)
	}
	return total
}
