package codec

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// fixed is a codec for values with a constant encoded width.
type fixed[T any] struct {
	size int
	put  func(b []byte, v T)
	get  func(b []byte) T
}

func (c fixed[T]) Encode(v T, buf []byte, offset int) (int, error) {
	if err := checkSpace(buf, offset, c.size); err != nil {
		return 0, err
	}
	c.put(buf[offset:offset+c.size], v)
	return c.size, nil
}

func (c fixed[T]) Decode(buf []byte, offset, end int) (T, int, error) {
	if err := checkData(buf, offset, end, c.size); err != nil {
		var zero T
		return zero, 0, err
	}
	return c.get(buf[offset : offset+c.size]), c.size, nil
}

func (c fixed[T]) EncodingLength(T) int { return c.size }

func (c fixed[T]) Size() int { return c.size }

// Fixed builds a codec for a size-byte value from a pair of conversion funcs.
// put and get always see a slice of exactly size bytes.
func Fixed[T any](size int, put func(b []byte, v T), get func(b []byte) T) Codec[T] {
	return fixed[T]{size: size, put: put, get: get}
}

// Integer codecs. Everything on the wire is little-endian except port numbers.
var (
	UInt8 Codec[uint8] = fixed[uint8]{
		size: 1,
		put:  func(b []byte, v uint8) { b[0] = v },
		get:  func(b []byte) uint8 { return b[0] },
	}
	UInt16LE Codec[uint16] = fixed[uint16]{
		size: 2,
		put:  binary.LittleEndian.PutUint16,
		get:  binary.LittleEndian.Uint16,
	}
	UInt16BE Codec[uint16] = fixed[uint16]{
		size: 2,
		put:  binary.BigEndian.PutUint16,
		get:  binary.BigEndian.Uint16,
	}
	UInt32LE Codec[uint32] = fixed[uint32]{
		size: 4,
		put:  binary.LittleEndian.PutUint32,
		get:  binary.LittleEndian.Uint32,
	}
	Int32LE Codec[int32] = fixed[int32]{
		size: 4,
		put:  func(b []byte, v int32) { binary.LittleEndian.PutUint32(b, uint32(v)) },
		get:  func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) },
	}
	UInt64LE Codec[uint64] = fixed[uint64]{
		size: 8,
		put:  binary.LittleEndian.PutUint64,
		get:  binary.LittleEndian.Uint64,
	}
	Int64LE Codec[int64] = fixed[int64]{
		size: 8,
		put:  func(b []byte, v int64) { binary.LittleEndian.PutUint64(b, uint64(v)) },
		get:  func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) },
	}
)

// Bool writes 0x01 for true and 0x00 for false. Any nonzero byte decodes as true.
var Bool Codec[bool] = fixed[bool]{
	size: 1,
	put: func(b []byte, v bool) {
		b[0] = 0
		if v {
			b[0] = 1
		}
	},
	get: func(b []byte) bool { return b[0] != 0 },
}

// Fixed-size opaque buffers. Decoded values are copies, never views into the source.
var (
	Buffer8 Codec[[8]byte] = fixed[[8]byte]{
		size: 8,
		put:  func(b []byte, v [8]byte) { copy(b, v[:]) },
		get:  func(b []byte) (v [8]byte) { copy(v[:], b); return },
	}
	Buffer16 Codec[[16]byte] = fixed[[16]byte]{
		size: 16,
		put:  func(b []byte, v [16]byte) { copy(b, v[:]) },
		get:  func(b []byte) (v [16]byte) { copy(v[:], b); return },
	}
	Buffer32 Codec[chainhash.Hash] = fixed[chainhash.Hash]{
		size: chainhash.HashSize,
		put:  func(b []byte, v chainhash.Hash) { copy(b, v[:]) },
		get:  func(b []byte) (v chainhash.Hash) { copy(v[:], b); return },
	}
)
