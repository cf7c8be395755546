package codec

import (
	"errors"
	"runtime"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarInt_Encoding(t *testing.T) {
	testCases := []struct {
		name  string
		value uint64
		want  []byte
	}{
		{name: "zero", value: 0, want: []byte{0x00}},
		{name: "one byte max", value: 0xfc, want: []byte{0xfc}},
		{name: "uint16 min", value: 0xfd, want: []byte{0xfd, 0xfd, 0x00}},
		{name: "uint16 max", value: 0xffff, want: []byte{0xfd, 0xff, 0xff}},
		{name: "uint32 min", value: 0x10000, want: []byte{0xfe, 0x00, 0x00, 0x01, 0x00}},
		{name: "uint64", value: 0x100000000, want: []byte{0xff, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, len(tc.want), VarInt.EncodingLength(tc.value))

			out, err := Marshal(VarInt, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)

			v, err := Unmarshal(VarInt, out)
			require.NoError(t, err)
			assert.Equal(t, tc.value, v)
		})
	}
}

func TestVarInt_Malformed(t *testing.T) {
	t.Run("non-canonical", func(t *testing.T) {
		_, _, err := VarInt.Decode([]byte{0xfd, 0x01, 0x00}, 0, 3)
		assert.ErrorIs(t, err, ErrNonCanonicalVarInt)
	})

	t.Run("truncated", func(t *testing.T) {
		_, _, err := VarInt.Decode([]byte{0xfd, 0x01}, 0, 2)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := VarInt.Decode([]byte{}, 0, 0)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("short destination", func(t *testing.T) {
		_, err := VarInt.Encode(0xfd, make([]byte, 2), 0)
		assert.ErrorIs(t, err, ErrBufferTooSmall)
	})
}

func TestVarBuffer(t *testing.T) {
	out, err := Marshal(VarBuffer, []byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x01, 0x02, 0x03}, out)

	v, err := Unmarshal(VarBuffer, out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, v)

	out[1] = 0xff
	assert.Equal(t, byte(0x01), v[0], "decoded buffer must not alias the source")

	empty, err := Unmarshal(VarBuffer, []byte{0x00})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestVarBuffer_LargePayload(t *testing.T) {
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}
	out, err := Marshal(VarBuffer, payload)
	require.NoError(t, err)
	assert.Len(t, out, 303)
	assert.Equal(t, []byte{0xfd, 0x2c, 0x01}, out[:3])

	v, err := Unmarshal(VarBuffer, out)
	require.NoError(t, err)
	assert.Equal(t, payload, v)
}

func TestVarBuffer_DeclaredLengthPastEnd(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		end  int
	}{
		{name: "short payload", data: []byte{0x05, 0x01, 0x02}, end: 3},
		{name: "end inside payload", data: []byte{0x03, 0x01, 0x02, 0x03}, end: 3},
		{name: "huge count", data: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, end: 9},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := VarBuffer.Decode(tc.data, 0, tc.end)
			assert.ErrorIs(t, err, ErrInsufficientData)
		})
	}
}

func TestVarString(t *testing.T) {
	out, err := Marshal(VarString, "hi")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 'h', 'i'}, out)

	s, err := Unmarshal(VarString, out)
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	_, err = Marshal(VarString, "héllo")
	assert.ErrorIs(t, err, ErrNotASCII)

	_, _, err = VarString.Decode([]byte{0x01, 0xff}, 0, 2)
	assert.ErrorIs(t, err, ErrNotASCII)
}

func TestVarArray(t *testing.T) {
	ints := VarArray(Int32LE)

	out, err := Marshal[[]int32](ints, []int32{1, -1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff}, out)

	v, err := Unmarshal[[]int32](ints, out)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, -1}, v)

	t.Run("order preserved", func(t *testing.T) {
		in := []int32{5, 3, 9, 3, -7}
		out, err := Marshal[[]int32](ints, in)
		require.NoError(t, err)
		got, err := Unmarshal[[]int32](ints, out)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	})

	t.Run("empty", func(t *testing.T) {
		out, err := Marshal[[]int32](ints, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00}, out)

		got, err := Unmarshal[[]int32](ints, out)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("count exceeds data", func(t *testing.T) {
		_, _, err := ints.Decode([]byte{0x03, 0x01, 0x00, 0x00, 0x00}, 0, 5)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestVarArray_ElementErrorPath(t *testing.T) {
	strs := VarArray(VarString)
	data := []byte{0x02, 0x01, 'a', 0x01, 0x80}

	_, _, err := strs.Decode(data, 0, len(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotASCII)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "[1]", fe.Field)
}

// record is wider in memory than its minimum encoding (33 bytes).
type record struct {
	Hash chainhash.Hash
	Data []byte
}

var recordCodec = Struct(
	Bind("hash", Buffer32, func(r *record) *chainhash.Hash { return &r.Hash }),
	Bind("data", VarBuffer, func(r *record) *[]byte { return &r.Data }),
)

func TestVarArray_OversizedCountAllocation(t *testing.T) {
	records := VarArray[record](recordCodec)

	// count = 1<<20 followed by 1 MiB of zeros: about 31k records decode
	// before the data runs out. Reserving the declared count up front would
	// cost 56 bytes per claimed element.
	data := make([]byte, 5+1<<20)
	copy(data, []byte{0xfe, 0x00, 0x00, 0x10, 0x00})

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, _, err := records.Decode(data, 0, len(data))
	runtime.ReadMemStats(&after)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)

	allocated := after.TotalAlloc - before.TotalAlloc
	assert.Less(t, allocated, uint64(16*len(data)), "decoding %d bytes allocated %d", len(data), allocated)
}

func TestVarArray_FixedElementCountCheckedUpFront(t *testing.T) {
	hashes := VarArray(Buffer32)

	// Two complete hashes, but the prefix claims three.
	data := append([]byte{0x03}, make([]byte, 64)...)
	_, _, err := hashes.Decode(data, 0, len(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)

	var fe *FieldError
	assert.False(t, errors.As(err, &fe), "short data is reported before any element is decoded")

	data[0] = 0x02
	got, n, err := hashes.Decode(data, 0, len(data))
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Len(t, got, 2)
}

func TestVarString_MaskHighBit(t *testing.T) {
	data := []byte{0x03, 'a', 0xe2, 0xff}
	masked := VarStringCodec{Text: MaskHighBit}

	s, n, err := masked.Decode(data, 0, len(data))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "ab\x7f", s)

	// Elements of an array decode the same way.
	list := append([]byte{0x02}, append(data, 0x01, 0xc1)...)
	got, err := Unmarshal[[]string](VarArray[string](masked), list)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab\x7f", "A"}, got)
}
