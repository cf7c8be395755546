package capture

import (
	"encoding/binary"
	"hash/crc32"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitwire/pkg/codec"
)

func TestRecordCodec_Layout(t *testing.T) {
	c := NewRecordCodec(RecordOptions{})
	ts := time.Unix(1700000000, 123).UTC()

	data, err := c.Encode("ping", []byte{1, 2, 3}, ts)
	require.NoError(t, err)
	require.Len(t, data, HeaderSize+1+3)
	assert.Equal(t, c.EncodedSize(3), len(data))

	assert.Equal(t, crc32.ChecksumIEEE(data[4:]), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint64(ts.UnixNano()), binary.LittleEndian.Uint64(data[4:12]))
	assert.Equal(t, []byte("ping\x00\x00\x00\x00\x00\x00\x00\x00"), data[12:24])
	assert.Equal(t, byte(3), data[24])
	assert.Equal(t, []byte{1, 2, 3}, data[25:])
}

func TestRecordCodec_RoundTrip(t *testing.T) {
	c := NewRecordCodec(RecordOptions{})
	ts := time.Unix(1600000000, 0)

	data, err := c.Encode("tx", []byte("payload"), ts)
	require.NoError(t, err)

	record, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "tx", record.Command)
	assert.Equal(t, []byte("payload"), record.Payload)
	assert.True(t, ts.Equal(record.Time()))
	assert.Equal(t, binary.LittleEndian.Uint32(data[0:4]), record.CRC32)
}

func TestRecordCodec_EmptyPayload(t *testing.T) {
	c := NewRecordCodec(RecordOptions{})

	data, err := c.Encode("verack", nil, time.Now())
	require.NoError(t, err)
	assert.Len(t, data, HeaderSize+1)

	record, err := c.Decode(data)
	require.NoError(t, err)
	assert.NotNil(t, record.Payload)
	assert.Empty(t, record.Payload)
}

func TestRecordCodec_Corruption(t *testing.T) {
	c := NewRecordCodec(RecordOptions{})
	data, err := c.Encode("inv", []byte{0xaa, 0xbb}, time.Now())
	require.NoError(t, err)

	t.Run("flipped payload bit", func(t *testing.T) {
		damaged := append([]byte(nil), data...)
		damaged[len(damaged)-1] ^= 0x01
		_, err := c.Decode(damaged)
		assert.ErrorIs(t, err, ErrCorruption)
	})

	t.Run("short record", func(t *testing.T) {
		_, err := c.Decode(data[:10])
		assert.ErrorIs(t, err, ErrCorruption)
	})

	t.Run("valid crc over bad layout", func(t *testing.T) {
		damaged := append([]byte(nil), data...)
		damaged = append(damaged, 0xff)
		binary.LittleEndian.PutUint32(damaged[0:4], crc32.ChecksumIEEE(damaged[4:]))
		_, err := c.Decode(damaged)
		assert.ErrorIs(t, err, ErrCorruption)
		assert.ErrorIs(t, err, codec.ErrTrailingData)
	})
}

func TestRecordCodec_CommandPolicy(t *testing.T) {
	loose := NewRecordCodec(RecordOptions{})
	strict := NewRecordCodec(RecordOptions{RequireCommandTerminator: true})

	data, err := loose.Encode("abcdefghijkl", nil, time.Now())
	require.NoError(t, err)

	_, err = loose.Decode(data)
	assert.NoError(t, err)

	_, err = strict.Decode(data)
	assert.ErrorIs(t, err, codec.ErrMalformedPaddedString)

	_, err = strict.Encode("abcdefghijkl", nil, time.Now())
	assert.ErrorIs(t, err, codec.ErrNameTooLong)
}

func TestRecordCodec_PayloadLimit(t *testing.T) {
	c := NewRecordCodec(RecordOptions{MaxPayloadSize: 4})

	_, err := c.Encode("tx", make([]byte, 4), time.Now())
	assert.NoError(t, err)

	_, err = c.Encode("tx", make([]byte, 5), time.Now())
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}
