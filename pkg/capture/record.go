package capture

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"

	btcwire "github.com/btcsuite/btcd/wire"

	"github.com/ssargent/bitwire/pkg/codec"
)

// HeaderSize is the fixed prefix of every record: CRC32, timestamp and
// command name.
const HeaderSize = 4 + 8 + codec.CommandNameSize

// Record is one captured message.
//
//	[CRC32(4)][Timestamp(8)][Command(12)][PayloadLen varint][Payload]
//
// The CRC covers every byte after the CRC field.
type Record struct {
	CRC32     uint32
	Timestamp uint64 // Unix nanoseconds
	Command   string
	Payload   []byte
}

// Time returns the capture time.
func (r *Record) Time() time.Time {
	return time.Unix(0, int64(r.Timestamp)).UTC()
}

// RecordCodec encodes and decodes records with a given command-name policy.
type RecordCodec struct {
	layout  *codec.StructCodec[Record]
	maxSize int
}

// NewRecordCodec creates a record codec for opts.
func NewRecordCodec(opts RecordOptions) *RecordCodec {
	return &RecordCodec{
		layout: codec.Struct(
			codec.Bind("crc", codec.UInt32LE, func(r *Record) *uint32 { return &r.CRC32 }),
			codec.Bind("timestamp", codec.UInt64LE, func(r *Record) *uint64 { return &r.Timestamp }),
			codec.Bind[Record, string]("command", codec.CommandNameCodec{RequireTerminator: opts.RequireCommandTerminator}, func(r *Record) *string { return &r.Command }),
			codec.Bind("payload", codec.VarBuffer, func(r *Record) *[]byte { return &r.Payload }),
		),
		maxSize: opts.MaxPayloadSize,
	}
}

// Encode builds the record bytes for a message and fills in its CRC.
func (c *RecordCodec) Encode(command string, payload []byte, ts time.Time) ([]byte, error) {
	if err := c.checkPayloadSize(uint64(len(payload))); err != nil {
		return nil, err
	}

	record := Record{
		Timestamp: uint64(ts.UnixNano()),
		Command:   command,
		Payload:   payload,
	}
	data, err := codec.Marshal[Record](c.layout, record)
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint32(data[0:4], crc32.ChecksumIEEE(data[4:]))
	return data, nil
}

// Decode parses a complete record and validates its CRC.
func (c *RecordCodec) Decode(data []byte) (*Record, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: record shorter than header", ErrCorruption)
	}
	if crc32.ChecksumIEEE(data[4:]) != binary.LittleEndian.Uint32(data[0:4]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruption)
	}

	record, err := codec.Unmarshal[Record](c.layout, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruption, err)
	}
	return &record, nil
}

// EncodedSize returns the number of bytes a record with the given payload
// length occupies on disk.
func (c *RecordCodec) EncodedSize(payloadLen int) int {
	return HeaderSize + codec.VarInt.EncodingLength(uint64(payloadLen)) + payloadLen
}

func (c *RecordCodec) checkPayloadSize(n uint64) error {
	limit := c.maxSize
	if limit <= 0 {
		limit = btcwire.MaxMessagePayload
	}
	if n > uint64(limit) {
		return fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, n, limit)
	}
	return nil
}
