package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	btcwire "github.com/btcsuite/btcd/wire"

	"github.com/ssargent/bitwire/pkg/codec"
)

// Reader provides sequential access to records in a session file
type Reader struct {
	file   *os.File
	reader *bufio.Reader
	codec  *RecordCodec
	offset int64
	config ReaderConfig
}

// NewReader opens a session file for reading
func NewReader(config ReaderConfig) (*Reader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			file.Close()
			return nil, err
		}
	}

	return &Reader{
		file:   file,
		reader: bufio.NewReader(file),
		codec:  NewRecordCodec(config.Records),
		offset: config.StartOffset,
		config: config,
	}, nil
}

// ReadNext reads the record at the current offset. It returns io.EOF at a
// clean end of file and ErrCorruption for a partial or damaged record.
func (r *Reader) ReadNext() (*Record, error) {
	record, n, err := r.readRecord(r.reader)
	if err != nil {
		return nil, err
	}
	r.offset += int64(n)
	return record, nil
}

// ReadAt reads a single record at offset without moving the sequential
// position.
func (r *Reader) ReadAt(offset int64) (*Record, error) {
	file, err := os.Open(r.config.FilePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	record, _, err := r.readRecord(bufio.NewReader(file))
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no record at offset %d", ErrCorruption, offset)
	}
	return record, err
}

// readRecord reads the header, the length prefix and the payload, then
// decodes and validates the whole record.
func (r *Reader) readRecord(br *bufio.Reader) (*Record, int, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(br, header); err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, 0, fmt.Errorf("%w: truncated record header", ErrCorruption)
		}
		return nil, 0, err
	}

	length, err := btcwire.ReadVarInt(br, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: payload length: %v", ErrCorruption, err)
	}
	if err := r.codec.checkPayloadSize(length); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrCorruption, err)
	}

	prefix, err := codec.Marshal(codec.VarInt, length)
	if err != nil {
		return nil, 0, err
	}

	data := make([]byte, 0, HeaderSize+len(prefix)+int(length))
	data = append(data, header...)
	data = append(data, prefix...)
	payloadStart := len(data)
	data = data[:payloadStart+int(length)]
	if _, err := io.ReadFull(br, data[payloadStart:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, 0, fmt.Errorf("%w: truncated payload", ErrCorruption)
		}
		return nil, 0, err
	}

	record, err := r.codec.Decode(data)
	if err != nil {
		return nil, 0, err
	}
	return record, len(data), nil
}

// Seek sets the read offset
func (r *Reader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	r.reader = bufio.NewReader(r.file) // Recreate reader to clear buffer
	r.offset = offset
	return nil
}

// Offset returns the current read offset
func (r *Reader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator for records
func (r *Reader) Iterator() RecordIterator {
	return &recordIterator{reader: r}
}

// Close closes the reader
func (r *Reader) Close() error {
	return r.file.Close()
}

type recordIterator struct {
	reader *Reader
	record *Record
	offset int64
	err    error
}

func (it *recordIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.offset = it.reader.Offset()
	it.record, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *recordIterator) Record() *Record {
	return it.record
}

func (it *recordIterator) Offset() int64 {
	return it.offset
}

func (it *recordIterator) Err() error {
	if errors.Is(it.err, io.EOF) {
		return nil
	}
	return it.err
}

func (it *recordIterator) Close() error {
	// The reader is owned by the caller
	return nil
}
