package capture

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Writer appends records to a session file
type Writer struct {
	file       *os.File
	writer     *bufio.Writer
	codec      *RecordCodec
	fsyncTimer *time.Timer
	config     WriterConfig
	mutex      sync.Mutex
	offset     int64 // Current write offset
	closed     bool
	// failed is set when a write or flush errors. The file may then end in
	// a partial record, so no further records are accepted.
	failed     error
	now        func() time.Time
}

// NewWriter opens config.FilePath for appending, creating it and its
// directory if needed.
func NewWriter(config WriterConfig) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, err
	}

	writer := &Writer{
		file:   file,
		writer: bufio.NewWriterSize(file, config.BufferSize),
		codec:  NewRecordCodec(config.Records),
		config: config,
		offset: offset,
		now:    time.Now,
	}

	if config.FsyncInterval > 0 {
		writer.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			writer.mutex.Lock()
			defer writer.mutex.Unlock()
			if !writer.closed && writer.failed == nil {
				writer.sync() // Ignore error in timer callback
			}
		})
	}

	return writer, nil
}

// Append writes a record for command and payload and returns its offset
func (w *Writer) Append(command string, payload []byte) (int64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return 0, ErrClosed
	}
	if w.failed != nil {
		return 0, w.failed
	}

	data, err := w.codec.Encode(command, payload, w.now())
	if err != nil {
		return 0, err
	}

	n, err := w.writer.Write(data)
	if err != nil {
		return 0, w.fail(err)
	}

	recordOffset := w.offset
	w.offset += int64(n)

	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return 0, err
		}
	} else if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}

	return recordOffset, nil
}

// Sync forces a fsync to disk
func (w *Writer) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.failed != nil {
		return w.failed
	}
	return w.sync()
}

func (w *Writer) sync() error {
	if err := w.writer.Flush(); err != nil {
		return w.fail(err)
	}
	return w.file.Sync()
}

func (w *Writer) fail(err error) error {
	w.failed = fmt.Errorf("%w: session writer failed: %w", ErrWriteFailed, err)
	return w.failed
}

// Close syncs outstanding records and closes the file. Closing twice is a no-op.
func (w *Writer) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}

	if w.failed != nil {
		w.file.Close()
		return w.failed
	}
	if err := w.sync(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// Size returns the current size of the session file
func (w *Writer) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Path returns the file path
func (w *Writer) Path() string {
	return w.config.FilePath
}
