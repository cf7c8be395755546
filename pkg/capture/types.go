// Package capture stores raw protocol messages in append-only session files.
// Each record carries the command name, the payload and a CRC32 over both so
// a damaged or truncated file is detected on read.
package capture

import (
	"time"
)

// WriterConfig holds configuration for a session writer
type WriterConfig struct {
	FilePath      string        // Path to the session file
	FsyncInterval time.Duration // How often to fsync (0 = every append)
	BufferSize    int           // Write buffer size
	Records       RecordOptions
}

// ReaderConfig holds configuration for a session reader
type ReaderConfig struct {
	FilePath    string // Path to the session file
	StartOffset int64  // Offset to start reading from
	Records     RecordOptions
}

// RecordOptions are the decoding policies shared by writers and readers.
type RecordOptions struct {
	RequireCommandTerminator bool
	MaxPayloadSize           int // 0 means the protocol's MaxMessagePayload
}

// StoreConfig holds configuration for a directory of sessions
type StoreConfig struct {
	Dir           string
	FsyncInterval time.Duration
	BufferSize    int
	Records       RecordOptions
}

// RecordIterator provides streaming access to records
type RecordIterator interface {
	Next() bool
	Record() *Record
	// Offset is the file offset of the current record.
	Offset() int64
	Err() error
	Close() error
}

// Errors
var (
	ErrCorruption      = &CaptureError{"capture: data corruption detected"}
	ErrPayloadTooLarge = &CaptureError{"capture: payload exceeds maximum size"}
	ErrSessionNotFound = &CaptureError{"capture: session not found"}
	ErrClosed          = &CaptureError{"capture: session closed"}
	ErrWriteFailed     = &CaptureError{"capture: write failed"}
)

// CaptureError represents a capture log error
type CaptureError struct {
	Message string
}

func (e *CaptureError) Error() string {
	return e.Message
}
