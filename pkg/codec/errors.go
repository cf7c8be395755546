package codec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBufferTooSmall        = errors.New("codec: destination buffer too small")
	ErrInsufficientData      = errors.New("codec: not enough data for decode")
	ErrInvalidAddress        = errors.New("codec: invalid IP address")
	ErrMalformedPaddedString = errors.New("codec: malformed null-padded string")
	ErrNameTooLong           = errors.New("codec: name exceeds fixed field width")
	ErrNotASCII              = errors.New("codec: string is not ASCII")
	ErrNonCanonicalVarInt    = errors.New("codec: non-canonical varint")
	ErrInvalidRange          = errors.New("codec: invalid offset or end")
	ErrTrailingData          = errors.New("codec: trailing data after value")
)

// FieldError locates a failure inside a composite value. Field is a path
// such as "ins[0].script".
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// wrapField prefixes name onto the path of err, collapsing nested FieldErrors.
func wrapField(name string, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		sep := "."
		if strings.HasPrefix(fe.Field, "[") {
			sep = ""
		}
		return &FieldError{Field: name + sep + fe.Field, Err: fe.Err}
	}
	return &FieldError{Field: name, Err: err}
}

// checkSpace reports whether n bytes can be written to buf at offset.
func checkSpace(buf []byte, offset, n int) error {
	if offset < 0 || offset > len(buf) {
		return fmt.Errorf("%w: offset %d outside buffer of %d bytes", ErrInvalidRange, offset, len(buf))
	}
	if len(buf)-offset < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBufferTooSmall, n, offset, len(buf)-offset)
	}
	return nil
}

// checkRange validates a decode window and returns the bytes available in it.
func checkRange(buf []byte, offset, end int) (int, error) {
	if offset < 0 || end > len(buf) || offset > end {
		return 0, fmt.Errorf("%w: [%d, %d) over %d bytes", ErrInvalidRange, offset, end, len(buf))
	}
	return end - offset, nil
}

// checkData reports whether n bytes can be read from [offset, end).
func checkData(buf []byte, offset, end, n int) error {
	avail, err := checkRange(buf, offset, end)
	if err != nil {
		return err
	}
	if avail < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrInsufficientData, n, offset, avail)
	}
	return nil
}
