// Package codec provides the byte-level codecs used by bitwire to read and
// write peer-to-peer network payloads.
//
// Every codec implements Codec[T]: it encodes a value into a caller-owned
// buffer at an explicit offset and decodes a value from an explicit
// [offset, end) window, reporting the number of bytes written or consumed.
// Codecs are plain values with no mutable state. They are safe for
// concurrent use and never keep a reference to a buffer after returning.
//
// # Primitives
//
//	UInt8, UInt16LE, UInt32LE, Int32LE, UInt64LE, Int64LE   little-endian integers
//	UInt16BE                                               big-endian (port numbers)
//	Bool                                                   one byte, 0x00 / 0x01
//	Buffer8, Buffer16, Buffer32                            opaque fixed-size bytes
//	IPAddress                                              16 bytes, IPv4-mapped or IPv6
//	CommandName                                            12 bytes, ASCII + zero padding
//	VarInt                                                 Bitcoin CompactSize
//	VarBuffer, VarString, VarArray                         varint length prefix + payload
//
// # Composite values
//
// Struct builds a codec for a record type from an ordered list of fields.
// Each field is bound with Bind to the codec that handles it and a function
// returning the member's address:
//
//	var headerCodec = codec.Struct(
//	    codec.Bind("version", codec.Int32LE, func(h *Header) *int32 { return &h.Version }),
//	    codec.Bind("time", codec.UInt32LE, func(h *Header) *uint32 { return &h.Time }),
//	)
//
// Fields are concatenated in declaration order with no padding.
//
// # Error Handling
//
// Failures are reported with sentinel errors that can be matched with
// errors.Is:
//   - ErrBufferTooSmall: the destination cannot hold the encoding
//   - ErrInsufficientData: the source window ends before the value does
//   - ErrInvalidAddress: text is neither IPv4 nor IPv6
//   - ErrMalformedPaddedString: non-zero bytes after a command name terminator
//   - ErrNameTooLong: a command name wider than 12 bytes
//
// Errors raised inside a Struct or VarArray are wrapped in a *FieldError
// whose Field holds the path to the failing member, for example
// "ins[1].script".
package codec
