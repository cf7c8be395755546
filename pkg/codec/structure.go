package codec

// Field binds one named member of a record type R to the codec that encodes it.
type Field[R any] struct {
	name   string
	size   int // -1 when the width depends on the value
	encode func(r *R, buf []byte, offset int) (int, error)
	decode func(r *R, buf []byte, offset, end int) (int, error)
	length func(r *R) int
}

// Name returns the field name used in error paths.
func (f Field[R]) Name() string { return f.name }

// Bind declares a field of R encoded with c. ref returns the address of the
// member inside a record.
func Bind[R, T any](name string, c Codec[T], ref func(*R) *T) Field[R] {
	size, ok := FixedSize(c)
	if !ok {
		size = -1
	}
	return Field[R]{
		name: name,
		size: size,
		encode: func(r *R, buf []byte, offset int) (int, error) {
			return c.Encode(*ref(r), buf, offset)
		},
		decode: func(r *R, buf []byte, offset, end int) (int, error) {
			v, n, err := c.Decode(buf, offset, end)
			if err != nil {
				return 0, err
			}
			*ref(r) = v
			return n, nil
		},
		length: func(r *R) int {
			return c.EncodingLength(*ref(r))
		},
	}
}

// StructCodec encodes a record as the concatenation of its fields in
// declaration order, with no padding between them.
type StructCodec[R any] struct {
	fields []Field[R]
	size   int
}

// Struct builds a StructCodec from an ordered field list.
func Struct[R any](fields ...Field[R]) *StructCodec[R] {
	s := &StructCodec[R]{fields: fields}
	for _, f := range fields {
		if f.size < 0 {
			s.size = -1
			break
		}
		s.size += f.size
	}
	return s
}

func (s *StructCodec[R]) Encode(v R, buf []byte, offset int) (int, error) {
	if err := checkSpace(buf, offset, s.EncodingLength(v)); err != nil {
		return 0, err
	}
	cursor := offset
	for _, f := range s.fields {
		n, err := f.encode(&v, buf, cursor)
		if err != nil {
			return 0, wrapField(f.name, err)
		}
		cursor += n
	}
	return cursor - offset, nil
}

func (s *StructCodec[R]) Decode(buf []byte, offset, end int) (R, int, error) {
	var v R
	if _, err := checkRange(buf, offset, end); err != nil {
		return v, 0, err
	}
	cursor := offset
	for _, f := range s.fields {
		n, err := f.decode(&v, buf, cursor, end)
		if err != nil {
			var zero R
			return zero, 0, wrapField(f.name, err)
		}
		cursor += n
	}
	return v, cursor - offset, nil
}

func (s *StructCodec[R]) EncodingLength(v R) int {
	if s.size >= 0 {
		return s.size
	}
	total := 0
	for _, f := range s.fields {
		total += f.length(&v)
	}
	return total
}

// Fields returns the field names in wire order.
func (s *StructCodec[R]) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// sizedStruct exposes Size only for structs made entirely of fixed-width fields.
type sizedStruct[R any] struct {
	*StructCodec[R]
}

func (s sizedStruct[R]) Size() int { return s.size }

// Fixed returns s as a codec that also implements Sizer. It panics if any
// field is variable-width.
func (s *StructCodec[R]) Fixed() Codec[R] {
	if s.size < 0 {
		panic("codec: Fixed called on a variable-width struct")
	}
	return sizedStruct[R]{s}
}
