// Package codec implements the Klayr binary codec: protobuf wire format
// with fields in ascending order, every scalar written even when zero and
// arrays of objects or byte strings written as one entry per element.
package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrFieldOrder is returned when decoded fields are not in ascending order.
var ErrFieldOrder = errors.New("codec: fields out of order")

// Writer appends encoded fields to an internal buffer. Callers must add
// fields in ascending field-number order.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Uint64 writes a varint field.
func (w *Writer) Uint64(num protowire.Number, v uint64) *Writer {
	w.buf = protowire.AppendTag(w.buf, num, protowire.VarintType)
	w.buf = protowire.AppendVarint(w.buf, v)
	return w
}

// Uint32 writes a varint field.
func (w *Writer) Uint32(num protowire.Number, v uint32) *Writer {
	return w.Uint64(num, uint64(v))
}

// Bool writes a boolean as a 0/1 varint.
func (w *Writer) Bool(num protowire.Number, v bool) *Writer {
	return w.Uint64(num, protowire.EncodeBool(v))
}

// Bytes writes a length-delimited byte field. Nil and empty slices are
// both written as a zero-length field.
func (w *Writer) Bytes(num protowire.Number, b []byte) *Writer {
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, b)
	return w
}

// String writes a length-delimited UTF-8 field.
func (w *Writer) String(num protowire.Number, s string) *Writer {
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendString(w.buf, s)
	return w
}

// Object writes an already-encoded nested object.
func (w *Writer) Object(num protowire.Number, encoded []byte) *Writer {
	return w.Bytes(num, encoded)
}

// RepeatedBytes writes one entry per element. An empty array writes nothing.
func (w *Writer) RepeatedBytes(num protowire.Number, items [][]byte) *Writer {
	for _, b := range items {
		w.Bytes(num, b)
	}
	return w
}

// RepeatedObjects writes one nested object per element. An empty array
// writes nothing.
func (w *Writer) RepeatedObjects(num protowire.Number, items [][]byte) *Writer {
	return w.RepeatedBytes(num, items)
}

// Result returns the encoded bytes. The writer must not be reused.
func (w *Writer) Result() []byte {
	if w.buf == nil {
		return []byte{}
	}
	return w.buf
}

// Field is one decoded wire entry.
type Field struct {
	Num    protowire.Number
	Type   protowire.Type
	Varint uint64
	Bytes  []byte
}

// Fields is a decoded message in wire order.
type Fields []Field

// Decode splits an encoded message into its fields. Only varint and
// length-delimited wire types are accepted. Field numbers must not
// decrease; equal numbers are repeated entries.
func Decode(data []byte) (Fields, error) {
	var out Fields
	var last protowire.Number
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("codec: bad tag: %w", protowire.ParseError(n))
		}
		if num < last {
			return nil, fmt.Errorf("%w: field %d after %d", ErrFieldOrder, num, last)
		}
		last = num
		data = data[n:]

		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return nil, fmt.Errorf("codec: field %d: %w", num, protowire.ParseError(m))
			}
			f.Varint = v
			data = data[m:]
		case protowire.BytesType:
			b, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, fmt.Errorf("codec: field %d: %w", num, protowire.ParseError(m))
			}
			f.Bytes = b
			data = data[m:]
		default:
			return nil, fmt.Errorf("codec: field %d: unsupported wire type %d", num, typ)
		}
		out = append(out, f)
	}
	return out, nil
}

// Bytes returns the first length-delimited value for num.
func (fs Fields) Bytes(num protowire.Number) ([]byte, bool) {
	for _, f := range fs {
		if f.Num == num && f.Type == protowire.BytesType {
			return f.Bytes, true
		}
	}
	return nil, false
}

// String returns the first length-delimited value for num as a string.
func (fs Fields) String(num protowire.Number) (string, bool) {
	b, ok := fs.Bytes(num)
	return string(b), ok
}

// Uint64 returns the first varint value for num.
func (fs Fields) Uint64(num protowire.Number) (uint64, bool) {
	for _, f := range fs {
		if f.Num == num && f.Type == protowire.VarintType {
			return f.Varint, true
		}
	}
	return 0, false
}

// Repeated returns every length-delimited value for num in order.
func (fs Fields) Repeated(num protowire.Number) [][]byte {
	var out [][]byte
	for _, f := range fs {
		if f.Num == num && f.Type == protowire.BytesType {
			out = append(out, f.Bytes)
		}
	}
	return out
}
