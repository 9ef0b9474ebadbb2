package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Writer serializes fields strictly in call order. Tags must be in
// 1..MaxTag; the Add methods panic on any other tag.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// AddVarInt appends an integer field.
func (w *Writer) AddVarInt(tag int, v uint64) *Writer {
	w.buf = appendKey(w.buf, tag, KindVarint)
	w.buf = protowire.AppendVarint(w.buf, v)
	return w
}

// AddBuffer appends a length-delimited field.
func (w *Writer) AddBuffer(tag int, b []byte) *Writer {
	w.buf = appendKey(w.buf, tag, KindBytes)
	w.buf = protowire.AppendBytes(w.buf, b)
	return w
}

// AddString appends a length-delimited field holding s.
func (w *Writer) AddString(tag int, s string) *Writer {
	w.buf = appendKey(w.buf, tag, KindBytes)
	w.buf = protowire.AppendString(w.buf, s)
	return w
}

// From appends a nested message built by fn.
func (w *Writer) From(tag int, fn func(*Writer)) *Writer {
	nested := NewWriter()
	fn(nested)
	return w.AddBuffer(tag, nested.buf)
}

// AddRaw appends a previously decoded field verbatim.
func (w *Writer) AddRaw(f Field) *Writer {
	w.buf = append(w.buf, f.Raw...)
	return w
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the serialized buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}
