package wire

import (
	"iter"
)

// Reader is a decoded, path-addressable view over a buffer.
type Reader struct {
	buf    []byte
	fields []Field
	// parsed is the length of the prefix of buf that decoded cleanly.
	parsed int
}

// NewReader decodes buf. Decoding stops at the first malformed field; fields
// before it remain available.
func NewReader(buf []byte) *Reader {
	r := &Reader{buf: buf}
	for r.parsed < len(buf) {
		f, n := consumeField(buf[r.parsed:])
		if n <= 0 {
			break
		}
		r.fields = append(r.fields, f)
		r.parsed += n
	}
	return r
}

// Buffer returns the source buffer.
func (r *Reader) Buffer() []byte {
	return r.buf
}

// Complete reports whether the whole buffer decoded without error.
func (r *Reader) Complete() bool {
	return r.parsed == len(r.buf)
}

// Fields returns the decoded fields in source order.
func (r *Reader) Fields() []Field {
	return r.fields
}

// Tail returns the bytes following the last well-formed field.
func (r *Reader) Tail() []byte {
	return r.buf[r.parsed:]
}

func (r *Reader) first(tag int) (Field, bool) {
	for _, f := range r.fields {
		if f.Tag == tag {
			return f, true
		}
	}
	return Field{}, false
}

// Get returns the first field matching path. Every element but the last must
// name a nested message.
func (r *Reader) Get(path ...int) (Field, bool) {
	if len(path) == 0 {
		return Field{}, false
	}
	scope, ok := r.FollowPath(path[:len(path)-1]...)
	if !ok {
		return Field{}, false
	}
	return scope.first(path[len(path)-1])
}

// Contains reports whether a field exists at path.
func (r *Reader) Contains(path ...int) bool {
	_, ok := r.Get(path...)
	return ok
}

// VarInt returns the integer at path.
func (r *Reader) VarInt(path ...int) (uint64, bool) {
	f, ok := r.Get(path...)
	if !ok || f.Kind != KindVarint {
		return 0, false
	}
	return f.Value, true
}

// Bytes returns the payload at path.
func (r *Reader) Bytes(path ...int) ([]byte, bool) {
	f, ok := r.Get(path...)
	if !ok || f.Kind != KindBytes {
		return nil, false
	}
	return f.Data, true
}

// String returns the payload at path as a string.
func (r *Reader) String(path ...int) (string, bool) {
	b, ok := r.Bytes(path...)
	if !ok {
		return "", false
	}
	return string(b), true
}

// FollowPath returns a reader scoped to the nested message at path. An empty
// path returns r itself.
func (r *Reader) FollowPath(path ...int) (*Reader, bool) {
	scope := r
	for _, tag := range path {
		f, ok := scope.first(tag)
		if !ok {
			return nil, false
		}
		if scope, ok = f.Message(); !ok {
			return nil, false
		}
	}
	return scope, true
}

// Each yields every occurrence of tag in order. The sequence may be ranged over
// any number of times.
func (r *Reader) Each(tag int) iter.Seq[Field] {
	return func(yield func(Field) bool) {
		for _, f := range r.fields {
			if f.Tag != tag {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}

// EachMessage yields a reader for every occurrence of tag that holds a valid
// nested message. Other occurrences are skipped.
func (r *Reader) EachMessage(tag int) iter.Seq[*Reader] {
	return func(yield func(*Reader) bool) {
		for f := range r.Each(tag) {
			m, ok := f.Message()
			if !ok {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}
