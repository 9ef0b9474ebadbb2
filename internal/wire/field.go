package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Kind is the 2-bit wire kind packed into a field key.
type Kind uint8

const (
	// KindVarint marks a field holding a LEB128 integer.
	KindVarint Kind = 0
	// KindBytes marks a length-delimited field (buffer, string or nested message).
	KindBytes Kind = 2
)

const (
	kindBits = 2
	kindMask = 1<<kindBits - 1

	// MaxTag is the largest tag accepted by the codec.
	MaxTag = 1<<29 - 1
)

func (k Kind) String() string {
	switch k {
	case KindVarint:
		return "varint"
	case KindBytes:
		return "bytes"
	default:
		return "invalid"
	}
}

// Field is one decoded field.
type Field struct {
	// Tag is the field number.
	Tag int
	// Kind is the wire kind.
	Kind Kind
	// Value holds the integer of a KindVarint field.
	Value uint64
	// Data holds the payload of a KindBytes field. It aliases the source buffer.
	Data []byte
	// Raw is the exact source span of the field, key included. It aliases the
	// source buffer.
	Raw []byte
}

// Message parses the payload of a KindBytes field as a nested message. It
// returns false when the field is not length-delimited or the payload is not a
// complete, well-formed message.
func (f Field) Message() (*Reader, bool) {
	if f.Kind != KindBytes {
		return nil, false
	}
	r := NewReader(f.Data)
	if !r.Complete() {
		return nil, false
	}
	return r, true
}

func appendKey(b []byte, tag int, kind Kind) []byte {
	if tag < 1 || tag > MaxTag {
		panic(fmt.Sprintf("wire: tag %d out of range [1, %d]", tag, MaxTag))
	}
	return protowire.AppendVarint(b, uint64(tag)<<kindBits|uint64(kind))
}

// consumeField decodes one field at the start of b. It returns the field and the
// number of bytes consumed, or n <= 0 if b does not start with a valid field.
func consumeField(b []byte) (Field, int) {
	key, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return Field{}, -1
	}
	tag := key >> kindBits
	kind := Kind(key & kindMask)
	if tag == 0 || tag > MaxTag {
		return Field{}, -1
	}

	f := Field{Tag: int(tag), Kind: kind}
	switch kind {
	case KindVarint:
		v, m := protowire.ConsumeVarint(b[n:])
		if m < 0 {
			return Field{}, -1
		}
		f.Value = v
		n += m
	case KindBytes:
		data, m := protowire.ConsumeBytes(b[n:])
		if m < 0 {
			return Field{}, -1
		}
		f.Data = data[:len(data):len(data)]
		n += m
	default:
		return Field{}, -1
	}
	f.Raw = b[:n:n]
	return f, n
}
