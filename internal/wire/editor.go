package wire

import (
	"errors"
	"fmt"
)

// ErrNotMessage is returned when an edit path names a field whose payload is
// not a nested message.
var ErrNotMessage = errors.New("field is not a nested message")

// Patch collects the edits applied to one nested message. Removals drop every
// occurrence of a tag from the original message; fields added through the
// embedded Writer are appended after the kept fields.
type Patch struct {
	*Writer
	removed map[int]struct{}
}

// Remove drops every original occurrence of tag.
func (p *Patch) Remove(tag int) *Patch {
	p.removed[tag] = struct{}{}
	return p
}

// Editor rewrites a buffer one patch at a time. Fields outside a patch keep
// their original bytes.
type Editor struct {
	buf []byte
}

// NewEditor returns an editor over buf. buf itself is never modified.
func NewEditor(buf []byte) *Editor {
	return &Editor{buf: buf}
}

// Edit applies the patch built by fn to the nested message at path. An empty
// path edits the top-level message. Missing messages along the path are
// created. On error the buffer is left as it was.
func (e *Editor) Edit(path []int, fn func(*Patch)) error {
	p := &Patch{Writer: NewWriter(), removed: make(map[int]struct{})}
	fn(p)

	out, err := rewrite(e.buf, path, p)
	if err != nil {
		return err
	}
	e.buf = out
	return nil
}

// Bytes returns the edited buffer.
func (e *Editor) Bytes() []byte {
	return e.buf
}

func rewrite(buf []byte, path []int, p *Patch) ([]byte, error) {
	r := NewReader(buf)
	w := NewWriter()

	if len(path) == 0 {
		for _, f := range r.fields {
			if _, drop := p.removed[f.Tag]; drop {
				continue
			}
			w.AddRaw(f)
		}
		w.buf = append(w.buf, p.buf...)
		w.buf = append(w.buf, r.Tail()...)
		return w.buf, nil
	}

	tag, rest := path[0], path[1:]
	edited := false
	for _, f := range r.fields {
		if edited || f.Tag != tag {
			w.AddRaw(f)
			continue
		}
		if _, ok := f.Message(); !ok {
			return nil, fmt.Errorf("%w: tag %d", ErrNotMessage, tag)
		}
		nested, err := rewrite(f.Data, rest, p)
		if err != nil {
			return nil, err
		}
		w.AddBuffer(tag, nested)
		edited = true
	}
	if !edited {
		nested, err := rewrite(nil, rest, p)
		if err != nil {
			return nil, err
		}
		w.AddBuffer(tag, nested)
	}
	w.buf = append(w.buf, r.Tail()...)
	return w.buf, nil
}
