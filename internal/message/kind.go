package message

import (
	"fmt"

	"github.com/quietline/e2ee/internal/wire"
)

// Kind is the host application's content type id.
type Kind int

const (
	KindUnknown       Kind = -1
	KindSnap          Kind = 0
	KindChat          Kind = 1
	KindExternalMedia Kind = 2
	KindSticker       Kind = 3
	KindShare         Kind = 4
	KindNote          Kind = 5
	KindStatus        Kind = 6
)

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindSnap:          "snap",
	KindChat:          "chat",
	KindExternalMedia: "external_media",
	KindSticker:       "sticker",
	KindShare:         "share",
	KindNote:          "note",
	KindStatus:        "status",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// AlwaysFresh reports whether results for this kind must never be cached.
// Status messages carry deletion markers that change after delivery.
func (k Kind) AlwaysFresh() bool {
	return k == KindStatus
}

// containerKinds maps the top-level container field of a message body to its
// kind, in the order they are checked.
var containerKinds = []struct {
	tag  int
	kind Kind
}{
	{8, KindStatus},
	{11, KindSnap},
	{3, KindExternalMedia},
	{4, KindSticker},
	{5, KindShare},
	{7, KindNote},
	{2, KindChat},
}

// KindFromContainer derives the kind of a message body from the container
// field it carries.
func KindFromContainer(content []byte) (Kind, bool) {
	return kindOf(wire.NewReader(content))
}

func kindOf(r *wire.Reader) (Kind, bool) {
	for _, c := range containerKinds {
		if r.Contains(c.tag) {
			return c.kind, true
		}
	}
	return KindUnknown, false
}

func fixKind(k Kind, r *wire.Reader) Kind {
	if fixed, ok := kindOf(r); ok {
		return fixed
	}
	return k
}
