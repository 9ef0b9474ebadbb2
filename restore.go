package e2ee

import (
	"go.uber.org/zap"

	"github.com/quietline/e2ee/internal/wire"
)

// Field layout of the host's create-content request and stored message
// records.
const (
	tagRecordContainer = 4
	tagRecordKind      = 2
	tagRecordContent   = 4
)

// ephemeralMarkerPath locates the ephemeral media marker of an encrypted
// envelope inside a create-content request.
var ephemeralMarkerPath = []int{tagRecordContainer, tagRecordContent, 2, 1, 5}

// RestoreEphemeralKind rewrites the kind of an outgoing create-content
// request back to KindSnap when its encrypted body was an ephemeral snap.
// Encrypted snaps travel as external media; this keeps the sender's own copy
// ephemeral. Any other request is returned unchanged.
func (e *Engine) RestoreEphemeralKind(request []byte) []byte {
	marker, ok := wire.NewReader(request).VarInt(ephemeralMarkerPath...)
	if !ok || marker != 1 {
		return request
	}

	ed := wire.NewEditor(request)
	err := ed.Edit([]int{tagRecordContainer}, func(p *wire.Patch) {
		p.Remove(tagRecordKind)
		p.AddVarInt(tagRecordKind, uint64(KindSnap))
	})
	if err != nil {
		e.logger.Debug("failed to restore ephemeral kind", zap.Error(err))
		return request
	}
	return ed.Bytes()
}
