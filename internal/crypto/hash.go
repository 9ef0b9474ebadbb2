package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
)

// ParticipantHash returns SHA-256(peerID ‖ salt). Salting with the block IV
// keeps the same peer from being correlated across blocks and messages.
func ParticipantHash(peerID string, salt []byte) []byte {
	h := sha256.New()
	h.Write([]byte(peerID))
	h.Write(salt)
	return h.Sum(nil)
}

// MatchParticipant reports whether hash was computed for peerID with salt.
func MatchParticipant(hash []byte, peerID string, salt []byte) bool {
	return subtle.ConstantTimeCompare(hash, ParticipantHash(peerID, salt)) == 1
}
