package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns a human-comparable digest of a shared secret: the
// lowercase hex SHA-256, split into groups of FingerprintGroupSize characters
// separated by spaces.
func Fingerprint(secret []byte) string {
	sum := sha256.Sum256(secret)
	digest := hex.EncodeToString(sum[:])

	var b strings.Builder
	for i := 0; i < len(digest); i += FingerprintGroupSize {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digest[i:min(i+FingerprintGroupSize, len(digest))])
	}
	return b.String()
}
