// Package crypto provides the cryptographic primitives of the end-to-end
// encryption layer.
//
// # Algorithm Suite
//
//   - ML-KEM-1024 (NIST FIPS 203): post-quantum key encapsulation used once per
//     pairing. The 32-byte shared secret becomes the peer's message key.
//
//   - AES-256-CBC with PKCS#5 padding: message body encryption, one fresh
//     16-byte IV per recipient block.
//
//   - SHA-256: salted participant hashes (peer id ‖ IV) that let a recipient
//     find their block without naming them, and human-comparable fingerprints
//     of shared secrets.
//
//   - HKDF-SHA-512 and ChaCha20-Poly1305: sealing of stored shared secrets under
//     a device secret.
//
// # Security Notes
//
// CBC mode provides no integrity. A corrupted ciphertext usually fails padding
// checks, but callers must not treat successful decryption as proof of
// authenticity. Trust in a shared secret is established manually by comparing
// [Fingerprint] output out of band.
//
// ML-KEM decapsulation never reports a wrong encapsulation; it derives an
// unrelated secret instead. A failed pairing therefore shows up as mismatching
// fingerprints, not as an error.
package crypto
