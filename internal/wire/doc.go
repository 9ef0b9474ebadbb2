// Package wire reads, writes and surgically edits the host's tagged-field binary
// encoding without a schema.
//
// A buffer is a sequence of fields. Every field starts with a LEB128 key holding
// the tag and a 2-bit kind:
//
//	key = tag<<2 | kind
//
// Kind 0 carries a LEB128 varint value. Kind 2 carries a LEB128 length followed by
// that many bytes, which may themselves be a nested message. No other kinds exist.
//
// Decoding is tolerant: a [Reader] keeps every field that precedes the first
// malformed byte and reports everything else as absent. Callers must treat an
// absent field as an ordinary case (an unknown schema version), not as an error.
//
// An [Editor] rewrites selected fields and copies every other field's raw bytes
// verbatim, so consumers that understand more of the schema than we do still see
// exactly what the host produced.
package wire
