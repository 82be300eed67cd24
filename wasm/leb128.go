package wasm

import (
	"github.com/wippyai/wasm-minivm/internal/binary"
)

// LEB128 helpers for the unsigned encodings used by the module format.
// Errors are *errors.Error values in the decode phase carrying the offset
// of the varint.

// DecodeU32 decodes an unsigned LEB128 uint32 at *cursor and advances the
// cursor past it.
func DecodeU32(buf []byte, cursor *int) (uint32, error) {
	at := *cursor
	v, err := binary.DecodeU32(buf, cursor)
	if err != nil {
		return 0, readErr(err, at)
	}
	return v, nil
}

// DecodeU64 decodes an unsigned LEB128 uint64 at *cursor and advances the
// cursor past it.
func DecodeU64(buf []byte, cursor *int) (uint64, error) {
	at := *cursor
	v, err := binary.DecodeU64(buf, cursor)
	if err != nil {
		return 0, readErr(err, at)
	}
	return v, nil
}

// VarintLen32 returns the encoded length of the uint32 at buf[at:] without
// decoding it into a cursor.
func VarintLen32(buf []byte, at int) (int, error) {
	n, err := binary.LenU32(buf, at)
	if err != nil {
		return 0, readErr(err, at)
	}
	return n, nil
}

// VarintLen64 is VarintLen32 for uint64 encodings.
func VarintLen64(buf []byte, at int) (int, error) {
	n, err := binary.LenU64(buf, at)
	if err != nil {
		return 0, readErr(err, at)
	}
	return n, nil
}

// EncodeU32 returns the unsigned LEB128 encoding of v.
func EncodeU32(v uint32) []byte {
	return binary.AppendU32(nil, v)
}

// EncodeU64 returns the unsigned LEB128 encoding of v.
func EncodeU64(v uint64) []byte {
	return binary.AppendU64(nil, v)
}
