package binary

import "errors"

var (
	// ErrMalformed is returned when a LEB128 encoding does not fit the target width.
	ErrMalformed = errors.New("leb128: value exceeds target width")

	// ErrTruncated is returned when the input ends before a terminating byte.
	ErrTruncated = errors.New("unexpected end of input")
)

// MaxLenU32 and MaxLenU64 are the longest valid unsigned encodings.
const (
	MaxLenU32 = 5
	MaxLenU64 = 10
)

// DecodeU32 decodes an unsigned LEB128 uint32 starting at *cursor.
// The cursor is advanced by the encoded length only on success.
func DecodeU32(buf []byte, cursor *int) (uint32, error) {
	v, n, err := decodeUnsigned(buf, *cursor, 32)
	if err != nil {
		return 0, err
	}
	*cursor += n
	return uint32(v), nil
}

// DecodeU64 decodes an unsigned LEB128 uint64 starting at *cursor.
func DecodeU64(buf []byte, cursor *int) (uint64, error) {
	v, n, err := decodeUnsigned(buf, *cursor, 64)
	if err != nil {
		return 0, err
	}
	*cursor += n
	return v, nil
}

// LenU32 returns the encoded length of the uint32 varint at buf[at:].
func LenU32(buf []byte, at int) (int, error) {
	_, n, err := decodeUnsigned(buf, at, 32)
	return n, err
}

// LenU64 returns the encoded length of the uint64 varint at buf[at:].
func LenU64(buf []byte, at int) (int, error) {
	_, n, err := decodeUnsigned(buf, at, 64)
	return n, err
}

// decodeUnsigned rejects any byte that would carry bits past the target
// width, including a continuation bit on the last permissible byte.
func decodeUnsigned(buf []byte, at int, bits uint) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := at; ; i++ {
		if i < 0 || i >= len(buf) {
			return 0, 0, ErrTruncated
		}
		b := buf[i]
		if shift+7 > bits && b>>(bits-shift) != 0 {
			return 0, 0, ErrMalformed
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i - at + 1, nil
		}
		shift += 7
	}
}

// AppendU32 appends the unsigned LEB128 encoding of v.
func AppendU32(dst []byte, v uint32) []byte {
	return AppendU64(dst, uint64(v))
}

// AppendU64 appends the unsigned LEB128 encoding of v.
func AppendU64(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// AppendS32 appends the signed LEB128 encoding of v.
func AppendS32(dst []byte, v int32) []byte {
	return AppendS64(dst, int64(v))
}

// AppendS64 appends the signed LEB128 encoding of v.
func AppendS64(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}
