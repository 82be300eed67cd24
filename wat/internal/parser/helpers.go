package parser

import (
	"math"
	"strconv"
	"strings"
)

// splitNum strips underscores and a leading sign and reports the base.
func splitNum(s string) (neg bool, digits string, base int) {
	s = strings.ReplaceAll(s, "_", "")
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return neg, s[2:], 16
	}
	return neg, s, 10
}

// parseInt parses an integer literal of the given width. Unsigned values
// up to 2^bits-1 and signed values down to -2^(bits-1) are accepted; the
// result is the two's complement bit pattern.
func parseInt(s string, bits int) (uint64, error) {
	neg, digits, base := splitNum(s)
	mag, err := strconv.ParseUint(digits, base, bits)
	if err != nil {
		return 0, err
	}
	if !neg {
		return mag, nil
	}
	if mag > 1<<(bits-1) {
		return 0, strconv.ErrRange
	}
	return -mag & (^uint64(0) >> (64 - bits)), nil
}

func parseU32(s string) (uint32, error) {
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, strconv.ErrSyntax
	}
	v, err := parseInt(s, 32)
	return uint32(v), err
}

func parseI32(s string) (uint32, error) {
	v, err := parseInt(s, 32)
	return uint32(v), err
}

func parseI64(s string) (uint64, error) {
	return parseInt(s, 64)
}

const (
	f32SignBit      = 0x80000000
	f32ExpMask      = 0x7F800000
	f32PayloadMask  = 0x007FFFFF
	f32CanonicalNaN = 0x7FC00000
)

// parseF32 accepts decimal and hexadecimal floats, inf and nan with an
// optional sign, and nan:0xN with an explicit payload.
func parseF32(s string) (float32, error) {
	s = strings.ReplaceAll(s, "_", "")
	var sign uint32
	body := s
	switch {
	case strings.HasPrefix(body, "-"):
		sign = f32SignBit
		body = body[1:]
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	}

	switch {
	case body == "nan":
		return math.Float32frombits(sign | f32CanonicalNaN), nil
	case strings.HasPrefix(body, "nan:0x"):
		payload, err := strconv.ParseUint(body[len("nan:0x"):], 16, 32)
		if err != nil || payload == 0 || payload > f32PayloadMask {
			return 0, strconv.ErrSyntax
		}
		return math.Float32frombits(sign | f32ExpMask | uint32(payload)), nil
	case body == "inf":
		return float32(math.Inf(1 - 2*int(sign>>31))), nil
	}

	lower := strings.ToLower(body)
	if strings.HasPrefix(lower, "0x") && !strings.Contains(lower, "p") {
		s += "p0"
	}
	if strings.ContainsAny(lower, "in") && !strings.HasPrefix(lower, "0x") {
		// Reject spellings such as "infinity" that ParseFloat accepts.
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}
