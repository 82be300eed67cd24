package engine

import (
	"math"
	"math/bits"

	"github.com/wippyai/wasm-minivm/errors"
)

// Traps raised by the interpreter. Returned errors carry the faulting
// instruction index and match these with errors.Is.
var (
	ErrDivideByZero    = errors.Sentinel(errors.PhaseRuntime, errors.KindDivideByZero)
	ErrIntegerOverflow = errors.Sentinel(errors.PhaseRuntime, errors.KindIntegerOverflow)
	ErrStackOverflow   = errors.Sentinel(errors.PhaseRuntime, errors.KindStackOverflow)
	ErrStackUnderflow  = errors.Sentinel(errors.PhaseRuntime, errors.KindStackUnderflow)
	ErrUnknownOpcode   = errors.Sentinel(errors.PhaseRuntime, errors.KindUnknownOpcode)
	ErrTypeMismatch    = errors.Sentinel(errors.PhaseRuntime, errors.KindTypeMismatch)
	ErrBufferOverrun   = errors.Sentinel(errors.PhaseRuntime, errors.KindBufferOverrun)
	ErrInvalidBlock    = errors.Sentinel(errors.PhaseRuntime, errors.KindInvalidBlock)
)

// Operands are held as unsigned bit patterns; signed operations
// reinterpret them.
type integer interface {
	uint32 | uint64
}

func add[T integer](a, b T) T { return a + b }
func sub[T integer](a, b T) T { return a - b }
func mul[T integer](a, b T) T { return a * b }
func and[T integer](a, b T) T { return a & b }
func or[T integer](a, b T) T  { return a | b }
func xor[T integer](a, b T) T { return a ^ b }

func eqz[T integer](a T) bool    { return a == 0 }
func eq[T integer](a, b T) bool  { return a == b }
func ne[T integer](a, b T) bool  { return a != b }
func ltU[T integer](a, b T) bool { return a < b }
func gtU[T integer](a, b T) bool { return a > b }
func leU[T integer](a, b T) bool { return a <= b }
func geU[T integer](a, b T) bool { return a >= b }

func ltS32(a, b uint32) bool { return int32(a) < int32(b) }
func gtS32(a, b uint32) bool { return int32(a) > int32(b) }
func leS32(a, b uint32) bool { return int32(a) <= int32(b) }
func geS32(a, b uint32) bool { return int32(a) >= int32(b) }

func ltS64(a, b uint64) bool { return int64(a) < int64(b) }
func gtS64(a, b uint64) bool { return int64(a) > int64(b) }
func leS64(a, b uint64) bool { return int64(a) <= int64(b) }
func geS64(a, b uint64) bool { return int64(a) >= int64(b) }

func divU[T integer](a, b T) (T, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

func remU[T integer](a, b T) (T, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a % b, nil
}

func divS32(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if int32(a) == math.MinInt32 && int32(b) == -1 {
		return 0, ErrIntegerOverflow
	}
	return uint32(int32(a) / int32(b)), nil
}

// remS32 of MinInt32 by -1 is 0, not an overflow.
func remS32(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if int32(b) == -1 {
		return 0, nil
	}
	return uint32(int32(a) % int32(b)), nil
}

func divS64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if int64(a) == math.MinInt64 && int64(b) == -1 {
		return 0, ErrIntegerOverflow
	}
	return uint64(int64(a) / int64(b)), nil
}

func remS64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if int64(b) == -1 {
		return 0, nil
	}
	return uint64(int64(a) % int64(b)), nil
}

// Shift and rotate amounts are taken modulo the operand width.

func shl32(a, b uint32) uint32  { return a << (b % 32) }
func shrU32(a, b uint32) uint32 { return a >> (b % 32) }
func shrS32(a, b uint32) uint32 { return uint32(int32(a) >> (b % 32)) }
func rotl32(a, b uint32) uint32 { return bits.RotateLeft32(a, int(b%32)) }
func rotr32(a, b uint32) uint32 { return bits.RotateLeft32(a, -int(b%32)) }

func shl64(a, b uint64) uint64  { return a << (b % 64) }
func shrU64(a, b uint64) uint64 { return a >> (b % 64) }
func shrS64(a, b uint64) uint64 { return uint64(int64(a) >> (b % 64)) }
func rotl64(a, b uint64) uint64 { return bits.RotateLeft64(a, int(b%64)) }
func rotr64(a, b uint64) uint64 { return bits.RotateLeft64(a, -int(b%64)) }

func clz32(a uint32) uint32    { return uint32(bits.LeadingZeros32(a)) }
func ctz32(a uint32) uint32    { return uint32(bits.TrailingZeros32(a)) }
func popcnt32(a uint32) uint32 { return uint32(bits.OnesCount32(a)) }

func clz64(a uint64) uint64    { return uint64(bits.LeadingZeros64(a)) }
func ctz64(a uint64) uint64    { return uint64(bits.TrailingZeros64(a)) }
func popcnt64(a uint64) uint64 { return uint64(bits.OnesCount64(a)) }

func boolToI32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
