package engine

import (
	"math"
	"strconv"

	"github.com/wippyai/wasm-minivm/wasm"
)

// Value is a typed operand. Bits holds the value's bit pattern: the low 32
// bits for i32 and f32, all 64 for i64.
type Value struct {
	Bits uint64
	Type wasm.ValType
}

// I32 returns an i32 operand.
func I32(v uint32) Value {
	return Value{Type: wasm.ValI32, Bits: uint64(v)}
}

// I64 returns an i64 operand.
func I64(v uint64) Value {
	return Value{Type: wasm.ValI64, Bits: v}
}

// F32 returns an f32 operand.
func F32(v float32) Value {
	return Value{Type: wasm.ValF32, Bits: uint64(math.Float32bits(v))}
}

// I32 returns the low 32 bits.
func (v Value) I32() uint32 {
	return uint32(v.Bits)
}

// I64 returns the full 64 bits.
func (v Value) I64() uint64 {
	return v.Bits
}

// F32 reinterprets the low 32 bits as a float.
func (v Value) F32() float32 {
	return math.Float32frombits(uint32(v.Bits))
}

// String renders the value with its type, integers shown signed:
// "i32:-1", "i64:42", "f32:1.5".
func (v Value) String() string {
	switch v.Type {
	case wasm.ValI32:
		return "i32:" + strconv.FormatInt(int64(int32(v.I32())), 10)
	case wasm.ValI64:
		return "i64:" + strconv.FormatInt(int64(v.I64()), 10)
	case wasm.ValF32:
		return "f32:" + strconv.FormatFloat(float64(v.F32()), 'g', -1, 32)
	default:
		return v.Type.String() + ":" + strconv.FormatUint(v.Bits, 16)
	}
}
