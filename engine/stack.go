package engine

import (
	"github.com/wippyai/wasm-minivm/errors"
	"github.com/wippyai/wasm-minivm/wasm"
)

// operandStack is a bounded LIFO of typed values.
type operandStack struct {
	data []Value
	max  int
}

func newOperandStack(limit int) operandStack {
	return operandStack{data: make([]Value, 0, min(limit, 256)), max: limit}
}

func (s *operandStack) push(v Value) error {
	if len(s.data) >= s.max {
		return ErrStackOverflow
	}
	s.data = append(s.data, v)
	return nil
}

func (s *operandStack) pushI32(v uint32) error { return s.push(I32(v)) }
func (s *operandStack) pushI64(v uint64) error { return s.push(I64(v)) }

func (s *operandStack) popAny() (Value, error) {
	n := len(s.data)
	if n == 0 {
		return Value{}, ErrStackUnderflow
	}
	v := s.data[n-1]
	s.data = s.data[:n-1]
	return v, nil
}

func (s *operandStack) pop(t wasm.ValType) (Value, error) {
	n := len(s.data)
	if n == 0 {
		return Value{}, ErrStackUnderflow
	}
	v := s.data[n-1]
	if v.Type != t {
		return Value{}, errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
			Detail("expected %s operand, got %s", t, v.Type).
			Value(v).
			Build()
	}
	s.data = s.data[:n-1]
	return v, nil
}

func (s *operandStack) popI32() (uint32, error) {
	v, err := s.pop(wasm.ValI32)
	return v.I32(), err
}

func (s *operandStack) popI64() (uint64, error) {
	v, err := s.pop(wasm.ValI64)
	return v.I64(), err
}

func (s *operandStack) depth() int {
	return len(s.data)
}

func (s *operandStack) values() []Value {
	return s.data
}
