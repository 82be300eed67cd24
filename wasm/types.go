package wasm

import (
	"fmt"
	"slices"
	"strings"
)

// Module represents a decoded WebAssembly module.
// It is immutable once returned by ParseModule and may be shared between
// goroutines and instantiations.
type Module struct {
	Types []FuncType
	Funcs []Function
	Start *uint32
}

// FuncType represents a WebAssembly function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Function is a declared function: its signature index and decoded body.
type Function struct {
	Body      []Instruction
	TypeIndex uint32
}

// ValType represents a WebAssembly value type
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return fmt.Sprintf("ValType(0x%02x)", byte(v))
	}
}

// Valid reports whether v is one of the four numeric value types.
func (v ValType) Valid() bool {
	switch v {
	case ValI32, ValI64, ValF32, ValF64:
		return true
	}
	return false
}

// Clone returns a copy with independently allocated params and results.
func (ft FuncType) Clone() FuncType {
	return FuncType{
		Params:  slices.Clone(ft.Params),
		Results: slices.Clone(ft.Results),
	}
}

// Equal reports whether two signatures have the same params and results.
func (ft FuncType) Equal(other FuncType) bool {
	return slices.Equal(ft.Params, other.Params) && slices.Equal(ft.Results, other.Results)
}

// String renders the signature as "(i32, i64) -> (i32)".
func (ft FuncType) String() string {
	return "(" + joinTypes(ft.Params) + ") -> (" + joinTypes(ft.Results) + ")"
}

func joinTypes(ts []ValType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// NumFuncs returns the number of declared functions.
func (m *Module) NumFuncs() int {
	return len(m.Funcs)
}

// FuncType returns the signature of function idx.
func (m *Module) FuncType(idx uint32) (FuncType, bool) {
	if int(idx) >= len(m.Funcs) {
		return FuncType{}, false
	}
	ti := m.Funcs[idx].TypeIndex
	if int(ti) >= len(m.Types) {
		return FuncType{}, false
	}
	return m.Types[ti], true
}

// StartFunction returns the start function, if the module declares one.
func (m *Module) StartFunction() (*Function, bool) {
	if m.Start == nil || int(*m.Start) >= len(m.Funcs) {
		return nil, false
	}
	return &m.Funcs[*m.Start], true
}
