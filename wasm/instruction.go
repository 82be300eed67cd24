package wasm

import (
	"fmt"
	"strconv"

	"github.com/wippyai/wasm-minivm/errors"
)

// Instruction represents a decoded WebAssembly instruction.
// The concrete type of Imm is determined by Opcode:
//
//	i32.const  I32Imm
//	i64.const  I64Imm
//	f32.const  F32Imm
//	if         IfImm
//	else       ElseImm
//
// Every other opcode has a nil Imm.
type Instruction struct {
	Imm    Immediate
	Opcode byte
}

// Immediate is the payload of an instruction. It is implemented only by
// the immediate types in this package.
type Immediate interface {
	immediate()
}

// I32Imm holds the constant value for i32.const instruction.
type I32Imm struct {
	Value uint32
}

// I64Imm holds the constant value for i64.const instruction.
type I64Imm struct {
	Value uint64
}

// F32Imm holds the constant value for f32.const instruction.
type F32Imm struct {
	Value float32
}

// IfImm holds the blocktype and resolved forward offsets of an if.
//
// ElseOffset is the pc delta taken when the condition is zero: one past the
// matching else, or onto the matching end when there is no else.
// EndOffset is the delta from the if to its matching end.
type IfImm struct {
	ElseOffset uint32
	EndOffset  uint32
	BlockType  byte
}

// ElseImm holds the pc delta from an else to the matching end.
type ElseImm struct {
	EndOffset uint32
}

func (I32Imm) immediate()  {}
func (I64Imm) immediate()  {}
func (F32Imm) immediate()  {}
func (IfImm) immediate()   {}
func (ElseImm) immediate() {}

// String renders the instruction in text form, e.g. "i32.const 5".
func (i Instruction) String() string {
	name := OpcodeName(i.Opcode)
	switch imm := i.Imm.(type) {
	case I32Imm:
		return name + " " + strconv.FormatInt(int64(int32(imm.Value)), 10)
	case I64Imm:
		return name + " " + strconv.FormatInt(int64(imm.Value), 10)
	case F32Imm:
		return name + " " + strconv.FormatFloat(float64(imm.Value), 'g', -1, 32)
	case IfImm:
		return fmt.Sprintf("%s %s (else +%d, end +%d)", name, blockTypeString(imm.BlockType), imm.ElseOffset, imm.EndOffset)
	case ElseImm:
		return fmt.Sprintf("%s (end +%d)", name, imm.EndOffset)
	default:
		return name
	}
}

func blockTypeString(bt byte) string {
	if bt == BlockTypeEmpty {
		return "[]"
	}
	return "[" + ValType(bt).String() + "]"
}

// Instruction constructors. Control offsets are left zero; Assemble
// resolves them.

// I32Const returns an i32.const instruction.
func I32Const(v uint32) Instruction {
	return Instruction{Opcode: OpI32Const, Imm: I32Imm{Value: v}}
}

// I64Const returns an i64.const instruction.
func I64Const(v uint64) Instruction {
	return Instruction{Opcode: OpI64Const, Imm: I64Imm{Value: v}}
}

// F32Const returns an f32.const instruction.
func F32Const(v float32) Instruction {
	return Instruction{Opcode: OpF32Const, Imm: F32Imm{Value: v}}
}

// If returns an if with the given blocktype byte.
func If(blockType byte) Instruction {
	return Instruction{Opcode: OpIf, Imm: IfImm{BlockType: blockType}}
}

// Else returns an else instruction.
func Else() Instruction {
	return Instruction{Opcode: OpElse, Imm: ElseImm{}}
}

// End returns an end instruction.
func End() Instruction {
	return Instruction{Opcode: OpEnd}
}

// Op returns an instruction without an immediate.
func Op(opcode byte) Instruction {
	return Instruction{Opcode: opcode}
}

// Assemble encodes instrs and decodes them again, returning a body with
// resolved control offsets. instrs must end with the function's final end.
func Assemble(instrs ...Instruction) ([]Instruction, error) {
	code := EncodeInstructions(instrs)
	body, consumed, err := decodeInstructions(code, 0)
	if err != nil {
		return nil, err
	}
	if consumed != len(code) {
		return nil, decodeErr(errors.KindSectionSizeMismatch, consumed).
			Detail("%d bytes after function end", len(code)-consumed).
			Build()
	}
	return body, nil
}
