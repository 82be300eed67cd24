package wasm

import (
	"github.com/wippyai/wasm-minivm/internal/binary"
)

// Encode encodes the module to WebAssembly binary format.
// Integer constants are written as unsigned LEB128 and bodies declare no
// locals, so ParseModule(m.Encode()) reproduces m.
func (m *Module) Encode() []byte {
	w := binary.NewWriter()

	// Magic number and version
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)

	if len(m.Types) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Types)))
		for _, ft := range m.Types {
			sec.Byte(FuncTypeByte)
			writeValTypes(sec, ft.Params)
			writeValTypes(sec, ft.Results)
		}
		w.WriteSection(SectionType, sec.Bytes())
	}

	if len(m.Funcs) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Funcs)))
		for _, fn := range m.Funcs {
			sec.WriteU32(fn.TypeIndex)
		}
		w.WriteSection(SectionFunction, sec.Bytes())
	}

	if m.Start != nil {
		sec := binary.NewWriter()
		sec.WriteU32(*m.Start)
		w.WriteSection(SectionStart, sec.Bytes())
	}

	if len(m.Funcs) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Funcs)))
		for _, fn := range m.Funcs {
			body := binary.NewWriter()
			body.WriteU32(0) // no local declarations
			body.WriteBytes(EncodeInstructions(fn.Body))
			sec.WriteU32(uint32(body.Len()))
			sec.WriteBytes(body.Bytes())
		}
		w.WriteSection(SectionCode, sec.Bytes())
	}

	return w.Bytes()
}

func writeValTypes(w *binary.Writer, types []ValType) {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}

// EncodeInstructions encodes an instruction sequence. Resolved control
// offsets are not part of the binary form and are dropped.
func EncodeInstructions(instrs []Instruction) []byte {
	w := binary.NewWriter()
	for _, instr := range instrs {
		w.Byte(instr.Opcode)
		switch imm := instr.Imm.(type) {
		case I32Imm:
			w.WriteU32(imm.Value)
		case I64Imm:
			w.WriteU64(imm.Value)
		case F32Imm:
			w.WriteF32(imm.Value)
		case IfImm:
			w.Byte(imm.BlockType)
		}
	}
	return w.Bytes()
}
