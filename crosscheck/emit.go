package crosscheck

import (
	"github.com/wippyai/wasm-minivm/internal/binary"
	"github.com/wippyai/wasm-minivm/wasm"
)

// ExportName is the export under which the emitted function is exposed.
const ExportName = "run"

const exportKindFunc = 0x00

// emit builds a standard module with one exported function of type
// () -> (sig.results) whose body is body. Constants are written as signed
// LEB128 and each if carries its inferred blocktype.
func emit(body []wasm.Instruction, sig *signature) []byte {
	w := binary.NewWriter()
	w.WriteU32LE(wasm.Magic)
	w.WriteU32LE(wasm.Version)

	types := binary.NewWriter()
	types.WriteU32(1)
	types.Byte(wasm.FuncTypeByte)
	types.WriteU32(0)
	types.WriteU32(uint32(len(sig.results)))
	for _, t := range sig.results {
		types.Byte(byte(t))
	}
	w.WriteSection(wasm.SectionType, types.Bytes())

	funcs := binary.NewWriter()
	funcs.WriteU32(1)
	funcs.WriteU32(0)
	w.WriteSection(wasm.SectionFunction, funcs.Bytes())

	exports := binary.NewWriter()
	exports.WriteU32(1)
	exports.WriteU32(uint32(len(ExportName)))
	exports.WriteBytes([]byte(ExportName))
	exports.Byte(exportKindFunc)
	exports.WriteU32(0)
	w.WriteSection(wasm.SectionExport, exports.Bytes())

	fn := binary.NewWriter()
	fn.WriteU32(0) // locals
	for i, instr := range body {
		fn.Byte(instr.Opcode)
		if instr.Opcode == wasm.OpIf {
			fn.Byte(sig.blockTypes[i])
			continue
		}
		switch imm := instr.Imm.(type) {
		case wasm.I32Imm:
			fn.WriteS32(int32(imm.Value))
		case wasm.I64Imm:
			fn.WriteS64(int64(imm.Value))
		case wasm.F32Imm:
			fn.WriteF32(imm.Value)
		}
	}
	code := binary.NewWriter()
	code.WriteU32(1)
	code.WriteU32(uint32(fn.Len()))
	code.WriteBytes(fn.Bytes())
	w.WriteSection(wasm.SectionCode, code.Bytes())

	return w.Bytes()
}
