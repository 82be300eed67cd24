// Package wasm decodes the subset of the WebAssembly binary format that the
// interpreter executes.
//
// # Supported Sections
//
//	Type      function signatures (functype 0x60 only)
//	Function  per-function type indices
//	Start     start function index
//	Code      function bodies (local declarations are read and discarded)
//	Custom    skipped
//
// Any other section is rejected with ErrUnsupportedSection. Sections must
// appear once each, in the order above.
//
// # Parsing
//
//	data, _ := os.ReadFile("module.wasm")
//	module, err := wasm.ParseModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Decode failures are *errors.Error values with the byte offset of the
// fault. They match the Err* sentinels with errors.Is:
//
//	if errors.Is(err, wasm.ErrInvalidMagic) { ... }
//
// # Instructions
//
// Each body is decoded into a []Instruction. The immediate of an
// instruction is selected by its opcode: integer and float constants carry
// their literal, if and else carry forward offsets resolved at decode time
// so that control transfer needs no scanning at run time.
//
// Bodies can also be built in code:
//
//	body, err := wasm.Assemble(
//		wasm.I32Const(0),
//		wasm.If(byte(wasm.ValI32)),
//		wasm.I32Const(10),
//		wasm.Else(),
//		wasm.I32Const(20),
//		wasm.End(),
//		wasm.End(),
//	)
//
// # Encoding
//
// Module.Encode writes a module back to binary form. Integer constants are
// written as unsigned LEB128, matching what ParseModule reads.
package wasm
