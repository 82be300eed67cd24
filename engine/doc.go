// Package engine executes decoded function bodies on a typed operand stack.
//
// A Machine runs one body from its first instruction until the outermost
// end, or until a trap. Values are tagged with their WebAssembly type and
// every pop checks the tag, so an ill-typed body traps with TypeMismatch
// instead of reinterpreting bits.
//
// # Control Flow
//
// Structured control is limited to if/else/end. Branch targets are resolved
// at decode time and stored as relative offsets on the instructions:
//
//	if    ElseOffset  jump taken when the condition is zero
//	else  EndOffset   jump taken when falling out of the true branch
//
// Both jumps land on the matching end (or the first instruction after else),
// which keeps the block level counter balanced.
//
// # Traps
//
// Traps are *errors.Error values in PhaseRuntime carrying the faulting
// instruction index. Match them with errors.Is against ErrDivideByZero,
// ErrIntegerOverflow and the other sentinels in this package.
//
// # Usage
//
//	body, _ := wasm.Assemble(
//	    wasm.I32Const(6),
//	    wasm.I32Const(7),
//	    wasm.Op(wasm.OpI32Mul),
//	    wasm.End(),
//	)
//	res, err := engine.Execute(ctx, body, engine.DefaultConfig())
//	// res.Stack == [i32:42]
//
// Machine.Step advances one instruction at a time for debuggers and tracers.
package engine
