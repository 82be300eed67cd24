// Package wat assembles WebAssembly text into modules the interpreter can
// run.
//
// Only the subset the interpreter executes is accepted: type definitions,
// functions without locals, a start function, and the numeric, drop and
// if/else/end instructions. Both flat and folded instruction forms work:
//
//	bin, err := wat.Compile(`(module
//		(func $main (result i32)
//			(if (result i32) (i32.const 1)
//				(then (i32.const 10))
//				(else (i32.const 20))))
//		(start $main))`)
//
// Inline signatures are deduplicated and appended after explicit types.
// Every function body gets its closing end implicitly.
//
// Errors are *errors.Error values in the decode phase with kind syntax,
// located by source line.
package wat
