// Package errors provides the structured error type used by the decoder,
// the instantiator and the interpreter.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// Decode errors carry the byte Offset into the module binary, traps carry the
// instruction Index into the executing body.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindUnknownValueType).
//		Path("type[0]", "params").
//		Offset(14).
//		Value(byte(0x40)).
//		Detail("unknown value type 0x40").
//		Build()
//
// Sentinels match any error of the same Phase and Kind:
//
//	if errors.Is(err, errors.Sentinel(errors.PhaseRuntime, errors.KindDivideByZero)) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
