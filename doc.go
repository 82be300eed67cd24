// Package minivm is a miniature WebAssembly decoder and interpreter.
//
// It decodes a subset of the binary format (type, function, start and code
// sections) into an immutable Module and executes the start function on a
// typed operand stack.
//
// # Architecture Overview
//
//	minivm/
//	├── internal/binary/  LEB128 codec and bounded position-tracking reader
//	├── errors/           Structured errors: phase, kind, byte offset or instruction index
//	├── wasm/             Module model, section decoders, instruction decoder, encoder
//	├── wat/              Text assembler for the supported instruction subset
//	├── engine/           Stack-machine interpreter with if/else/end control flow
//	├── runtime/          Store, instances and the high-level Runtime
//	├── crosscheck/       Differential checks against wazero
//	└── cmd/run/          CLI and interactive stepper
//
// # Quick Start
//
//	rt := runtime.New(runtime.DefaultConfig())
//
//	mod, err := rt.Load(wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := rt.Instantiate(mod)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := rt.RunStart(ctx, inst)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Stack)
//
// # Errors
//
// All failures are *errors.Error values. The phase tells decode failures,
// instantiation failures and runtime traps apart:
//
//	var e *errors.Error
//	if stderrors.As(err, &e) && e.Phase == errors.PhaseRuntime {
//	    fmt.Printf("trap %s at instruction %d\n", e.Kind, e.Index)
//	}
package minivm
