// Package runtime provides the high-level API: decode a module, bind it to
// a store and run its start function.
//
// # Quick Start
//
//	rt := runtime.New(runtime.DefaultConfig())
//
//	mod, err := rt.Load(wasmBytes)
//	if err != nil {
//	    log.Fatal(err) // *errors.Error in PhaseDecode
//	}
//
//	inst, err := rt.Instantiate(mod)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := rt.RunStart(ctx, inst)
//	if err != nil {
//	    log.Fatal(err) // trap, *errors.Error in PhaseRuntime
//	}
//	if res != nil {
//	    fmt.Println(res.Stack) // [i32:5]
//	}
//
// LoadWAT accepts WebAssembly text instead of a binary; the text is
// assembled and then decoded through the same path as Load.
//
// # Instances
//
// Every Instantiate call creates a new Store holding one FunctionInstance per
// declared function. A FunctionInstance shares its code with the Module and
// refers back to its ModuleInstance through a weak pointer, so function
// instances never keep the module instance alive.
//
// A Module is immutable and may be instantiated and run from several
// goroutines at once.
//
// # Logging
//
// Load, Instantiate and Invoke log at debug level through Logger. Install a
// logger with SetLogger; engine.SetLogger covers traps.
package runtime
