package crosscheck

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-minivm/engine"
	"github.com/wippyai/wasm-minivm/errors"
	"github.com/wippyai/wasm-minivm/wasm"
)

// Verdict is the result of comparing a local execution with the reference.
type Verdict int

const (
	Agree Verdict = iota
	Mismatch
	Unsupported
)

func (v Verdict) String() string {
	switch v {
	case Agree:
		return "agree"
	case Mismatch:
		return "mismatch"
	case Unsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Outcome is how one execution ended: a trap kind or a final stack.
type Outcome struct {
	Trap  errors.Kind
	Stack []engine.Value
}

func (o Outcome) String() string {
	if o.Trap != "" {
		return "trap " + string(o.Trap)
	}
	return fmt.Sprint(o.Stack)
}

// Report describes one verification.
type Report struct {
	Local     Outcome
	Reference Outcome
	Reason    string
	// Binary is the module handed to the reference runtime.
	Binary  []byte
	Results []wasm.ValType
	Verdict Verdict
}

// Reference trap messages, matched as substrings of wazero's errors.
var referenceTraps = []struct {
	message string
	kind    errors.Kind
}{
	{"integer divide by zero", errors.KindDivideByZero},
	{"integer overflow", errors.KindIntegerOverflow},
}

// Verifier runs bodies on wazero's interpreter. It is safe for concurrent
// use.
type Verifier struct {
	rt wazero.Runtime
}

// NewVerifier creates a verifier backed by a fresh wazero runtime.
func NewVerifier(ctx context.Context) *Verifier {
	cfg := wazero.NewRuntimeConfigInterpreter().WithCloseOnContextDone(true)
	return &Verifier{rt: wazero.NewRuntimeWithConfig(ctx, cfg)}
}

// Close releases the reference runtime.
func (v *Verifier) Close(ctx context.Context) error {
	return v.rt.Close(ctx)
}

// Verify runs fn once on a new Verifier and compares it with the local
// result got or trap gotErr.
func Verify(ctx context.Context, fn *wasm.Function, got *engine.Result, gotErr error) (*Report, error) {
	v := NewVerifier(ctx)
	defer v.Close(ctx)
	return v.Verify(ctx, fn.Body, got, gotErr)
}

// Verify compares a local execution of body with the reference. The error
// is non-nil only when verification itself fails; disagreement is reported
// through the Report's Verdict.
func (v *Verifier) Verify(ctx context.Context, body []wasm.Instruction, got *engine.Result, gotErr error) (*Report, error) {
	local, err := localOutcome(got, gotErr)
	if err != nil {
		return nil, err
	}
	report := &Report{Local: local}

	sig, err := infer(body)
	if err != nil {
		var u *unsupportedError
		if stderrors.As(err, &u) {
			report.Verdict = Unsupported
			report.Reason = u.Error()
			return report, nil
		}
		return nil, err
	}
	report.Results = sig.results

	if local.Trap != "" && !referenceTrap(local.Trap) {
		report.Verdict = Unsupported
		report.Reason = fmt.Sprintf("%s trap has no reference equivalent", local.Trap)
		return report, nil
	}

	report.Binary = emit(body, sig)
	ref, err := v.run(ctx, report.Binary, sig.results)
	if err != nil {
		return nil, err
	}
	report.Reference = ref

	if local.Trap == ref.Trap && slices.Equal(local.Stack, ref.Stack) {
		report.Verdict = Agree
	} else {
		report.Verdict = Mismatch
		report.Reason = fmt.Sprintf("local %s, reference %s", local, ref)
	}
	return report, nil
}

func localOutcome(got *engine.Result, gotErr error) (Outcome, error) {
	if gotErr != nil {
		e, ok := errors.As(gotErr)
		if !ok || e.Phase != errors.PhaseRuntime {
			return Outcome{}, errors.New(errors.PhaseVerify, errors.KindInvalidInput).
				Detail("local execution did not end in a trap").
				Cause(gotErr).
				Build()
		}
		return Outcome{Trap: e.Kind}, nil
	}
	if got == nil {
		return Outcome{}, errors.InvalidInput(errors.PhaseVerify, "no local result")
	}
	return Outcome{Stack: got.Stack}, nil
}

func referenceTrap(kind errors.Kind) bool {
	for _, t := range referenceTraps {
		if t.kind == kind {
			return true
		}
	}
	return false
}

func (v *Verifier) run(ctx context.Context, bin []byte, results []wasm.ValType) (Outcome, error) {
	compiled, err := v.rt.CompileModule(ctx, bin)
	if err != nil {
		return Outcome{}, verifyErr("compile reference module", err)
	}
	defer compiled.Close(ctx)

	mod, err := v.rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return Outcome{}, verifyErr("instantiate reference module", err)
	}
	defer mod.Close(ctx)

	fn := mod.ExportedFunction(ExportName)
	if fn == nil {
		return Outcome{}, errors.New(errors.PhaseVerify, errors.KindNotFound).
			Detail("reference module has no %q export", ExportName).
			Build()
	}
	if rt := fn.Definition().ResultTypes(); !sameTypes(rt, results) {
		return Outcome{}, errors.New(errors.PhaseVerify, errors.KindMismatch).
			Detail("reference results %v, inferred %v", rt, results).
			Build()
	}

	raw, err := fn.Call(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}
		msg := err.Error()
		for _, t := range referenceTraps {
			if strings.Contains(msg, t.message) {
				return Outcome{Trap: t.kind}, nil
			}
		}
		return Outcome{}, verifyErr("reference call failed", err)
	}

	stack := make([]engine.Value, len(raw))
	for i, bits := range raw {
		if results[i] != wasm.ValI64 {
			bits = uint64(uint32(bits))
		}
		stack[i] = engine.Value{Bits: bits, Type: results[i]}
	}
	return Outcome{Stack: stack}, nil
}

func sameTypes(ref []api.ValueType, ours []wasm.ValType) bool {
	if len(ref) != len(ours) {
		return false
	}
	for i := range ref {
		if byte(ref[i]) != byte(ours[i]) {
			return false
		}
	}
	return true
}

func verifyErr(detail string, cause error) *errors.Error {
	return errors.New(errors.PhaseVerify, errors.KindInvalidInput).Detail("%s", detail).Cause(cause).Build()
}
