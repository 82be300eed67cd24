package crosscheck_test

import (
	"context"
	"strings"
	"testing"

	"github.com/wippyai/wasm-minivm/crosscheck"
	"github.com/wippyai/wasm-minivm/engine"
	werrors "github.com/wippyai/wasm-minivm/errors"
	"github.com/wippyai/wasm-minivm/wasm"
)

func verify(t *testing.T, v *crosscheck.Verifier, cfg engine.Config, instrs ...wasm.Instruction) *crosscheck.Report {
	t.Helper()
	ctx := context.Background()

	body, err := wasm.Assemble(instrs...)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	res, runErr := engine.Execute(ctx, body, cfg)

	report, err := v.Verify(ctx, body, res, runErr)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return report
}

func TestAgree(t *testing.T) {
	ctx := context.Background()
	v := crosscheck.NewVerifier(ctx)
	defer v.Close(ctx)

	tests := []struct {
		name   string
		instrs []wasm.Instruction
	}{
		{"add", []wasm.Instruction{
			wasm.I32Const(2), wasm.I32Const(3), wasm.Op(wasm.OpI32Add), wasm.End(),
		}},
		{"if else keeps outer operand", []wasm.Instruction{
			wasm.I32Const(1), wasm.I32Const(0),
			wasm.If(wasm.BlockTypeEmpty), wasm.I32Const(10), wasm.Else(), wasm.I32Const(20), wasm.End(),
			wasm.End(),
		}},
		{"if without else", []wasm.Instruction{
			wasm.I32Const(1), wasm.If(wasm.BlockTypeEmpty), wasm.I64Const(4), wasm.Op(wasm.OpDrop), wasm.End(),
			wasm.End(),
		}},
		{"wrapping mul", []wasm.Instruction{
			wasm.I32Const(0x10000), wasm.I32Const(0x10001), wasm.Op(wasm.OpI32Mul), wasm.End(),
		}},
		{"negative constants", []wasm.Instruction{
			wasm.I32Const(0xFFFFFFF9), wasm.I32Const(2), wasm.Op(wasm.OpI32DivS),
			wasm.I64Const(1 << 63), wasm.I64Const(3), wasm.Op(wasm.OpI64RemS),
			wasm.End(),
		}},
		{"shift by 33", []wasm.Instruction{
			wasm.I32Const(1), wasm.I32Const(33), wasm.Op(wasm.OpI32Shl), wasm.End(),
		}},
		{"rotr by max", []wasm.Instruction{
			wasm.I32Const(0x80000001), wasm.I32Const(0xFFFFFFFF), wasm.Op(wasm.OpI32Rotr), wasm.End(),
		}},
		{"bit counts", []wasm.Instruction{
			wasm.I32Const(0), wasm.Op(wasm.OpI32Clz),
			wasm.I64Const(0x100), wasm.Op(wasm.OpI64Ctz),
			wasm.I64Const(0xFF), wasm.Op(wasm.OpI64Popcnt),
			wasm.End(),
		}},
		{"compare and wrap", []wasm.Instruction{
			wasm.I64Const(0x1_0000_0005), wasm.Op(wasm.OpI32WrapI64),
			wasm.I32Const(5), wasm.Op(wasm.OpI32GeU),
			wasm.I64Const(0), wasm.Op(wasm.OpI64Eqz),
			wasm.Op(wasm.OpI32And),
			wasm.End(),
		}},
		{"f32 constant", []wasm.Instruction{
			wasm.F32Const(-2.5), wasm.End(),
		}},
		{"nested if with result", []wasm.Instruction{
			wasm.I32Const(1),
			wasm.If(wasm.BlockTypeEmpty),
			wasm.I32Const(0),
			wasm.If(wasm.BlockTypeEmpty), wasm.I64Const(1), wasm.Else(), wasm.I64Const(2), wasm.End(),
			wasm.Else(),
			wasm.I64Const(3),
			wasm.End(),
			wasm.End(),
		}},
		{"empty", []wasm.Instruction{wasm.End()}},
		{"divide by zero", []wasm.Instruction{
			wasm.I32Const(1), wasm.I32Const(0), wasm.Op(wasm.OpI32RemU), wasm.End(),
		}},
		{"signed overflow", []wasm.Instruction{
			wasm.I64Const(1 << 63), wasm.I64Const(^uint64(0)), wasm.Op(wasm.OpI64DivS), wasm.End(),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := verify(t, v, engine.DefaultConfig(), tt.instrs...)
			if report.Verdict != crosscheck.Agree {
				t.Fatalf("verdict %s: %s", report.Verdict, report.Reason)
			}
			if len(report.Binary) == 0 {
				t.Error("expected emitted binary")
			}
		})
	}
}

func TestTrapAgreementKind(t *testing.T) {
	ctx := context.Background()
	v := crosscheck.NewVerifier(ctx)
	defer v.Close(ctx)

	report := verify(t, v, engine.DefaultConfig(),
		wasm.I32Const(0x80000000), wasm.I32Const(0xFFFFFFFF), wasm.Op(wasm.OpI32DivS), wasm.End())
	if report.Verdict != crosscheck.Agree {
		t.Fatalf("verdict %s: %s", report.Verdict, report.Reason)
	}
	if report.Reference.Trap != werrors.KindIntegerOverflow {
		t.Errorf("reference trap: got %q", report.Reference.Trap)
	}
}

func TestMismatch(t *testing.T) {
	ctx := context.Background()
	body, err := wasm.Assemble(wasm.I32Const(2), wasm.I32Const(3), wasm.Op(wasm.OpI32Add), wasm.End())
	if err != nil {
		t.Fatal(err)
	}

	wrong := &engine.Result{Stack: []engine.Value{engine.I32(6)}}
	report, err := crosscheck.Verify(ctx, &wasm.Function{Body: body}, wrong, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Verdict != crosscheck.Mismatch {
		t.Fatalf("verdict: got %s", report.Verdict)
	}
	if !strings.Contains(report.Reason, "i32:6") || !strings.Contains(report.Reason, "i32:5") {
		t.Errorf("reason: %q", report.Reason)
	}

	trapped := werrors.Trap(werrors.KindDivideByZero, 2, "i32.add")
	report, err = crosscheck.Verify(ctx, &wasm.Function{Body: body}, nil, trapped)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Verdict != crosscheck.Mismatch {
		t.Errorf("trap vs value: got %s", report.Verdict)
	}
}

func TestUnsupported(t *testing.T) {
	ctx := context.Background()
	v := crosscheck.NewVerifier(ctx)
	defer v.Close(ctx)

	tests := []struct {
		name   string
		cfg    engine.Config
		reason string
		instrs []wasm.Instruction
	}{
		{
			name:   "branch reads outer operand",
			reason: "outside its block",
			instrs: []wasm.Instruction{
				wasm.I32Const(5), wasm.I32Const(1),
				wasm.If(wasm.BlockTypeEmpty), wasm.Op(wasm.OpDrop), wasm.End(),
				wasm.End(),
			},
		},
		{
			name:   "arms disagree",
			reason: "branches leave",
			instrs: []wasm.Instruction{
				wasm.I32Const(1),
				wasm.If(wasm.BlockTypeEmpty), wasm.I32Const(1), wasm.Else(), wasm.I64Const(1), wasm.End(),
				wasm.End(),
			},
		},
		{
			name:   "two block results",
			reason: "leaves 2 values",
			instrs: []wasm.Instruction{
				wasm.I32Const(1),
				wasm.If(wasm.BlockTypeEmpty), wasm.I32Const(1), wasm.I32Const(2),
				wasm.Else(), wasm.I32Const(3), wasm.I32Const(4), wasm.End(),
				wasm.End(),
			},
		},
		{
			name:   "operand type mismatch",
			reason: "expects i32, got i64",
			instrs: []wasm.Instruction{wasm.I64Const(1), wasm.Op(wasm.OpI32Eqz), wasm.End()},
		},
		{
			name:   "unknown opcode",
			reason: "unknown opcode",
			instrs: []wasm.Instruction{wasm.Op(0x01), wasm.End()},
		},
		{
			name:   "stack limit",
			cfg:    engine.Config{MaxStackDepth: 1},
			reason: "stack_overflow",
			instrs: []wasm.Instruction{wasm.I32Const(1), wasm.I32Const(2), wasm.End()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := verify(t, v, tt.cfg, tt.instrs...)
			if report.Verdict != crosscheck.Unsupported {
				t.Fatalf("verdict: got %s (%s)", report.Verdict, report.Reason)
			}
			if !strings.Contains(report.Reason, tt.reason) {
				t.Errorf("reason %q does not mention %q", report.Reason, tt.reason)
			}
		})
	}
}

func TestVerifyRejectsNonTrapError(t *testing.T) {
	ctx := context.Background()
	_, err := crosscheck.Verify(ctx, &wasm.Function{Body: []wasm.Instruction{wasm.End()}}, nil, context.Canceled)
	if err == nil {
		t.Fatal("expected error")
	}
	if phase, _ := werrors.PhaseOf(err); phase != werrors.PhaseVerify {
		t.Errorf("phase: got %q", phase)
	}
}

func TestVerdictString(t *testing.T) {
	for v, want := range map[crosscheck.Verdict]string{
		crosscheck.Agree:       "agree",
		crosscheck.Mismatch:    "mismatch",
		crosscheck.Unsupported: "unsupported",
		crosscheck.Verdict(7):  "Verdict(7)",
	} {
		if got := v.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
