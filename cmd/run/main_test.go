package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/wippyai/wasm-minivm/crosscheck"
	"github.com/wippyai/wasm-minivm/errors"
	"github.com/wippyai/wasm-minivm/wasm"
)

func encode(t *testing.T, start bool, instrs ...wasm.Instruction) []byte {
	t.Helper()
	body, err := wasm.Assemble(instrs...)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	m := &wasm.Module{
		Types: []wasm.FuncType{{Results: []wasm.ValType{wasm.ValI32}}},
		Funcs: []wasm.Function{{TypeIndex: 0, Body: body}},
	}
	if start {
		zero := uint32(0)
		m.Start = &zero
	}
	return m.Encode()
}

type harness struct {
	app    *app
	fs     afero.Fs
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		fs:     afero.NewMemMapFs(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	h.app = &app{
		fs:         h.fs,
		stdout:     h.stdout,
		stderr:     h.stderr,
		isTerminal: func() bool { return false },
		runStepper: func(*stepperModel) error {
			t.Fatal("stepper should not run")
			return nil
		},
	}
	return h
}

func (h *harness) write(t *testing.T, name string, data []byte) {
	t.Helper()
	if err := afero.WriteFile(h.fs, name, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func (h *harness) run(args ...string) int {
	return h.app.run(context.Background(), args)
}

var addBody = []wasm.Instruction{
	wasm.I32Const(2), wasm.I32Const(3), wasm.Op(wasm.OpI32Add), wasm.End(),
}

var divBody = []wasm.Instruction{
	wasm.I32Const(1), wasm.I32Const(0), wasm.Op(wasm.OpI32DivU), wasm.End(),
}

func TestRunExitCodes(t *testing.T) {
	badMagic := encode(t, true, addBody...)
	badMagic[0] = 0xFF

	tests := []struct {
		name     string
		data     []byte
		args     []string
		want     int
		stdout   []string
		stderr   []string
		noOutput bool
	}{
		{
			name:   "start function",
			data:   encode(t, true, addBody...),
			args:   []string{"m.wasm"},
			want:   exitOK,
			stdout: []string{"types: 1", "() -> (i32) params=0 results=1", "functions: 1", "start: 0", "stack: [i32:5]"},
		},
		{
			name:   "wasm flag",
			data:   encode(t, true, addBody...),
			args:   []string{"-wasm", "m.wasm"},
			want:   exitOK,
			stdout: []string{"stack: [i32:5]"},
		},
		{
			name:   "no start function",
			data:   encode(t, false, addBody...),
			args:   []string{"m.wasm"},
			want:   exitOK,
			stdout: []string{"start: none", "no start function"},
		},
		{
			name:   "decode failure",
			data:   badMagic,
			args:   []string{"m.wasm"},
			want:   exitDecode,
			stderr: []string{"[decode] invalid_magic at offset 0"},
		},
		{
			name:   "trap",
			data:   encode(t, true, divBody...),
			args:   []string{"m.wasm"},
			want:   exitTrap,
			stdout: []string{"start: 0"},
			stderr: []string{"trap:", "divide_by_zero", "instruction 2"},
		},
		{
			name:   "stack limit",
			data:   encode(t, true, addBody...),
			args:   []string{"-max-stack", "1", "m.wasm"},
			want:   exitTrap,
			stderr: []string{"stack_overflow", "instruction 1"},
		},
		{
			name:   "missing file",
			args:   []string{"missing.wasm"},
			want:   exitUsage,
			stderr: []string{"[load]", "read missing.wasm"},
		},
		{
			name:   "no module",
			want:   exitUsage,
			stderr: []string{"Usage: run"},
		},
		{
			name:   "bad max stack",
			args:   []string{"-max-stack", "0", "m.wasm"},
			want:   exitUsage,
			stderr: []string{"-max-stack must be positive"},
		},
		{
			name:   "interactive without terminal",
			data:   encode(t, true, addBody...),
			args:   []string{"-i", "m.wasm"},
			want:   exitUsage,
			stderr: []string{"requires a terminal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.data != nil {
				h.write(t, "m.wasm", tt.data)
			}

			if got := h.run(tt.args...); got != tt.want {
				t.Fatalf("exit code: got %d, want %d\nstdout:\n%s\nstderr:\n%s", got, tt.want, h.stdout, h.stderr)
			}
			for _, s := range tt.stdout {
				if !strings.Contains(h.stdout.String(), s) {
					t.Errorf("stdout missing %q:\n%s", s, h.stdout)
				}
			}
			for _, s := range tt.stderr {
				if !strings.Contains(h.stderr.String(), s) {
					t.Errorf("stderr missing %q:\n%s", s, h.stderr)
				}
			}
		})
	}
}

func TestRunWAT(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
		stdout string
		stderr string
	}{
		{
			name: "assembled",
			source: `(module
				(func $main (result i32) (i32.mul (i32.add (i32.const 1) (i32.const 2)) (i32.const 3)))
				(start $main))`,
			want:   exitOK,
			stdout: "stack: [i32:9]",
		},
		{
			name:   "syntax error",
			source: "(module\n  (func (local i32)))",
			want:   exitDecode,
			stderr: "[decode] syntax at line 2: locals are not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.write(t, "m.wat", []byte(tt.source))

			if got := h.run("m.wat"); got != tt.want {
				t.Fatalf("exit code: got %d, want %d\nstderr:\n%s", got, tt.want, h.stderr)
			}
			if !strings.Contains(h.stdout.String(), tt.stdout) {
				t.Errorf("stdout missing %q:\n%s", tt.stdout, h.stdout)
			}
			if !strings.Contains(h.stderr.String(), tt.stderr) {
				t.Errorf("stderr missing %q:\n%s", tt.stderr, h.stderr)
			}
		})
	}
}

func TestRunNeverReportsSuccessAfterTrap(t *testing.T) {
	h := newHarness(t)
	h.write(t, "m.wasm", encode(t, true, divBody...))

	h.run("m.wasm")
	if strings.Contains(h.stdout.String(), "stack:") {
		t.Errorf("stack printed after trap:\n%s", h.stdout)
	}
}

func TestRunTrace(t *testing.T) {
	h := newHarness(t)
	h.write(t, "m.wasm", encode(t, true, addBody...))

	if code := h.run("-trace", "m.wasm"); code != exitOK {
		t.Fatalf("exit code %d: %s", code, h.stderr)
	}
	out := h.stdout.String()
	for _, want := range []string{"[   0] i32.const 2", "[   2] i32.add", "stack=[i32:5]", "[   3] end"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %q:\n%s", want, out)
		}
	}
}

func TestRunVerify(t *testing.T) {
	tests := []struct {
		name string
		body []wasm.Instruction
		want int
	}{
		{"value", addBody, exitOK},
		{"trap", divBody, exitTrap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.write(t, "m.wasm", encode(t, true, tt.body...))

			if code := h.run("-verify", "m.wasm"); code != tt.want {
				t.Fatalf("exit code: got %d, want %d: %s", code, tt.want, h.stderr)
			}
			if !strings.Contains(h.stdout.String(), "crosscheck: agree") {
				t.Errorf("stdout:\n%s", h.stdout)
			}
		})
	}
}

func TestRunInteractiveOnTerminal(t *testing.T) {
	h := newHarness(t)
	h.write(t, "m.wasm", encode(t, true, addBody...))
	h.app.isTerminal = func() bool { return true }

	var got *stepperModel
	h.app.runStepper = func(m *stepperModel) error {
		got = m
		return nil
	}

	if code := h.run("-i", "m.wasm"); code != exitOK {
		t.Fatalf("exit code %d: %s", code, h.stderr)
	}
	if got == nil || len(got.body) != 4 {
		t.Fatalf("stepper not started with the start body: %+v", got)
	}
}

func TestExitCode(t *testing.T) {
	trap := errors.Trap(errors.KindDivideByZero, 0, "i32.div_u")

	tests := []struct {
		name   string
		err    error
		report *crosscheck.Report
		want   int
	}{
		{"ok", nil, nil, exitOK},
		{"trap", trap, nil, exitTrap},
		{"agree", nil, &crosscheck.Report{Verdict: crosscheck.Agree}, exitOK},
		{"unsupported", nil, &crosscheck.Report{Verdict: crosscheck.Unsupported}, exitOK},
		{"mismatch", nil, &crosscheck.Report{Verdict: crosscheck.Mismatch}, exitMismatch},
		{"mismatch over trap", trap, &crosscheck.Report{Verdict: crosscheck.Mismatch}, exitMismatch},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err, tt.report); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestExitCodeForPhase(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.Sentinel(errors.PhaseDecode, errors.KindInvalidMagic), exitDecode},
		{errors.IndexOutOfRange(errors.PhaseInstantiate, errors.KindStartIndexOutOfRange, 3, 1), exitInstantiate},
		{errors.Sentinel(errors.PhaseRuntime, errors.KindStackOverflow), exitTrap},
		{errors.Load("read", nil), exitUsage},
		{context.Canceled, exitUsage},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.err); got != tt.want {
			t.Errorf("%v: got %d, want %d", tt.err, got, tt.want)
		}
	}
}
