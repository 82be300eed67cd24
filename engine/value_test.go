package engine

import (
	"errors"
	"testing"

	"github.com/wippyai/wasm-minivm/wasm"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{I32(0xFFFFFFFF), "i32:-1"},
		{I32(7), "i32:7"},
		{I64(42), "i64:42"},
		{I64(1 << 63), "i64:-9223372036854775808"},
		{F32(1.5), "f32:1.5"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestOperandStack(t *testing.T) {
	s := newOperandStack(3)

	if _, err := s.popAny(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("pop empty: got %v", err)
	}
	for i := range 3 {
		if err := s.pushI32(uint32(i)); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if err := s.pushI32(3); !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("push past limit: got %v", err)
	}
	if s.depth() != 3 {
		t.Fatalf("depth: got %d, want 3", s.depth())
	}

	if _, err := s.popI64(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("popI64 on i32: got %v", err)
	}
	if s.depth() != 3 {
		t.Errorf("mismatched pop must not consume, depth %d", s.depth())
	}

	v, err := s.popI32()
	if err != nil || v != 2 {
		t.Fatalf("popI32: got %d, %v", v, err)
	}
	if top, err := s.popAny(); err != nil || top.Type != wasm.ValI32 || top.I32() != 1 {
		t.Fatalf("popAny: got %v, %v", top, err)
	}
}

func TestConfigStackDepth(t *testing.T) {
	if got := (Config{}).stackDepth(); got != DefaultMaxStackDepth {
		t.Errorf("zero config: got %d", got)
	}
	if got := (Config{MaxStackDepth: 8}).stackDepth(); got != 8 {
		t.Errorf("explicit: got %d", got)
	}
	if got := DefaultConfig().MaxStackDepth; got != DefaultMaxStackDepth {
		t.Errorf("default: got %d", got)
	}
}
