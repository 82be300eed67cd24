package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/wasm-minivm/engine"
	"github.com/wippyai/wasm-minivm/wasm"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestStepper(t *testing.T, instrs ...wasm.Instruction) *stepperModel {
	t.Helper()
	body, err := wasm.Assemble(instrs...)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return newStepperModel("m.wasm", body, engine.DefaultConfig())
}

func press(m *stepperModel, msgs ...tea.Msg) *stepperModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(*stepperModel)
	}
	return m
}

func TestStepperStep(t *testing.T) {
	m := newTestStepper(t, addBody...)

	m = press(m, keyRunes("s"), keyRunes("s"))
	if m.machine.PC() != 2 {
		t.Fatalf("pc: got %d, want 2", m.machine.PC())
	}
	view := m.View()
	for _, want := range []string{"WASM Stepper", "pc 2", "stack: [i32:2 i32:3]", "i32.add"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if m.machine.PC() != 3 {
		t.Errorf("space should step, pc %d", m.machine.PC())
	}
}

func TestStepperRunAndRestart(t *testing.T) {
	m := newTestStepper(t, divBody...)

	m = press(m, keyRunes("r"))
	if m.machine.State() != engine.Trapped {
		t.Fatalf("state: got %s, want trapped", m.machine.State())
	}
	if view := m.View(); !strings.Contains(view, "trap:") || !strings.Contains(view, "divide_by_zero") {
		t.Errorf("view:\n%s", view)
	}

	m = press(m, keyRunes("R"))
	if m.machine.State() != engine.Running || m.machine.PC() != 0 {
		t.Errorf("after restart: %s at %d", m.machine.State(), m.machine.PC())
	}
	if !strings.Contains(m.View(), "restarted") {
		t.Error("restart message missing")
	}
}

func TestStepperBreakpoint(t *testing.T) {
	m := newTestStepper(t, addBody...)

	m = press(m, keyRunes("b"))
	if !m.editing {
		t.Fatal("b should open the breakpoint prompt")
	}
	m = press(m, keyRunes("2"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.editing || !m.breakpoints[2] {
		t.Fatalf("breakpoint not set: editing=%v breakpoints=%v", m.editing, m.breakpoints)
	}

	m = press(m, keyRunes("c"))
	if m.machine.PC() != 2 || m.machine.State() != engine.Running {
		t.Fatalf("continue stopped at %d (%s), want 2", m.machine.PC(), m.machine.State())
	}

	m = press(m, keyRunes("c"))
	if m.machine.State() != engine.Finished {
		t.Errorf("second continue: got %s, want finished", m.machine.State())
	}
	if !strings.Contains(m.View(), "finished") {
		t.Error("view should report finished")
	}
}

func TestStepperBreakpointInvalid(t *testing.T) {
	m := newTestStepper(t, addBody...)

	m = press(m, keyRunes("b"), keyRunes("99"), tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.breakpoints) != 0 {
		t.Errorf("breakpoints: %v", m.breakpoints)
	}
	if !strings.Contains(m.message, "no instruction") {
		t.Errorf("message: %q", m.message)
	}

	m = press(m, keyRunes("b"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing {
		t.Error("esc should close the prompt")
	}
}

func TestStepperQuit(t *testing.T) {
	m := newTestStepper(t, addBody...)
	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestListingWindow(t *testing.T) {
	tests := []struct {
		pc, n    int
		from, to int
	}{
		{0, 4, 0, 4},
		{0, 40, 0, listingHeight},
		{20, 40, 20 - listingHeight/2, 20 + listingHeight/2},
		{39, 40, 40 - listingHeight, 40},
	}
	for _, tt := range tests {
		from, to := listingWindow(tt.pc, tt.n)
		if from != tt.from || to != tt.to {
			t.Errorf("listingWindow(%d, %d) = %d, %d, want %d, %d", tt.pc, tt.n, from, to, tt.from, tt.to)
		}
	}
}
