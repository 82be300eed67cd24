package engine

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-minivm/errors"
	"github.com/wippyai/wasm-minivm/wasm"
)

// State is the execution state of a Machine.
type State int

const (
	Running State = iota
	Finished
	Trapped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Trapped:
		return "trapped"
	default:
		return "unknown"
	}
}

// Result is the outcome of a completed execution.
type Result struct {
	// Stack holds the final operands, bottom first.
	Stack []Value
	Steps int
}

// Machine executes one function body. It owns its operand stack and
// program counter; the body is only read.
//
// Control nesting is tracked by a block level counter. if increments it and
// every end at a positive level decrements it; an end at level zero
// finishes the function.
type Machine struct {
	err        error
	body       []wasm.Instruction
	tracer     Tracer
	stack      operandStack
	pc         int
	blockLevel int
	steps      int
	state      State
}

// NewMachine prepares body for execution from its first instruction.
func NewMachine(body []wasm.Instruction, cfg Config) *Machine {
	return &Machine{
		body:   body,
		tracer: cfg.Tracer,
		stack:  newOperandStack(cfg.stackDepth()),
	}
}

// Execute runs body to completion.
func Execute(ctx context.Context, body []wasm.Instruction, cfg Config) (*Result, error) {
	return NewMachine(body, cfg).Run(ctx)
}

// State returns the current execution state.
func (m *Machine) State() State { return m.state }

// PC returns the index of the next instruction.
func (m *Machine) PC() int { return m.pc }

// BlockLevel returns the current if nesting depth.
func (m *Machine) BlockLevel() int { return m.blockLevel }

// Steps returns the number of instructions executed.
func (m *Machine) Steps() int { return m.steps }

// Err returns the trap that halted the machine, if any.
func (m *Machine) Err() error { return m.err }

// Body returns the instructions being executed.
func (m *Machine) Body() []wasm.Instruction { return m.body }

// Stack returns a copy of the operand stack, bottom first.
func (m *Machine) Stack() []Value {
	return slices.Clone(m.stack.values())
}

// Next returns the instruction at pc, if any.
func (m *Machine) Next() (wasm.Instruction, bool) {
	if m.state != Running || m.pc < 0 || m.pc >= len(m.body) {
		return wasm.Instruction{}, false
	}
	return m.body[m.pc], true
}

// Run steps the machine until it finishes or traps.
func (m *Machine) Run(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for m.state == Running {
		if err := m.Step(); err != nil {
			return nil, err
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &Result{Stack: m.Stack(), Steps: m.steps}, nil
}

// Step executes the instruction at pc. It returns the trap that halted
// the machine; stepping a halted machine has no effect.
func (m *Machine) Step() error {
	if m.state != Running {
		return m.err
	}

	idx := m.pc
	if idx < 0 || idx >= len(m.body) {
		return m.halt(errors.New(errors.PhaseRuntime, errors.KindBufferOverrun).
			Index(idx).
			Detail("pc outside body of %d instructions", len(m.body)).
			Build())
	}

	instr := m.body[idx]
	debugf("step %d: %s", idx, instr)
	if err := m.exec(instr); err != nil {
		return m.halt(trapAt(err, idx, instr.Opcode))
	}
	m.steps++

	if m.tracer != nil {
		m.tracer(Step{
			Index:      idx,
			Instr:      instr,
			Stack:      m.stack.values(),
			BlockLevel: m.blockLevel,
		})
	}
	return nil
}

func (m *Machine) halt(err error) error {
	m.state = Trapped
	m.err = err
	Logger().Debug("trap",
		zap.Error(err),
		zap.Int("steps", m.steps),
		zap.Int("stack_depth", m.stack.depth()))
	return err
}

// trapAt copies a location-free error and stamps it with the faulting
// instruction.
func trapAt(err error, idx int, opcode byte) error {
	e, ok := errors.As(err)
	if !ok {
		return err
	}
	t := *e
	t.Index = idx
	if t.Detail == "" {
		t.Detail = wasm.OpcodeName(opcode)
	} else {
		t.Detail = wasm.OpcodeName(opcode) + ": " + t.Detail
	}
	return &t
}

func (m *Machine) exec(instr wasm.Instruction) error {
	s := &m.stack

	switch instr.Opcode {
	case wasm.OpIf:
		imm, _ := instr.Imm.(wasm.IfImm)
		if imm.ElseOffset == 0 || imm.EndOffset == 0 {
			return errors.New(errors.PhaseRuntime, errors.KindInvalidBlock).Detail("unresolved if").Build()
		}
		cond, err := s.popI32()
		if err != nil {
			return err
		}
		m.blockLevel++
		if cond != 0 {
			m.pc++
		} else {
			m.pc += int(imm.ElseOffset)
		}
		return nil

	case wasm.OpElse:
		// Only reached by falling out of the true branch.
		imm, _ := instr.Imm.(wasm.ElseImm)
		if imm.EndOffset == 0 {
			return errors.New(errors.PhaseRuntime, errors.KindInvalidBlock).Detail("unresolved else").Build()
		}
		m.pc += int(imm.EndOffset)
		return nil

	case wasm.OpEnd:
		if m.blockLevel == 0 {
			m.state = Finished
			return nil
		}
		m.blockLevel--
		m.pc++
		return nil
	}

	if err := m.execSimple(instr); err != nil {
		return err
	}
	m.pc++
	return nil
}

// execSimple executes every instruction that falls through to pc+1.
func (m *Machine) execSimple(instr wasm.Instruction) error {
	s := &m.stack

	switch instr.Opcode {
	case wasm.OpI32Const:
		imm, _ := instr.Imm.(wasm.I32Imm)
		return s.pushI32(imm.Value)
	case wasm.OpI64Const:
		imm, _ := instr.Imm.(wasm.I64Imm)
		return s.pushI64(imm.Value)
	case wasm.OpF32Const:
		imm, _ := instr.Imm.(wasm.F32Imm)
		return s.push(F32(imm.Value))

	case wasm.OpDrop:
		_, err := s.popAny()
		return err

	case wasm.OpI32WrapI64:
		v, err := s.popI64()
		if err != nil {
			return err
		}
		return s.pushI32(uint32(v))

	case wasm.OpI32Eqz:
		return m.testI32(eqz[uint32])
	case wasm.OpI32Eq:
		return m.compareI32(eq[uint32])
	case wasm.OpI32Ne:
		return m.compareI32(ne[uint32])
	case wasm.OpI32LtS:
		return m.compareI32(ltS32)
	case wasm.OpI32LtU:
		return m.compareI32(ltU[uint32])
	case wasm.OpI32GtS:
		return m.compareI32(gtS32)
	case wasm.OpI32GtU:
		return m.compareI32(gtU[uint32])
	case wasm.OpI32LeS:
		return m.compareI32(leS32)
	case wasm.OpI32LeU:
		return m.compareI32(leU[uint32])
	case wasm.OpI32GeS:
		return m.compareI32(geS32)
	case wasm.OpI32GeU:
		return m.compareI32(geU[uint32])

	case wasm.OpI64Eqz:
		return m.testI64(eqz[uint64])
	case wasm.OpI64Eq:
		return m.compareI64(eq[uint64])
	case wasm.OpI64Ne:
		return m.compareI64(ne[uint64])
	case wasm.OpI64LtS:
		return m.compareI64(ltS64)
	case wasm.OpI64LtU:
		return m.compareI64(ltU[uint64])
	case wasm.OpI64GtS:
		return m.compareI64(gtS64)
	case wasm.OpI64GtU:
		return m.compareI64(gtU[uint64])
	case wasm.OpI64LeS:
		return m.compareI64(leS64)
	case wasm.OpI64LeU:
		return m.compareI64(leU[uint64])
	case wasm.OpI64GeS:
		return m.compareI64(geS64)
	case wasm.OpI64GeU:
		return m.compareI64(geU[uint64])

	case wasm.OpI32Clz:
		return m.unaryI32(clz32)
	case wasm.OpI32Ctz:
		return m.unaryI32(ctz32)
	case wasm.OpI32Popcnt:
		return m.unaryI32(popcnt32)
	case wasm.OpI32Add:
		return m.binaryI32(add[uint32])
	case wasm.OpI32Sub:
		return m.binaryI32(sub[uint32])
	case wasm.OpI32Mul:
		return m.binaryI32(mul[uint32])
	case wasm.OpI32DivS:
		return m.binarySafeI32(divS32)
	case wasm.OpI32DivU:
		return m.binarySafeI32(divU[uint32])
	case wasm.OpI32RemS:
		return m.binarySafeI32(remS32)
	case wasm.OpI32RemU:
		return m.binarySafeI32(remU[uint32])
	case wasm.OpI32And:
		return m.binaryI32(and[uint32])
	case wasm.OpI32Or:
		return m.binaryI32(or[uint32])
	case wasm.OpI32Xor:
		return m.binaryI32(xor[uint32])
	case wasm.OpI32Shl:
		return m.binaryI32(shl32)
	case wasm.OpI32ShrS:
		return m.binaryI32(shrS32)
	case wasm.OpI32ShrU:
		return m.binaryI32(shrU32)
	case wasm.OpI32Rotl:
		return m.binaryI32(rotl32)
	case wasm.OpI32Rotr:
		return m.binaryI32(rotr32)

	case wasm.OpI64Clz:
		return m.unaryI64(clz64)
	case wasm.OpI64Ctz:
		return m.unaryI64(ctz64)
	case wasm.OpI64Popcnt:
		return m.unaryI64(popcnt64)
	case wasm.OpI64Add:
		return m.binaryI64(add[uint64])
	case wasm.OpI64Sub:
		return m.binaryI64(sub[uint64])
	case wasm.OpI64Mul:
		return m.binaryI64(mul[uint64])
	case wasm.OpI64DivS:
		return m.binarySafeI64(divS64)
	case wasm.OpI64DivU:
		return m.binarySafeI64(divU[uint64])
	case wasm.OpI64RemS:
		return m.binarySafeI64(remS64)
	case wasm.OpI64RemU:
		return m.binarySafeI64(remU[uint64])
	case wasm.OpI64And:
		return m.binaryI64(and[uint64])
	case wasm.OpI64Or:
		return m.binaryI64(or[uint64])
	case wasm.OpI64Xor:
		return m.binaryI64(xor[uint64])
	case wasm.OpI64Shl:
		return m.binaryI64(shl64)
	case wasm.OpI64ShrS:
		return m.binaryI64(shrS64)
	case wasm.OpI64ShrU:
		return m.binaryI64(shrU64)
	case wasm.OpI64Rotl:
		return m.binaryI64(rotl64)
	case wasm.OpI64Rotr:
		return m.binaryI64(rotr64)
	}

	return ErrUnknownOpcode
}
