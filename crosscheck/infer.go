package crosscheck

import (
	"fmt"
	"slices"

	"github.com/wippyai/wasm-minivm/wasm"
)

// unsupportedError marks a body the reference runtime cannot express.
type unsupportedError struct {
	index  int
	reason string
}

func (e *unsupportedError) Error() string {
	return fmt.Sprintf("instruction %d: %s", e.index, e.reason)
}

func unsupported(index int, format string, args ...any) error {
	return &unsupportedError{index: index, reason: fmt.Sprintf(format, args...)}
}

// signature is the inferred shape of a body: its results and the
// blocktype each if must carry to validate.
type signature struct {
	results    []wasm.ValType
	blockTypes map[int]byte
}

// infer simulates the body over value types. The interpreter runs bodies
// without validation, so branches may consume operands from outside their
// block or leave different types behind; such bodies are reported as
// unsupported.
func infer(body []wasm.Instruction) (*signature, error) {
	s := &simulator{body: body, blockTypes: make(map[int]byte)}
	stack, stop, err := s.sequence(0)
	if err != nil {
		return nil, err
	}
	if body[stop].Opcode != wasm.OpEnd {
		return nil, unsupported(stop, "function ends with %s", wasm.OpcodeName(body[stop].Opcode))
	}
	return &signature{results: stack, blockTypes: s.blockTypes}, nil
}

type simulator struct {
	body       []wasm.Instruction
	blockTypes map[int]byte
}

type typeStack struct {
	types []wasm.ValType
	sim   *simulator
}

func (t *typeStack) push(v wasm.ValType) { t.types = append(t.types, v) }

func (t *typeStack) pop(at int, want wasm.ValType) error {
	n := len(t.types)
	if n == 0 {
		return unsupported(at, "%s reads an operand from outside its block", wasm.OpcodeName(t.sim.body[at].Opcode))
	}
	if got := t.types[n-1]; want != 0 && got != want {
		return unsupported(at, "%s expects %s, got %s", wasm.OpcodeName(t.sim.body[at].Opcode), want, got)
	}
	t.types = t.types[:n-1]
	return nil
}

// apply pops ins and pushes out.
func (t *typeStack) apply(at int, out wasm.ValType, ins ...wasm.ValType) error {
	for _, in := range ins {
		if err := t.pop(at, in); err != nil {
			return err
		}
	}
	t.push(out)
	return nil
}

// sequence simulates from pc until the else or end that closes the
// current block, returning the block's types and the closing index.
func (s *simulator) sequence(pc int) ([]wasm.ValType, int, error) {
	st := &typeStack{sim: s}

	for pc < len(s.body) {
		op := s.body[pc].Opcode
		var err error

		switch {
		case op == wasm.OpEnd || op == wasm.OpElse:
			return st.types, pc, nil

		case op == wasm.OpIf:
			if err := st.pop(pc, wasm.ValI32); err != nil {
				return nil, 0, err
			}
			results, end, err := s.ifBlock(pc)
			if err != nil {
				return nil, 0, err
			}
			for _, r := range results {
				st.push(r)
			}
			pc = end + 1
			continue

		case op == wasm.OpI32Const:
			st.push(wasm.ValI32)
		case op == wasm.OpI64Const:
			st.push(wasm.ValI64)
		case op == wasm.OpF32Const:
			st.push(wasm.ValF32)
		case op == wasm.OpDrop:
			err = st.pop(pc, 0)
		case op == wasm.OpI32WrapI64:
			err = st.apply(pc, wasm.ValI32, wasm.ValI64)

		case op == wasm.OpI32Eqz:
			err = st.apply(pc, wasm.ValI32, wasm.ValI32)
		case op >= wasm.OpI32Eq && op <= wasm.OpI32GeU:
			err = st.apply(pc, wasm.ValI32, wasm.ValI32, wasm.ValI32)
		case op == wasm.OpI64Eqz:
			err = st.apply(pc, wasm.ValI32, wasm.ValI64)
		case op >= wasm.OpI64Eq && op <= wasm.OpI64GeU:
			err = st.apply(pc, wasm.ValI32, wasm.ValI64, wasm.ValI64)

		case op >= wasm.OpI32Clz && op <= wasm.OpI32Popcnt:
			err = st.apply(pc, wasm.ValI32, wasm.ValI32)
		case op >= wasm.OpI32Add && op <= wasm.OpI32Rotr:
			err = st.apply(pc, wasm.ValI32, wasm.ValI32, wasm.ValI32)
		case op >= wasm.OpI64Clz && op <= wasm.OpI64Popcnt:
			err = st.apply(pc, wasm.ValI64, wasm.ValI64)
		case op >= wasm.OpI64Add && op <= wasm.OpI64Rotr:
			err = st.apply(pc, wasm.ValI64, wasm.ValI64, wasm.ValI64)

		default:
			err = unsupported(pc, "unknown opcode %s", wasm.OpcodeName(op))
		}

		if err != nil {
			return nil, 0, err
		}
		pc++
	}

	return nil, 0, unsupported(pc, "body has no end")
}

// ifBlock simulates both arms of the if at pc and records its blocktype.
func (s *simulator) ifBlock(pc int) ([]wasm.ValType, int, error) {
	then, stop, err := s.sequence(pc + 1)
	if err != nil {
		return nil, 0, err
	}

	var alt []wasm.ValType
	hasElse := s.body[stop].Opcode == wasm.OpElse
	if hasElse {
		alt, stop, err = s.sequence(stop + 1)
		if err != nil {
			return nil, 0, err
		}
		if s.body[stop].Opcode != wasm.OpEnd {
			return nil, 0, unsupported(stop, "second else")
		}
	}

	switch {
	case !slices.Equal(then, alt):
		return nil, 0, unsupported(pc, "branches leave %v and %v", then, alt)
	case len(then) > 1:
		return nil, 0, unsupported(pc, "block leaves %d values", len(then))
	case len(then) == 1:
		s.blockTypes[pc] = byte(then[0])
	default:
		s.blockTypes[pc] = wasm.BlockTypeEmpty
	}
	return then, stop, nil
}
