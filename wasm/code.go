package wasm

import (
	"encoding/binary"
	stderrors "errors"
	"math"

	"github.com/wippyai/wasm-minivm/errors"
	ibinary "github.com/wippyai/wasm-minivm/internal/binary"
)

// decodeInstructions decodes one function body's instruction stream.
// base is the absolute offset of code[0], used for error locations.
// It returns the body and the number of bytes up to and including the
// terminating end.
//
// The body is decoded in two passes: countInstructions sizes it without
// side effects, then materialize fills an exactly-sized slice and resolves
// if/else/end offsets.
func decodeInstructions(code []byte, base int) ([]Instruction, int, error) {
	n, err := countInstructions(code, base)
	if err != nil {
		return nil, 0, err
	}
	return materialize(code, base, n)
}

// countInstructions returns the number of instructions up to and including
// the end that closes the function.
func countInstructions(code []byte, base int) (int, error) {
	level := 0
	count := 0
	for i := 0; ; {
		if i >= len(code) {
			return 0, decodeErr(errors.KindBufferOverrun, base+len(code)).
				Detail("function body has no terminating end").
				Build()
		}
		op := code[i]
		count++
		switch op {
		case OpIf:
			level++
			i += 2
		case OpEnd:
			if level == 0 {
				return count, nil
			}
			level--
			i++
		case OpI32Const:
			n, err := ibinary.LenU32(code, i+1)
			if err != nil {
				return 0, bodyVarintErr(err, base+i+1)
			}
			i += 1 + n
		case OpI64Const:
			n, err := ibinary.LenU64(code, i+1)
			if err != nil {
				return 0, bodyVarintErr(err, base+i+1)
			}
			i += 1 + n
		case OpF32Const:
			i += 5
		default:
			i++
		}
	}
}

type pendingBlock struct {
	start int // index of the if, or of its else once seen
	ifIdx int
}

// materialize walks the same bytes as countInstructions. Bounds were
// established by the sizing pass.
func materialize(code []byte, base int, n int) ([]Instruction, int, error) {
	body := make([]Instruction, n)
	var pending []pendingBlock

	i := 0
	for idx := 0; idx < n; idx++ {
		at := i
		op := code[i]
		i++
		body[idx].Opcode = op

		switch op {
		case OpI32Const:
			v, err := ibinary.DecodeU32(code, &i)
			if err != nil {
				return nil, 0, bodyVarintErr(err, base+i)
			}
			body[idx].Imm = I32Imm{Value: v}

		case OpI64Const:
			v, err := ibinary.DecodeU64(code, &i)
			if err != nil {
				return nil, 0, bodyVarintErr(err, base+i)
			}
			body[idx].Imm = I64Imm{Value: v}

		case OpF32Const:
			body[idx].Imm = F32Imm{Value: math.Float32frombits(binary.LittleEndian.Uint32(code[i : i+4]))}
			i += 4

		case OpIf:
			bt := code[i]
			if bt != BlockTypeEmpty && !ValType(bt).Valid() {
				return nil, 0, decodeErr(errors.KindUnknownValueType, base+i).
					Detail("invalid blocktype 0x%02x", bt).
					Value(bt).
					Build()
			}
			i++
			body[idx].Imm = IfImm{BlockType: bt}
			pending = append(pending, pendingBlock{start: idx, ifIdx: idx})

		case OpElse:
			if len(pending) == 0 {
				return nil, 0, decodeErr(errors.KindInvalidBlock, base+at).
					Detail("else outside of if").
					Build()
			}
			top := pending[len(pending)-1]
			if top.start != top.ifIdx {
				return nil, 0, decodeErr(errors.KindInvalidBlock, base+at).
					Detail("second else for if at instruction %d", top.ifIdx).
					Build()
			}
			imm := body[top.ifIdx].Imm.(IfImm)
			imm.ElseOffset = uint32(idx-top.ifIdx) + 1
			body[top.ifIdx].Imm = imm
			body[idx].Imm = ElseImm{}
			pending[len(pending)-1].start = idx

		case OpEnd:
			if len(pending) == 0 {
				if idx != n-1 {
					return nil, 0, decodeErr(errors.KindInvalidBlock, base+at).
						Detail("function end at instruction %d of %d", idx, n).
						Build()
				}
				return body, i, nil
			}
			top := pending[len(pending)-1]
			pending = pending[:len(pending)-1]

			imm := body[top.ifIdx].Imm.(IfImm)
			imm.EndOffset = uint32(idx - top.ifIdx)
			if top.start == top.ifIdx {
				imm.ElseOffset = imm.EndOffset
			} else {
				body[top.start].Imm = ElseImm{EndOffset: uint32(idx - top.start)}
			}
			body[top.ifIdx].Imm = imm
		}
	}

	return nil, 0, decodeErr(errors.KindInvalidBlock, base+i).
		Detail("function end not reached after %d instructions", n).
		Build()
}

func bodyVarintErr(err error, offset int) error {
	if stderrors.Is(err, ibinary.ErrTruncated) {
		return decodeErr(errors.KindBufferOverrun, offset).
			Detail("constant runs past end of function body").
			Cause(err).
			Build()
	}
	return readErr(err, offset)
}
