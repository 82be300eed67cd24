package parser

import (
	"github.com/wippyai/wasm-minivm/wasm"
	"github.com/wippyai/wasm-minivm/wat/internal/token"
)

// openIf is a flat if awaiting its end.
type openIf struct {
	tok     *token.Token
	hasElse bool
}

// parseBody reads instructions up to, not including, the closing paren of
// the enclosing form. Flat and folded forms may be mixed.
func (p *Parser) parseBody() ([]wasm.Instruction, error) {
	var out []wasm.Instruction
	var open []openIf

	for {
		t := p.peek()
		if t == nil {
			return nil, p.errorf(nil, "unexpected end of input in function body")
		}

		switch t.Type {
		case token.RParen:
			if len(open) > 0 {
				return nil, p.errorf(open[len(open)-1].tok, "if without end")
			}
			return out, nil

		case token.LParen:
			folded, err := p.parseFolded()
			if err != nil {
				return nil, err
			}
			out = append(out, folded...)

		case token.Keyword:
			p.next()
			switch t.Value {
			case "if":
				instr, err := p.parseBlockType()
				if err != nil {
					return nil, err
				}
				out = append(out, instr)
				open = append(open, openIf{tok: t})
			case "else":
				if len(open) == 0 {
					return nil, p.errorf(t, "else outside if")
				}
				top := &open[len(open)-1]
				if top.hasElse {
					return nil, p.errorf(t, "duplicate else")
				}
				top.hasElse = true
				p.optionalID()
				out = append(out, wasm.Else())
			case "end":
				if len(open) == 0 {
					return nil, p.errorf(t, "end outside if")
				}
				open = open[:len(open)-1]
				p.optionalID()
				out = append(out, wasm.End())
			default:
				instr, err := p.parsePlain(t)
				if err != nil {
					return nil, err
				}
				out = append(out, instr)
			}

		default:
			return nil, p.errorf(t, "expected instruction, got %s", t)
		}
	}
}

// parseFolded reads one parenthesized instruction. Operands are emitted
// before the operator:
//
//	(i32.add (i32.const 1) (i32.const 2))
//	(if (result i32) (cond...) (then ...) (else ...))
func (p *Parser) parseFolded() ([]wasm.Instruction, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	t, err := p.expect(token.Keyword)
	if err != nil {
		return nil, err
	}

	var out []wasm.Instruction
	switch t.Value {
	case "if":
		out, err = p.parseFoldedIf()
		if err != nil {
			return nil, err
		}
	case "then", "else", "end", "local", "param", "result":
		return nil, p.errorf(t, "unexpected '%s'", t.Value)
	default:
		instr, err := p.parsePlain(t)
		if err != nil {
			return nil, err
		}
		for {
			next := p.peek()
			if next == nil || next.Type != token.LParen {
				break
			}
			operand, err := p.parseFolded()
			if err != nil {
				return nil, err
			}
			out = append(out, operand...)
		}
		out = append(out, instr)
	}

	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parser) parseFoldedIf() ([]wasm.Instruction, error) {
	ifInstr, err := p.parseBlockType()
	if err != nil {
		return nil, err
	}

	var out []wasm.Instruction
	for !p.atOpen("then") {
		next := p.peek()
		if next == nil || next.Type != token.LParen {
			return nil, p.errorf(next, "expected (then ...) in folded if")
		}
		cond, err := p.parseFolded()
		if err != nil {
			return nil, err
		}
		out = append(out, cond...)
	}
	out = append(out, ifInstr)

	p.pos += 2
	then, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	out = append(out, then...)
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}

	if p.atOpen("else") {
		p.pos += 2
		alt, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		out = append(out, wasm.Else())
		out = append(out, alt...)
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}
	return append(out, wasm.End()), nil
}

// parseBlockType reads the optional label and (result t) of an if.
func (p *Parser) parseBlockType() (wasm.Instruction, error) {
	p.optionalID()
	if p.atOpen("param") {
		return wasm.Instruction{}, p.errorf(p.peekAt(1), "block parameters are not supported")
	}
	if !p.atOpen("result") {
		return wasm.If(wasm.BlockTypeEmpty), nil
	}
	p.pos += 2
	vt, err := p.parseValType()
	if err != nil {
		return wasm.Instruction{}, err
	}
	if t := p.peek(); t != nil && t.Type != token.RParen {
		return wasm.Instruction{}, p.errorf(t, "multi-value block results are not supported")
	}
	if _, err := p.expect(token.RParen); err != nil {
		return wasm.Instruction{}, err
	}
	return wasm.If(byte(vt)), nil
}

// parsePlain resolves a mnemonic and reads its immediate, if any.
func (p *Parser) parsePlain(t *token.Token) (wasm.Instruction, error) {
	op, ok := wasm.LookupOpcode(t.Value)
	if !ok || op == wasm.OpIf || op == wasm.OpElse || op == wasm.OpEnd {
		return wasm.Instruction{}, p.errorf(t, "unknown instruction: %s", t.Value)
	}

	switch op {
	case wasm.OpI32Const:
		lit, err := p.literal(t)
		if err != nil {
			return wasm.Instruction{}, err
		}
		v, err := parseI32(lit.Value)
		if err != nil {
			return wasm.Instruction{}, p.errorf(lit, "invalid i32 constant %s", lit.Value)
		}
		return wasm.I32Const(v), nil

	case wasm.OpI64Const:
		lit, err := p.literal(t)
		if err != nil {
			return wasm.Instruction{}, err
		}
		v, err := parseI64(lit.Value)
		if err != nil {
			return wasm.Instruction{}, p.errorf(lit, "invalid i64 constant %s", lit.Value)
		}
		return wasm.I64Const(v), nil

	case wasm.OpF32Const:
		lit, err := p.literal(t)
		if err != nil {
			return wasm.Instruction{}, err
		}
		v, err := parseF32(lit.Value)
		if err != nil {
			return wasm.Instruction{}, p.errorf(lit, "invalid f32 constant %s", lit.Value)
		}
		return wasm.F32Const(v), nil
	}

	return wasm.Op(op), nil
}

// literal reads the numeric immediate of a const instruction. nan and inf
// lex as keywords.
func (p *Parser) literal(op *token.Token) (*token.Token, error) {
	t := p.next()
	if t == nil || (t.Type != token.Number && t.Type != token.Keyword) {
		return nil, p.errorf(op, "%s expects a constant", op.Value)
	}
	return t, nil
}
