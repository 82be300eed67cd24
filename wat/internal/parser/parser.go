package parser

import (
	"strconv"

	"github.com/wippyai/wasm-minivm/errors"
	"github.com/wippyai/wasm-minivm/wasm"
	"github.com/wippyai/wasm-minivm/wat/internal/token"
)

// funcDecl is a function as written. Its type is resolved once every
// explicit type definition has been seen.
type funcDecl struct {
	typeRef *token.Token
	sig     wasm.FuncType
	body    []wasm.Instruction
	line    int
	inline  bool
}

type Parser struct {
	typeMap  map[string]uint32
	funcMap  map[string]uint32
	start    *token.Token
	types    []wasm.FuncType
	funcs    []funcDecl
	tokens   []token.Token
	pos      int
	lastLine int
}

func New(tokens []token.Token) *Parser {
	return &Parser{
		tokens:   tokens,
		typeMap:  make(map[string]uint32),
		funcMap:  make(map[string]uint32),
		lastLine: 1,
	}
}

// Parse reads one module and returns it with control offsets resolved.
func (p *Parser) Parse() (*wasm.Module, error) {
	if err := p.parseModule(); err != nil {
		return nil, err
	}
	if t := p.peek(); t != nil {
		return nil, p.errorf(t, "unexpected %s after module", t)
	}
	return p.resolve()
}

func (p *Parser) peek() *token.Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(off int) *token.Token {
	if p.pos+off >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos+off]
}

func (p *Parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	p.lastLine = t.Line
	return t
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, p.errorf(nil, "unexpected end of input, expected %s", typ)
	}
	if t.Type != typ {
		return nil, p.errorf(t, "expected %s, got %s", typ, t)
	}
	return t, nil
}

// expectOpen consumes "(" followed by the keyword kw.
func (p *Parser) expectOpen(kw string) error {
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	t, err := p.expect(token.Keyword)
	if err != nil {
		return err
	}
	if t.Value != kw {
		return p.errorf(t, "expected '%s', got %q", kw, t.Value)
	}
	return nil
}

// atOpen reports whether the next tokens are "(" kw.
func (p *Parser) atOpen(kw string) bool {
	l, k := p.peek(), p.peekAt(1)
	return l != nil && l.Type == token.LParen &&
		k != nil && k.Type == token.Keyword && k.Value == kw
}

func (p *Parser) optionalID() *token.Token {
	if t := p.peek(); t != nil && t.Type == token.ID {
		return p.next()
	}
	return nil
}

func (p *Parser) errorf(t *token.Token, format string, args ...any) error {
	line := p.lastLine
	if t != nil {
		line = t.Line
	}
	return errors.New(errors.PhaseDecode, errors.KindSyntax).
		Path("line " + strconv.Itoa(line)).
		Detail(format, args...).
		Build()
}

func (p *Parser) parseValType() (wasm.ValType, error) {
	t, err := p.expect(token.Keyword)
	if err != nil {
		return 0, err
	}
	switch t.Value {
	case "i32":
		return wasm.ValI32, nil
	case "i64":
		return wasm.ValI64, nil
	case "f32":
		return wasm.ValF32, nil
	case "f64":
		return wasm.ValF64, nil
	default:
		return 0, p.errorf(t, "unknown value type: %s", t.Value)
	}
}

// parseIdx reads a numeric index or a $name bound in names.
func (p *Parser) parseIdx(names map[string]uint32, what string) (uint32, error) {
	t := p.next()
	if t == nil {
		return 0, p.errorf(nil, "expected %s index", what)
	}
	return p.lookupIdx(t, names, what)
}

func (p *Parser) lookupIdx(t *token.Token, names map[string]uint32, what string) (uint32, error) {
	switch t.Type {
	case token.ID:
		idx, ok := names[t.Value]
		if !ok {
			return 0, p.errorf(t, "unknown %s %s", what, t.Value)
		}
		return idx, nil
	case token.Number:
		idx, err := parseU32(t.Value)
		if err != nil {
			return 0, p.errorf(t, "invalid %s index %s", what, t.Value)
		}
		return idx, nil
	default:
		return 0, p.errorf(t, "expected %s index, got %s", what, t)
	}
}

func (p *Parser) findOrAddType(ft wasm.FuncType) uint32 {
	for i, t := range p.types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	idx := uint32(len(p.types))
	p.types = append(p.types, ft)
	return idx
}

// resolve binds type uses and the start reference and assembles bodies.
// Inline signatures that match no explicit type are appended after all
// explicit types.
func (p *Parser) resolve() (*wasm.Module, error) {
	explicit := len(p.types)
	m := &wasm.Module{Funcs: make([]wasm.Function, len(p.funcs))}

	for i, fd := range p.funcs {
		var ti uint32
		if fd.typeRef != nil {
			idx, err := p.lookupIdx(fd.typeRef, p.typeMap, "type")
			if err != nil {
				return nil, err
			}
			if int(idx) >= explicit {
				return nil, p.errorf(fd.typeRef, "type %d out of range", idx)
			}
			if fd.inline && !p.types[idx].Equal(fd.sig) {
				return nil, p.errorf(fd.typeRef, "inline signature %s does not match type %d %s", fd.sig, idx, p.types[idx])
			}
			ti = idx
		} else {
			ti = p.findOrAddType(fd.sig)
		}

		body, err := wasm.Assemble(fd.body...)
		if err != nil {
			return nil, errors.New(errors.PhaseDecode, errors.KindSyntax).
				Path("line "+strconv.Itoa(fd.line)).
				Detail("cannot assemble function %d", i).
				Cause(err).
				Build()
		}
		m.Funcs[i] = wasm.Function{TypeIndex: ti, Body: body}
	}

	if p.start != nil {
		idx, err := p.lookupIdx(p.start, p.funcMap, "function")
		if err != nil {
			return nil, err
		}
		if int(idx) >= len(m.Funcs) {
			return nil, p.errorf(p.start, "start function %d out of range", idx)
		}
		m.Start = &idx
	}

	m.Types = p.types
	return m, nil
}
