package parser

import (
	"github.com/wippyai/wasm-minivm/wasm"
	"github.com/wippyai/wasm-minivm/wat/internal/token"
)

func (p *Parser) parseModule() error {
	if err := p.expectOpen("module"); err != nil {
		return err
	}
	p.optionalID()

	for {
		t := p.peek()
		if t == nil {
			return p.errorf(nil, "unexpected end of module")
		}
		if t.Type == token.RParen {
			p.next()
			return nil
		}

		if _, err := p.expect(token.LParen); err != nil {
			return err
		}
		t, err := p.expect(token.Keyword)
		if err != nil {
			return err
		}

		switch t.Value {
		case "type":
			err = p.parseType()
		case "func":
			err = p.parseFunc(t.Line)
		case "start":
			err = p.parseStart(t)
		case "import", "export", "memory", "table", "global", "elem", "data":
			err = p.errorf(t, "%s fields are not supported", t.Value)
		default:
			err = p.errorf(t, "unknown module field: %s", t.Value)
		}
		if err != nil {
			return err
		}
	}
}

func (p *Parser) parseType() error {
	name := p.optionalID()
	if err := p.expectOpen("func"); err != nil {
		return err
	}

	var ft wasm.FuncType
	if err := p.parseSig(&ft); err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}

	if name != nil {
		if _, exists := p.typeMap[name.Value]; exists {
			return p.errorf(name, "duplicate type %s", name.Value)
		}
		p.typeMap[name.Value] = uint32(len(p.types))
	}
	p.types = append(p.types, ft)
	return nil
}

// parseSig reads (param ...) and (result ...) groups. All params must
// precede all results.
func (p *Parser) parseSig(ft *wasm.FuncType) error {
	for p.atOpen("param") {
		if len(ft.Results) > 0 {
			return p.errorf(p.peekAt(1), "param after result")
		}
		p.pos += 2
		if err := p.parseValTypes(&ft.Params, true); err != nil {
			return err
		}
	}
	for p.atOpen("result") {
		p.pos += 2
		if err := p.parseValTypes(&ft.Results, false); err != nil {
			return err
		}
	}
	if p.atOpen("param") {
		return p.errorf(p.peekAt(1), "param after result")
	}
	return nil
}

// parseValTypes reads value types up to the closing paren. A named param
// declares exactly one type.
func (p *Parser) parseValTypes(dst *[]wasm.ValType, named bool) error {
	if named {
		if id := p.optionalID(); id != nil {
			vt, err := p.parseValType()
			if err != nil {
				return err
			}
			*dst = append(*dst, vt)
			_, err = p.expect(token.RParen)
			return err
		}
	}
	for {
		t := p.peek()
		if t == nil {
			return p.errorf(nil, "unexpected end of input in signature")
		}
		if t.Type == token.RParen {
			p.next()
			return nil
		}
		vt, err := p.parseValType()
		if err != nil {
			return err
		}
		*dst = append(*dst, vt)
	}
}

func (p *Parser) parseFunc(line int) error {
	fd := funcDecl{line: line}
	if name := p.optionalID(); name != nil {
		if _, exists := p.funcMap[name.Value]; exists {
			return p.errorf(name, "duplicate function %s", name.Value)
		}
		p.funcMap[name.Value] = uint32(len(p.funcs))
	}

	for _, kw := range []string{"export", "import"} {
		if p.atOpen(kw) {
			return p.errorf(p.peekAt(1), "inline %s is not supported", kw)
		}
	}

	if p.atOpen("type") {
		p.pos += 2
		ref := p.next()
		if ref == nil {
			return p.errorf(nil, "expected type index")
		}
		fd.typeRef = ref
		if _, err := p.expect(token.RParen); err != nil {
			return err
		}
	}

	mark := p.pos
	if err := p.parseSig(&fd.sig); err != nil {
		return err
	}
	fd.inline = p.pos != mark

	if p.atOpen("local") {
		return p.errorf(p.peekAt(1), "locals are not supported")
	}

	body, err := p.parseBody()
	if err != nil {
		return err
	}
	fd.body = append(body, wasm.End())

	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	p.funcs = append(p.funcs, fd)
	return nil
}

func (p *Parser) parseStart(kw *token.Token) error {
	t := p.next()
	if t == nil {
		return p.errorf(kw, "expected start function index")
	}
	if p.start != nil {
		return p.errorf(kw, "multiple start functions")
	}
	p.start = t
	_, err := p.expect(token.RParen)
	return err
}
