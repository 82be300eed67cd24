package token

import (
	"fmt"
	"unicode"
)

type Type int

const (
	LParen Type = iota
	RParen
	Keyword
	ID
	Number
	String
)

func (t Type) String() string {
	switch t {
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case Keyword:
		return "keyword"
	case ID:
		return "identifier"
	case Number:
		return "number"
	case String:
		return "string"
	}
	return "unknown"
}

type Token struct {
	Value string
	Type  Type
	Line  int
}

func (t Token) String() string {
	if t.Type == LParen || t.Type == RParen {
		return t.Type.String()
	}
	return fmt.Sprintf("%s %q", t.Type, t.Value)
}

// Error is a lexical error at a source line.
type Error struct {
	Msg  string
	Line int
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type scanner struct {
	src    []rune
	tokens []Token
	pos    int
	line   int
}

// Tokenize splits WAT source into tokens. Line comments (;; ...) and
// nested block comments ((; ... ;)) are skipped.
func Tokenize(input string) ([]Token, error) {
	s := &scanner{src: []rune(input), line: 1}
	for s.pos < len(s.src) {
		if err := s.scan(); err != nil {
			return nil, err
		}
	}
	return s.tokens, nil
}

func (s *scanner) peekAt(off int) rune {
	if s.pos+off >= len(s.src) {
		return 0
	}
	return s.src[s.pos+off]
}

func (s *scanner) emit(typ Type, start int) {
	s.tokens = append(s.tokens, Token{Value: string(s.src[start:s.pos]), Type: typ, Line: s.line})
}

func (s *scanner) scan() error {
	r := s.src[s.pos]
	switch {
	case r == '\n':
		s.line++
		s.pos++
	case unicode.IsSpace(r):
		s.pos++
	case r == ';' && s.peekAt(1) == ';':
		for s.pos < len(s.src) && s.src[s.pos] != '\n' {
			s.pos++
		}
	case r == '(' && s.peekAt(1) == ';':
		return s.blockComment()
	case r == '(':
		s.pos++
		s.emit(LParen, s.pos-1)
	case r == ')':
		s.pos++
		s.emit(RParen, s.pos-1)
	case r == '"':
		return s.str()
	case r == '$':
		start := s.pos
		s.pos++
		s.word()
		if s.pos == start+1 {
			return &Error{Msg: "empty identifier", Line: s.line}
		}
		s.emit(ID, start)
	case r == '-' || r == '+' || unicode.IsDigit(r):
		start := s.pos
		s.pos++
		s.word()
		s.emit(Number, start)
	case unicode.IsLetter(r):
		start := s.pos
		s.word()
		s.emit(Keyword, start)
	default:
		return &Error{Msg: fmt.Sprintf("unexpected character %q", r), Line: s.line}
	}
	return nil
}

// word consumes an idchar run: everything up to whitespace, a paren, a
// quote or a semicolon.
func (s *scanner) word() {
	for s.pos < len(s.src) {
		r := s.src[s.pos]
		if unicode.IsSpace(r) || r == '(' || r == ')' || r == '"' || r == ';' {
			return
		}
		s.pos++
	}
}

func (s *scanner) blockComment() error {
	line := s.line
	depth := 1
	s.pos += 2
	for s.pos < len(s.src) {
		switch {
		case s.src[s.pos] == '(' && s.peekAt(1) == ';':
			depth++
			s.pos += 2
		case s.src[s.pos] == ';' && s.peekAt(1) == ')':
			depth--
			s.pos += 2
			if depth == 0 {
				return nil
			}
		default:
			if s.src[s.pos] == '\n' {
				s.line++
			}
			s.pos++
		}
	}
	return &Error{Msg: "unterminated block comment", Line: line}
}

func (s *scanner) str() error {
	s.pos++
	start := s.pos
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
		case '\n':
			return &Error{Msg: "newline in string", Line: s.line}
		case '"':
			s.emit(String, start)
			s.pos++
			return nil
		default:
			s.pos++
		}
	}
	return &Error{Msg: "unterminated string", Line: s.line}
}
