package wat

import (
	"strconv"

	"github.com/wippyai/wasm-minivm/errors"
	"github.com/wippyai/wasm-minivm/wasm"
	"github.com/wippyai/wasm-minivm/wat/internal/parser"
	"github.com/wippyai/wasm-minivm/wat/internal/token"
)

// ErrSyntax matches every assembly error with errors.Is.
var ErrSyntax = errors.Sentinel(errors.PhaseDecode, errors.KindSyntax)

// Parse assembles WAT source into a module with resolved control offsets.
func Parse(source string) (*wasm.Module, error) {
	tokens, err := token.Tokenize(source)
	if err != nil {
		if lexErr, ok := err.(*token.Error); ok {
			return nil, errors.New(errors.PhaseDecode, errors.KindSyntax).
				Path("line " + strconv.Itoa(lexErr.Line)).
				Detail("%s", lexErr.Msg).
				Build()
		}
		return nil, err
	}
	return parser.New(tokens).Parse()
}

// Compile assembles WAT source into a module binary.
func Compile(source string) ([]byte, error) {
	m, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return m.Encode(), nil
}
