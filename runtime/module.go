package runtime

import (
	"github.com/wippyai/wasm-minivm/wasm"
)

// Summary describes a decoded module.
type Summary struct {
	Start     *uint32
	Types     []TypeSummary
	TypeCount int
	FuncCount int
}

// TypeSummary describes one function signature.
type TypeSummary struct {
	Signature string
	Params    int
	Results   int
}

// Summarize reports the module's type and function counts, per-type
// param/result counts and start index.
func Summarize(m *wasm.Module) Summary {
	s := Summary{
		TypeCount: len(m.Types),
		FuncCount: len(m.Funcs),
		Types:     make([]TypeSummary, len(m.Types)),
	}
	for i, ft := range m.Types {
		s.Types[i] = TypeSummary{
			Signature: ft.String(),
			Params:    len(ft.Params),
			Results:   len(ft.Results),
		}
	}
	if m.Start != nil {
		start := *m.Start
		s.Start = &start
	}
	return s
}
