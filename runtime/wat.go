package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-minivm/wasm"
	"github.com/wippyai/wasm-minivm/wat"
)

// LoadWAT assembles WAT source and decodes the resulting binary exactly
// as Load does.
func (r *Runtime) LoadWAT(source string) (*wasm.Module, error) {
	bin, err := wat.Compile(source)
	if err != nil {
		Logger().Debug("assemble failed", zap.Error(err))
		return nil, err
	}
	return r.Load(bin)
}
