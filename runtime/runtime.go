package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-minivm/engine"
	"github.com/wippyai/wasm-minivm/errors"
	"github.com/wippyai/wasm-minivm/wasm"
)

// Config configures a Runtime.
type Config struct {
	Engine engine.Config
}

// DefaultConfig returns the default runtime configuration.
func DefaultConfig() Config {
	return Config{Engine: engine.DefaultConfig()}
}

// Runtime loads, instantiates and runs modules. It holds no per-module
// state and is safe for concurrent use.
type Runtime struct {
	cfg Config
}

func New(cfg Config) *Runtime {
	return &Runtime{cfg: cfg}
}

// Config returns the runtime's configuration.
func (r *Runtime) Config() Config {
	return r.cfg
}

// Load decodes a module binary.
func (r *Runtime) Load(data []byte) (*wasm.Module, error) {
	m, err := wasm.ParseModule(data)
	if err != nil {
		Logger().Debug("decode failed", zap.Int("size", len(data)), zap.Error(err))
		return nil, err
	}

	s := Summarize(m)
	fields := []zap.Field{
		zap.Int("size", len(data)),
		zap.Int("types", s.TypeCount),
		zap.Int("funcs", s.FuncCount),
	}
	if s.Start != nil {
		fields = append(fields, zap.Uint32("start", *s.Start))
	}
	Logger().Debug("module decoded", fields...)
	return m, nil
}

// Instantiate creates a ModuleInstance with its own Store.
func (r *Runtime) Instantiate(m *wasm.Module) (*ModuleInstance, error) {
	inst, err := Instantiate(m)
	if err != nil {
		return nil, err
	}
	Logger().Debug("module instantiated", zap.Int("funcs", inst.store.Len()))
	return inst, nil
}

// RunStart executes the instance's start function. It returns a nil
// result and nil error when the module has no start function.
func (r *Runtime) RunStart(ctx context.Context, inst *ModuleInstance) (*engine.Result, error) {
	if inst == nil {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "nil module instance")
	}
	fn, ok := inst.StartFunction()
	if !ok {
		return nil, nil
	}
	return r.Invoke(ctx, fn)
}

// Invoke executes fn's body on a fresh operand stack.
func (r *Runtime) Invoke(ctx context.Context, fn *FunctionInstance) (*engine.Result, error) {
	if fn == nil || fn.Code == nil {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "nil function instance")
	}

	res, err := engine.Execute(ctx, fn.Code.Body, r.cfg.Engine)
	if err != nil {
		Logger().Debug("invoke trapped", zap.Uint32("addr", fn.Addr), zap.Error(err))
		return nil, err
	}
	Logger().Debug("invoke finished",
		zap.Uint32("addr", fn.Addr),
		zap.Int("steps", res.Steps),
		zap.Int("results", len(res.Stack)))
	return res, nil
}

// Run decodes, instantiates and runs the start function of data.
func (r *Runtime) Run(ctx context.Context, data []byte) (*engine.Result, error) {
	m, err := r.Load(data)
	if err != nil {
		return nil, err
	}
	inst, err := r.Instantiate(m)
	if err != nil {
		return nil, err
	}
	return r.RunStart(ctx, inst)
}
