package runtime

import (
	"strconv"
	"weak"

	"github.com/wippyai/wasm-minivm/errors"
	"github.com/wippyai/wasm-minivm/wasm"
)

// Store owns the function instances of one instantiation.
type Store struct {
	funcs []*FunctionInstance
}

// Len returns the number of function instances.
func (s *Store) Len() int {
	return len(s.funcs)
}

// Function returns the instance at addr.
func (s *Store) Function(addr uint32) (*FunctionInstance, bool) {
	if int(addr) >= len(s.funcs) {
		return nil, false
	}
	return s.funcs[addr], true
}

// FunctionInstance is a function bound to a ModuleInstance.
type FunctionInstance struct {
	// module does not keep the instance alive.
	module weak.Pointer[ModuleInstance]
	Code   *wasm.Function
	Type   wasm.FuncType
	Addr   uint32
}

// Module returns the owning instance, or nil once it has been collected.
func (f *FunctionInstance) Module() *ModuleInstance {
	return f.module.Value()
}

// Body returns the decoded instructions.
func (f *FunctionInstance) Body() []wasm.Instruction {
	return f.Code.Body
}

// ModuleInstance is the runtime view of a decoded Module. The Module is
// shared read-only; the Store belongs to this instance alone.
type ModuleInstance struct {
	module *wasm.Module
	store  *Store
}

// Module returns the decoded module.
func (m *ModuleInstance) Module() *wasm.Module {
	return m.module
}

// Store returns the instance's store.
func (m *ModuleInstance) Store() *Store {
	return m.store
}

// Function returns the function instance at addr.
func (m *ModuleInstance) Function(addr uint32) (*FunctionInstance, error) {
	fn, ok := m.store.Function(addr)
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "function", addr)
	}
	return fn, nil
}

// StartFunction returns the start function instance, if any.
func (m *ModuleInstance) StartFunction() (*FunctionInstance, bool) {
	if m.module.Start == nil {
		return nil, false
	}
	return m.store.Function(*m.module.Start)
}

// Instantiate builds a ModuleInstance with a fresh Store. The decoder
// already rejects bad indices; they are checked again here for modules
// built by hand.
func Instantiate(m *wasm.Module) (*ModuleInstance, error) {
	if m == nil {
		return nil, errors.InvalidInput(errors.PhaseInstantiate, "nil module")
	}
	if m.Start != nil && int(*m.Start) >= len(m.Funcs) {
		return nil, errors.IndexOutOfRange(errors.PhaseInstantiate, errors.KindStartIndexOutOfRange, *m.Start, len(m.Funcs))
	}

	inst := &ModuleInstance{module: m, store: &Store{}}
	back := weak.Make(inst)

	inst.store.funcs = make([]*FunctionInstance, len(m.Funcs))
	for i := range m.Funcs {
		fn := &m.Funcs[i]
		if int(fn.TypeIndex) >= len(m.Types) {
			e := errors.IndexOutOfRange(errors.PhaseInstantiate, errors.KindTypeIndexOutOfRange, fn.TypeIndex, len(m.Types))
			e.Path = []string{"func[" + strconv.Itoa(i) + "]"}
			return nil, e
		}
		inst.store.funcs[i] = &FunctionInstance{
			module: back,
			Code:   fn,
			Type:   m.Types[fn.TypeIndex].Clone(),
			Addr:   uint32(i),
		}
	}
	return inst, nil
}
