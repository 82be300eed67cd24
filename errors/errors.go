package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad        Phase = "load"        // reading the module bytes
	PhaseDecode      Phase = "decode"      // binary to Module
	PhaseInstantiate Phase = "instantiate" // Module to ModuleInstance
	PhaseRuntime     Phase = "runtime"     // execution traps
	PhaseVerify      Phase = "verify"      // reference cross-checking
)

// Kind categorizes the error
type Kind string

// Decode kinds.
const (
	KindInvalidMagic              Kind = "invalid_magic"
	KindInvalidVersion            Kind = "invalid_version"
	KindUnsupportedSection        Kind = "unsupported_section"
	KindSectionSizeMismatch       Kind = "section_size_mismatch"
	KindSectionOutOfOrder         Kind = "section_out_of_order"
	KindUnsupportedTypeForm       Kind = "unsupported_type_form"
	KindUnknownValueType          Kind = "unknown_value_type"
	KindFunctionCodeCountMismatch Kind = "function_code_count_mismatch"
	KindMalformedVarint           Kind = "malformed_varint"
	KindTruncatedInput            Kind = "truncated_input"
	KindInvalidBlock              Kind = "invalid_block"
	KindSyntax                    Kind = "syntax"
)

// Index kinds, raised at decode time and again when instantiating.
const (
	KindTypeIndexOutOfRange  Kind = "type_index_out_of_range"
	KindStartIndexOutOfRange Kind = "start_index_out_of_range"
)

// Trap kinds.
const (
	KindDivideByZero    Kind = "divide_by_zero"
	KindIntegerOverflow Kind = "integer_overflow"
	KindStackOverflow   Kind = "stack_overflow"
	KindStackUnderflow  Kind = "stack_underflow"
	KindUnknownOpcode   Kind = "unknown_opcode"
	KindTypeMismatch    Kind = "type_mismatch"
	KindBufferOverrun   Kind = "buffer_overrun"
)

// General kinds.
const (
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindMismatch     Kind = "mismatch"
)

// Error is the structured error type shared by decoder, instantiator and interpreter.
//
// Offset is a byte offset into the module binary and Index an instruction
// index into a function body. Either is negative when it does not apply.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Offset int
	Index  int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	var loc []string
	if len(e.Path) > 0 {
		loc = append(loc, strings.Join(e.Path, "."))
	}
	if e.Offset >= 0 {
		loc = append(loc, "offset "+strconv.Itoa(e.Offset))
	}
	if e.Index >= 0 {
		loc = append(loc, "instruction "+strconv.Itoa(e.Index))
	}
	if len(loc) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(loc, ", "))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Sentinel returns a location-free error usable as an errors.Is target.
func Sentinel(phase Phase, kind Kind) *Error {
	return &Error{Phase: phase, Kind: kind, Offset: -1, Index: -1}
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
			Index:  -1,
		},
	}
}

// Path sets the location path, e.g. "code", "func[2]"
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Offset sets the byte offset into the module binary
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Index sets the instruction index
func (b *Builder) Index(i int) *Builder {
	b.err.Index = i
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// PhaseOf reports the phase of the first *Error in err's chain.
func PhaseOf(err error) (Phase, bool) {
	if e, ok := As(err); ok {
		return e.Phase, true
	}
	return "", false
}

// Convenience constructors for common error patterns

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return New(PhaseLoad, KindInvalidInput).Detail("%s", detail).Cause(cause).Build()
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return New(phase, KindInvalidInput).Detail("%s", detail).Build()
}

// NotFound creates a not-found error
func NotFound(phase Phase, what string, index uint32) *Error {
	return New(phase, KindNotFound).Detail("%s %d not found", what, index).Value(index).Build()
}

// IndexOutOfRange creates a type or start index error for the given phase.
func IndexOutOfRange(phase Phase, kind Kind, index uint32, length int) *Error {
	return New(phase, kind).
		Detail("index %d out of range (length %d)", index, length).
		Value(index).
		Build()
}

// Trap creates a runtime trap at instruction index.
func Trap(kind Kind, index int, opcode string) *Error {
	return New(PhaseRuntime, kind).Index(index).Detail("%s", opcode).Build()
}
