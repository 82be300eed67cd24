package wasm

import (
	stderrors "errors"

	"github.com/wippyai/wasm-minivm/errors"
	"github.com/wippyai/wasm-minivm/internal/binary"
)

// Decode errors returned by ParseModule. Returned errors carry location
// details and match these with errors.Is.
var (
	ErrInvalidMagic              = errors.Sentinel(errors.PhaseDecode, errors.KindInvalidMagic)
	ErrInvalidVersion            = errors.Sentinel(errors.PhaseDecode, errors.KindInvalidVersion)
	ErrUnsupportedSection        = errors.Sentinel(errors.PhaseDecode, errors.KindUnsupportedSection)
	ErrSectionSizeMismatch       = errors.Sentinel(errors.PhaseDecode, errors.KindSectionSizeMismatch)
	ErrSectionOutOfOrder         = errors.Sentinel(errors.PhaseDecode, errors.KindSectionOutOfOrder)
	ErrUnsupportedTypeForm       = errors.Sentinel(errors.PhaseDecode, errors.KindUnsupportedTypeForm)
	ErrUnknownValueType          = errors.Sentinel(errors.PhaseDecode, errors.KindUnknownValueType)
	ErrFunctionCodeCountMismatch = errors.Sentinel(errors.PhaseDecode, errors.KindFunctionCodeCountMismatch)
	ErrMalformedVarint           = errors.Sentinel(errors.PhaseDecode, errors.KindMalformedVarint)
	ErrTruncatedInput            = errors.Sentinel(errors.PhaseDecode, errors.KindTruncatedInput)
	ErrInvalidBlock              = errors.Sentinel(errors.PhaseDecode, errors.KindInvalidBlock)
	ErrBufferOverrun             = errors.Sentinel(errors.PhaseDecode, errors.KindBufferOverrun)
	ErrTypeIndexOutOfRange       = errors.Sentinel(errors.PhaseDecode, errors.KindTypeIndexOutOfRange)
	ErrStartIndexOutOfRange      = errors.Sentinel(errors.PhaseDecode, errors.KindStartIndexOutOfRange)
)

func decodeErr(kind errors.Kind, offset int) *errors.Builder {
	return errors.New(errors.PhaseDecode, kind).Offset(offset)
}

// readErr converts a reader failure at offset into a decode error.
func readErr(err error, offset int, path ...string) error {
	var kind errors.Kind
	switch {
	case stderrors.Is(err, binary.ErrMalformed):
		kind = errors.KindMalformedVarint
	case stderrors.Is(err, binary.ErrWindowOverrun):
		kind = errors.KindSectionSizeMismatch
	case stderrors.Is(err, binary.ErrTruncated):
		kind = errors.KindTruncatedInput
	default:
		if e, ok := errors.As(err); ok {
			return e
		}
		kind = errors.KindTruncatedInput
	}
	return decodeErr(kind, offset).Path(path...).Cause(err).Build()
}
