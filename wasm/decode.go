package wasm

import (
	"strconv"

	"github.com/wippyai/wasm-minivm/errors"
	"github.com/wippyai/wasm-minivm/internal/binary"
)

// ParseModule decodes a WebAssembly binary module.
//
// Only the Type, Function, Start and Code sections are understood; custom
// sections are skipped and any other section is rejected. Errors are
// *errors.Error values in the decode phase carrying the byte offset of the
// failure. No partial module is returned.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, readErr(err, r.Position(), "header")
	}
	if magic != Magic {
		return nil, decodeErr(errors.KindInvalidMagic, 0).
			Detail("got %#08x, want %#08x", magic, Magic).
			Value(magic).
			Build()
	}

	version, err := r.ReadU32LE()
	if err != nil {
		return nil, readErr(err, r.Position(), "header")
	}
	if version != Version {
		return nil, decodeErr(errors.KindInvalidVersion, 4).
			Detail("got %d, want %d", version, Version).
			Value(version).
			Build()
	}

	m := &Module{}
	var lastSectionOrder int
	var sawCode bool

	for r.Len() > 0 {
		idAt := r.Position()
		sectionID, _ := r.ReadByte()
		name := SectionName(sectionID)

		order := sectionOrder(sectionID)
		if order == 0 {
			return nil, decodeErr(errors.KindUnsupportedSection, idAt).
				Detail("%s section (id %d) is not supported", name, sectionID).
				Value(sectionID).
				Build()
		}
		// Custom sections can appear anywhere.
		if sectionID != SectionCustom {
			if order <= lastSectionOrder {
				return nil, decodeErr(errors.KindSectionOutOfOrder, idAt).
					Path(name).
					Detail("%s section appears out of order", name).
					Build()
			}
			lastSectionOrder = order
		}

		sizeAt := r.Position()
		size, err := r.ReadU32()
		if err != nil {
			return nil, readErr(err, sizeAt, name, "size")
		}
		sr, err := r.Window(int(size))
		if err != nil {
			return nil, decodeErr(errors.KindTruncatedInput, r.Position()).
				Path(name).
				Detail("section size %d exceeds remaining %d bytes", size, r.Len()).
				Cause(err).
				Build()
		}

		switch sectionID {
		case SectionCustom:
			sr.ReadRemaining()
		case SectionType:
			err = parseTypeSection(sr, m)
		case SectionFunction:
			err = parseFunctionSection(sr, m)
		case SectionStart:
			err = parseStartSection(sr, m)
		case SectionCode:
			sawCode = true
			err = parseCodeSection(sr, m)
		}
		if err != nil {
			return nil, err
		}

		if sr.Len() != 0 {
			return nil, decodeErr(errors.KindSectionSizeMismatch, sr.Position()).
				Path(name).
				Detail("%d unread bytes in %d byte section", sr.Len(), size).
				Build()
		}
	}

	if len(m.Funcs) > 0 && !sawCode {
		return nil, decodeErr(errors.KindFunctionCodeCountMismatch, len(data)).
			Detail("%d functions declared, no code section", len(m.Funcs)).
			Build()
	}

	return m, nil
}

// sectionOrder returns the canonical position of a supported section, or 0
// for an unsupported id.
func sectionOrder(id byte) int {
	switch id {
	case SectionCustom:
		return 100
	case SectionType:
		return 1
	case SectionFunction:
		return 2
	case SectionStart:
		return 3
	case SectionCode:
		return 4
	default:
		return 0
	}
}

func parseTypeSection(r *binary.Reader, m *Module) error {
	at := r.Position()
	count, err := r.ReadU32()
	if err != nil {
		return readErr(err, at, "type", "count")
	}

	// Each entry takes at least three bytes; cap the preallocation by what
	// the section can actually hold.
	m.Types = make([]FuncType, 0, min(int(count), r.Len()/3))
	for i := uint32(0); i < count; i++ {
		entry := indexPath("type", i)

		at = r.Position()
		form, err := r.ReadByte()
		if err != nil {
			return readErr(err, at, entry)
		}
		if form != FuncTypeByte {
			return decodeErr(errors.KindUnsupportedTypeForm, at).
				Path(entry).
				Detail("expected functype (0x60), got 0x%02x", form).
				Value(form).
				Build()
		}

		params, err := readValTypes(r, entry, "params")
		if err != nil {
			return err
		}
		results, err := readValTypes(r, entry, "results")
		if err != nil {
			return err
		}
		m.Types = append(m.Types, FuncType{Params: params, Results: results})
	}
	return nil
}

// readValTypes reads a length-prefixed vector of value types into a newly
// allocated slice.
func readValTypes(r *binary.Reader, entry, field string) ([]ValType, error) {
	at := r.Position()
	n, err := r.ReadU32()
	if err != nil {
		return nil, readErr(err, at, entry, field)
	}
	if n == 0 {
		return nil, nil
	}
	at = r.Position()
	raw, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, readErr(err, at, entry, field)
	}
	types := make([]ValType, n)
	for j, b := range raw {
		vt := ValType(b)
		if !vt.Valid() {
			return nil, decodeErr(errors.KindUnknownValueType, at+j).
				Path(entry, field).
				Detail("unknown value type 0x%02x", b).
				Value(b).
				Build()
		}
		types[j] = vt
	}
	return types, nil
}

func parseFunctionSection(r *binary.Reader, m *Module) error {
	at := r.Position()
	count, err := r.ReadU32()
	if err != nil {
		return readErr(err, at, "function", "count")
	}

	m.Funcs = make([]Function, 0, min(int(count), r.Len()))
	for i := uint32(0); i < count; i++ {
		at = r.Position()
		ti, err := r.ReadU32()
		if err != nil {
			return readErr(err, at, indexPath("function", i))
		}
		if int(ti) >= len(m.Types) {
			return decodeErr(errors.KindTypeIndexOutOfRange, at).
				Path(indexPath("function", i)).
				Detail("type index %d out of range (%d types)", ti, len(m.Types)).
				Value(ti).
				Build()
		}
		m.Funcs = append(m.Funcs, Function{TypeIndex: ti})
	}
	return nil
}

func parseStartSection(r *binary.Reader, m *Module) error {
	at := r.Position()
	idx, err := r.ReadU32()
	if err != nil {
		return readErr(err, at, "start")
	}
	if int(idx) >= len(m.Funcs) {
		return decodeErr(errors.KindStartIndexOutOfRange, at).
			Path("start").
			Detail("function index %d out of range (%d functions)", idx, len(m.Funcs)).
			Value(idx).
			Build()
	}
	m.Start = &idx
	return nil
}

func parseCodeSection(r *binary.Reader, m *Module) error {
	at := r.Position()
	count, err := r.ReadU32()
	if err != nil {
		return readErr(err, at, "code", "count")
	}
	if int(count) != len(m.Funcs) {
		return decodeErr(errors.KindFunctionCodeCountMismatch, at).
			Path("code").
			Detail("%d bodies for %d declared functions", count, len(m.Funcs)).
			Build()
	}

	for i := range m.Funcs {
		entry := indexPath("code", uint32(i))

		at = r.Position()
		bodySize, err := r.ReadU32()
		if err != nil {
			return readErr(err, at, entry, "size")
		}
		br, err := r.Window(int(bodySize))
		if err != nil {
			return readErr(err, r.Position(), entry)
		}

		if err := skipLocals(br, entry); err != nil {
			return err
		}

		base := br.Position()
		code := br.ReadRemaining()
		body, consumed, err := decodeInstructions(code, base)
		if err != nil {
			if e, ok := errors.As(err); ok && len(e.Path) == 0 {
				e.Path = []string{entry}
			}
			return err
		}
		if consumed != len(code) {
			return decodeErr(errors.KindSectionSizeMismatch, base+consumed).
				Path(entry).
				Detail("%d bytes after function end", len(code)-consumed).
				Build()
		}
		m.Funcs[i].Body = body
	}
	return nil
}

// skipLocals reads and discards local declarations, validating their types.
func skipLocals(r *binary.Reader, entry string) error {
	at := r.Position()
	n, err := r.ReadU32()
	if err != nil {
		return readErr(err, at, entry, "locals")
	}
	for j := uint32(0); j < n; j++ {
		at = r.Position()
		if _, err := r.ReadU32(); err != nil {
			return readErr(err, at, entry, "locals")
		}
		at = r.Position()
		b, err := r.ReadByte()
		if err != nil {
			return readErr(err, at, entry, "locals")
		}
		if !ValType(b).Valid() {
			return decodeErr(errors.KindUnknownValueType, at).
				Path(entry, "locals").
				Detail("unknown value type 0x%02x", b).
				Value(b).
				Build()
		}
	}
	return nil
}

func indexPath(section string, i uint32) string {
	return section + "[" + strconv.FormatUint(uint64(i), 10) + "]"
}
