package wasm

import "strings"

// Module represents a decoded binary module.
// It is built once by DecodeModule and not modified afterwards.
type Module struct {
	Types   []FuncType // Function signatures, indexed by type index
	Funcs   []uint32   // Type index of each defined function
	Exports []Export
	Code    [][]byte // Raw function bodies, aligned with Funcs

	// Sections lists every section id in input order, including the ones
	// that were skipped.
	Sections []SectionID

	CustomSections []CustomSection

	// Trailing holds bytes left unconsumed when decoding stopped early.
	// Diagnostic only.
	Trailing []byte

	// HaltCause describes the section that stopped decoding when Halted is
	// set. It matches ErrUnrecognizedSection.
	HaltCause error

	// Version is the header version word as read. Encode writes it back
	// unchanged, including 0.
	Version uint32

	// Halted is set when decoding stopped at an unhandled section.
	Halted bool
}

// NewModule returns an empty module carrying the current format Version.
func NewModule() *Module {
	return &Module{Version: Version}
}

// FuncType represents a function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

func (ft FuncType) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, p := range ft.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") -> (")
	for i, r := range ft.Results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.String())
	}
	b.WriteString(")")
	return b.String()
}

// Export describes an exported item.
type Export struct {
	Name  string
	Kind  ExportKind
	Index uint32
}

// CustomSection holds a named custom section's data.
type CustomSection struct {
	Name string
	Data []byte
}

// Signature returns the signature of the function at funcIdx.
func (m *Module) Signature(funcIdx uint32) (*FuncType, bool) {
	if int(funcIdx) >= len(m.Funcs) {
		return nil, false
	}
	typeIdx := m.Funcs[funcIdx]
	if int(typeIdx) >= len(m.Types) {
		return nil, false
	}
	return &m.Types[typeIdx], true
}

// Body returns the raw body of the function at funcIdx.
func (m *Module) Body(funcIdx uint32) ([]byte, bool) {
	if int(funcIdx) >= len(m.Code) {
		return nil, false
	}
	return m.Code[funcIdx], true
}

// ExportNamed returns the first export with the given name.
func (m *Module) ExportNamed(name string) (Export, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return Export{}, false
}

// FuncExports returns the exports of kind function, in declaration order.
func (m *Module) FuncExports() []Export {
	var out []Export
	for _, e := range m.Exports {
		if e.Kind == ExportFunc {
			out = append(out, e)
		}
	}
	return out
}

// SawSection reports whether a section with the given id was encountered.
func (m *Module) SawSection(id SectionID) bool {
	for _, s := range m.Sections {
		if s == id {
			return true
		}
	}
	return false
}
