package wasm

import (
	"github.com/wippyai/cwasm/wasm/internal/binary"
)

// Encode encodes the module to the binary format. Sections are written in
// canonical order; custom sections go last. The header carries m.Version
// verbatim. Skipped or trailing data from decoding is not reproduced.
func (m *Module) Encode() []byte {
	w := binary.NewWriter()

	w.WriteBytes(MagicBytes[:])
	w.WriteU32LE(m.Version)

	// Type section
	if len(m.Types) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Types)))
		for _, ft := range m.Types {
			sec.Byte(FuncTypeByte)
			writeValTypes(sec, ft.Params)
			writeValTypes(sec, ft.Results)
		}
		w.WriteSection(byte(SectionType), sec.Bytes())
	}

	// Function section
	if len(m.Funcs) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Funcs)))
		for _, typeIdx := range m.Funcs {
			sec.WriteU32(typeIdx)
		}
		w.WriteSection(byte(SectionFunction), sec.Bytes())
	}

	// Export section
	if len(m.Exports) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Exports)))
		for _, exp := range m.Exports {
			sec.WriteName(exp.Name)
			sec.Byte(byte(exp.Kind))
			sec.WriteU32(exp.Index)
		}
		w.WriteSection(byte(SectionExport), sec.Bytes())
	}

	// Code section
	if len(m.Code) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Code)))
		for _, body := range m.Code {
			sec.WriteU32(uint32(len(body)))
			sec.WriteBytes(body)
		}
		w.WriteSection(byte(SectionCode), sec.Bytes())
	}

	for _, cs := range m.CustomSections {
		sec := binary.NewWriter()
		sec.WriteName(cs.Name)
		sec.WriteBytes(cs.Data)
		w.WriteSection(byte(SectionCustom), sec.Bytes())
	}

	return w.Bytes()
}

func writeValTypes(w *binary.Writer, types []ValType) {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}
