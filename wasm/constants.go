package wasm

import "fmt"

// Binary module header.
const (
	// Magic is the module magic number ("\0asm" read as little-endian).
	Magic uint32 = 0x6D736100

	// Version is the only version accepted under strict version checking.
	Version uint32 = 0x01
)

// MagicBytes is the on-disk form of Magic.
var MagicBytes = [4]byte{0x00, 0x61, 0x73, 0x6D}

// FuncTypeByte prefixes every function type entry in the type section.
const FuncTypeByte byte = 0x60

// SectionID identifies a top-level section. Unrecognized ids keep their
// raw byte value.
type SectionID byte

// Section IDs define the binary identifiers for each module section.
const (
	SectionCustom   SectionID = 0  // Custom section (can appear anywhere)
	SectionType     SectionID = 1  // Type section (function signatures)
	SectionImport   SectionID = 2  // Import section
	SectionFunction SectionID = 3  // Function section (type indices)
	SectionTable    SectionID = 4  // Table section
	SectionMemory   SectionID = 5  // Memory section
	SectionGlobal   SectionID = 6  // Global section
	SectionExport   SectionID = 7  // Export section
	SectionStart    SectionID = 8  // Start section
	SectionElement  SectionID = 9  // Element section
	SectionCode     SectionID = 10 // Code section (function bodies)
	SectionData     SectionID = 11 // Data section
)

// Known reports whether id is one of the defined section kinds.
func (id SectionID) Known() bool {
	return id <= SectionData
}

// Handled reports whether the decoder parses the contents of this section.
func (id SectionID) Handled() bool {
	switch id {
	case SectionCustom, SectionType, SectionFunction, SectionExport, SectionCode:
		return true
	}
	return false
}

func (id SectionID) String() string {
	switch id {
	case SectionCustom:
		return "custom"
	case SectionType:
		return "type"
	case SectionImport:
		return "import"
	case SectionFunction:
		return "function"
	case SectionTable:
		return "table"
	case SectionMemory:
		return "memory"
	case SectionGlobal:
		return "global"
	case SectionExport:
		return "export"
	case SectionStart:
		return "start"
	case SectionElement:
		return "element"
	case SectionCode:
		return "code"
	case SectionData:
		return "data"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(id))
	}
}

// sectionOrder returns the canonical position of a non-custom section, or 0
// for custom and unknown ids, which are exempt from ordering.
func sectionOrder(id SectionID) int {
	if id == SectionCustom || !id.Known() {
		return 0
	}
	return int(id)
}

// ValType is a value type. Bytes outside the four numeric types are kept
// verbatim so diagnostics can still show them.
type ValType byte

// Value type encodings.
const (
	ValI32 ValType = 0x7F // 32-bit integer
	ValI64 ValType = 0x7E // 64-bit integer
	ValF32 ValType = 0x7D // 32-bit float
	ValF64 ValType = 0x7C // 64-bit float
)

// Known reports whether v is one of the four numeric value types.
func (v ValType) Known() bool {
	switch v {
	case ValI32, ValI64, ValF32, ValF64:
		return true
	}
	return false
}

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(v))
	}
}

// ExportKind says which index space an export's index refers to.
type ExportKind byte

// Export descriptor kinds.
const (
	ExportFunc   ExportKind = 0
	ExportTable  ExportKind = 1
	ExportMemory ExportKind = 2
	ExportGlobal ExportKind = 3
)

// Known reports whether k is a defined export kind.
func (k ExportKind) Known() bool {
	return k <= ExportGlobal
}

func (k ExportKind) String() string {
	switch k {
	case ExportFunc:
		return "func"
	case ExportTable:
		return "table"
	case ExportMemory:
		return "memory"
	case ExportGlobal:
		return "global"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(k))
	}
}

// Control opcodes
const (
	OpNop byte = 0x01
	OpEnd byte = 0x0B
)

// Parametric opcodes
const (
	OpDrop byte = 0x1A
)

// Variable access opcodes
const (
	OpLocalGet  byte = 0x20
	OpLocalSet  byte = 0x21
	OpLocalTee  byte = 0x22
	OpGlobalGet byte = 0x23
	OpGlobalSet byte = 0x24
)

// Constant opcodes
const (
	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
	OpF32Const byte = 0x43
	OpF64Const byte = 0x44
)
