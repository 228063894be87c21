// Package wasm decodes binary modules into typed signatures, exports and
// raw function bodies.
//
// The decoder understands the type, function, export and code sections and
// records custom sections by name. Every other section is skipped using its
// declared length, or, with DecodeOptions.HaltOnUnknownSection, ends decoding
// with the remaining bytes kept in Module.Trailing.
//
// # Decoding
//
//	data, _ := os.ReadFile("module.wasm")
//	m, err := wasm.DecodeModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Decode with cross-section validation enabled:
//
//	m, err := wasm.DecodeModuleValidate(data)
//
// # Module Structure
//
//	m.Types    []FuncType  // Function signatures, by type index
//	m.Funcs    []uint32    // Type index per defined function
//	m.Exports  []Export    // Exports, in declaration order
//	m.Code     [][]byte    // Raw bodies (locals prefix + instructions)
//	m.Sections []SectionID // Every section id seen, in order
//
// Value types, export kinds and section ids are byte-backed: unknown bytes
// are preserved and reported by their Known method instead of failing the
// decode.
//
// # Errors
//
// All failures are *errors.Error values. Compare with errors.Is against
// ErrBadMagic, ErrTruncated, ErrMalformedVarint, ErrSectionSize,
// ErrInvalidTypeIndex and ErrMalformedModule.
//
// # LEB128 Encoding
//
//	v, n, err := wasm.ReadUnsigned(r)   // value, bytes consumed
//	buf := wasm.EncodeUnsigned(v)
package wasm
