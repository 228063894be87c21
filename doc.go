// Package cwasm decodes binary WebAssembly modules and executes function
// bodies on a small stack machine.
//
// # Architecture Overview
//
//	cwasm/               Root package with one-call helpers
//	├── wasm/            Module decoding, validation and encoding
//	├── interp/          Operand stack interpreter for function bodies
//	├── errors/          Structured error types for debugging
//	├── internal/config  cwasm.toml loading
//	├── internal/oracle  Cross-checks against wazero
//	└── cmd/cwasm        Command line tool
//
// # Quick Start
//
// Decode a module and call one of its exports:
//
//	results, err := cwasm.Call(data, "second", interp.I32(1), interp.I32(2))
//
// Or drive the pieces directly:
//
//	m, err := wasm.DecodeModule(data)
//	if err != nil {
//		return err
//	}
//	in := interp.NewWithDefaults()
//	frame, err := in.Run(m.Code[0])
//
// # Decoding
//
// The decoder reads the magic and version header and then walks the sections.
// Type, function, export, code and custom sections are decoded; any other
// section is skipped by its declared length, or ends decoding when
// wasm.DecodeOptions.HaltOnUnknownSection is set. Unknown value types and
// export kinds keep their raw byte.
//
// # Errors
//
// Every failure is an *errors.Error carrying a phase, a kind and, where it
// applies, the byte offset. Match them with errors.Is against the sentinels
// in the wasm and interp packages.
//
// # Logging
//
// The wasm and interp packages log through zap and are silent by default.
// Install a logger with wasm.SetLogger and interp.SetLogger.
package cwasm
