// Package errors provides structured error types for the cwasm decoder and
// interpreter.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the section it belongs to, an optional byte offset,
// the offending value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRuntime, errors.KindUnhandledInstruction).
//		At(12).
//		Value(byte(0xFF)).
//		Detail("opcode 0x%02x", 0xFF).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Truncated(pos, 4, 1)
//	err := errors.OutOfBounds(errors.PhaseRuntime, "local", 3, 3)
//
// All errors implement the standard error interface and support errors.Is/As.
// Two errors match under errors.Is when Phase and Kind agree, so a bare
// Sentinel(phase, kind) works as a comparison target.
package errors
