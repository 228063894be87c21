// Package interp executes function bodies on an operand stack.
//
// A body is a locals prefix followed by instructions. The interpreter
// understands local and global variable access, constants, nop, drop and
// end; any other opcode stops execution with ErrUnhandledInstruction.
//
//	in := interp.NewWithDefaults()
//	frame, err := in.Run([]byte{0x01, 0x20, 0x00, 0x21, 0x00})
//
// Run reads the locals prefix as a single count (LocalsFlat) unless
// Options.Locals selects LocalsTyped. Invoke always uses the typed encoding
// and places the arguments first in the locals frame.
package interp
