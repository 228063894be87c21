package interp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"

	werrors "github.com/wippyai/cwasm/errors"
	"github.com/wippyai/cwasm/wasm"
)

// Step describes one executed instruction.
type Step struct {
	Opcode byte
	Offset int // byte offset of the opcode within the body
	Depth  int // operand stack depth after execution
}

// Options configures an Interpreter.
type Options struct {
	// Globals backs global.get and global.set. Without a store both
	// instructions fail with ErrUnsupported.
	Globals *Globals

	// Trace, if set, is called after every executed instruction.
	Trace func(Step)

	// Locals selects the locals prefix encoding used by Run.
	Locals LocalsEncoding
}

// DefaultOptions returns the default interpreter configuration.
func DefaultOptions() Options {
	return Options{Locals: LocalsFlat}
}

// Interpreter executes function bodies one instruction at a time.
// Configuration is immutable; each run gets its own Frame.
type Interpreter struct {
	log  *zap.Logger
	opts Options
}

// New creates an interpreter with the given options.
func New(opts Options) *Interpreter {
	return &Interpreter{
		log:  Logger(),
		opts: opts,
	}
}

// NewWithDefaults creates an interpreter with default options.
func NewWithDefaults() *Interpreter {
	return New(DefaultOptions())
}

// Options returns the configuration.
func (in *Interpreter) Options() Options {
	return in.opts
}

// Frame is the state of a single body execution.
type Frame struct {
	Locals []Value
	Stack  []Value
	PC     int  // offset of the next instruction, or of the failing one
	Steps  int  // instructions executed
	Ended  bool // execution stopped at an end opcode
}

// Top returns the top of the operand stack.
func (f *Frame) Top() (Value, bool) {
	if len(f.Stack) == 0 {
		return Value{}, false
	}
	return f.Stack[len(f.Stack)-1], true
}

func (f *Frame) push(v Value) {
	f.Stack = append(f.Stack, v)
}

func (f *Frame) pop(op byte, offset int) (Value, error) {
	if len(f.Stack) == 0 {
		return Value{}, underflow(op, offset)
	}
	v := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return v, nil
}

// Run executes body: a locals prefix followed by instructions. Execution
// ends at an end opcode, at the end of the body or at the first error. The
// frame is returned in every case so partial state can be inspected.
//
// The locals prefix may declare at most MaxLocals locals in either encoding;
// a larger count fails with ErrMalformedModule before any instruction runs.
func (in *Interpreter) Run(body []byte) (*Frame, error) {
	r := bytes.NewReader(body)
	locals, err := decodeLocals(r, len(body), in.opts.Locals)
	frame := &Frame{Locals: locals}
	if err != nil {
		return frame, err
	}
	frame.PC = len(body) - r.Len()
	in.log.Debug("run",
		zap.Int("body_bytes", len(body)),
		zap.Int("locals", len(locals)),
		zap.Stringer("encoding", in.opts.Locals))
	return frame, in.exec(frame, body, r)
}

func (in *Interpreter) exec(f *Frame, body []byte, r *bytes.Reader) error {
	for r.Len() > 0 {
		offset := len(body) - r.Len()
		f.PC = offset
		op, _ := r.ReadByte()

		if err := in.step(f, op, offset, r, len(body)); err != nil {
			in.log.Debug("execution stopped",
				zap.String("op", OpName(op)),
				zap.Int("offset", offset),
				zap.Error(err))
			return err
		}

		f.Steps++
		f.PC = len(body) - r.Len()
		if in.opts.Trace != nil {
			in.opts.Trace(Step{Opcode: op, Offset: offset, Depth: len(f.Stack)})
		}
		if op == wasm.OpEnd {
			f.Ended = true
			return nil
		}
	}
	return nil
}

func (in *Interpreter) step(f *Frame, op byte, offset int, r *bytes.Reader, size int) error {
	switch op {
	case wasm.OpNop, wasm.OpEnd:
		return nil

	case wasm.OpDrop:
		_, err := f.pop(op, offset)
		return err

	case wasm.OpLocalGet:
		idx, err := readIndex(op, offset, r)
		if err != nil {
			return err
		}
		if int(idx) >= len(f.Locals) {
			return outOfRange(op, offset, "local", idx, len(f.Locals))
		}
		f.push(f.Locals[idx])
		return nil

	case wasm.OpLocalSet:
		idx, err := readIndex(op, offset, r)
		if err != nil {
			return err
		}
		if int(idx) >= len(f.Locals) {
			return outOfRange(op, offset, "local", idx, len(f.Locals))
		}
		v, err := f.pop(op, offset)
		if err != nil {
			return err
		}
		f.Locals[idx] = v
		return nil

	case wasm.OpLocalTee:
		idx, err := readIndex(op, offset, r)
		if err != nil {
			return err
		}
		if int(idx) >= len(f.Locals) {
			return outOfRange(op, offset, "local", idx, len(f.Locals))
		}
		v, ok := f.Top()
		if !ok {
			return underflow(op, offset)
		}
		f.Locals[idx] = v
		return nil

	case wasm.OpGlobalGet:
		idx, err := readIndex(op, offset, r)
		if err != nil {
			return err
		}
		if in.opts.Globals == nil {
			return noGlobals(op, offset)
		}
		v, err := in.opts.Globals.Get(idx)
		if err != nil {
			return atInstruction(OpName(op), offset, err)
		}
		f.push(v)
		return nil

	case wasm.OpGlobalSet:
		idx, err := readIndex(op, offset, r)
		if err != nil {
			return err
		}
		if in.opts.Globals == nil {
			return noGlobals(op, offset)
		}
		v, ok := f.Top()
		if !ok {
			return underflow(op, offset)
		}
		if err := in.opts.Globals.Set(idx, v); err != nil {
			return atInstruction(OpName(op), offset, err)
		}
		f.Stack = f.Stack[:len(f.Stack)-1]
		return nil

	case wasm.OpI32Const:
		v, _, err := wasm.ReadSigned(r, 32)
		if err != nil {
			return atInstruction(OpName(op), offset, err)
		}
		f.push(I32(int32(v)))
		return nil

	case wasm.OpI64Const:
		v, _, err := wasm.ReadSigned(r, 64)
		if err != nil {
			return atInstruction(OpName(op), offset, err)
		}
		f.push(I64(v))
		return nil

	case wasm.OpF32Const:
		buf, err := readFixed(op, offset, r, 4, size)
		if err != nil {
			return err
		}
		f.push(F32(math.Float32frombits(binary.LittleEndian.Uint32(buf))))
		return nil

	case wasm.OpF64Const:
		buf, err := readFixed(op, offset, r, 8, size)
		if err != nil {
			return err
		}
		f.push(F64(math.Float64frombits(binary.LittleEndian.Uint64(buf))))
		return nil

	default:
		return werrors.New(werrors.PhaseRuntime, werrors.KindUnhandledInstruction).
			Section(OpName(op)).
			At(offset).
			Value(op).
			Detail("opcode 0x%02x is not implemented", op).
			Build()
	}
}

func readIndex(op byte, offset int, r *bytes.Reader) (uint32, error) {
	v, _, err := wasm.ReadUnsigned(r)
	if err != nil {
		return 0, atInstruction(OpName(op), offset, err)
	}
	if v > math.MaxUint32 {
		return 0, werrors.New(werrors.PhaseDecode, werrors.KindMalformedVarint).
			Section(OpName(op)).
			At(offset).
			Value(v).
			Detail("index %d does not fit in 32 bits", v).
			Build()
	}
	return uint32(v), nil
}

func readFixed(op byte, offset int, r *bytes.Reader, n, size int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, atInstruction(OpName(op), offset, truncated(size-r.Len(), n, 0))
	}
	return buf, nil
}

func noGlobals(op byte, offset int) error {
	return werrors.New(werrors.PhaseRuntime, werrors.KindUnsupported).
		Section(OpName(op)).
		At(offset).
		Value(op).
		Detail("no global store configured").
		Build()
}

// OpName returns the mnemonic of an opcode the interpreter understands,
// or its hex form otherwise.
func OpName(op byte) string {
	switch op {
	case wasm.OpNop:
		return "nop"
	case wasm.OpEnd:
		return "end"
	case wasm.OpDrop:
		return "drop"
	case wasm.OpLocalGet:
		return "local.get"
	case wasm.OpLocalSet:
		return "local.set"
	case wasm.OpLocalTee:
		return "local.tee"
	case wasm.OpGlobalGet:
		return "global.get"
	case wasm.OpGlobalSet:
		return "global.set"
	case wasm.OpI32Const:
		return "i32.const"
	case wasm.OpI64Const:
		return "i64.const"
	case wasm.OpF32Const:
		return "f32.const"
	case wasm.OpF64Const:
		return "f64.const"
	default:
		return fmt.Sprintf("opcode 0x%02x", op)
	}
}
