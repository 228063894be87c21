package interp

import (
	"bytes"

	"github.com/wippyai/cwasm/wasm"
)

// LocalsEncoding selects how the locals prefix of a body is read.
type LocalsEncoding uint8

const (
	// LocalsFlat is a single count; every local starts untyped and zero.
	LocalsFlat LocalsEncoding = iota
	// LocalsTyped is a vector of (count, value type) runs.
	LocalsTyped
)

func (e LocalsEncoding) String() string {
	switch e {
	case LocalsFlat:
		return "flat"
	case LocalsTyped:
		return "typed"
	default:
		return "unknown"
	}
}

// MaxLocals bounds the number of locals a single body may declare.
const MaxLocals = 50000

func decodeLocals(r *bytes.Reader, size int, enc LocalsEncoding) ([]Value, error) {
	offset := func() int { return size - r.Len() }

	if enc == LocalsFlat {
		count, _, err := wasm.ReadUnsigned(r)
		if err != nil {
			return nil, atInstruction("locals", 0, err)
		}
		if count > MaxLocals {
			return nil, malformedLocals(0, "%d locals declared, limit is %d", count, MaxLocals)
		}
		return make([]Value, count), nil
	}

	runs, _, err := wasm.ReadUnsigned(r)
	if err != nil {
		return nil, atInstruction("locals", 0, err)
	}
	var locals []Value
	var total uint64
	for i := uint64(0); i < runs; i++ {
		pos := offset()
		n, _, err := wasm.ReadUnsigned(r)
		if err != nil {
			return nil, atInstruction("locals", pos, err)
		}
		total += n
		if n > MaxLocals || total > MaxLocals {
			return nil, malformedLocals(pos, "%d locals declared, limit is %d", total, MaxLocals)
		}
		pos = offset()
		b, err := r.ReadByte()
		if err != nil {
			return nil, atInstruction("locals", pos, truncated(pos, 1, 0))
		}
		t := wasm.ValType(b)
		if !t.Known() {
			return nil, malformedLocals(pos, "local run %d has unknown type %s", i, t)
		}
		for j := uint64(0); j < n; j++ {
			locals = append(locals, Zero(t))
		}
	}
	return locals, nil
}
