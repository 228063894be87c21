package interp

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wippyai/cwasm/wasm"
)

// Value is a single operand stack or locals slot. Type is zero for untyped
// slots produced by the flat locals encoding.
type Value struct {
	Bits uint64
	Type wasm.ValType
}

func I32(v int32) Value   { return Value{Type: wasm.ValI32, Bits: uint64(uint32(v))} }
func I64(v int64) Value   { return Value{Type: wasm.ValI64, Bits: uint64(v)} }
func F32(v float32) Value { return Value{Type: wasm.ValF32, Bits: uint64(math.Float32bits(v))} }
func F64(v float64) Value { return Value{Type: wasm.ValF64, Bits: math.Float64bits(v)} }

// Zero returns the zero value of t.
func Zero(t wasm.ValType) Value {
	return Value{Type: t}
}

func (v Value) I32() int32   { return int32(uint32(v.Bits)) }
func (v Value) I64() int64   { return int64(v.Bits) }
func (v Value) F32() float32 { return math.Float32frombits(uint32(v.Bits)) }
func (v Value) F64() float64 { return math.Float64frombits(v.Bits) }

// Typed reports whether the value carries a value type.
func (v Value) Typed() bool {
	return v.Type != 0
}

func (v Value) String() string {
	switch v.Type {
	case 0:
		return fmt.Sprintf("%d", v.Bits)
	case wasm.ValI32:
		return fmt.Sprintf("i32:%d", v.I32())
	case wasm.ValI64:
		return fmt.Sprintf("i64:%d", v.I64())
	case wasm.ValF32:
		return fmt.Sprintf("f32:%g", v.F32())
	case wasm.ValF64:
		return fmt.Sprintf("f64:%g", v.F64())
	default:
		return fmt.Sprintf("%s:%#x", v.Type, v.Bits)
	}
}

// ParseValue parses a textual argument as a value of type t.
func ParseValue(t wasm.ValType, s string) (Value, error) {
	switch t {
	case wasm.ValI32:
		n, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			return Value{}, err
		}
		return I32(int32(n)), nil
	case wasm.ValI64:
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return Value{}, err
		}
		return I64(n), nil
	case wasm.ValF32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, err
		}
		return F32(float32(f)), nil
	case wasm.ValF64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, err
		}
		return F64(f), nil
	default:
		return Value{}, fmt.Errorf("cannot parse value of type %s", t)
	}
}
