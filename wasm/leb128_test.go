package wasm_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/wippyai/cwasm/wasm"
)

func TestReadUnsigned(t *testing.T) {
	tests := []struct {
		encoded []byte
		value   uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0x01}, 255},
		{[]byte{0x80, 0x02}, 256},
		{[]byte{0xff, 0x7f}, 16383},
		{[]byte{0x80, 0x80, 0x01}, 16384},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, math.MaxUint64},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			if got := wasm.EncodeUnsigned(tt.value); !bytes.Equal(got, tt.encoded) {
				t.Errorf("encode %d: got %v, want %v", tt.value, got, tt.encoded)
			}

			got, n, err := wasm.ReadUnsigned(bytes.NewReader(tt.encoded))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.value {
				t.Errorf("decode: got %d, want %d", got, tt.value)
			}
			if n != len(tt.encoded) {
				t.Errorf("consumed %d bytes, want %d", n, len(tt.encoded))
			}
		})
	}
}

func TestReadUnsignedStopsAtTerminator(t *testing.T) {
	r := bytes.NewReader([]byte{0x80, 0x01, 0xAA})
	v, n, err := wasm.ReadUnsigned(r)
	if err != nil || v != 128 || n != 2 {
		t.Fatalf("got %d, %d, %v", v, n, err)
	}
	if r.Len() != 1 {
		t.Errorf("reader advanced past the terminating byte")
	}
}

func TestReadUnsignedErrors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"empty", nil, wasm.ErrTruncated},
		{"unterminated", []byte{0x80, 0x80, 0x80}, wasm.ErrTruncated},
		{"eleven bytes", bytes.Repeat([]byte{0x80}, 11), wasm.ErrMalformedVarint},
		{"overflow", append(bytes.Repeat([]byte{0xff}, 9), 0x7f), wasm.ErrMalformedVarint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := wasm.ReadUnsigned(bytes.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUnsignedRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("decode(encode(v)) == v consuming every encoded byte", prop.ForAll(
		func(v uint64) bool {
			enc := wasm.EncodeUnsigned(v)
			got, n, err := wasm.ReadUnsigned(bytes.NewReader(enc))
			return err == nil && got == v && n == len(enc)
		},
		gen.UInt64(),
	))

	properties.Property("encoding never exceeds the varint cap", prop.ForAll(
		func(v uint64) bool {
			return len(wasm.EncodeUnsigned(v)) <= wasm.MaxVarintLen
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)

	for shift := 0; shift < 64; shift++ {
		for _, v := range []uint64{1<<shift - 1, 1 << shift, 1<<shift + 1} {
			enc := wasm.EncodeUnsigned(v)
			got, n, err := wasm.ReadUnsigned(bytes.NewReader(enc))
			if err != nil || got != v || n != len(enc) {
				t.Errorf("round trip %d: got %d, %d, %v", v, got, n, err)
			}
		}
	}
}

func TestAppendSigned(t *testing.T) {
	tests := []struct {
		value   int64
		encoded []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x7f}},
		{63, []byte{0x3f}},
		{64, []byte{0xc0, 0x00}},
		{-64, []byte{0x40}},
		{-129, []byte{0xff, 0x7e}},
	}
	for _, tt := range tests {
		if got := wasm.AppendSigned(nil, tt.value); !bytes.Equal(got, tt.encoded) {
			t.Errorf("AppendSigned(%d) = %v, want %v", tt.value, got, tt.encoded)
		}
	}
}

func TestReadSigned(t *testing.T) {
	tests := []struct {
		encoded []byte
		bits    int
		value   int64
	}{
		{[]byte{0x00}, 32, 0},
		{[]byte{0x7f}, 32, -1},
		{[]byte{0xc0, 0x00}, 32, 64},
		{[]byte{0xff, 0x7e}, 32, -129},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x07}, 32, math.MaxInt32},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x78}, 32, math.MinInt32},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7f}, 64, math.MinInt64},
	}
	for _, tt := range tests {
		got, n, err := wasm.ReadSigned(bytes.NewReader(tt.encoded), tt.bits)
		if err != nil {
			t.Fatalf("ReadSigned(% x): %v", tt.encoded, err)
		}
		if got != tt.value || n != len(tt.encoded) {
			t.Errorf("ReadSigned(% x) = %d, %d; want %d, %d", tt.encoded, got, n, tt.value, len(tt.encoded))
		}
	}

	if _, _, err := wasm.ReadSigned(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}), 32); !errors.Is(err, wasm.ErrMalformedVarint) {
		t.Errorf("six byte s32: got %v", err)
	}
	if _, _, err := wasm.ReadSigned(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0x0f}), 32); !errors.Is(err, wasm.ErrMalformedVarint) {
		t.Errorf("s32 overflow: got %v", err)
	}
	for _, last := range []byte{0x01, 0x7e} {
		enc := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, last}
		if v, _, err := wasm.ReadSigned(bytes.NewReader(enc), 64); !errors.Is(err, wasm.ErrMalformedVarint) {
			t.Errorf("s64 overflow % x: got %d, %v", enc, v, err)
		}
	}
	if v, _, err := wasm.ReadSigned(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}), 64); err != nil || v != math.MaxInt64 {
		t.Errorf("max s64: got %d, %v", v, err)
	}
	if _, _, err := wasm.ReadSigned(bytes.NewReader([]byte{0x80}), 64); !errors.Is(err, wasm.ErrTruncated) {
		t.Errorf("unterminated: got %v", err)
	}
}

func TestSignedRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("ReadSigned inverts AppendSigned", prop.ForAll(
		func(v int64) bool {
			enc := wasm.AppendSigned(nil, v)
			got, n, err := wasm.ReadSigned(bytes.NewReader(enc), 64)
			return err == nil && got == v && n == len(enc)
		},
		gen.Int64(),
	))
	properties.TestingRun(t)
}
