package wasm

import (
	"errors"
	"io"
	"math"

	werrors "github.com/wippyai/cwasm/errors"
	"github.com/wippyai/cwasm/wasm/internal/binary"
)

// LEB128 encoding/decoding utilities for the binary module format

// MaxVarintLen is the longest unsigned LEB128 encoding ReadUnsigned accepts.
const MaxVarintLen = binary.MaxVarintLen64

// ReadUnsigned reads an unsigned LEB128 value and reports how many bytes it
// consumed. Running out of input yields ErrTruncated; more than MaxVarintLen
// bytes, or a value wider than 64 bits, yields ErrMalformedVarint.
func ReadUnsigned(r io.ByteReader) (uint64, int, error) {
	var result uint64
	var shift uint
	for n := 0; ; n++ {
		if n == MaxVarintLen {
			return 0, n, werrors.New(werrors.PhaseDecode, werrors.KindMalformedVarint).
				Detail("unsigned varint longer than %d bytes", MaxVarintLen).
				Build()
		}
		b, err := readVarintByte(r, n)
		if err != nil {
			return 0, n, err
		}
		if n == MaxVarintLen-1 && b > 0x01 {
			return 0, n + 1, werrors.New(werrors.PhaseDecode, werrors.KindMalformedVarint).
				Detail("unsigned varint overflows 64 bits").
				Build()
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, n + 1, nil
		}
		shift += 7
	}
}

// ReadSigned reads a signed LEB128 value no wider than bits (32 or 64) and
// reports how many bytes it consumed.
func ReadSigned(r io.ByteReader, bits int) (int64, int, error) {
	maxLen := (bits + 6) / 7
	var result int64
	var shift uint
	for n := 0; ; n++ {
		if n == maxLen {
			return 0, n, werrors.New(werrors.PhaseDecode, werrors.KindMalformedVarint).
				Detail("s%d varint longer than %d bytes", bits, maxLen).
				Build()
		}
		b, err := readVarintByte(r, n)
		if err != nil {
			return 0, n, err
		}
		// The last byte of an s64 carries only the sign bit.
		if bits == 64 && n == maxLen-1 && b != 0x00 && b != 0x7f {
			return 0, n + 1, werrors.New(werrors.PhaseDecode, werrors.KindMalformedVarint).
				Detail("signed varint overflows 64 bits").
				Build()
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 != 0 {
			continue
		}
		if shift < 64 && b&0x40 != 0 {
			result |= -1 << shift
		}
		if bits == 32 && (result < math.MinInt32 || result > math.MaxInt32) {
			return 0, n + 1, werrors.New(werrors.PhaseDecode, werrors.KindMalformedVarint).
				Detail("signed varint overflows 32 bits").
				Build()
		}
		return result, n + 1, nil
	}
}

func readVarintByte(r io.ByteReader, n int) (byte, error) {
	b, err := r.ReadByte()
	if err == nil {
		return b, nil
	}
	var we *werrors.Error
	if errors.As(err, &we) {
		return 0, err
	}
	if errors.Is(err, io.EOF) {
		return 0, werrors.New(werrors.PhaseDecode, werrors.KindTruncated).
			Detail("unterminated varint after %d bytes", n).
			Build()
	}
	return 0, err
}

// EncodeUnsigned encodes v as unsigned LEB128.
func EncodeUnsigned(v uint64) []byte {
	return AppendUnsigned(nil, v)
}

// AppendUnsigned appends the unsigned LEB128 encoding of v to dst.
func AppendUnsigned(dst []byte, v uint64) []byte {
	return binary.AppendU64(dst, v)
}

// AppendSigned appends the signed LEB128 encoding of v to dst.
func AppendSigned(dst []byte, v int64) []byte {
	return binary.AppendS64(dst, v)
}
