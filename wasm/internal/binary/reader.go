package binary

import (
	"encoding/binary"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/wippyai/cwasm/errors"
)

// MaxVarintLen64 is the longest valid unsigned LEB128 encoding of a uint64.
const MaxVarintLen64 = 10

// MaxVarintLen32 is the longest valid LEB128 encoding of a 32-bit value.
const MaxVarintLen32 = 5

// Reader is a forward-only cursor over an immutable byte slice.
// Positions reported by Position and by errors are absolute offsets into the
// buffer the outermost Reader was created with, including for sub-readers.
type Reader struct {
	data []byte
	pos  int
	base int
}

// NewReader creates a new Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current absolute byte position.
func (r *Reader) Position() int {
	return r.base + r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Len returns the total number of bytes the reader covers.
func (r *Reader) Len() int {
	return len(r.data)
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errors.Truncated(r.Position(), 1, 0)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadExact reads exactly n bytes. The returned slice is a copy.
func (r *Reader) ReadExact(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, errors.Truncated(r.Position(), n, r.Remaining())
	}
	buf := make([]byte, n)
	copy(buf, r.data[r.pos:r.pos+n])
	r.pos += n
	return buf, nil
}

// Skip advances past n bytes without copying them.
func (r *Reader) Skip(n int) error {
	if n < 0 || n > r.Remaining() {
		return errors.Truncated(r.Position(), n, r.Remaining())
	}
	r.pos += n
	return nil
}

// Sub returns a reader confined to the next n bytes and advances r past them.
func (r *Reader) Sub(n int) (*Reader, error) {
	if n < 0 || n > r.Remaining() {
		return nil, errors.Truncated(r.Position(), n, r.Remaining())
	}
	sub := &Reader{
		data: r.data[r.pos : r.pos+n : r.pos+n],
		base: r.Position(),
	}
	r.pos += n
	return sub, nil
}

// ReadToEnd drains and returns whatever is left.
func (r *Reader) ReadToEnd() []byte {
	rest := make([]byte, r.Remaining())
	copy(rest, r.data[r.pos:])
	r.pos = len(r.data)
	return rest
}

// ReadU64 reads an unsigned LEB128 encoded uint64.
// It fails with a truncated error when the input ends before the terminating
// byte and with a malformed varint error past ten bytes or on overflow.
func (r *Reader) ReadU64() (uint64, error) {
	start := r.Position()
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		if i == MaxVarintLen64 {
			return 0, malformed(start, "unsigned varint longer than 10 bytes")
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if i == MaxVarintLen64-1 && b > 0x01 {
			return 0, malformed(start, "unsigned varint overflows 64 bits")
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// ReadU32 reads an unsigned LEB128 encoded uint32.
func (r *Reader) ReadU32() (uint32, error) {
	start := r.Position()
	var result uint32
	var shift uint
	for i := 0; ; i++ {
		if i == MaxVarintLen32 {
			return 0, malformed(start, "u32 varint longer than 5 bytes")
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if i == MaxVarintLen32-1 && b&0x70 != 0 {
			return 0, malformed(start, "u32 varint overflows 32 bits")
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// ReadS32 reads a signed LEB128 encoded int32.
func (r *Reader) ReadS32() (int32, error) {
	start := r.Position()
	var result int32
	var shift uint
	var b byte
	var err error
	for i := 0; ; i++ {
		if i == MaxVarintLen32 {
			return 0, malformed(start, "s32 varint longer than 5 bytes")
		}
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		// Bits above 31 in the fifth byte must repeat the sign bit.
		if i == MaxVarintLen32-1 && b&0x80 == 0 && b&0x78 != 0 && b&0x78 != 0x78 {
			return 0, malformed(start, "s32 varint overflows 32 bits")
		}
		result |= int32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	// Sign extend
	if shift < 32 && b&0x40 != 0 {
		result |= ^int32(0) << shift
	}
	return result, nil
}

// ReadS64 reads a signed LEB128 encoded int64.
func (r *Reader) ReadS64() (int64, error) {
	start := r.Position()
	var result int64
	var shift uint
	var b byte
	var err error
	for i := 0; ; i++ {
		if i == MaxVarintLen64 {
			return 0, malformed(start, "s64 varint longer than 10 bytes")
		}
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		if i == MaxVarintLen64-1 && b != 0x00 && b != 0x7f {
			return 0, malformed(start, "s64 varint overflows 64 bits")
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	// Sign extend
	if shift < 64 && b&0x40 != 0 {
		result |= ^int64(0) << shift
	}
	return result, nil
}

// ReadName reads a length-prefixed name. Invalid UTF-8 sequences are
// replaced with U+FFFD rather than rejected.
func (r *Reader) ReadName() (string, error) {
	length, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	data, err := r.ReadExact(int(length))
	if err != nil {
		return "", err
	}
	return lossyString(data), nil
}

// lossyString converts data to a string, replacing ill-formed UTF-8.
func lossyString(data []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD")
	}
	return string(out)
}

// ReadU32LE reads a little-endian uint32 (fixed 4 bytes).
func (r *Reader) ReadU32LE() (uint32, error) {
	buf, err := r.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func malformed(pos int, detail string) error {
	return errors.New(errors.PhaseDecode, errors.KindMalformedVarint).
		At(pos).
		Detail(detail).
		Build()
}
