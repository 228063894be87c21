package binary

import (
	"bytes"
	"errors"
	"math"
	"testing"

	werrors "github.com/wippyai/cwasm/errors"
)

var (
	errTruncated = werrors.Sentinel(werrors.PhaseDecode, werrors.KindTruncated)
	errMalformed = werrors.Sentinel(werrors.PhaseDecode, werrors.KindMalformedVarint)
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(data)

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	if r.Position() != 3 {
		t.Errorf("final position: got %d, want 3", r.Position())
	}
	if r.Remaining() != 0 {
		t.Errorf("remaining: got %d, want 0", r.Remaining())
	}

	_, err := r.ReadByte()
	if !errors.Is(err, errTruncated) {
		t.Errorf("expected truncated error, got %v", err)
	}
}

func TestReaderReadExact(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader(data)

	got, err := r.ReadExact(3)
	if err != nil {
		t.Fatalf("ReadExact: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadExact: got %v, want [1 2 3]", got)
	}
	if r.Position() != 3 {
		t.Errorf("position: got %d, want 3", r.Position())
	}

	got[0] = 0xAA
	if data[0] != 0x01 {
		t.Error("ReadExact must not alias the input buffer")
	}

	_, err = r.ReadExact(10)
	if !errors.Is(err, errTruncated) {
		t.Errorf("expected truncated error, got %v", err)
	}
	if r.Position() != 3 {
		t.Errorf("failed read moved the cursor to %d", r.Position())
	}
}

func TestReaderSub(t *testing.T) {
	r := NewReader([]byte{0xAA, 0x01, 0x02, 0x03, 0xBB})
	if _, err := r.ReadByte(); err != nil {
		t.Fatal(err)
	}

	sub, err := r.Sub(3)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if r.Position() != 4 {
		t.Errorf("parent position: got %d, want 4", r.Position())
	}
	if sub.Position() != 1 {
		t.Errorf("sub position is absolute: got %d, want 1", sub.Position())
	}
	if sub.Len() != 3 {
		t.Errorf("sub len: got %d, want 3", sub.Len())
	}

	if _, err := sub.ReadExact(4); !errors.Is(err, errTruncated) {
		t.Errorf("sub must not read past its bound, got %v", err)
	}
	if got := sub.ReadToEnd(); !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("sub ReadToEnd: got %v", got)
	}

	_, err = sub.ReadByte()
	var we *werrors.Error
	if !errors.As(err, &we) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if we.Position != 4 {
		t.Errorf("error position: got %d, want 4", we.Position)
	}

	if _, err := r.Sub(5); !errors.Is(err, errTruncated) {
		t.Errorf("oversized Sub: got %v", err)
	}
}

func TestReaderSkip(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if err := r.Skip(2); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if b, _ := r.ReadByte(); b != 3 {
		t.Errorf("after Skip: got %d, want 3", b)
	}
	if err := r.Skip(1); !errors.Is(err, errTruncated) {
		t.Errorf("Skip past end: got %v", err)
	}
}

func TestReaderReadU32(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0x01}, 255},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadU32()
		if err != nil {
			t.Errorf("ReadU32(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadU32(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadU32Malformed(t *testing.T) {
	tests := [][]byte{
		{0x80, 0x80, 0x80, 0x80, 0x80, 0x01},
		{0xff, 0xff, 0xff, 0xff, 0x1f},
	}
	for _, data := range tests {
		_, err := NewReader(data).ReadU32()
		if !errors.Is(err, errMalformed) {
			t.Errorf("ReadU32(%v): expected malformed varint, got %v", data, err)
		}
	}
}

func TestReaderReadU64(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, 0xFFFFFFFFFFFFFFFF},
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadU64()
		if err != nil {
			t.Errorf("ReadU64(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadU64(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
		if r.Remaining() != 0 {
			t.Errorf("ReadU64(%v): %d bytes left over", tt.encoded, r.Remaining())
		}
	}
}

func TestReaderReadU64Errors(t *testing.T) {
	t.Run("truncated", func(t *testing.T) {
		_, err := NewReader([]byte{0x80, 0x80}).ReadU64()
		if !errors.Is(err, errTruncated) {
			t.Errorf("expected truncated, got %v", err)
		}
	})
	t.Run("eleven bytes", func(t *testing.T) {
		data := bytes.Repeat([]byte{0x80}, 11)
		_, err := NewReader(data).ReadU64()
		if !errors.Is(err, errMalformed) {
			t.Errorf("expected malformed varint, got %v", err)
		}
	})
	t.Run("tenth byte overflows", func(t *testing.T) {
		data := append(bytes.Repeat([]byte{0xff}, 9), 0x02)
		_, err := NewReader(data).ReadU64()
		if !errors.Is(err, errMalformed) {
			t.Errorf("expected malformed varint, got %v", err)
		}
	})
}

func TestReaderSigned(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
		{[]byte{0xc0, 0x00}, 64},
		{[]byte{0x80, 0x7f}, -128},
	}
	for _, tt := range tests {
		got32, err := NewReader(tt.encoded).ReadS32()
		if err != nil || int64(got32) != tt.want {
			t.Errorf("ReadS32(%v) = %d, %v; want %d", tt.encoded, got32, err, tt.want)
		}
		got64, err := NewReader(tt.encoded).ReadS64()
		if err != nil || got64 != tt.want {
			t.Errorf("ReadS64(%v) = %d, %v; want %d", tt.encoded, got64, err, tt.want)
		}
	}
}

func TestReaderSignedOverflow(t *testing.T) {
	s64 := [][]byte{
		{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01},
		{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7e},
	}
	for _, enc := range s64 {
		if v, err := NewReader(enc).ReadS64(); !errors.Is(err, errMalformed) {
			t.Errorf("ReadS64(%v) = %d, %v; want malformed", enc, v, err)
		}
	}
	s32 := [][]byte{
		{0x80, 0x80, 0x80, 0x80, 0x08},
		{0xff, 0xff, 0xff, 0xff, 0x77},
	}
	for _, enc := range s32 {
		if v, err := NewReader(enc).ReadS32(); !errors.Is(err, errMalformed) {
			t.Errorf("ReadS32(%v) = %d, %v; want malformed", enc, v, err)
		}
	}

	if v, err := NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7f}).ReadS64(); err != nil || v != math.MinInt64 {
		t.Errorf("min s64: got %d, %v", v, err)
	}
	if v, err := NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x78}).ReadS32(); err != nil || v != math.MinInt32 {
		t.Errorf("min s32: got %d, %v", v, err)
	}
}

func TestReaderReadName(t *testing.T) {
	r := NewReader([]byte{0x04, 'm', 'a', 'i', 'n'})
	name, err := r.ReadName()
	if err != nil {
		t.Fatalf("ReadName: %v", err)
	}
	if name != "main" {
		t.Errorf("ReadName: got %q, want main", name)
	}
}

func TestReaderReadNameLossy(t *testing.T) {
	r := NewReader([]byte{0x03, 'a', 0xff, 'b'})
	name, err := r.ReadName()
	if err != nil {
		t.Fatalf("ReadName must not fail on invalid UTF-8: %v", err)
	}
	if name != "a\uFFFDb" {
		t.Errorf("ReadName: got %q, want %q", name, "a\uFFFDb")
	}
}

func TestReaderReadU32LE(t *testing.T) {
	r := NewReader([]byte{0x01, 0x00, 0x00, 0x00})
	v, err := r.ReadU32LE()
	if err != nil || v != 1 {
		t.Errorf("ReadU32LE = %d, %v", v, err)
	}
	if _, err := NewReader([]byte{1, 2}).ReadU32LE(); !errors.Is(err, errTruncated) {
		t.Errorf("short ReadU32LE: got %v", err)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU32(624485)
	w.WriteU64(1 << 63)
	w.WriteS64(-129)
	w.WriteName("memory")
	w.WriteU32LE(0xDEADBEEF)
	w.WriteSection(7, []byte{0x00})

	r := NewReader(w.Bytes())
	if v, _ := r.ReadU32(); v != 624485 {
		t.Errorf("u32: got %d", v)
	}
	if v, _ := r.ReadU64(); v != 1<<63 {
		t.Errorf("u64: got %d", v)
	}
	if v, _ := r.ReadS64(); v != -129 {
		t.Errorf("s64: got %d", v)
	}
	if v, _ := r.ReadName(); v != "memory" {
		t.Errorf("name: got %q", v)
	}
	if v, _ := r.ReadU32LE(); v != 0xDEADBEEF {
		t.Errorf("u32le: got %x", v)
	}
	if got := r.ReadToEnd(); !bytes.Equal(got, []byte{7, 1, 0}) {
		t.Errorf("section: got %v", got)
	}
}
