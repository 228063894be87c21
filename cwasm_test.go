package cwasm_test

import (
	"errors"
	"testing"

	"github.com/wippyai/cwasm"
	"github.com/wippyai/cwasm/interp"
	"github.com/wippyai/cwasm/wasm"
)

// exportModule is the encoding of a module exporting "main" as function 0 of
// type () -> () and "memory" as memory 0.
var exportModule = []byte{
	0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x11, 0x02,
	0x04, 'm', 'a', 'i', 'n', 0x00, 0x00,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x0A, 0x04, 0x01, 0x02, 0x00, 0x0B,
}

func TestDecode(t *testing.T) {
	m, err := cwasm.Decode(exportModule)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(m.Exports) != 2 || m.Exports[1].Kind != wasm.ExportMemory {
		t.Errorf("exports = %v", m.Exports)
	}
}

func TestCall(t *testing.T) {
	results, err := cwasm.Call(exportModule, "main")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v", results)
	}

	if _, err := cwasm.Call(exportModule, "memory"); !errors.Is(err, interp.ErrNotFound) {
		t.Errorf("got %v, want not found", err)
	}
	if _, err := cwasm.Call(exportModule[:9], "main"); !errors.Is(err, wasm.ErrTruncated) {
		t.Errorf("got %v, want truncated", err)
	}
}

func TestRunBody(t *testing.T) {
	frame, err := cwasm.RunBody(interp.NewWithDefaults(), exportModule, 0)
	if err != nil {
		t.Fatalf("RunBody: %v", err)
	}
	if !frame.Ended {
		t.Error("expected the body to end")
	}
	if _, err := cwasm.RunBody(interp.NewWithDefaults(), exportModule, 1); !errors.Is(err, interp.ErrIndexOutOfRange) {
		t.Errorf("got %v, want index out of range", err)
	}
}
