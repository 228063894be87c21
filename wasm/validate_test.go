package wasm_test

import (
	"errors"
	"testing"

	"github.com/wippyai/cwasm/wasm"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*wasm.Module)
		want   error
	}{
		{"valid", func(*wasm.Module) {}, nil},
		{"type index", func(m *wasm.Module) { m.Funcs[1] = 7 }, wasm.ErrInvalidTypeIndex},
		{"missing body", func(m *wasm.Module) { m.Code = m.Code[:1] }, wasm.ErrMalformedModule},
		{"export out of range", func(m *wasm.Module) { m.Exports[0].Index = 2 }, wasm.ErrMalformedModule},
		{"non-function export index unchecked", func(m *wasm.Module) {
			m.Exports = append(m.Exports, wasm.Export{Name: "mem", Kind: wasm.ExportMemory, Index: 9})
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sampleModule()
			tt.mutate(m)
			err := m.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeModuleValidate(t *testing.T) {
	m := sampleModule()
	m.Exports[1].Index = 5
	data := m.Encode()

	if _, err := wasm.DecodeModule(data); err != nil {
		t.Fatalf("plain decode should accept the module: %v", err)
	}
	if _, err := wasm.DecodeModuleValidate(data); !errors.Is(err, wasm.ErrMalformedModule) {
		t.Errorf("got %v, want malformed module", err)
	}
}

func TestModuleLookups(t *testing.T) {
	m := sampleModule()

	if e, ok := m.ExportNamed("noop"); !ok || e.Index != 1 {
		t.Errorf("ExportNamed(noop) = %+v, %v", e, ok)
	}
	if _, ok := m.ExportNamed("missing"); ok {
		t.Error("ExportNamed(missing) should fail")
	}
	if body, ok := m.Body(1); !ok || len(body) != 2 {
		t.Errorf("Body(1) = %v, %v", body, ok)
	}
	if _, ok := m.Body(2); ok {
		t.Error("Body(2) should fail")
	}
	if got := len(m.FuncExports()); got != 2 {
		t.Errorf("FuncExports() has %d entries", got)
	}
	if got := m.Types[0].String(); got != "(i32, i32) -> (i32)" {
		t.Errorf("FuncType.String() = %q", got)
	}
}
