package cwasm

import (
	werrors "github.com/wippyai/cwasm/errors"
	"github.com/wippyai/cwasm/interp"
	"github.com/wippyai/cwasm/wasm"
)

// Decode decodes and validates a binary module.
func Decode(data []byte) (*wasm.Module, error) {
	return wasm.DecodeModuleValidate(data)
}

// Call decodes data and invokes the exported function name with a default
// interpreter.
func Call(data []byte, name string, args ...interp.Value) ([]interp.Value, error) {
	m, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return interp.NewWithDefaults().Invoke(m, name, args...)
}

// RunBody decodes data and runs the code body at index with in.
func RunBody(in *interp.Interpreter, data []byte, index uint32) (*interp.Frame, error) {
	m, err := Decode(data)
	if err != nil {
		return nil, err
	}
	body, ok := m.Body(index)
	if !ok {
		return nil, werrors.OutOfBounds(werrors.PhaseRuntime, "code body", int(index), len(m.Code))
	}
	return in.Run(body)
}
