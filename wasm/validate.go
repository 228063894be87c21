package wasm

import (
	werrors "github.com/wippyai/cwasm/errors"
)

// Validate checks the module for structural consistency between sections.
// It does not type-check function bodies. A halted module is missing the
// sections after the halt, so the function/code count check is skipped.
func (m *Module) Validate() error {
	if err := m.validateTypeIndices(); err != nil {
		return err
	}
	if !m.Halted {
		if err := m.validateCodeCount(); err != nil {
			return err
		}
	}
	if err := m.validateExports(); err != nil {
		return err
	}
	return nil
}

// DecodeModuleValidate decodes a binary module and validates it.
// This is a convenience function combining DecodeModule and Validate.
func DecodeModuleValidate(data []byte) (*Module, error) {
	opts := DefaultDecodeOptions()
	opts.Validate = true
	return DecodeModuleWithOptions(data, opts)
}

func (m *Module) validateTypeIndices() error {
	numTypes := uint32(len(m.Types))
	for i, typeIdx := range m.Funcs {
		if typeIdx >= numTypes {
			return werrors.New(werrors.PhaseValidate, werrors.KindInvalidTypeIndex).
				Section("function section").
				Value(typeIdx).
				Detail("function %d references type %d, %d types defined", i, typeIdx, numTypes).
				Build()
		}
	}
	return nil
}

func (m *Module) validateCodeCount() error {
	if len(m.Funcs) != len(m.Code) {
		return werrors.New(werrors.PhaseValidate, werrors.KindMalformedModule).
			Detail("function section declares %d functions, code section has %d bodies", len(m.Funcs), len(m.Code)).
			Build()
	}
	return nil
}

func (m *Module) validateExports() error {
	numFuncs := uint32(len(m.Funcs))
	for i, exp := range m.Exports {
		if exp.Kind == ExportFunc && exp.Index >= numFuncs {
			return werrors.New(werrors.PhaseValidate, werrors.KindMalformedModule).
				Section("export section").
				Value(exp.Index).
				Detail("export %d (%s) references function %d, %d functions defined", i, exp.Name, exp.Index, numFuncs).
				Build()
		}
	}
	return nil
}
