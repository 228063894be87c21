package interp

import (
	"bytes"

	"go.uber.org/zap"

	werrors "github.com/wippyai/cwasm/errors"
	"github.com/wippyai/cwasm/wasm"
)

// Invoke runs the function exported under name with the given arguments and
// returns its results. Declared locals are read with the typed encoding and
// follow the parameters in the locals frame.
func (in *Interpreter) Invoke(m *wasm.Module, name string, args ...Value) ([]Value, error) {
	exp, ok := m.ExportNamed(name)
	if !ok {
		return nil, werrors.NotFound(werrors.PhaseRuntime, "export", name)
	}
	if exp.Kind != wasm.ExportFunc {
		return nil, werrors.New(werrors.PhaseRuntime, werrors.KindNotFound).
			Value(name).
			Detail("export %q is a %s, not a function", name, exp.Kind).
			Build()
	}
	return in.InvokeIndex(m, exp.Index, args...)
}

// InvokeIndex runs the function at funcIdx.
func (in *Interpreter) InvokeIndex(m *wasm.Module, funcIdx uint32, args ...Value) ([]Value, error) {
	sig, ok := m.Signature(funcIdx)
	if !ok {
		return nil, werrors.OutOfBounds(werrors.PhaseRuntime, "function", int(funcIdx), len(m.Funcs))
	}
	body, ok := m.Body(funcIdx)
	if !ok {
		return nil, werrors.OutOfBounds(werrors.PhaseRuntime, "function body", int(funcIdx), len(m.Code))
	}

	if len(args) != len(sig.Params) {
		return nil, werrors.New(werrors.PhaseRuntime, werrors.KindTypeMismatch).
			Detail("function %d %s takes %d arguments, got %d", funcIdx, sig, len(sig.Params), len(args)).
			Build()
	}
	for i, p := range sig.Params {
		if args[i].Type != p {
			return nil, werrors.New(werrors.PhaseRuntime, werrors.KindTypeMismatch).
				Value(args[i]).
				Detail("argument %d: want %s, got %s", i, p, args[i].Type).
				Build()
		}
	}

	r := bytes.NewReader(body)
	declared, err := decodeLocals(r, len(body), LocalsTyped)
	if err != nil {
		return nil, err
	}
	locals := make([]Value, 0, len(args)+len(declared))
	locals = append(locals, args...)
	locals = append(locals, declared...)

	frame := &Frame{Locals: locals, PC: len(body) - r.Len()}
	in.log.Debug("invoke",
		zap.Uint32("func", funcIdx),
		zap.Stringer("signature", sig),
		zap.Int("locals", len(locals)))
	if err := in.exec(frame, body, r); err != nil {
		return nil, err
	}

	n := len(sig.Results)
	if len(frame.Stack) < n {
		return nil, werrors.New(werrors.PhaseRuntime, werrors.KindStackUnderflow).
			Detail("function %d returns %d values, stack holds %d", funcIdx, n, len(frame.Stack)).
			Build()
	}
	results := append([]Value(nil), frame.Stack[len(frame.Stack)-n:]...)
	for i, want := range sig.Results {
		if results[i].Typed() && results[i].Type != want {
			return nil, werrors.New(werrors.PhaseRuntime, werrors.KindTypeMismatch).
				Value(results[i]).
				Detail("result %d: want %s, got %s", i, want, results[i].Type).
				Build()
		}
	}
	return results, nil
}
