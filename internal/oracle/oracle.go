// Package oracle cross-checks decoded modules and interpreter results
// against wazero.
package oracle

import (
	"context"
	"fmt"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	werrors "github.com/wippyai/cwasm/errors"
	"github.com/wippyai/cwasm/interp"
	"github.com/wippyai/cwasm/wasm"
)

// Oracle wraps a wazero runtime.
type Oracle struct {
	runtime wazero.Runtime
	log     *zap.Logger
}

// New creates an oracle backed by a fresh wazero runtime.
func New(ctx context.Context, log *zap.Logger) *Oracle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Oracle{
		runtime: wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig()),
		log:     log,
	}
}

// Close releases the runtime.
func (o *Oracle) Close(ctx context.Context) error {
	return o.runtime.Close(ctx)
}

// Function is an exported function as wazero sees it.
type Function struct {
	Name      string
	Signature wasm.FuncType
}

// Report is the outcome of compiling a module with wazero.
type Report struct {
	Functions  []Function // sorted by name
	Mismatches []Mismatch
}

// Mismatch records an exported function on which the decoder and wazero
// disagree. An empty side means the export is missing there.
type Mismatch struct {
	Export   string
	Decoded  string
	Compiled string
}

func (m Mismatch) String() string {
	decoded, compiled := m.Decoded, m.Compiled
	if decoded == "" {
		decoded = "<missing>"
	}
	if compiled == "" {
		compiled = "<missing>"
	}
	return fmt.Sprintf("%s: decoded %s, wazero %s", m.Export, decoded, compiled)
}

// OK reports whether decoder and wazero agree.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Check compiles data with wazero and compares its exported functions with
// those of m, the decoder's view of the same bytes.
func (o *Oracle) Check(ctx context.Context, m *wasm.Module, data []byte) (*Report, error) {
	compiled, err := o.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, werrors.Wrap(werrors.PhaseValidate, werrors.KindMalformedModule, err, "rejected by wazero")
	}
	defer compiled.Close(ctx)

	defs := compiled.ExportedFunctions()
	report := &Report{}
	for name, def := range defs {
		report.Functions = append(report.Functions, Function{
			Name: name,
			Signature: wasm.FuncType{
				Params:  valTypes(def.ParamTypes()),
				Results: valTypes(def.ResultTypes()),
			},
		})
	}
	sort.Slice(report.Functions, func(i, j int) bool {
		return report.Functions[i].Name < report.Functions[j].Name
	})

	decoded := make(map[string]string)
	for _, exp := range m.FuncExports() {
		if _, dup := decoded[exp.Name]; dup {
			continue
		}
		sig, ok := m.Signature(exp.Index)
		if !ok {
			decoded[exp.Name] = fmt.Sprintf("func %d (unresolved)", exp.Index)
			continue
		}
		decoded[exp.Name] = sig.String()
	}

	for _, fn := range report.Functions {
		got, ok := decoded[fn.Name]
		want := fn.Signature.String()
		if !ok || got != want {
			report.Mismatches = append(report.Mismatches, Mismatch{Export: fn.Name, Decoded: got, Compiled: want})
		}
		delete(decoded, fn.Name)
	}
	for name, sig := range decoded {
		report.Mismatches = append(report.Mismatches, Mismatch{Export: name, Decoded: sig})
	}
	sort.Slice(report.Mismatches, func(i, j int) bool {
		return report.Mismatches[i].Export < report.Mismatches[j].Export
	})

	o.log.Debug("oracle check",
		zap.Int("functions", len(report.Functions)),
		zap.Int("mismatches", len(report.Mismatches)))
	return report, nil
}

// Call instantiates data and calls the exported function name. Arguments and
// results use the types of sig.
func (o *Oracle) Call(ctx context.Context, data []byte, name string, sig *wasm.FuncType, args []interp.Value) ([]interp.Value, error) {
	compiled, err := o.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, werrors.Wrap(werrors.PhaseValidate, werrors.KindMalformedModule, err, "rejected by wazero")
	}
	defer compiled.Close(ctx)

	mod, err := o.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, fmt.Errorf("instantiate: %w", err)
	}
	defer mod.Close(ctx)

	fn := mod.ExportedFunction(name)
	if fn == nil {
		return nil, werrors.NotFound(werrors.PhaseRuntime, "exported function", name)
	}

	raw := make([]uint64, len(args))
	for i, a := range args {
		raw[i] = a.Bits
	}
	out, err := fn.Call(ctx, raw...)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}

	results := make([]interp.Value, len(out))
	for i, bits := range out {
		results[i] = interp.Value{Bits: bits}
		if i < len(sig.Results) {
			results[i].Type = sig.Results[i]
		}
	}
	return results, nil
}

func valTypes(in []api.ValueType) []wasm.ValType {
	out := make([]wasm.ValType, len(in))
	for i, t := range in {
		out[i] = wasm.ValType(t)
	}
	return out
}
