package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/cwasm/internal/oracle"
	"github.com/wippyai/cwasm/interp"
	"github.com/wippyai/cwasm/wasm"
)

// maxTrailingDump bounds the hex dump of unparsed bytes.
const maxTrailingDump = 256

func printModule(w io.Writer, filename string, m *wasm.Module) {
	fmt.Fprintf(w, "Module: %s\n", filename)
	fmt.Fprintf(w, "Version: %d\n", m.Version)

	ids := make([]string, len(m.Sections))
	for i, id := range m.Sections {
		ids[i] = id.String()
	}
	fmt.Fprintf(w, "Sections: %s\n", strings.Join(ids, ", "))

	fmt.Fprintf(w, "\nTypes: %d\n", len(m.Types))
	for i, ft := range m.Types {
		fmt.Fprintf(w, "  [%d] %s\n", i, ft)
	}

	fmt.Fprintf(w, "\nFunctions: %d\n", len(m.Funcs))
	for i, typeIdx := range m.Funcs {
		size := "no body"
		if body, ok := m.Body(uint32(i)); ok {
			size = fmt.Sprintf("%d bytes", len(body))
		}
		fmt.Fprintf(w, "  [%d] type %d, %s\n", i, typeIdx, size)
	}

	fmt.Fprintf(w, "\nExports: %d\n", len(m.Exports))
	for _, e := range m.Exports {
		desc := fmt.Sprintf("%s %d", e.Kind, e.Index)
		if e.Kind == wasm.ExportFunc {
			if sig, ok := m.Signature(e.Index); ok {
				desc += " " + sig.String()
			}
		}
		fmt.Fprintf(w, "  %q: %s\n", e.Name, desc)
	}

	if len(m.CustomSections) > 0 {
		fmt.Fprintf(w, "\nCustom sections: %d\n", len(m.CustomSections))
		for _, cs := range m.CustomSections {
			fmt.Fprintf(w, "  %q: %d bytes\n", cs.Name, len(cs.Data))
		}
	}

	if m.Halted {
		fmt.Fprint(w, "\nDecoding halted")
		if m.HaltCause != nil {
			fmt.Fprintf(w, ": %v", m.HaltCause)
		}
		fmt.Fprintln(w)
	}
	if len(m.Trailing) > 0 {
		fmt.Fprintf(w, "\nUnparsed trailing data: %d bytes\n", len(m.Trailing))
		dump := m.Trailing
		if len(dump) > maxTrailingDump {
			dump = dump[:maxTrailingDump]
		}
		fmt.Fprint(w, hex.Dump(dump))
		if len(m.Trailing) > maxTrailingDump {
			fmt.Fprintf(w, "... %d more bytes\n", len(m.Trailing)-maxTrailingDump)
		}
	}
}

func printReport(w io.Writer, r *oracle.Report) {
	fmt.Fprintf(w, "\nwazero: %d exported functions\n", len(r.Functions))
	if r.OK() {
		fmt.Fprintln(w, "  decoder agrees")
		return
	}
	for _, mm := range r.Mismatches {
		fmt.Fprintf(w, "  mismatch %s\n", mm)
	}
}

func printFrame(w io.Writer, f *interp.Frame) {
	fmt.Fprintf(w, "Executed %d instructions, pc=%d", f.Steps, f.PC)
	if f.Ended {
		fmt.Fprint(w, " (end)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Locals: %s\n", formatValues(f.Locals))
	fmt.Fprintf(w, "Stack:  %s\n", formatValues(f.Stack))
}

func formatValues(vs []interp.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
