package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	werrors "github.com/wippyai/cwasm/errors"
	"github.com/wippyai/cwasm/internal/config"
	"github.com/wippyai/cwasm/internal/oracle"
	"github.com/wippyai/cwasm/interp"
	"github.com/wippyai/cwasm/wasm"
)

type options struct {
	wasmFile    string
	funcName    string
	args        string
	configFile  string
	logLevel    string
	locals      string
	funcIndex   int
	bodyIndex   int
	list        bool
	verify      bool
	trace       bool
	halt        bool
	interactive bool
}

func main() {
	os.Exit(runMain())
}

// runMain returns the process exit code so deferred log syncing happens
// before os.Exit.
func runMain() int {
	var o options
	flag.StringVar(&o.wasmFile, "wasm", "", "Path to module wasm file")
	flag.StringVar(&o.funcName, "func", "", "Exported function to invoke")
	flag.IntVar(&o.funcIndex, "index", -1, "Function index to invoke")
	flag.IntVar(&o.bodyIndex, "body", -1, "Code body to run raw, without a signature")
	flag.StringVar(&o.args, "args", "", "Arguments (comma-separated)")
	flag.StringVar(&o.configFile, "config", "", "Configuration file (default: nearest "+config.FileName+")")
	flag.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&o.locals, "locals", "", "Locals encoding for -body (flat or typed)")
	flag.BoolVar(&o.list, "list", false, "Print the module and exit")
	flag.BoolVar(&o.verify, "verify", false, "Cross-check the module and results with wazero")
	flag.BoolVar(&o.trace, "trace", false, "Print every executed instruction")
	flag.BoolVar(&o.halt, "halt", false, "Stop decoding at the first unhandled section")
	flag.BoolVar(&o.interactive, "i", false, "Interactive mode with TUI")
	flag.Parse()

	if o.wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: cwasm -wasm <file.wasm> [-func name | -index n] [-args 1,2] [-verify]")
		fmt.Fprintln(os.Stderr, "       cwasm -wasm <file.wasm> -body n [-locals typed] [-trace]")
		fmt.Fprintln(os.Stderr, "       cwasm -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       cwasm -wasm <file.wasm> -i  (interactive mode)")
		return 1
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer log.Sync()
	wasm.SetLogger(log.Named("wasm"))
	interp.SetLogger(log.Named("interp"))

	if o.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			return 1
		}
		err = runInteractive(o.wasmFile, cfg)
	} else {
		err = run(o, cfg, log)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(o options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if o.configFile != "" {
		cfg, err = config.Load(o.configFile)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.locals != "" {
		cfg.Interp.Locals = o.locals
	}
	if o.halt {
		cfg.Decode.HaltOnUnknownSection = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadModule(path string, cfg *config.Config) ([]byte, *wasm.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, werrors.Load("read "+path, err)
	}
	m, err := wasm.DecodeModuleWithOptions(data, cfg.DecodeOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}
	return data, m, nil
}

func run(o options, cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	data, m, err := loadModule(o.wasmFile, cfg)
	if err != nil {
		return err
	}

	printModule(os.Stdout, o.wasmFile, m)
	if o.list {
		return nil
	}

	var orc *oracle.Oracle
	if o.verify {
		orc = oracle.New(ctx, log.Named("oracle"))
		defer orc.Close(ctx)

		report, err := orc.Check(ctx, m, data)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		printReport(os.Stdout, report)
		if !report.OK() {
			return fmt.Errorf("verify: %d exports disagree with wazero", len(report.Mismatches))
		}
	}

	enc, err := cfg.LocalsEncoding()
	if err != nil {
		return err
	}
	opts := interp.DefaultOptions()
	opts.Locals = enc
	if o.trace {
		opts.Trace = func(s interp.Step) {
			fmt.Printf("  %04x  %-12s depth=%d\n", s.Offset, interp.OpName(s.Opcode), s.Depth)
		}
	}
	in := interp.New(opts)

	if o.bodyIndex >= 0 {
		bodyIdx, err := flagIndex("body", o.bodyIndex)
		if err != nil {
			return err
		}
		body, ok := m.Body(bodyIdx)
		if !ok {
			return fmt.Errorf("no code body %d (module has %d)", o.bodyIndex, len(m.Code))
		}
		fmt.Printf("\nRunning body %d (%s locals)...\n", o.bodyIndex, enc)
		frame, err := in.Run(body)
		printFrame(os.Stdout, frame)
		return err
	}

	name, idx, err := selectFunction(m, o.funcName, o.funcIndex)
	if errors.Is(err, errNoEntryPoint) {
		fmt.Printf("\nNo function specified and no common entry point found.\n")
		fmt.Printf("Use -func or -index to specify a function to call.\n")
		return nil
	}
	if err != nil {
		return err
	}

	sig, ok := m.Signature(idx)
	if !ok {
		return fmt.Errorf("function %d has no signature", idx)
	}
	args, err := parseArgs(sig, o.args)
	if err != nil {
		return err
	}

	label := name
	if label == "" {
		label = fmt.Sprintf("func %d", idx)
	}
	fmt.Printf("\nCalling %s%s...\n", label, formatValues(args))
	results, err := in.InvokeIndex(m, idx, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", label, err)
	}
	fmt.Printf("Result: %s\n", formatValues(results))

	if orc != nil && name != "" {
		want, err := orc.Call(ctx, data, name, sig, args)
		if err != nil {
			return fmt.Errorf("verify call: %w", err)
		}
		if formatValues(want) != formatValues(results) {
			return fmt.Errorf("verify call: wazero returned %s", formatValues(want))
		}
		fmt.Println("wazero agrees")
	}
	return nil
}

var errNoEntryPoint = errors.New("no entry point")

// flagIndex converts an index flag value to a module index.
func flagIndex(name string, v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, werrors.InvalidInput(werrors.PhaseConfig, fmt.Sprintf("-%s %d is not a valid index", name, v))
	}
	return uint32(v), nil
}

// selectFunction resolves the function to invoke. Without an explicit choice
// it falls back to a common entry point or the only exported function.
func selectFunction(m *wasm.Module, name string, index int) (string, uint32, error) {
	if index >= 0 {
		idx, err := flagIndex("index", index)
		if err != nil {
			return "", 0, err
		}
		for _, e := range m.FuncExports() {
			if e.Index == idx {
				return e.Name, e.Index, nil
			}
		}
		return "", idx, nil
	}
	if name != "" {
		e, ok := m.ExportNamed(name)
		if !ok || e.Kind != wasm.ExportFunc {
			return "", 0, werrors.NotFound(werrors.PhaseRuntime, "exported function", name)
		}
		return e.Name, e.Index, nil
	}

	funcs := m.FuncExports()
	for _, entry := range []string{"_start", "run", "main"} {
		for _, e := range funcs {
			if e.Name == entry {
				return e.Name, e.Index, nil
			}
		}
	}
	if len(funcs) == 1 {
		return funcs[0].Name, funcs[0].Index, nil
	}
	return "", 0, errNoEntryPoint
}

func parseArgs(sig *wasm.FuncType, s string) ([]interp.Value, error) {
	var fields []string
	if strings.TrimSpace(s) != "" {
		fields = strings.Split(s, ",")
	}
	if len(fields) != len(sig.Params) {
		return nil, fmt.Errorf("function %s takes %d arguments, got %d", sig, len(sig.Params), len(fields))
	}
	args := make([]interp.Value, len(fields))
	for i, f := range fields {
		v, err := interp.ParseValue(sig.Params[i], strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}
