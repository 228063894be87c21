package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/cwasm/internal/config"
	"github.com/wippyai/cwasm/interp"
	"github.com/wippyai/cwasm/wasm"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3D6EE0")).
			Padding(0, 1)
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	valTypeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#3D6EE0"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// maxTraceLines bounds the trace shown under a call result.
const maxTraceLines = 12

type screen int

const (
	screenExports screen = iota
	screenArgs
	screenResult
)

type export struct {
	name  string
	index uint32
	sig   wasm.FuncType
}

type tuiModel struct {
	cfg      *config.Config
	module   *wasm.Module
	loadErr  error
	filename string
	exports  []export
	cursor   int
	screen   screen

	args    []textinput.Model
	focused int

	results []interp.Value
	callErr error
	steps   []interp.Step
}

type moduleLoadedMsg struct {
	err error
	mod *wasm.Module
}

type callDoneMsg struct {
	err     error
	results []interp.Value
	steps   []interp.Step
}

func newTUIModel(filename string, cfg *config.Config) *tuiModel {
	return &tuiModel{filename: filename, cfg: cfg}
}

func (m *tuiModel) Init() tea.Cmd {
	return func() tea.Msg {
		_, mod, err := loadModule(m.filename, m.cfg)
		return moduleLoadedMsg{mod: mod, err: err}
	}
}

// funcExports lists the exported functions with a resolvable signature,
// sorted by name.
func funcExports(mod *wasm.Module) []export {
	var out []export
	for _, e := range mod.FuncExports() {
		if sig, ok := mod.Signature(e.Index); ok {
			out = append(out, export{name: e.Name, index: e.Index, sig: *sig})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case moduleLoadedMsg:
		m.loadErr = msg.err
		m.module = msg.mod
		if msg.mod != nil {
			m.exports = funcExports(msg.mod)
		}
		return m, nil

	case callDoneMsg:
		m.results, m.callErr, m.steps = msg.results, msg.err, msg.steps
		m.screen = screenResult
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenExports:
			return m.exportsKey(msg)
		case screenArgs:
			return m.argsKey(msg)
		case screenResult:
			return m.resultKey(msg)
		}
	}
	return m, nil
}

func (m *tuiModel) exportsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.exports)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.exports) == 0 {
			return m, nil
		}
		m.args = argInputs(m.exports[m.cursor].sig)
		m.focused = 0
		if len(m.args) == 0 {
			return m, m.call
		}
		m.screen = screenArgs
	}
	return m, nil
}

func (m *tuiModel) argsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m, m.call
	case "esc":
		m.screen = screenExports
		m.args = nil
		return m, nil
	case "tab", "shift+tab":
		if len(m.args) < 2 {
			return m, nil
		}
		m.args[m.focused].Blur()
		step := 1
		if msg.String() == "shift+tab" {
			step = len(m.args) - 1
		}
		m.focused = (m.focused + step) % len(m.args)
		return m, m.args[m.focused].Focus()
	}
	var cmd tea.Cmd
	m.args[m.focused], cmd = m.args[m.focused].Update(msg)
	return m, cmd
}

func (m *tuiModel) resultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter", "esc":
		m.screen = screenExports
		m.results, m.callErr, m.steps = nil, nil, nil
	}
	return m, nil
}

func argInputs(sig wasm.FuncType) []textinput.Model {
	inputs := make([]textinput.Model, len(sig.Params))
	for i, p := range sig.Params {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("arg%d %s: ", i, valTypeStyle.Render(p.String()))
		ti.Placeholder = "0"
		ti.Width = 32
		if i == 0 {
			ti.Focus()
		}
		inputs[i] = ti
	}
	return inputs
}

// call invokes the selected export and records every executed instruction.
func (m *tuiModel) call() tea.Msg {
	if m.module == nil {
		return callDoneMsg{err: fmt.Errorf("module not loaded")}
	}
	fn := m.exports[m.cursor]

	args := make([]interp.Value, len(m.args))
	for i, input := range m.args {
		text := strings.TrimSpace(input.Value())
		if text == "" {
			text = "0"
		}
		v, err := interp.ParseValue(fn.sig.Params[i], text)
		if err != nil {
			return callDoneMsg{err: fmt.Errorf("arg%d: %w", i, err)}
		}
		args[i] = v
	}

	var steps []interp.Step
	opts := interp.DefaultOptions()
	opts.Trace = func(s interp.Step) { steps = append(steps, s) }

	results, err := interp.New(opts).InvokeIndex(m.module, fn.index, args...)
	return callDoneMsg{results: results, err: err, steps: steps}
}

func (m *tuiModel) View() string {
	if m.loadErr != nil {
		return failStyle.Render(fmt.Sprintf("Error: %v", m.loadErr)) + "\n\n" + dimStyle.Render("ctrl+c quit")
	}
	if m.module == nil {
		return "Decoding " + m.filename + "..."
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("cwasm"))
	fmt.Fprintf(&b, " %s  v%d  %d types  %d functions  %d exports\n\n",
		m.filename, m.module.Version, len(m.module.Types), len(m.module.Funcs), len(m.module.Exports))

	switch m.screen {
	case screenExports:
		m.viewExports(&b)
	case screenArgs:
		m.viewArgs(&b)
	case screenResult:
		m.viewResult(&b)
	}
	return b.String()
}

func (m *tuiModel) viewExports(b *strings.Builder) {
	if len(m.exports) == 0 {
		b.WriteString("No exported functions.\n\n")
		b.WriteString(dimStyle.Render("q quit"))
		return
	}
	for i, fn := range m.exports {
		line := signatureLine(fn)
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteByte('\n')
	}
	b.WriteString("\n" + dimStyle.Render("↑/↓ move • enter call • q quit"))
}

func (m *tuiModel) viewArgs(b *strings.Builder) {
	fmt.Fprintf(b, "Arguments for %s\n\n", nameStyle.Render(m.exports[m.cursor].name))
	for _, in := range m.args {
		b.WriteString(in.View())
		b.WriteByte('\n')
	}
	b.WriteString("\n" + dimStyle.Render("tab switch • enter call • esc back"))
}

func (m *tuiModel) viewResult(b *strings.Builder) {
	fmt.Fprintf(b, "%s returned\n\n", nameStyle.Render(m.exports[m.cursor].name))
	if m.callErr != nil {
		b.WriteString(failStyle.Render(m.callErr.Error()))
	} else {
		b.WriteString(okStyle.Render(formatValues(m.results)))
	}
	b.WriteString("\n\n")

	if len(m.steps) > 0 {
		fmt.Fprintf(b, "%s\n", dimStyle.Render(fmt.Sprintf("%d instructions", len(m.steps))))
		shown := m.steps
		if len(shown) > maxTraceLines {
			shown = shown[len(shown)-maxTraceLines:]
		}
		for _, s := range shown {
			fmt.Fprintf(b, "  %04x %-11s depth %d\n", s.Offset, interp.OpName(s.Opcode), s.Depth)
		}
		b.WriteByte('\n')
	}
	b.WriteString(dimStyle.Render("enter back • q quit"))
}

func signatureLine(fn export) string {
	params := make([]string, len(fn.sig.Params))
	for i, p := range fn.sig.Params {
		params[i] = valTypeStyle.Render(p.String())
	}
	results := make([]string, len(fn.sig.Results))
	for i, r := range fn.sig.Results {
		results[i] = valTypeStyle.Render(r.String())
	}
	line := nameStyle.Render(fn.name) + "(" + strings.Join(params, ", ") + ")"
	if len(results) > 0 {
		line += " -> " + strings.Join(results, ", ")
	}
	return line
}

func runInteractive(filename string, cfg *config.Config) error {
	_, err := tea.NewProgram(newTUIModel(filename, cfg), tea.WithAltScreen()).Run()
	return err
}
