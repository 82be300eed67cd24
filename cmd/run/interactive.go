package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-minivm/engine"
	"github.com/wippyai/wasm-minivm/wasm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// listingHeight is the number of instructions shown around pc.
const listingHeight = 16

type keyMap struct {
	Step       key.Binding
	Run        key.Binding
	Continue   key.Binding
	Breakpoint key.Binding
	Restart    key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Continue, k.Run, k.Breakpoint, k.Restart, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var stepperKeys = keyMap{
	Step: key.NewBinding(
		key.WithKeys("s", "n", " "),
		key.WithHelp("s", "step"),
	),
	Continue: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "continue"),
	),
	Run: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "run to end"),
	),
	Breakpoint: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "toggle breakpoint"),
	),
	Restart: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "restart"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// stepperModel steps the start function one instruction at a time.
type stepperModel struct {
	machine     *engine.Machine
	breakpoints map[int]bool
	filename    string
	message     string
	body        []wasm.Instruction
	help        help.Model
	input       textinput.Model
	keys        keyMap
	cfg         engine.Config
	editing     bool
}

func newStepperModel(filename string, body []wasm.Instruction, cfg engine.Config) *stepperModel {
	// The stepper renders its own view of each step.
	cfg.Tracer = nil

	ti := textinput.New()
	ti.Prompt = "breakpoint at instruction: "
	ti.Placeholder = "index"
	ti.CharLimit = 10
	ti.Width = 12

	return &stepperModel{
		machine:     engine.NewMachine(body, cfg),
		breakpoints: make(map[int]bool),
		filename:    filename,
		body:        body,
		help:        help.New(),
		input:       ti,
		keys:        stepperKeys,
		cfg:         cfg,
	}
}

func (m *stepperModel) Init() tea.Cmd {
	return nil
}

func (m *stepperModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.editing {
		return m.updateInput(keyMsg)
	}

	m.message = ""
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(keyMsg, m.keys.Step):
		m.machine.Step()

	case key.Matches(keyMsg, m.keys.Run):
		for m.machine.State() == engine.Running {
			m.machine.Step()
		}

	case key.Matches(keyMsg, m.keys.Continue):
		m.machine.Step()
		for m.machine.State() == engine.Running && !m.breakpoints[m.machine.PC()] {
			m.machine.Step()
		}

	case key.Matches(keyMsg, m.keys.Breakpoint):
		m.editing = true
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(keyMsg, m.keys.Restart):
		m.machine = engine.NewMachine(m.body, m.cfg)
		m.message = "restarted"
	}

	return m, nil
}

func (m *stepperModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		m.editing = false
		m.input.Blur()
		idx, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
		if err != nil || idx < 0 || idx >= len(m.body) {
			m.message = fmt.Sprintf("no instruction %q", m.input.Value())
			return m, nil
		}
		if m.breakpoints[idx] {
			delete(m.breakpoints, idx)
			m.message = fmt.Sprintf("breakpoint %d cleared", idx)
		} else {
			m.breakpoints[idx] = true
			m.message = fmt.Sprintf("breakpoint %d set", idx)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *stepperModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("WASM Stepper"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	from, to := listingWindow(m.machine.PC(), len(m.body))
	for i := from; i < to; i++ {
		b.WriteString(m.formatLine(i))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "pc %d  level %d  steps %d  %s\n",
		m.machine.PC(), m.machine.BlockLevel(), m.machine.Steps(), m.machine.State())
	b.WriteString("stack: ")
	b.WriteString(typeStyle.Render(formatStack(m.machine.Stack())))
	b.WriteString("\n")

	switch m.machine.State() {
	case engine.Trapped:
		b.WriteString(errorStyle.Render("trap: " + m.machine.Err().Error()))
		b.WriteString("\n")
	case engine.Finished:
		b.WriteString(resultStyle.Render("finished"))
		b.WriteString("\n")
	}

	if m.message != "" {
		b.WriteString(mutedStyle.Render(m.message))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.editing {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("enter toggle • esc cancel"))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m *stepperModel) formatLine(i int) string {
	marker := "  "
	if m.breakpoints[i] {
		marker = "● "
	}
	text := fmt.Sprintf("%4d  %s", i, m.body[i])
	if i == m.machine.PC() && m.machine.State() == engine.Running {
		return selectedStyle.Render(marker + text)
	}
	return marker + opStyle.Render(text)
}

// listingWindow returns the range of instructions to show so that pc stays
// visible.
func listingWindow(pc, n int) (int, int) {
	if n <= listingHeight {
		return 0, n
	}
	from := max(pc-listingHeight/2, 0)
	to := from + listingHeight
	if to > n {
		to = n
		from = n - listingHeight
	}
	return from, to
}

func runInteractive(m *stepperModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
