package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/craftmind/agent"
	"github.com/nathoo/craftmind/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed operator input
	isSystem bool // true for panel messages
}

// Model is the Bubble Tea model for the agent control panel.
type Model struct {
	agent *agent.Agent
	delay time.Duration

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated log lines (unstyled, for re-wrapping)

	world     types.WorldState
	haveWorld bool

	width     int
	height    int
	ready     bool
	trace     bool
	quitting  bool
	stepping  bool
	autoRun   bool
	autoSteps int // remaining auto-run steps; negative means unbounded
}

// outputMsg carries display lines into the Update loop.
type outputMsg struct {
	input    string   // echoed operator input (empty for none)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// stepDoneMsg reports a finished decision step.
type stepDoneMsg struct {
	result *agent.StepResult
	err    error
}

// chatDoneMsg reports a relayed chat message.
type chatDoneMsg struct {
	text   string
	result string
	err    error
}

// autoStepMsg asks for the next step of an auto run.
type autoStepMsg struct{}

// New creates a panel model wired to the given agent. The delay paces
// auto runs.
func New(a *agent.Agent, delay time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	if delay <= 0 {
		delay = 2 * time.Second
	}

	return Model{
		agent:   a,
		delay:   delay,
		input:   ti,
		history: NewHistory(100),
	}
}

// Run starts the Bubble Tea program.
func Run(a *agent.Agent, delay time.Duration) error {
	m := New(a, delay)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command that produces the banner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.banner())
}

func (m Model) banner() tea.Cmd {
	return func() tea.Msg {
		task := m.agent.Task()
		lines := []string{
			fmt.Sprintf("session %s", m.agent.Session()),
			fmt.Sprintf("task: %s (%s)", task.Key, task.Description),
			"",
			"Type /help for commands. Free text is said in game chat.",
		}
		return outputMsg{lines: lines, isSystem: true}
	}
}

// Update handles messages (key presses, window resize, step results).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "esc":
			if m.autoRun {
				m.autoRun = false
				m = m.appendOutput(outputMsg{lines: []string{"auto run stopped."}, isSystem: true})
			}
			return m, nil

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case outputMsg:
		m = m.appendOutput(msg)

	case stepDoneMsg:
		return m.handleStepDone(msg)

	case chatDoneMsg:
		if msg.err != nil {
			m = m.appendOutput(outputMsg{lines: []string{fmt.Sprintf("say failed: %v", msg.err)}, isSystem: true})
		} else {
			m = m.appendOutput(outputMsg{lines: []string{fmt.Sprintf("chat -> %s", msg.result)}})
		}

	case autoStepMsg:
		if m.autoRun && !m.stepping {
			return m.startStep()
		}
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	if strings.HasPrefix(input, "/") {
		return m.handleMeta(input)
	}

	// Free text goes out as in-game chat.
	m = m.appendOutput(outputMsg{input: input})
	a := m.agent
	return m, func() tea.Msg {
		result, err := a.Say(context.Background(), input)
		return chatDoneMsg{text: input, result: result, err: err}
	}
}

// startStep kicks off one decision step in the background.
func (m Model) startStep() (tea.Model, tea.Cmd) {
	if m.stepping {
		m = m.appendOutput(outputMsg{lines: []string{"a step is already running."}, isSystem: true})
		return m, nil
	}
	m.stepping = true
	a := m.agent
	return m, func() tea.Msg {
		result, err := a.Step(context.Background())
		return stepDoneMsg{result: result, err: err}
	}
}

// handleStepDone folds a finished step into the log and, during an auto
// run, schedules the next one.
func (m Model) handleStepDone(msg stepDoneMsg) (tea.Model, tea.Cmd) {
	m.stepping = false

	if msg.err != nil {
		m.autoRun = false
		m = m.appendOutput(outputMsg{lines: []string{fmt.Sprintf("step failed: %v", msg.err)}})
		return m, nil
	}

	result := msg.result
	if result.Connected {
		m.world = result.World
		m.haveWorld = true
	}

	lines := append([]string{}, result.Lines...)
	if m.trace {
		for _, act := range result.Executed {
			lines = append(lines, fmt.Sprintf("[trace] executed %s", act.Kind()))
		}
	}
	m = m.appendOutput(outputMsg{lines: lines})

	if !m.autoRun {
		return m, nil
	}
	if result.Failed {
		m.autoRun = false
		m = m.appendOutput(outputMsg{lines: []string{"auto run stopped: action failed."}, isSystem: true})
		return m, nil
	}
	if m.autoSteps > 0 {
		m.autoSteps--
	}
	if m.autoSteps == 0 {
		m.autoRun = false
		m = m.appendOutput(outputMsg{lines: []string{"auto run finished."}, isSystem: true})
		return m, nil
	}
	return m, tea.Tick(m.delay, func(time.Time) tea.Msg { return autoStepMsg{} })
}

// handleMeta dispatches meta-commands.
func (m Model) handleMeta(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	echo := func(lines ...string) Model {
		return m.appendOutput(outputMsg{input: input, lines: lines, isSystem: true})
	}

	switch cmd {
	case "/quit", "/exit":
		if err := m.agent.FlushStores(); err != nil {
			m = echo(fmt.Sprintf("flush failed: %v", err))
		}
		m.quitting = true
		return m, tea.Quit

	case "/help":
		return echo(helpLines()...), nil

	case "/step":
		m = echo()
		return m.startStep()

	case "/run":
		n := -1
		if arg != "" {
			parsed, err := strconv.Atoi(arg)
			if err != nil || parsed <= 0 {
				return echo(fmt.Sprintf("invalid step count %q", arg)), nil
			}
			n = parsed
		}
		m = echo("auto run started. Esc or /stop to stop.")
		m.autoRun = true
		m.autoSteps = n
		return m.startStep()

	case "/stop":
		m.autoRun = false
		return echo("auto run stopped."), nil

	case "/task":
		if arg == "" {
			t := m.agent.Task()
			return echo(fmt.Sprintf("current task: %s (%s)", t.Key, t.Description)), nil
		}
		if err := m.agent.SetTask(arg); err != nil {
			return echo(err.Error()), nil
		}
		return echo(fmt.Sprintf("task set to %s", arg)), nil

	case "/tasks":
		current := m.agent.Task().Key
		var lines []string
		for _, t := range m.agent.Pack().Tasks {
			marker := " "
			if t.Key == current {
				marker = "*"
			}
			lines = append(lines, fmt.Sprintf("%s %-20s %s", marker, t.Key, t.Title))
		}
		return echo(lines...), nil

	case "/stats":
		s := m.agent.Stats()
		return echo(
			fmt.Sprintf("Steps: %d", s.Steps),
			fmt.Sprintf("API calls: %d", s.APICalls),
			fmt.Sprintf("Cache hits: %d", s.CacheHits),
			fmt.Sprintf("Predictions: %d", s.Predictions),
			fmt.Sprintf("Failures: %d", s.Failures),
		), nil

	case "/memory":
		records := m.agent.Memory().Recent(10)
		if len(records) == 0 {
			return echo("no memories yet."), nil
		}
		var lines []string
		for _, r := range records {
			kind, _ := r.Action["type"].(string)
			lines = append(lines, fmt.Sprintf("%-18s %s", kind, r.Result))
		}
		return echo(lines...), nil

	case "/flush":
		if err := m.agent.FlushStores(); err != nil {
			return echo(fmt.Sprintf("flush failed: %v", err)), nil
		}
		return echo("stores flushed."), nil

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return echo("Trace output enabled."), nil
		}
		return echo("Trace output disabled."), nil

	default:
		return echo(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)), nil
	}
}

func helpLines() []string {
	return []string{
		"System:",
		"  /step         Run one decision step",
		"  /run [n]      Auto-run n steps (no count: until stopped)",
		"  /stop         Stop an auto run (Esc works too)",
		"  /task [key]   Show or switch the current task",
		"  /tasks        List available tasks",
		"  /stats        Session counters",
		"  /memory       Recent action history",
		"  /flush        Write stores to disk",
		"  /trace        Toggle trace output",
		"  /quit         Flush stores and exit",
		"",
		"Anything else is said in game chat.",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
	}
}

// appendOutput adds lines to the log and refreshes the viewport.
func (m Model) appendOutput(msg outputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current
// width and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries. Preserves existing newlines within the text.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
