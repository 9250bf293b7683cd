// Package tui provides the Bubble Tea terminal front-end: a URL field, a log pane
// and a progress line driving one batch run at a time.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/batch"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/consts"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/calc"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/urls"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF4E45")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(0, 1)
)

const (
	defaultWidth     = 80
	defaultLogHeight = 12
	// lines taken by everything except the log pane, borders included
	chromeHeight = 12
	minLogHeight = 3
)

// State is the front-end state.
type State int

// Front-end states. A run can be started from every state except StateRunning.
const (
	StateInput State = iota
	StateRunning
	StateDone
	StateFailed
)

// Starter starts a playlist run and streams its events.
type Starter interface {
	Start(ctx context.Context, url string) <-chan batch.Event
}

type lineLevel int

const (
	levelDim lineLevel = iota
	levelInfo
	levelSuccess
	levelWarning
	levelError
)

type logLine struct {
	text  string
	level lineLevel
}

type (
	// eventMsg carries one run event into Update.
	eventMsg batch.Event

	// runClosedMsg is sent when the event channel closes without a terminal event.
	runClosedMsg struct{}
)

// Model is the Bubble Tea model of the front-end.
type Model struct {
	state    State
	input    textinput.Model
	spinner  spinner.Model
	progress progress.Model
	logPane  viewport.Model
	lines    []logLine

	parent context.Context
	cancel context.CancelFunc
	runner Starter
	events <-chan batch.Event
	root   string
	err    error

	// entries finished and total entries of the current run
	done  int
	total int

	width int
}

// New creates the model. Runs are derived from ctx; root is shown as the download location.
func New(ctx context.Context, runner Starter, root string) Model {
	ti := textinput.New()
	ti.Placeholder = "https://www.youtube.com/playlist?list=..."
	ti.Prompt = "URL: "
	ti.CharLimit = 2048
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4E45"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	vp := viewport.New(defaultWidth, defaultLogHeight)
	// only paging keys, so typing a URL never scrolls the pane
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	return Model{
		state:    StateInput,
		input:    ti,
		spinner:  sp,
		progress: prog,
		logPane:  vp,
		parent:   ctx,
		runner:   runner,
		root:     root,
		width:    defaultWidth,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.stop()

			return m, tea.Quit

		case "esc":
			if m.state != StateRunning {
				return m, tea.Quit
			}

			// the run reports the cancellation through its failed event
			m.stop()
			m.appendLine(levelWarning, "Cancelling...")

			return m, nil

		case "enter":
			if m.state == StateRunning {
				return m, nil
			}

			return m.start()
		}

	case spinner.TickMsg:
		if m.state == StateRunning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case eventMsg:
		return m.handleEvent(batch.Event(msg))

	case runClosedMsg:
		if m.state == StateRunning {
			m.finish(StateFailed)
		}

		return m, nil
	}

	var cmd tea.Cmd
	m.logPane, cmd = m.logPane.Update(msg)
	cmds = append(cmds, cmd)

	if m.state != StateRunning {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) start() (tea.Model, tea.Cmd) {
	url := urls.Normalize(m.input.Value())
	if !urls.IsURLValid(url) {
		m.appendLine(levelWarning, consts.MsgEmptyURL)

		return m, nil
	}

	ctx, cancel := context.WithCancel(m.parent)

	m.cancel = cancel
	m.err = nil
	m.done, m.total = 0, 0
	m.state = StateRunning
	m.input.Blur()
	m.appendLine(levelDim, consts.MsgStarting)
	m.events = m.runner.Start(ctx, url)

	return m, tea.Batch(waitForEvent(m.events), m.spinner.Tick)
}

func (m Model) handleEvent(ev batch.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case batch.EventResolved:
		m.total = ev.Total
	case batch.EventEntryStart:
		m.done, m.total = ev.Index-1, ev.Total
	case batch.EventEntryDone:
		m.done = ev.Index
	case batch.EventDone, batch.EventFailed:
	}

	if ev.Message != "" {
		m.appendLine(levelFor(ev), ev.Message)
	}

	switch ev.Kind {
	case batch.EventDone:
		m.finish(StateDone)
		m.appendLine(levelSuccess, consts.MsgComplete)

		if ev.Report != nil {
			m.appendLine(levelInfo, fmt.Sprintf(consts.MsgSummaryFmt,
				ev.Report.Summary.Downloaded, ev.Report.Summary.Failed))
		}

		return m, textinput.Blink

	case batch.EventFailed:
		m.finish(StateFailed)
		m.err = ev.Err

		return m, textinput.Blink

	case batch.EventResolved, batch.EventEntryStart, batch.EventEntryDone:
	}

	return m, waitForEvent(m.events)
}

func (m *Model) finish(state State) {
	m.stop()
	m.state = state
	m.events = nil
	m.input.Focus()
}

func (m *Model) stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.input.Width = max(width-len(m.input.Prompt)-4, 20)
	m.progress.Width = min(max(width-20, 20), 80)
	m.logPane.Width = max(width-4, 20)
	m.logPane.Height = max(height-chromeHeight, minLogHeight)
	m.logPane.SetContent(m.renderLines())
	m.logPane.GotoBottom()
}

func (m *Model) appendLine(level lineLevel, text string) {
	m.lines = append(m.lines, logLine{text: text, level: level})
	m.logPane.SetContent(m.renderLines())
	m.logPane.GotoBottom()
}

// waitForEvent reads the next event of the current run.
func waitForEvent(events <-chan batch.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return runClosedMsg{}
		}

		return eventMsg(ev)
	}
}

func levelFor(ev batch.Event) lineLevel {
	switch ev.Kind {
	case batch.EventFailed, batch.EventEntryDone:
		return levelError
	case batch.EventDone:
		return levelSuccess
	case batch.EventResolved, batch.EventEntryStart:
		return levelInfo
	default:
		return levelDim
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("YouTube Playlist Downloader"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download path: " + m.root))
	b.WriteString("\n\n")
	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	b.WriteString(logBoxStyle.Render(m.logPane.View()))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewStatus() string {
	switch m.state {
	case StateRunning:
		status := "Fetching playlist..."
		if m.total > 0 {
			status = fmt.Sprintf("Downloading %d/%d", min(m.done+1, m.total), m.total)
		}

		return m.spinner.View() + " " + subtitleStyle.Render(status) + "\n" +
			m.progress.ViewAs(calc.Fraction(m.done, m.total))
	case StateDone:
		return successStyle.Render(consts.MsgComplete) + "\n"
	case StateFailed:
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf(consts.MsgFailedFmt, m.err)) + "\n"
		}

		return errorStyle.Render("Download stopped") + "\n"
	case StateInput:
	}

	return subtitleStyle.Render("Enter a playlist URL and press enter") + "\n"
}

func (m Model) renderLines() string {
	var b strings.Builder

	for i, l := range m.lines {
		if i > 0 {
			b.WriteString("\n")
		}

		var (
			style  lipgloss.Style
			prefix string
		)

		switch l.level {
		case levelError:
			style, prefix = errorStyle, "✗"
		case levelWarning:
			style, prefix = warningStyle, "!"
		case levelSuccess:
			style, prefix = successStyle, "✓"
		case levelInfo:
			style, prefix = infoStyle, "›"
		default:
			style, prefix = dimStyle, "•"
		}

		b.WriteString(style.Render(prefix + " " + l.text))
	}

	return b.String()
}

func (m Model) helpText() string {
	if m.state == StateRunning {
		return "esc: cancel • pgup/pgdown: scroll • ctrl+c: quit"
	}

	return "enter: download • pgup/pgdown: scroll • esc: quit"
}

// Log returns the plain text of the log pane, one entry per line.
func (m Model) Log() []string {
	out := make([]string, 0, len(m.lines))
	for _, l := range m.lines {
		out = append(out, l.text)
	}

	return out
}

// State returns the current front-end state.
func (m Model) State() State {
	return m.state
}

// Run starts the terminal UI and blocks until the operator quits or ctx is done.
func Run(ctx context.Context, runner Starter, root string) error {
	p := tea.NewProgram(New(ctx, runner, root),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}

	return nil
}
