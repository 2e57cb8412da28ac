package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"travisjr/src/intent"
	"travisjr/src/view"
)

// BuildSource is the view machine the build screen observes.
type BuildSource interface {
	State() *view.State
	Subscribe(ctx context.Context) <-chan *view.State
	Request(ctx context.Context) error
	Resume(ctx context.Context) error
}

// Opener hands an intent to the operating system.
type Opener func(intent.Intent) error

type stateMsg struct{ state *view.State }

type stateClosedMsg struct{}

type flashMsg string

// BuildModel shows one build: a header, one tab per job and the selected
// job's log.
type BuildModel struct {
	ctx     context.Context
	source  BuildSource
	states  <-chan *view.State
	state   *view.State
	intents *intent.Builder
	open    Opener

	header   Header
	progress ProgressModel
	viewport viewport.Model
	styles   *StyleConfig

	jobIndex int
	width    int
	height   int
	ready    bool
	flash    string
}

// NewBuildModel subscribes to source for the lifetime of ctx.
func NewBuildModel(ctx context.Context, source BuildSource, intents *intent.Builder, open Opener) BuildModel {
	styles := DefaultStyles()
	return BuildModel{
		ctx:      ctx,
		source:   source,
		states:   source.Subscribe(ctx),
		state:    source.State(),
		intents:  intents,
		open:     open,
		header:   NewStatusHeader("", styles),
		progress: NewProgressModel(),
		viewport: viewport.New(0, 0),
		styles:   styles,
	}
}

func (m BuildModel) waitForState() tea.Cmd {
	states := m.states
	return func() tea.Msg {
		s, ok := <-states
		if !ok {
			return stateClosedMsg{}
		}
		return stateMsg{state: s}
	}
}

func (m BuildModel) Init() tea.Cmd {
	if m.state.Kind == view.Syncing {
		return tea.Batch(m.waitForState(), SpinnerTick())
	}
	return m.waitForState()
}

// State returns the state currently on screen.
func (m BuildModel) State() *view.State {
	return m.state
}

func (m BuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case stateMsg:
		prevKind := m.state.Kind
		m.state = msg.state
		if m.jobIndex >= m.state.Logs.Len() {
			m.jobIndex = 0
		}
		m.refreshContent(prevKind != view.Content)
		var cmd tea.Cmd
		if m.state.Kind == view.Syncing && prevKind != view.Syncing {
			m.progress = NewProgressModel()
			cmd = SpinnerTick()
		}
		return m, tea.Batch(m.waitForState(), cmd)

	case stateClosedMsg:
		return m, nil

	case tea.FocusMsg:
		return m, m.resume()

	case flashMsg:
		m.flash = string(msg)
		return m, nil

	case SpinnerTickMsg:
		if m.state.Kind != view.Syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		m.flash = ""
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.request()
		case "tab", "right", "l":
			m.selectJob(m.jobIndex + 1)
			return m, nil
		case "shift+tab", "left", "h":
			m.selectJob(m.jobIndex - 1)
			return m, nil
		case "o":
			return m, m.activate(intent.KindViewCommit)
		case "p":
			return m, m.activate(intent.KindViewRepository)
		case "e":
			return m, m.activate(intent.KindContactCommitter)
		}

		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m BuildModel) request() tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		if err := source.Request(ctx); err != nil {
			return flashMsg("refresh failed: " + err.Error())
		}
		return nil
	}
}

func (m BuildModel) resume() tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		if err := source.Resume(ctx); err != nil {
			return flashMsg("resume failed: " + err.Error())
		}
		return nil
	}
}

func (m BuildModel) activate(kind intent.Kind) tea.Cmd {
	var (
		in  intent.Intent
		err error
	)
	switch kind {
	case intent.KindViewRepository:
		t := m.state.Target
		in, err = m.intents.ViewRepository(t.Owner, t.Repo)
	case intent.KindViewCommit:
		in, err = m.intents.ViewCommit(m.state.Build)
	case intent.KindContactCommitter:
		in, err = m.intents.ContactCommitter(m.state.Build)
	}
	if err != nil {
		return func() tea.Msg { return flashMsg(err.Error()) }
	}

	open := m.open
	return func() tea.Msg {
		if open == nil {
			return flashMsg(in.URL)
		}
		if err := open(in); err != nil {
			return flashMsg(fmt.Sprintf("could not open %s: %v", in.URL, err))
		}
		return flashMsg("opened " + in.URL)
	}
}

func (m *BuildModel) selectJob(i int) {
	n := m.state.Logs.Len()
	if n == 0 {
		return
	}
	m.jobIndex = (i%n + n) % n
	m.refreshContent(true)
}

func (m *BuildModel) resize() {
	// header (2 with border) + tabs (1) + help (1) + panel border (2)
	m.viewport.Width = m.width - 2
	m.viewport.Height = m.height - 2 - 1 - 1 - 2
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.refreshContent(false)
}

func (m *BuildModel) refreshContent(top bool) {
	m.header.SetStatus(m.statusLine())

	if m.state.Logs.Len() == 0 {
		m.viewport.SetContent("")
		return
	}
	_, text := m.state.Logs.At(m.jobIndex)
	m.viewport.SetContent(FitLines(text, m.viewport.Width))
	if top {
		m.viewport.GotoTop()
	}
}

func (m BuildModel) statusLine() string {
	t := m.state.Target
	b := m.state.Build
	if b == nil {
		return fmt.Sprintf("%s/%s build %d", t.Owner, t.Repo, t.BuildID)
	}

	parts := []string{fmt.Sprintf("%s #%s %s", b.Slug(), b.Number(), b.State())}
	if b.StartDate() != "" {
		parts = append(parts, fmt.Sprintf("started %s %s", b.StartDate(), b.StartTime()))
	}
	if c := b.Commit(); c != "" {
		if len(c) > 7 {
			c = c[:7]
		}
		parts = append(parts, fmt.Sprintf("%s by %s", c, b.CommitterName()))
	}
	return strings.Join(parts, " • ")
}

func (m BuildModel) renderTabs() string {
	if m.state.Logs.Len() == 0 {
		return ""
	}

	var tabs []string
	for i, job := range m.state.Logs.Jobs() {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(m.styles.JobColor(i))
		if i == m.jobIndex {
			style = style.Bold(true).Underline(true).Background(m.styles.SelectedColor)
		}
		tabs = append(tabs, style.Render(job.String()))
	}
	return FitLine(lipgloss.JoinHorizontal(lipgloss.Top, tabs...), m.width)
}

func (m BuildModel) renderHelpText() string {
	keyStyle := m.styles.TitleStyle().Padding(0)
	sepStyle := m.styles.HelpStyle().Padding(0)

	if m.flash != "" {
		return FitLine(m.styles.HelpStyle().Render(m.flash), m.width)
	}

	helpText := fmt.Sprintf("%s: Job %s %s: Refresh %s %s: Commit %s %s: Repo %s %s: Email %s %s: Quit",
		keyStyle.Render("Tab"), sepStyle.Render("•"),
		keyStyle.Render("r"), sepStyle.Render("•"),
		keyStyle.Render("o"), sepStyle.Render("•"),
		keyStyle.Render("p"), sepStyle.Render("•"),
		keyStyle.Render("e"), sepStyle.Render("•"),
		keyStyle.Render("q"))
	return FitLine(m.styles.HelpStyle().Render(helpText), m.width)
}

func (m BuildModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := m.header.Render(m.width)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.BorderColor).
		Width(m.width - 2).
		Height(m.viewport.Height)

	switch {
	case m.state.Kind == view.Error:
		notice := lipgloss.NewStyle().
			Foreground(m.styles.FailedColor).
			Bold(true).
			Render(m.state.Notice())
		hint := lipgloss.NewStyle().Foreground(m.styles.TextSecondary).Render("Press (r) to try again.")
		body := box.Align(lipgloss.Center, lipgloss.Center).Render(lipgloss.JoinVertical(lipgloss.Center, notice, "", hint))
		return lipgloss.JoinVertical(lipgloss.Left, header, "", body, m.renderHelpText())

	case m.state.Build == nil:
		// idle, or syncing without anything to show yet
		progress := lipgloss.NewStyle().
			Width(m.width).
			Align(lipgloss.Center).
			PaddingTop(2).
			Render(m.progress.View())
		return lipgloss.JoinVertical(lipgloss.Left, header, progress)
	}

	tabs := m.renderTabs()
	if m.state.Kind == view.Syncing {
		tabs = FitLine(m.progress.spinnerLine()+"  "+tabs, m.width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, box.Render(m.viewport.View()), m.renderHelpText())
}
