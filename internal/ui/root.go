package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/zenith/internal/app"
	"github.com/dori/zenith/internal/store"
	"github.com/dori/zenith/internal/timer"
	"github.com/dori/zenith/internal/ui/theme"
	"github.com/dori/zenith/internal/ui/views"
)

// RootModel is the main application model that manages views
type RootModel struct {
	app    *app.App
	keys   KeyMap
	help   help.Model
	width  int
	height int

	storeEvents <-chan store.Change
	timerEvents <-chan timer.Event
	snap        timer.Snapshot

	currentView    View
	timerView      views.PomodoroView
	tasksView      views.TasksView
	curriculumView views.CurriculumView
	calendarView   views.CalendarView
	classroomView  views.ClassroomView
	mediaView      views.MediaView
	assistantView  views.AssistantView
	statsView      views.StatsView
	helpVisible    bool

	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model that starts on the given view
func NewRootModel(application *app.App, start View) RootModel {
	h := help.New()
	h.ShowAll = true

	var history views.History
	if application.DB != nil {
		history = application.DB
	}

	return RootModel{
		app:            application,
		keys:           DefaultKeyMap(),
		help:           h,
		storeEvents:    application.Store.Subscribe(16),
		timerEvents:    application.Timer.Subscribe(16),
		snap:           application.Timer.Snapshot(),
		currentView:    start,
		timerView:      views.NewPomodoroView(application.Timer, application.SaveDurations),
		tasksView:      views.NewTasksView(application.Store),
		curriculumView: views.NewCurriculumView(application.Store),
		calendarView:   views.NewCalendarView(application.Store),
		classroomView: views.NewClassroomView(application.Store, application.Config.Media.MaxFileBytes,
			filepath.Join(application.DataDir, "exports")),
		mediaView:     views.NewMediaView(application.Embed, application.SaveEmbed, application.Spotify),
		assistantView: views.NewAssistantView(application.Assistant, application.Store, application.Timer),
		statsView:     views.NewStatsView(history, application.Store),
	}
}

// waitForStore blocks until the next store change
func waitForStore(ch <-chan store.Change) tea.Cmd {
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return views.StoreChangedMsg{Change: change}
	}
}

// waitForTimer blocks until the next timer event
func waitForTimer(ch <-chan timer.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return views.TimerEventMsg{Event: ev}
	}
}

// Init starts listening for store and timer events
func (m RootModel) Init() tea.Cmd {
	return tea.Batch(
		waitForStore(m.storeEvents),
		waitForTimer(m.timerEvents),
		m.mediaView.Init(),
		m.statsView.Init(),
	)
}

func (m RootModel) isInputMode() bool {
	switch m.currentView {
	case ViewTasks:
		return m.tasksView.IsInputMode()
	case ViewCurriculum:
		return m.curriculumView.IsInputMode()
	case ViewCalendar:
		return m.calendarView.IsInputMode()
	case ViewClassroom:
		return m.classroomView.IsInputMode()
	case ViewMedia:
		return m.mediaView.IsInputMode()
	case ViewAssistant:
		return m.assistantView.IsInputMode()
	}
	return false
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Header takes 1 line, footer 3
		contentHeight := m.height - 4
		m.timerView = m.timerView.SetSize(m.width, contentHeight)
		m.tasksView = m.tasksView.SetSize(m.width, contentHeight)
		m.curriculumView = m.curriculumView.SetSize(m.width, contentHeight)
		m.calendarView = m.calendarView.SetSize(m.width, contentHeight)
		m.classroomView = m.classroomView.SetSize(m.width, contentHeight)
		m.mediaView = m.mediaView.SetSize(m.width, contentHeight)
		m.assistantView = m.assistantView.SetSize(m.width, contentHeight)
		m.statsView = m.statsView.SetSize(m.width, contentHeight)
		return m, nil

	case views.StoreChangedMsg:
		var cmd tea.Cmd
		m, cmd = m.broadcast(msg)
		return m, tea.Batch(cmd, waitForStore(m.storeEvents))

	case views.TimerEventMsg:
		m.snap = msg.Event.Snapshot
		var cmds []tea.Cmd
		newTimer, cmd := m.timerView.Update(msg)
		m.timerView = newTimer.(views.PomodoroView)
		cmds = append(cmds, cmd)
		newStats, cmd := m.statsView.Update(msg)
		m.statsView = newStats.(views.StatsView)
		cmds = append(cmds, cmd, waitForTimer(m.timerEvents))
		if tr := msg.Event.Transition; tr != nil {
			m.statusMsg = tr.Notification().Body
		}
		return m, tea.Batch(cmds...)

	case views.ErrorMsg:
		m.errorMsg = msg.Err.Error()
		return m, nil

	case views.StatusMsg:
		m.statusMsg = msg.Message
		return m, nil

	case ThemeChangedMsg:
		m.statusMsg = fmt.Sprintf("Theme: %s", msg.ThemeName)
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		m.errorMsg = ""
		inputMode := m.isInputMode()

		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, q only outside text inputs
			if msg.String() == "ctrl+c" || !inputMode {
				return m, tea.Quit
			}
		case key.Matches(msg, m.keys.ThemeCycle):
			return m, m.cycleTheme()
		case key.Matches(msg, m.keys.ToggleTimer):
			m.app.Timer.Toggle()
			m.snap = m.app.Timer.Snapshot()
			return m, nil
		case key.Matches(msg, m.keys.NextView):
			return m.switchTo((m.currentView + 1) % viewCount)
		}

		if inputMode {
			break
		}

		if key.Matches(msg, m.keys.Help) {
			m.helpVisible = !m.helpVisible
			return m, nil
		}
		if m.helpVisible && msg.String() == "esc" {
			m.helpVisible = false
			return m, nil
		}

		viewKeys := []key.Binding{
			m.keys.TimerView, m.keys.TasksView, m.keys.CurriculumView, m.keys.CalendarView,
			m.keys.ClassroomView, m.keys.MediaView, m.keys.AssistantView, m.keys.StatsView,
		}
		for i, k := range viewKeys {
			if key.Matches(msg, k) {
				return m.switchTo(View(i))
			}
		}
	}

	return m.delegate(msg)
}

// switchTo changes the current view and refreshes views that read external
// state
func (m RootModel) switchTo(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	m.helpVisible = false
	switch v {
	case ViewStats:
		return m, m.statsView.Init()
	case ViewMedia:
		return m, m.mediaView.Init()
	}
	return m, nil
}

// broadcast forwards a store change to every view backed by the store
func (m RootModel) broadcast(msg tea.Msg) (RootModel, tea.Cmd) {
	var cmds []tea.Cmd

	newTasks, cmd := m.tasksView.Update(msg)
	m.tasksView = newTasks.(views.TasksView)
	cmds = append(cmds, cmd)

	newCurriculum, cmd := m.curriculumView.Update(msg)
	m.curriculumView = newCurriculum.(views.CurriculumView)
	cmds = append(cmds, cmd)

	newCalendar, cmd := m.calendarView.Update(msg)
	m.calendarView = newCalendar.(views.CalendarView)
	cmds = append(cmds, cmd)

	newClassroom, cmd := m.classroomView.Update(msg)
	m.classroomView = newClassroom.(views.ClassroomView)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// delegate hands a message to the current view
func (m RootModel) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewTimer:
		var v tea.Model
		v, cmd = m.timerView.Update(msg)
		m.timerView = v.(views.PomodoroView)
	case ViewTasks:
		var v tea.Model
		v, cmd = m.tasksView.Update(msg)
		m.tasksView = v.(views.TasksView)
	case ViewCurriculum:
		var v tea.Model
		v, cmd = m.curriculumView.Update(msg)
		m.curriculumView = v.(views.CurriculumView)
	case ViewCalendar:
		var v tea.Model
		v, cmd = m.calendarView.Update(msg)
		m.calendarView = v.(views.CalendarView)
	case ViewClassroom:
		var v tea.Model
		v, cmd = m.classroomView.Update(msg)
		m.classroomView = v.(views.ClassroomView)
	case ViewMedia:
		var v tea.Model
		v, cmd = m.mediaView.Update(msg)
		m.mediaView = v.(views.MediaView)
	case ViewAssistant:
		var v tea.Model
		v, cmd = m.assistantView.Update(msg)
		m.assistantView = v.(views.AssistantView)
	case ViewStats:
		var v tea.Model
		v, cmd = m.statsView.Update(msg)
		m.statsView = v.(views.StatsView)
	}

	// Async results addressed to background views still have to land
	switch msg.(type) {
	case tea.KeyMsg, tea.WindowSizeMsg:
	default:
		if m.currentView != ViewMedia {
			v, c := m.mediaView.Update(msg)
			m.mediaView = v.(views.MediaView)
			cmd = tea.Batch(cmd, c)
		}
		if m.currentView != ViewAssistant {
			v, c := m.assistantView.Update(msg)
			m.assistantView = v.(views.AssistantView)
			cmd = tea.Batch(cmd, c)
		}
		if m.currentView != ViewStats {
			v, c := m.statsView.Update(msg)
			m.statsView = v.(views.StatsView)
			cmd = tea.Batch(cmd, c)
		}
	}
	return m, cmd
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	contentHeight := m.height - 4
	if m.errorMsg != "" || m.statusMsg != "" {
		contentHeight--
	}

	var content string
	if m.helpVisible {
		content = m.renderHelp()
	} else {
		switch m.currentView {
		case ViewTimer:
			content = m.timerView.View()
		case ViewTasks:
			content = m.tasksView.View()
		case ViewCurriculum:
			content = m.curriculumView.View()
		case ViewCalendar:
			content = m.calendarView.View()
		case ViewClassroom:
			content = m.classroomView.View()
		case ViewMedia:
			content = m.mediaView.View()
		case ViewAssistant:
			content = m.assistantView.View()
		case ViewStats:
			content = m.statsView.View()
		}
	}

	if lines := strings.Count(content, "\n") + 1; lines < contentHeight {
		content += strings.Repeat("\n", contentHeight-lines)
	}

	return strings.Join([]string{m.renderHeader(), content, m.renderFooter()}, "\n")
}

// renderHeader renders the view tabs and the running timer
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("zenith")
	viewStyle := lipgloss.NewStyle().Foreground(t.Subtle).Padding(0, 1)
	viewIndicator := viewStyle.Render(fmt.Sprintf("[%d %s]", m.currentView+1, m.currentView))

	state := m.snap.State
	symbol := "⏸"
	if state.Active {
		symbol = "▶"
	}
	clock := lipgloss.NewStyle().Foreground(views.ModeColor(state)).Bold(true).Padding(0, 1).
		Render(fmt.Sprintf("%s %s %s", symbol, state.Mode.Title(), views.FormatClock(state.RemainingSeconds)))

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, viewIndicator)
	gap := m.width - lipgloss.Width(leftSide) - lipgloss.Width(clock)
	if gap < 0 {
		gap = 0
	}
	return leftSide + strings.Repeat(" ", gap) + clock
}

// renderFooter renders the status line and context key hints
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	hint := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")
	join := func(parts ...string) string { return strings.Join(parts, sep) }

	var lines []string
	if m.errorMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Error).Render(m.errorMsg))
	} else if m.statusMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Info).Render(m.statusMsg))
	}

	if m.isInputMode() {
		lines = append(lines, join(hint("enter", "confirm"), hint("esc", "cancel")), "")
		return strings.Join(lines, "\n")
	}

	var line1 string
	switch m.currentView {
	case ViewTimer:
		line1 = join(hint("space", "start/pause"), hint("n", "skip"), hint("r", "reset"),
			hint("w/b/B", "mode"), hint("+/-", "length"))
	case ViewTasks:
		line1 = join(hint("a", "add"), hint("e", "edit"), hint("space", "done"), hint("D", "date"),
			hint("t", "subject"), hint("d", "delete"), hint("C", "clear done"), hint("f", "filter"))
	case ViewCurriculum:
		line1 = join(hint("h/l", "pane"), hint("a", "add"), hint("r", "rename"), hint("space", "toggle"),
			hint("c", "color"), hint("d", "delete"))
	case ViewCalendar:
		line1 = join(hint("h/j/k/l", "days"), hint("H/L", "months"), hint("t", "today"), hint("a", "add"))
	case ViewClassroom:
		line1 = join(hint("h/l", "pane"), hint("a", "folder"), hint("r", "rename"), hint("i", "import"),
			hint("x", "export"), hint("t", "tag"), hint("d", "delete"))
	case ViewMedia:
		line1 = join(hint("enter", "preset"), hint("u", "link"), hint("p", "play/pause"),
			hint("n/b", "next/prev"), hint("c", "refresh"))
	case ViewAssistant:
		line1 = join(hint("i", "type"), hint("/prioritize", "plan"), hint("/duration", "playlist"),
			hint("c", "clear"), hint("↑/↓", "scroll"))
	case ViewStats:
		line1 = join(hint("w", "week"), hint("m", "month"), hint("r", "refresh"))
	}
	line2 := join(hint("1-8", "views"), hint("ctrl+s", "timer"), hint("ctrl+t", "theme"),
		hint("?", "help"), hint("q", "quit"))

	lines = append(lines, line1, line2)
	return strings.Join(lines, "\n")
}

// renderHelp renders the help overlay
func (m RootModel) renderHelp() string {
	t := theme.Current.Theme
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary).MarginBottom(1)
	descStyle := lipgloss.NewStyle().Foreground(t.Subtle)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Zenith Help"))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(descStyle.Render("Every view lists its own keys in the footer."))
	b.WriteString("\n")
	b.WriteString(descStyle.Render("Press ? or esc to close"))
	return b.String()
}

// cycleTheme switches to the next theme
func (m RootModel) cycleTheme() tea.Cmd {
	next := theme.Next()
	theme.SetTheme(next)
	return func() tea.Msg { return ThemeChangedMsg{ThemeName: next.Name} }
}
