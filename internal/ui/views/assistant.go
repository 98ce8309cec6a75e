package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/zenith/internal/ai"
	"github.com/dori/zenith/internal/calendar"
	"github.com/dori/zenith/internal/store"
	"github.com/dori/zenith/internal/timer"
	"github.com/dori/zenith/internal/ui/theme"
)

const assistantTimeout = 60 * time.Second

type chatRole int

const (
	roleUser chatRole = iota
	roleAssistant
	roleError
)

type chatEntry struct {
	role chatRole
	text string
}

type assistantReplyMsg struct {
	text   string
	failed bool
}

// AssistantView is the study assistant chat. Lines starting with
// /prioritize or /duration run the other assistant tools.
type AssistantView struct {
	assistant *ai.Assistant
	store     *store.Store
	runner    *timer.Runner
	width     int
	height    int

	history []chatEntry
	waiting bool

	input    textinput.Model
	viewport viewport.Model
}

// NewAssistantView creates a new assistant view
func NewAssistantView(assistant *ai.Assistant, st *store.Store, runner *timer.Runner) AssistantView {
	ti := textinput.New()
	ti.Placeholder = "Ask anything, /prioritize, or /duration <playlist url>"
	ti.CharLimit = 4000

	return AssistantView{
		assistant: assistant,
		store:     st,
		runner:    runner,
		input:     ti,
		viewport:  viewport.New(0, 0),
	}
}

// Init initializes the view
func (v AssistantView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v AssistantView) SetSize(width, height int) AssistantView {
	v.width = width
	v.height = height
	v.input.Width = width - 8
	v.viewport.Width = width
	v.viewport.Height = height - 5
	if v.viewport.Height < 1 {
		v.viewport.Height = 1
	}
	v.syncViewport()
	return v
}

// Update handles messages
func (v AssistantView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case assistantReplyMsg:
		v.waiting = false
		role := roleAssistant
		if msg.failed {
			role = roleError
		}
		v.history = append(v.history, chatEntry{role: role, text: msg.text})
		v.syncViewport()
		return v, nil

	case tea.KeyMsg:
		if !v.input.Focused() {
			switch msg.String() {
			case "i", "enter", "/":
				v.input.Focus()
				if msg.String() == "/" {
					v.input.SetValue("/")
					v.input.CursorEnd()
				}
				return v, textinput.Blink
			case "c":
				v.history = nil
				v.syncViewport()
				return v, nil
			}
			var cmd tea.Cmd
			v.viewport, cmd = v.viewport.Update(msg)
			return v, cmd
		}

		switch msg.String() {
		case "esc":
			v.input.Blur()
			return v, nil
		case "enter":
			return v.send()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v AssistantView) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(v.input.Value())
	if text == "" || v.waiting {
		return v, nil
	}
	if v.assistant == nil {
		return v, errorCmd(fmt.Errorf("the AI assistant is not configured"))
	}
	v.input.SetValue("")
	v.history = append(v.history, chatEntry{role: roleUser, text: text})
	v.waiting = true
	v.syncViewport()

	assistant := v.assistant
	switch {
	case text == "/prioritize":
		tasks := v.store.Tasks()
		req := ai.PriorityRequest{
			TaskList:        calendar.TaskListText(tasks),
			CalendarEvents:  calendar.EventsText(tasks, time.Now()),
			PomodoroMinutes: v.runner.Snapshot().Durations.Work,
		}
		if strings.TrimSpace(req.TaskList) == "" {
			v.waiting = false
			v.history = append(v.history, chatEntry{role: roleError, text: "No tasks to prioritize."})
			v.syncViewport()
			return v, nil
		}
		return v, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), assistantTimeout)
			defer cancel()
			s, err := assistant.SuggestPriorities(ctx, req)
			return assistantReplyMsg{text: FormatSuggestion(s), failed: err != nil}
		}

	case strings.HasPrefix(text, "/duration"):
		url := strings.TrimSpace(strings.TrimPrefix(text, "/duration"))
		return v, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), assistantTimeout)
			defer cancel()
			seconds, err := assistant.PlaylistDuration(ctx, url)
			if err != nil {
				return assistantReplyMsg{text: "Could not estimate the playlist length.", failed: true}
			}
			return assistantReplyMsg{text: "Total playlist length: " + ai.FormatDuration(seconds)}
		}
	}

	return v, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), assistantTimeout)
		defer cancel()
		reply, err := assistant.Chat(ctx, text)
		return assistantReplyMsg{text: reply, failed: err != nil}
	}
}

// FormatSuggestion renders a prioritizer result for display
func FormatSuggestion(s ai.PrioritySuggestion) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(s.PrioritizedTasks))
	if r := strings.TrimSpace(s.Reasoning); r != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(r)
	}
	return b.String()
}

func (v *AssistantView) syncViewport() {
	if v.width == 0 {
		return
	}
	t := theme.Current.Theme
	wrap := lipgloss.NewStyle().Width(v.width - 4)

	var blocks []string
	for _, e := range v.history {
		var label lipgloss.Style
		var name string
		switch e.role {
		case roleUser:
			label, name = lipgloss.NewStyle().Foreground(t.Primary).Bold(true), "You"
		case roleError:
			label, name = lipgloss.NewStyle().Foreground(t.Error).Bold(true), "Assistant"
		default:
			label, name = lipgloss.NewStyle().Foreground(t.Success).Bold(true), "Assistant"
		}
		blocks = append(blocks, label.Render(name)+"\n"+wrap.Render(e.text))
	}
	if v.waiting {
		blocks = append(blocks, lipgloss.NewStyle().Foreground(t.Subtle).Italic(true).Render("Thinking..."))
	}
	v.viewport.SetContent(strings.Join(blocks, "\n\n"))
	v.viewport.GotoBottom()
}

// View renders the chat
func (v AssistantView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}
	styles := theme.Current.Styles

	body := v.viewport.View()
	if len(v.history) == 0 && !v.waiting {
		body = styles.Placeholder.Italic(true).Render("Ask a study question. Press i to type, esc to leave the prompt.")
	}

	input := styles.Input
	if v.input.Focused() {
		input = styles.InputFocused
	}
	return strings.Join([]string{
		styles.Title.Render("Study Assistant"),
		body,
		input.Render(v.input.View()),
	}, "\n")
}

// IsInputMode returns whether the view is in input mode
func (v AssistantView) IsInputMode() bool {
	return v.input.Focused()
}
