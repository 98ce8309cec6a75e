package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/zenith/internal/calendar"
	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/store"
	"github.com/dori/zenith/internal/ui/theme"
)

// TaskFilter narrows the task list
type TaskFilter int

const (
	FilterAll TaskFilter = iota
	FilterPending
	FilterCompleted
)

func (f TaskFilter) String() string {
	switch f {
	case FilterPending:
		return "pending"
	case FilterCompleted:
		return "completed"
	default:
		return "all"
	}
}

// Matches reports whether the task passes the filter
func (f TaskFilter) Matches(t model.Task) bool {
	switch f {
	case FilterPending:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	}
	return true
}

type taskInputMode int

const (
	taskInputNone taskInputMode = iota
	taskInputAdd
	taskInputEdit
	taskInputDate
)

// TasksView is the to-do list
type TasksView struct {
	store  *store.Store
	width  int
	height int

	tasks    []model.Task
	subjects []model.Subject
	filter   TaskFilter
	cursor   int

	mode      taskInputMode
	editingID string
	input     textinput.Model
}

// NewTasksView creates a new task list view
func NewTasksView(st *store.Store) TasksView {
	ti := textinput.New()
	ti.Placeholder = "New task..."
	ti.CharLimit = 500

	v := TasksView{store: st, input: ti}
	v.reload()
	return v
}

// Init initializes the view
func (v TasksView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v TasksView) SetSize(width, height int) TasksView {
	v.width = width
	v.height = height
	v.input.Width = width - 8
	return v
}

func (v *TasksView) reload() {
	v.tasks = nil
	for _, t := range v.store.Tasks() {
		if v.filter.Matches(t) {
			v.tasks = append(v.tasks, t)
		}
	}
	v.subjects = v.store.Subjects()
	v.cursor = clampCursor(v.cursor, len(v.tasks))
}

func (v TasksView) selected() (model.Task, bool) {
	if len(v.tasks) == 0 {
		return model.Task{}, false
	}
	return v.tasks[v.cursor], true
}

// Update handles messages
func (v TasksView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StoreChangedMsg:
		if msg.Change.Collection != store.CollectionFolders {
			v.reload()
		}
		return v, nil

	case tea.KeyMsg:
		if v.mode != taskInputNone {
			return v.updateInput(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v TasksView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		v.cursor = clampCursor(v.cursor+1, len(v.tasks))
	case "k", "up":
		v.cursor = clampCursor(v.cursor-1, len(v.tasks))
	case "g":
		v.cursor = 0
	case "G":
		v.cursor = clampCursor(len(v.tasks)-1, len(v.tasks))

	case "f":
		v.filter = (v.filter + 1) % 3
		v.reload()
		return v, statusCmd("Showing %s tasks", v.filter)

	case "a":
		return v.startInput(taskInputAdd, "", "New task...")

	case "e", "enter":
		if t, ok := v.selected(); ok {
			v.editingID = t.ID
			return v.startInput(taskInputEdit, t.Text, "Task text")
		}

	case "D":
		if t, ok := v.selected(); ok {
			v.editingID = t.ID
			current := ""
			if t.Date != nil {
				current = t.Date.Format("2006-01-02")
			}
			return v.startInput(taskInputDate, current, "YYYY-MM-DD, today, tomorrow or empty to clear")
		}

	case " ", "tab":
		if t, ok := v.selected(); ok {
			_, err := v.store.ToggleTask(t.ID)
			v.reload()
			return v, errorCmd(err)
		}

	case "t":
		if t, ok := v.selected(); ok {
			return v, v.cycleSubject(t)
		}

	case "d":
		if t, ok := v.selected(); ok {
			_, err := v.store.DeleteTask(t.ID)
			v.reload()
			if err != nil {
				return v, errorCmd(err)
			}
			return v, statusCmd("Deleted %q", truncate(t.Text, 40))
		}

	case "C":
		n, err := v.store.ClearCompleted()
		v.reload()
		if err != nil {
			return v, errorCmd(err)
		}
		return v, statusCmd("Cleared %d completed task(s)", n)
	}
	return v, nil
}

// cycleSubject tags the task with the next subject, then none
func (v *TasksView) cycleSubject(t model.Task) tea.Cmd {
	next := -1
	for i, sub := range v.subjects {
		if t.SubjectID != nil && sub.ID == *t.SubjectID {
			next = i + 1
			break
		}
	}
	if t.SubjectID == nil {
		next = 0
	}

	var patch model.TaskPatch
	if next < 0 || next >= len(v.subjects) {
		patch.ClearSubject = true
	} else {
		id := v.subjects[next].ID
		patch.SubjectID = &id
	}
	_, err := v.store.EditTask(t.ID, patch)
	v.reload()
	return errorCmd(err)
}

func (v TasksView) startInput(mode taskInputMode, value, placeholder string) (tea.Model, tea.Cmd) {
	v.mode = mode
	v.input.SetValue(value)
	v.input.Placeholder = placeholder
	v.input.CursorEnd()
	v.input.Focus()
	return v, textinput.Blink
}

func (v TasksView) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.mode = taskInputNone
		v.input.Blur()
		return v, nil

	case "enter":
		value := v.input.Value()
		mode := v.mode
		v.mode = taskInputNone
		v.input.Blur()
		cmd := v.submit(mode, value)
		v.reload()
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *TasksView) submit(mode taskInputMode, value string) tea.Cmd {
	switch mode {
	case taskInputAdd:
		task, err := v.store.AddTask(value, nil, nil)
		if err != nil {
			return errorCmd(err)
		}
		if task == nil {
			return nil
		}
		v.cursor = 0
		return statusCmd("Added %q", truncate(task.Text, 40))

	case taskInputEdit:
		_, err := v.store.EditTask(v.editingID, model.TaskPatch{Text: &value})
		return errorCmd(err)

	case taskInputDate:
		var patch model.TaskPatch
		day, err := calendar.ParseDay(value, time.Now())
		if err != nil {
			return errorCmd(err)
		}
		if day == nil {
			patch.ClearDate = true
		} else {
			patch.Date = day
		}
		_, err = v.store.EditTask(v.editingID, patch)
		return errorCmd(err)
	}
	return nil
}

// View renders the task list
func (v TasksView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}

	t := theme.Current.Theme
	styles := theme.Current.Styles
	now := time.Now()

	var lines []string
	pending := 0
	for _, task := range v.store.Tasks() {
		if !task.Completed {
			pending++
		}
	}
	lines = append(lines, styles.Title.Render(fmt.Sprintf("Tasks (%d pending) [%s]", pending, v.filter)))

	if v.mode != taskInputNone {
		lines = append(lines, styles.InputFocused.Render(v.input.View()))
	}

	if len(v.tasks) == 0 {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(t.Subtle).
			Italic(true).
			Render("No tasks. Press a to add one."))
		return strings.Join(lines, "\n")
	}

	maxRows := v.height - len(lines) - 1
	if maxRows < 1 {
		maxRows = 1
	}
	start := 0
	if v.cursor >= maxRows {
		start = v.cursor - maxRows + 1
	}

	for i := start; i < len(v.tasks) && i < start+maxRows; i++ {
		lines = append(lines, v.renderTask(v.tasks[i], i == v.cursor, now))
	}
	return strings.Join(lines, "\n")
}

func (v TasksView) renderTask(task model.Task, selected bool, now time.Time) string {
	styles := theme.Current.Styles

	checkbox := "☐"
	if task.Completed {
		checkbox = "☑"
	}
	cursor := "  "
	if selected {
		cursor = "> "
	}

	textStyle := styles.ItemNormal
	switch {
	case task.Completed:
		textStyle = styles.ItemDone
	case task.IsOverdue(now):
		textStyle = styles.ItemOverdue
	}
	if selected {
		textStyle = textStyle.Background(theme.Current.Theme.Highlight).Bold(true)
	}

	parts := []string{cursor + checkbox, textStyle.Render(truncate(task.Text, v.width-30))}
	if task.Date != nil {
		parts = append(parts, styles.DueDate.Render(task.Date.Format("Jan 2")))
	}
	if sub, ok := v.store.LookupSubject(task.SubjectID); ok {
		parts = append(parts, subjectBadge(sub.Name, sub.Color))
	}
	return strings.Join(parts, " ")
}

// IsInputMode returns whether the view is in input mode
func (v TasksView) IsInputMode() bool {
	return v.mode != taskInputNone
}
