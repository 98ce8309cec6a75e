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

// CalendarView shows dated tasks on a month grid
type CalendarView struct {
	store  *store.Store
	width  int
	height int

	month       calendar.Month
	selectedDay int
	tasksByDay  map[int][]model.Task
	upcoming    []model.Task

	adding bool
	input  textinput.Model
}

// NewCalendarView creates a new calendar view
func NewCalendarView(st *store.Store) CalendarView {
	now := time.Now()
	ti := textinput.New()
	ti.Placeholder = "Task for this day..."
	ti.CharLimit = 500

	v := CalendarView{
		store:       st,
		month:       calendar.MonthOf(now),
		selectedDay: now.Day(),
		input:       ti,
	}
	v.reload()
	return v
}

// Init initializes the calendar view
func (v CalendarView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v CalendarView) SetSize(width, height int) CalendarView {
	v.width = width
	v.height = height
	return v
}

func (v *CalendarView) reload() {
	tasks := v.store.Tasks()
	v.tasksByDay = calendar.ByDay(tasks, v.month)
	v.upcoming = calendar.Upcoming(tasks, time.Now())
}

func (v CalendarView) selectedDate() time.Time {
	return time.Date(v.month.Year, v.month.Month, v.selectedDay, 0, 0, 0, 0, time.Local)
}

// Update handles messages
func (v CalendarView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StoreChangedMsg:
		if msg.Change.Collection == store.CollectionTasks {
			v.reload()
		}
		return v, nil

	case tea.KeyMsg:
		if v.adding {
			return v.updateInput(msg)
		}

		days := v.month.Days()
		switch msg.String() {
		case "h", "left":
			if v.selectedDay > 1 {
				v.selectedDay--
			}
		case "l", "right":
			if v.selectedDay < days {
				v.selectedDay++
			}
		case "k", "up":
			if v.selectedDay > 7 {
				v.selectedDay -= 7
			}
		case "j", "down":
			if v.selectedDay+7 <= days {
				v.selectedDay += 7
			}

		case "H", "pgup":
			v.month = v.month.Prev()
			v.clampSelectedDay()
			v.reload()
		case "L", "pgdown":
			v.month = v.month.Next()
			v.clampSelectedDay()
			v.reload()

		case "t":
			now := time.Now()
			v.month = calendar.MonthOf(now)
			v.selectedDay = now.Day()
			v.reload()

		case "g":
			v.selectedDay = 1
		case "G":
			v.selectedDay = days

		case "a":
			v.adding = true
			v.input.SetValue("")
			v.input.Focus()
			return v, textinput.Blink
		}
	}

	return v, nil
}

func (v CalendarView) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.adding = false
		v.input.Blur()
		return v, nil
	case "enter":
		v.adding = false
		v.input.Blur()
		day := v.selectedDate()
		task, err := v.store.AddTask(v.input.Value(), &day, nil)
		v.reload()
		if err != nil {
			return v, errorCmd(err)
		}
		if task != nil {
			return v, statusCmd("Added %q on %s", truncate(task.Text, 30), day.Format("Jan 2"))
		}
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// clampSelectedDay ensures selected day is valid for current month
func (v *CalendarView) clampSelectedDay() {
	if days := v.month.Days(); v.selectedDay > days {
		v.selectedDay = days
	}
}

// View renders the calendar
func (v CalendarView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}

	t := theme.Current.Theme

	calWidth := 28
	listWidth := v.width - calWidth - 6

	left := lipgloss.JoinVertical(lipgloss.Left,
		v.renderCalendar(calWidth),
		v.renderUpcoming(calWidth),
	)
	panels := lipgloss.JoinHorizontal(lipgloss.Top, left, v.renderTaskList(listWidth))

	var sections []string
	if v.adding {
		sections = append(sections, theme.Current.Styles.InputFocused.Render(v.input.View()))
	}
	sections = append(sections, panels)
	sections = append(sections, lipgloss.NewStyle().Foreground(t.Subtle).Render(
		"h/j/k/l: navigate days • H/L: change month • t: today • a: add task on day",
	))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderCalendar renders the month grid
func (v CalendarView) renderCalendar(width int) string {
	t := theme.Current.Theme

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		Width(width - 4).
		Align(lipgloss.Center)

	var lines []string
	lines = append(lines, headerStyle.Render(v.month.String()))
	lines = append(lines, lipgloss.NewStyle().Foreground(t.Subtle).Render("Su Mo Tu We Th Fr Sa"))

	now := time.Now()
	isCurrentMonth := calendar.MonthOf(now) == v.month

	for _, week := range calendar.Grid(v.month) {
		var cells []string
		for _, day := range week {
			if day == 0 {
				cells = append(cells, "   ")
				continue
			}
			style := lipgloss.NewStyle().Width(3)
			hasTasks := len(v.tasksByDay[day]) > 0
			if hasTasks {
				style = style.Foreground(t.Info)
			}
			if isCurrentMonth && day == now.Day() {
				style = style.Foreground(t.Primary).Underline(true)
			}
			if day == v.selectedDay {
				style = style.Background(t.Highlight).Bold(true)
			}

			label := fmt.Sprintf("%2d", day)
			if hasTasks {
				label += "•"
			}
			cells = append(cells, style.Render(label))
		}
		lines = append(lines, strings.Join(cells, ""))
	}

	return theme.Current.Styles.Panel.Render(strings.Join(lines, "\n"))
}

// renderUpcoming lists the next pending dated tasks
func (v CalendarView) renderUpcoming(width int) string {
	t := theme.Current.Theme
	styles := theme.Current.Styles

	lines := []string{styles.PanelTitle.Render("Upcoming")}
	if len(v.upcoming) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Subtle).Italic(true).Render("Nothing scheduled"))
	}
	for i, task := range v.upcoming {
		if i == 5 {
			lines = append(lines, lipgloss.NewStyle().Foreground(t.Subtle).
				Render(fmt.Sprintf("... +%d more", len(v.upcoming)-5)))
			break
		}
		lines = append(lines, styles.DueDate.Render(task.Date.Format("Jan 2"))+" "+truncate(task.Text, width-12))
	}
	return styles.Panel.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// renderTaskList renders the tasks of the selected day
func (v CalendarView) renderTaskList(width int) string {
	t := theme.Current.Theme
	styles := theme.Current.Styles

	lines := []string{styles.PanelTitle.Render(v.selectedDate().Format("Monday, January 2")), ""}

	tasks := v.tasksByDay[v.selectedDay]
	if len(tasks) == 0 {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(t.Subtle).
			Italic(true).
			Render("No tasks on this day"))
	}
	for _, task := range tasks {
		checkbox := "☐"
		style := styles.ItemNormal
		if task.Completed {
			checkbox = "☑"
			style = styles.ItemDone
		}
		line := fmt.Sprintf("%s %s", checkbox, style.Render(truncate(task.Text, width-12)))
		if sub, ok := v.store.LookupSubject(task.SubjectID); ok {
			line += " " + subjectBadge(sub.Name, sub.Color)
		}
		lines = append(lines, line)
	}

	return styles.Panel.Width(width).Render(strings.Join(lines, "\n"))
}

// IsInputMode returns whether the view is in input mode
func (v CalendarView) IsInputMode() bool {
	return v.adding
}
