package views

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/store"
	"github.com/dori/zenith/internal/timer"
	"github.com/dori/zenith/internal/ui/theme"
)

// History is the session log read by the stats view
type History interface {
	RecentSessions(limit int) ([]model.SessionLog, error)
	DailyStats(days int, now time.Time) ([]model.DayStat, error)
}

// TimePeriod represents a time range for stats
type TimePeriod int

const (
	PeriodWeek TimePeriod = iota
	PeriodMonth
)

// Days returns the length of the period
func (p TimePeriod) Days() int {
	if p == PeriodMonth {
		return 30
	}
	return 7
}

type statsLoadedMsg struct {
	days   []model.DayStat
	recent []model.SessionLog
	err    error
}

// StatsView shows focus history and study progress
type StatsView struct {
	history History
	store   *store.Store
	width   int
	height  int

	period TimePeriod
	days   []model.DayStat
	recent []model.SessionLog
	err    error
}

// NewStatsView creates a new stats view. history is nil when sessions are
// not recorded.
func NewStatsView(history History, st *store.Store) StatsView {
	return StatsView{history: history, store: st}
}

// Init initializes the stats view
func (v StatsView) Init() tea.Cmd {
	return v.loadStats()
}

// SetSize sets the view dimensions
func (v StatsView) SetSize(width, height int) StatsView {
	v.width = width
	v.height = height
	return v
}

func (v StatsView) loadStats() tea.Cmd {
	if v.history == nil {
		return nil
	}
	history, days := v.history, v.period.Days()
	return func() tea.Msg {
		stats, err := history.DailyStats(days, time.Now())
		if err != nil {
			return statsLoadedMsg{err: err}
		}
		recent, err := history.RecentSessions(8)
		return statsLoadedMsg{days: stats, recent: recent, err: err}
	}
}

// Update handles messages
func (v StatsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		v.err = msg.err
		if msg.err == nil {
			v.days = msg.days
			v.recent = msg.recent
		}
		return v, nil

	case TimerEventMsg:
		if msg.Event.Transition != nil {
			return v, v.loadStats()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "w":
			v.period = PeriodWeek
			return v, v.loadStats()
		case "m":
			v.period = PeriodMonth
			return v, v.loadStats()
		case "r":
			return v, v.loadStats()
		}
	}

	return v, nil
}

// summarize totals the loaded days and the current streak of days with at
// least one finished work session, counted back from today
func summarize(days []model.DayStat) (sessions, minutes, streak int) {
	for _, d := range days {
		sessions += d.Sessions
		minutes += d.Minutes
	}
	for i := len(days) - 1; i >= 0; i-- {
		if days[i].Sessions == 0 {
			break
		}
		streak++
	}
	return sessions, minutes, streak
}

// View renders the stats view
func (v StatsView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}

	t := theme.Current.Theme
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	sections = append(sections, titleStyle.Render(fmt.Sprintf("Statistics ─ last %d days", v.period.Days())), "")

	cardStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 2).
		Width(18)
	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(t.Subtle)
	card := func(value, label string) string {
		return cardStyle.Render(valueStyle.Render(value) + "\n" + labelStyle.Render(label))
	}

	sessions, minutes, streak := summarize(v.days)
	completed := 0
	for _, task := range v.store.Tasks() {
		if task.Completed {
			completed++
		}
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
		card(fmt.Sprintf("%d", sessions), "Pomodoros"),
		card(fmt.Sprintf("%dh %dm", minutes/60, minutes%60), "Focus Time"),
		card(fmt.Sprintf("%d days", streak), "Current Streak"),
		card(fmt.Sprintf("%d", completed), "Tasks Done"),
	), "")

	switch {
	case v.history == nil:
		sections = append(sections, lipgloss.NewStyle().Foreground(t.Subtle).Italic(true).
			Render("Session history is not recorded in ephemeral mode."))
	case v.err != nil:
		sections = append(sections, lipgloss.NewStyle().Foreground(t.Error).Render(v.err.Error()))
	default:
		sections = append(sections, v.renderActivityChart(), "", v.renderRecent())
	}

	if progress := v.store.Progress(); len(progress) > 0 {
		sections = append(sections, "", v.renderProgress(progress))
	}

	return strings.Join(sections, "\n")
}

// renderActivityChart renders focus minutes per day for the last week
func (v StatsView) renderActivityChart() string {
	t := theme.Current.Theme
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)

	days := v.days
	if len(days) > 7 {
		days = days[len(days)-7:]
	}

	lines := []string{headerStyle.Render("Focus minutes (last 7 days)")}

	maxMinutes := 1
	for _, d := range days {
		if d.Minutes > maxMinutes {
			maxMinutes = d.Minutes
		}
	}

	chartHeight := 5
	barWidth := 4
	for row := chartHeight; row >= 1; row-- {
		var rowStr strings.Builder
		threshold := float64(row) / float64(chartHeight)
		for i, d := range days {
			ratio := float64(d.Minutes) / float64(maxMinutes)
			switch {
			case ratio >= threshold:
				rowStr.WriteString(lipgloss.NewStyle().Foreground(t.Success).Render(strings.Repeat("█", barWidth)))
			case ratio >= threshold-0.2 && ratio > 0:
				rowStr.WriteString(lipgloss.NewStyle().Foreground(t.Info).Render(strings.Repeat("▄", barWidth)))
			default:
				rowStr.WriteString(strings.Repeat(" ", barWidth))
			}
			if i < len(days)-1 {
				rowStr.WriteString(" ")
			}
		}
		lines = append(lines, rowStr.String())
	}

	var labels, counts []string
	cell := lipgloss.NewStyle().Width(barWidth).Align(lipgloss.Center)
	for _, d := range days {
		label := d.Day
		if day, err := time.ParseInLocation("2006-01-02", d.Day, time.Local); err == nil {
			label = day.Format("Mon")
		}
		labels = append(labels, cell.Foreground(t.Subtle).Render(label))
		counts = append(counts, cell.Foreground(t.Foreground).Render(fmt.Sprintf("%d", d.Minutes)))
	}
	lines = append(lines, strings.Join(labels, " "), strings.Join(counts, " "))

	return strings.Join(lines, "\n")
}

func (v StatsView) renderRecent() string {
	t := theme.Current.Theme
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(t.Secondary).Render("Recent sessions")}
	if len(v.recent) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Subtle).Italic(true).Render("No sessions yet"))
	}
	for _, s := range v.recent {
		mode, err := timer.ParseMode(s.Mode)
		name := s.Mode
		if err == nil {
			name = mode.Title()
		}
		status := "finished"
		if s.Skipped {
			status = "skipped"
		}
		lines = append(lines, fmt.Sprintf("%s  %-12s %s of %s  %s",
			s.EndedAt.Local().Format("Jan 2 15:04"), name,
			FormatClock(s.ElapsedSeconds), FormatClock(s.PlannedSeconds), status))
	}
	return strings.Join(lines, "\n")
}

func (v StatsView) renderProgress(progress []store.SubjectProgress) string {
	t := theme.Current.Theme
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(t.Secondary).Render("Curriculum progress")}
	for _, p := range progress {
		lines = append(lines, fmt.Sprintf("%-16s %s %5.1f%% (%d/%d)",
			truncate(p.Name, 16), progressBar(p.Percent/100, 24, lipgloss.Color(p.Color)), p.Percent, p.Completed, p.Total))
	}
	return strings.Join(lines, "\n")
}

// IsInputMode returns whether the view is in input mode
func (v StatsView) IsInputMode() bool {
	return false
}
