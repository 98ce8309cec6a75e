// Package calendar holds read-only projections over the task list.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dori/zenith/internal/model"
)

// NoCalendarText is sent to the prioritizer when no dated tasks exist
const NoCalendarText = "No calendar connected. Current focus is on the task list."

// Month identifies a calendar month
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t
func MonthOf(t time.Time) Month {
	t = t.Local()
	return Month{Year: t.Year(), Month: t.Month()}
}

// First returns local midnight of the first day
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.Local)
}

// Next returns the following month
func (m Month) Next() Month {
	return MonthOf(m.First().AddDate(0, 1, 0))
}

// Prev returns the preceding month
func (m Month) Prev() Month {
	return MonthOf(m.First().AddDate(0, -1, 0))
}

// Days returns the number of days in the month
func (m Month) Days() int {
	return m.First().AddDate(0, 1, -1).Day()
}

func (m Month) String() string {
	return m.First().Format("January 2006")
}

// ByDay groups the month's dated tasks by day of month, keeping list order.
// Undated tasks and tasks in other months are skipped.
func ByDay(tasks []model.Task, m Month) map[int][]model.Task {
	out := make(map[int][]model.Task)
	for _, t := range tasks {
		if t.Date == nil {
			continue
		}
		d := t.Date.Local()
		if d.Year() != m.Year || d.Month() != m.Month {
			continue
		}
		out[d.Day()] = append(out[d.Day()], t)
	}
	return out
}

// Grid returns the month laid out in Sunday-first week rows. Cells outside
// the month are 0.
func Grid(m Month) [][7]int {
	offset := int(m.First().Weekday())
	days := m.Days()

	var weeks [][7]int
	var week [7]int
	col := offset
	for day := 1; day <= days; day++ {
		week[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

// OnDay returns tasks on the given calendar day
func OnDay(tasks []model.Task, day time.Time) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.IsOn(day) {
			out = append(out, t)
		}
	}
	return out
}

// Upcoming returns pending dated tasks from today on, soonest first
func Upcoming(tasks []model.Task, now time.Time) []model.Task {
	today := model.StartOfDay(now)
	var out []model.Task
	for _, t := range tasks {
		if t.Completed || t.Date == nil || model.StartOfDay(*t.Date).Before(today) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(*out[j].Date)
	})
	return out
}

// EventsText renders upcoming dated tasks for the prioritizer prompt
func EventsText(tasks []model.Task, now time.Time) string {
	upcoming := Upcoming(tasks, now)
	if len(upcoming) == 0 {
		return NoCalendarText
	}
	var b strings.Builder
	for i, t := range upcoming {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %s", t.Date.Local().Format("Mon Jan 2"), t.Text)
	}
	return b.String()
}

// TaskListText renders tasks as "- text (completed|pending)" lines
func TaskListText(tasks []model.Task) string {
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = fmt.Sprintf("- %s (%s)", t.Text, t.StatusLabel())
	}
	return strings.Join(lines, "\n")
}

// ParseDay reads a day typed by a person: YYYY-MM-DD, "today" or
// "tomorrow". Blank input means no date and returns nil.
func ParseDay(s string, now time.Time) (*time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	var day time.Time
	switch s {
	case "":
		return nil, nil
	case "today":
		day = model.StartOfDay(now)
	case "tomorrow":
		day = model.StartOfDay(now).AddDate(0, 0, 1)
	default:
		t, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
		}
		day = t
	}
	return &day, nil
}
