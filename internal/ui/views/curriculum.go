package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/store"
	"github.com/dori/zenith/internal/ui/theme"
)

type curriculumPane int

const (
	paneSubjects curriculumPane = iota
	paneChapters
)

type curriculumInput int

const (
	curriculumInputNone curriculumInput = iota
	curriculumInputAdd
	curriculumInputRename
)

// CurriculumView lists subjects with their chapters and progress
type CurriculumView struct {
	store  *store.Store
	width  int
	height int

	subjects      []model.Subject
	pane          curriculumPane
	subjectCursor int
	chapterCursor int

	mode  curriculumInput
	input textinput.Model
}

// NewCurriculumView creates a new curriculum view
func NewCurriculumView(st *store.Store) CurriculumView {
	ti := textinput.New()
	ti.CharLimit = 200

	v := CurriculumView{store: st, input: ti}
	v.reload()
	return v
}

// Init initializes the view
func (v CurriculumView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v CurriculumView) SetSize(width, height int) CurriculumView {
	v.width = width
	v.height = height
	v.input.Width = width - 8
	return v
}

func (v *CurriculumView) reload() {
	v.subjects = v.store.Subjects()
	v.subjectCursor = clampCursor(v.subjectCursor, len(v.subjects))
	if sub, ok := v.subject(); ok {
		v.chapterCursor = clampCursor(v.chapterCursor, len(sub.Chapters))
	} else {
		v.chapterCursor = 0
		v.pane = paneSubjects
	}
}

func (v CurriculumView) subject() (model.Subject, bool) {
	if len(v.subjects) == 0 {
		return model.Subject{}, false
	}
	return v.subjects[v.subjectCursor], true
}

func (v CurriculumView) chapter() (model.Subject, model.Chapter, bool) {
	sub, ok := v.subject()
	if !ok || len(sub.Chapters) == 0 {
		return sub, model.Chapter{}, false
	}
	return sub, sub.Chapters[v.chapterCursor], true
}

// Update handles messages
func (v CurriculumView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StoreChangedMsg:
		if msg.Change.Collection == store.CollectionSubjects {
			v.reload()
		}
		return v, nil

	case tea.KeyMsg:
		if v.mode != curriculumInputNone {
			return v.updateInput(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v CurriculumView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		v.pane = paneSubjects
	case "l", "right":
		if _, ok := v.subject(); ok {
			v.pane = paneChapters
		}

	case "j", "down":
		v.move(1)
	case "k", "up":
		v.move(-1)

	case "a":
		placeholder := "New subject..."
		if v.pane == paneChapters {
			placeholder = "New chapter..."
		}
		return v.startInput(curriculumInputAdd, "", placeholder)

	case "r":
		if v.pane == paneChapters {
			if _, c, ok := v.chapter(); ok {
				return v.startInput(curriculumInputRename, c.Name, "Chapter name")
			}
		} else if sub, ok := v.subject(); ok {
			return v.startInput(curriculumInputRename, sub.Name, "Subject name")
		}

	case " ", "enter", "tab":
		if v.pane == paneSubjects {
			if _, ok := v.subject(); ok {
				v.pane = paneChapters
			}
			return v, nil
		}
		if sub, c, ok := v.chapter(); ok {
			_, err := v.store.ToggleChapter(sub.ID, c.ID)
			v.reload()
			return v, errorCmd(err)
		}

	case "c":
		if sub, ok := v.subject(); ok {
			_, err := v.store.RecolorSubject(sub.ID, nextColor(sub.Color))
			v.reload()
			return v, errorCmd(err)
		}

	case "d":
		return v.delete()
	}
	return v, nil
}

func (v *CurriculumView) move(delta int) {
	if v.pane == paneSubjects {
		v.subjectCursor = clampCursor(v.subjectCursor+delta, len(v.subjects))
		v.chapterCursor = 0
		return
	}
	if sub, ok := v.subject(); ok {
		v.chapterCursor = clampCursor(v.chapterCursor+delta, len(sub.Chapters))
	}
}

func (v CurriculumView) delete() (tea.Model, tea.Cmd) {
	if v.pane == paneChapters {
		sub, c, ok := v.chapter()
		if !ok {
			return v, nil
		}
		_, err := v.store.DeleteChapter(sub.ID, c.ID)
		v.reload()
		return v, errorCmd(err)
	}
	sub, ok := v.subject()
	if !ok {
		return v, nil
	}
	_, err := v.store.DeleteSubject(sub.ID)
	v.reload()
	if err != nil {
		return v, errorCmd(err)
	}
	return v, statusCmd("Deleted subject %q", sub.Name)
}

// nextColor returns the palette color after current
func nextColor(current string) string {
	for i, c := range model.Palette {
		if strings.EqualFold(c, current) {
			return model.PaletteColor(i + 1)
		}
	}
	return model.PaletteColor(0)
}

func (v CurriculumView) startInput(mode curriculumInput, value, placeholder string) (tea.Model, tea.Cmd) {
	v.mode = mode
	v.input.SetValue(value)
	v.input.Placeholder = placeholder
	v.input.CursorEnd()
	v.input.Focus()
	return v, textinput.Blink
}

func (v CurriculumView) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.mode = curriculumInputNone
		v.input.Blur()
		return v, nil

	case "enter":
		mode := v.mode
		value := v.input.Value()
		v.mode = curriculumInputNone
		v.input.Blur()
		cmd := v.submit(mode, value)
		v.reload()
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *CurriculumView) submit(mode curriculumInput, value string) tea.Cmd {
	sub, hasSubject := v.subject()
	switch {
	case mode == curriculumInputAdd && v.pane == paneSubjects:
		created, err := v.store.AddSubject(value)
		if created != nil {
			v.subjectCursor = len(v.subjects)
		}
		return errorCmd(err)

	case mode == curriculumInputAdd && hasSubject:
		created, err := v.store.AddChapter(sub.ID, value)
		if created != nil {
			v.chapterCursor = len(sub.Chapters)
		}
		return errorCmd(err)

	case mode == curriculumInputRename && v.pane == paneChapters:
		if _, c, ok := v.chapter(); ok {
			_, err := v.store.RenameChapter(sub.ID, c.ID, value)
			return errorCmd(err)
		}

	case mode == curriculumInputRename && hasSubject:
		_, err := v.store.RenameSubject(sub.ID, value)
		return errorCmd(err)
	}
	return nil
}

// View renders the curriculum
func (v CurriculumView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}

	styles := theme.Current.Styles
	var header []string
	header = append(header, styles.Title.Render("Curriculum"))
	if v.mode != curriculumInputNone {
		header = append(header, styles.InputFocused.Render(v.input.View()))
	}

	leftWidth := v.width / 2
	if leftWidth > 44 {
		leftWidth = 44
	}
	rightWidth := v.width - leftWidth - 6

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		v.renderSubjects(leftWidth),
		v.renderChapters(rightWidth),
	)
	return strings.Join(append(header, panels), "\n")
}

func (v CurriculumView) renderSubjects(width int) string {
	t := theme.Current.Theme
	styles := theme.Current.Styles

	box := styles.Panel
	if v.pane == paneSubjects {
		box = styles.PanelFocused
	}

	lines := []string{styles.PanelTitle.Render("Subjects")}
	if len(v.subjects) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Subtle).Italic(true).Render("No subjects. Press a to add one."))
	}
	for i, sub := range v.subjects {
		marker := "  "
		if i == v.subjectCursor {
			marker = "> "
		}
		name := lipgloss.NewStyle().Foreground(lipgloss.Color(sub.Color)).Bold(i == v.subjectCursor).
			Render(truncate(sub.Name, width-16))
		lines = append(lines, fmt.Sprintf("%s%s %5.1f%%", marker, name, sub.Progress()))
		lines = append(lines, "  "+progressBar(sub.Progress()/100, width-6, lipgloss.Color(sub.Color)))
	}
	return box.Width(width).Render(strings.Join(lines, "\n"))
}

func (v CurriculumView) renderChapters(width int) string {
	t := theme.Current.Theme
	styles := theme.Current.Styles

	box := styles.Panel
	if v.pane == paneChapters {
		box = styles.PanelFocused
	}

	sub, ok := v.subject()
	if !ok {
		return box.Width(width).Render(styles.PanelTitle.Render("Chapters"))
	}

	lines := []string{styles.PanelTitle.Render(fmt.Sprintf("%s · %d/%d chapters",
		sub.Name, sub.CompletedChapters(), len(sub.Chapters)))}
	if len(sub.Chapters) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Subtle).Italic(true).Render("No chapters yet."))
	}
	for i, c := range sub.Chapters {
		checkbox := "☐"
		style := styles.ItemNormal
		if c.Completed {
			checkbox = "☑"
			style = styles.ItemDone
		}
		marker := "  "
		if v.pane == paneChapters && i == v.chapterCursor {
			marker = "> "
			style = style.Background(t.Highlight).Bold(true)
		}
		lines = append(lines, fmt.Sprintf("%s%s %s", marker, checkbox, style.Render(truncate(c.Name, width-8))))
	}
	return box.Width(width).Render(strings.Join(lines, "\n"))
}

// IsInputMode returns whether the view is in input mode
func (v CurriculumView) IsInputMode() bool {
	return v.mode != curriculumInputNone
}
