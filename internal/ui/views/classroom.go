package views

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/store"
	"github.com/dori/zenith/internal/ui/theme"
)

type classroomInput int

const (
	classroomInputNone classroomInput = iota
	classroomInputFolder
	classroomInputRename
	classroomInputImport
)

// ClassroomView manages folders of study material stored inline
type ClassroomView struct {
	store     *store.Store
	maxBytes  int64
	exportDir string
	width     int
	height    int

	folders      []model.Folder
	focusFiles   bool
	folderCursor int
	fileCursor   int

	mode  classroomInput
	input textinput.Model
}

// NewClassroomView creates a new classroom view. Imported files larger than
// maxBytes are refused; exports are written to exportDir.
func NewClassroomView(st *store.Store, maxBytes int64, exportDir string) ClassroomView {
	ti := textinput.New()
	ti.CharLimit = 1024

	v := ClassroomView{store: st, maxBytes: maxBytes, exportDir: exportDir, input: ti}
	v.reload()
	return v
}

// Init initializes the view
func (v ClassroomView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v ClassroomView) SetSize(width, height int) ClassroomView {
	v.width = width
	v.height = height
	v.input.Width = width - 8
	return v
}

func (v *ClassroomView) reload() {
	v.folders = v.store.Folders()
	v.folderCursor = clampCursor(v.folderCursor, len(v.folders))
	if f, ok := v.folder(); ok {
		v.fileCursor = clampCursor(v.fileCursor, len(f.Files))
	}
}

func (v ClassroomView) folder() (model.Folder, bool) {
	if len(v.folders) == 0 {
		return model.Folder{}, false
	}
	return v.folders[v.folderCursor], true
}

func (v ClassroomView) file() (model.Folder, model.FileItem, bool) {
	f, ok := v.folder()
	if !ok || len(f.Files) == 0 {
		return f, model.FileItem{}, false
	}
	return f, f.Files[v.fileCursor], true
}

// Update handles messages
func (v ClassroomView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StoreChangedMsg:
		if msg.Change.Collection != store.CollectionTasks {
			v.reload()
		}
		return v, nil

	case tea.KeyMsg:
		if v.mode != classroomInputNone {
			return v.updateInput(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v ClassroomView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		v.focusFiles = false
	case "l", "right", "enter":
		v.focusFiles = true

	case "j", "down":
		v.move(1)
	case "k", "up":
		v.move(-1)

	case "a":
		return v.startInput(classroomInputFolder, "", "New folder...")
	case "r":
		if f, ok := v.folder(); ok {
			return v.startInput(classroomInputRename, f.Name, "Folder name")
		}
	case "i":
		return v.startInput(classroomInputImport, "", "Path of the file to import")

	case "x":
		if _, file, ok := v.file(); ok {
			return v, v.export(file)
		}

	case "t":
		if f, file, ok := v.file(); ok {
			return v, v.cycleTag(f, file)
		}

	case "d":
		if v.focusFiles {
			if f, file, ok := v.file(); ok {
				_, err := v.store.DeleteFile(f.ID, file.ID)
				v.reload()
				return v, errorCmd(err)
			}
			return v, nil
		}
		if f, ok := v.folder(); ok {
			deleted, err := v.store.DeleteFolder(f.ID)
			v.reload()
			if err != nil {
				return v, errorCmd(err)
			}
			if !deleted {
				return v, statusCmd("The last folder cannot be deleted")
			}
			return v, statusCmd("Deleted folder %q", f.Name)
		}
	}
	return v, nil
}

func (v *ClassroomView) move(delta int) {
	if !v.focusFiles {
		v.folderCursor = clampCursor(v.folderCursor+delta, len(v.folders))
		v.fileCursor = 0
		return
	}
	if f, ok := v.folder(); ok {
		v.fileCursor = clampCursor(v.fileCursor+delta, len(f.Files))
	}
}

// cycleTag moves the file's subject tag to the next subject, then none
func (v *ClassroomView) cycleTag(f model.Folder, file model.FileItem) tea.Cmd {
	subjects := v.store.Subjects()
	next := 0
	if file.SubjectTagID != nil {
		next = len(subjects)
		for i, sub := range subjects {
			if sub.ID == *file.SubjectTagID {
				next = i + 1
				break
			}
		}
	}

	var tag *string
	if next < len(subjects) {
		tag = &subjects[next].ID
	}
	_, err := v.store.TagFile(f.ID, file.ID, tag)
	v.reload()
	return errorCmd(err)
}

// export writes the decoded file into the export directory
func (v ClassroomView) export(file model.FileItem) tea.Cmd {
	return func() tea.Msg {
		_, data, err := model.DecodeDataURL(file.DataURL)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		if err := os.MkdirAll(v.exportDir, 0755); err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to create export directory: %w", err)}
		}
		path := filepath.Join(v.exportDir, filepath.Base(file.Name))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to export file: %w", err)}
		}
		return StatusMsg{Message: "Exported to " + path}
	}
}

// importFile reads a local file into the selected folder
func (v *ClassroomView) importFile(path string) tea.Cmd {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	f, ok := v.folder()
	if !ok {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return errorCmd(err)
	}
	if v.maxBytes > 0 && info.Size() > v.maxBytes {
		return errorCmd(fmt.Errorf("%s is larger than %d bytes", filepath.Base(path), v.maxBytes))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errorCmd(err)
	}

	file, err := v.store.AddFile(f.ID, filepath.Base(path), http.DetectContentType(data), data)
	if err != nil {
		return errorCmd(err)
	}
	if file == nil {
		return nil
	}
	v.focusFiles = true
	v.fileCursor = len(f.Files)
	return statusCmd("Imported %s", file.Name)
}

func (v ClassroomView) startInput(mode classroomInput, value, placeholder string) (tea.Model, tea.Cmd) {
	v.mode = mode
	v.input.SetValue(value)
	v.input.Placeholder = placeholder
	v.input.CursorEnd()
	v.input.Focus()
	return v, textinput.Blink
}

func (v ClassroomView) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.mode = classroomInputNone
		v.input.Blur()
		return v, nil

	case "enter":
		mode := v.mode
		value := v.input.Value()
		v.mode = classroomInputNone
		v.input.Blur()

		var cmd tea.Cmd
		switch mode {
		case classroomInputFolder:
			created, err := v.store.AddFolder(value)
			if created != nil {
				v.folderCursor = len(v.folders)
			}
			cmd = errorCmd(err)
		case classroomInputRename:
			if f, ok := v.folder(); ok {
				_, err := v.store.RenameFolder(f.ID, value)
				cmd = errorCmd(err)
			}
		case classroomInputImport:
			cmd = v.importFile(value)
		}
		v.reload()
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// View renders the classroom
func (v ClassroomView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}

	styles := theme.Current.Styles
	header := []string{styles.Title.Render("Classroom")}
	if v.mode != classroomInputNone {
		header = append(header, styles.InputFocused.Render(v.input.View()))
	}

	leftWidth := 30
	rightWidth := v.width - leftWidth - 6
	panels := lipgloss.JoinHorizontal(lipgloss.Top, v.renderFolders(leftWidth), v.renderFiles(rightWidth))
	return strings.Join(append(header, panels), "\n")
}

func (v ClassroomView) renderFolders(width int) string {
	styles := theme.Current.Styles
	box := styles.PanelFocused
	if v.focusFiles {
		box = styles.Panel
	}

	lines := []string{styles.PanelTitle.Render("Folders")}
	for i, f := range v.folders {
		style := styles.ItemNormal
		marker := "  "
		if i == v.folderCursor {
			style = styles.ItemSelected
			marker = "> "
		}
		lines = append(lines, marker+style.Render(fmt.Sprintf("%s (%d)", truncate(f.Name, width-12), len(f.Files))))
	}
	return box.Width(width).Render(strings.Join(lines, "\n"))
}

func (v ClassroomView) renderFiles(width int) string {
	t := theme.Current.Theme
	styles := theme.Current.Styles
	box := styles.Panel
	if v.focusFiles {
		box = styles.PanelFocused
	}

	f, ok := v.folder()
	if !ok {
		return box.Width(width).Render(styles.PanelTitle.Render("Files"))
	}

	lines := []string{styles.PanelTitle.Render(f.Name)}
	if len(f.Files) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Subtle).Italic(true).Render("No files. Press i to import one."))
	}
	for i, file := range f.Files {
		style := styles.ItemNormal
		marker := "  "
		if v.focusFiles && i == v.fileCursor {
			style = styles.ItemSelected
			marker = "> "
		}
		line := marker + style.Render(truncate(file.Name, width-20))
		if sub, ok := v.store.LookupSubject(file.SubjectTagID); ok {
			line += " " + subjectBadge(sub.Name, sub.Color)
		}
		lines = append(lines, line)
	}
	return box.Width(width).Render(strings.Join(lines, "\n"))
}

// IsInputMode returns whether the view is in input mode
func (v ClassroomView) IsInputMode() bool {
	return v.mode != classroomInputNone
}
