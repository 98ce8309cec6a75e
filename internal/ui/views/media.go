package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/zenith/internal/media"
	"github.com/dori/zenith/internal/music"
	"github.com/dori/zenith/internal/ui/theme"
)

const musicCallTimeout = 10 * time.Second

// MusicPlayer is the music account the media view controls
type MusicPlayer interface {
	music.MusicPlaybackProvider
	Configured() bool
	Authenticated() bool
}

type playbackMsg struct {
	playback *music.Playback
	err      error
}

// MediaView shows the video player embed and the music controls
type MediaView struct {
	embed     *media.Embed
	saveEmbed func() error
	music     MusicPlayer
	width     int
	height    int

	presetCursor int
	playback     *music.Playback
	musicErr     error

	editing bool
	input   textinput.Model
}

// NewMediaView creates a new media view. music may be nil.
func NewMediaView(embed *media.Embed, saveEmbed func() error, player MusicPlayer) MediaView {
	ti := textinput.New()
	ti.Placeholder = "YouTube video or playlist link"
	ti.CharLimit = 1024

	return MediaView{embed: embed, saveEmbed: saveEmbed, music: player, input: ti}
}

func (v MediaView) musicReady() bool {
	return v.music != nil && v.music.Configured() && v.music.Authenticated()
}

// Init loads the current playback when an account is connected
func (v MediaView) Init() tea.Cmd {
	if !v.musicReady() {
		return nil
	}
	return v.refresh()
}

// SetSize sets the view dimensions
func (v MediaView) SetSize(width, height int) MediaView {
	v.width = width
	v.height = height
	v.input.Width = width - 8
	return v
}

func (v MediaView) refresh() tea.Cmd {
	player := v.music
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), musicCallTimeout)
		defer cancel()
		p, err := player.Current(ctx)
		return playbackMsg{playback: p, err: err}
	}
}

// control runs a playback command and then reloads the current track
func (v MediaView) control(fn func(music.MusicPlaybackProvider, context.Context) error) tea.Cmd {
	player := v.music
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), musicCallTimeout)
		defer cancel()
		if err := fn(player, ctx); err != nil {
			return playbackMsg{err: err}
		}
		p, err := player.Current(ctx)
		return playbackMsg{playback: p, err: err}
	}
}

// Update handles messages
func (v MediaView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case playbackMsg:
		v.musicErr = msg.err
		if msg.err == nil {
			v.playback = msg.playback
		}
		return v, nil

	case tea.KeyMsg:
		if v.editing {
			return v.updateInput(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v MediaView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		v.presetCursor = clampCursor(v.presetCursor+1, len(media.Presets))
	case "k", "up":
		v.presetCursor = clampCursor(v.presetCursor-1, len(media.Presets))

	case "enter":
		track, ok := v.embed.Select(media.Presets[v.presetCursor].ID)
		if !ok {
			return v, nil
		}
		return v, tea.Batch(v.persist(), statusCmd("Now showing %s", track.Title))

	case "u":
		v.editing = true
		v.input.SetValue("")
		v.input.Focus()
		return v, textinput.Blink
	}

	if !v.musicReady() {
		return v, nil
	}
	switch msg.String() {
	case "p", " ":
		if v.playback != nil && v.playback.IsPlaying {
			return v, v.control(music.MusicPlaybackProvider.Pause)
		}
		return v, v.control(music.MusicPlaybackProvider.Play)
	case "n":
		return v, v.control(music.MusicPlaybackProvider.Next)
	case "b":
		return v, v.control(music.MusicPlaybackProvider.Previous)
	case "c":
		return v, v.refresh()
	}
	return v, nil
}

func (v MediaView) persist() tea.Cmd {
	if v.saveEmbed == nil {
		return nil
	}
	return errorCmd(v.saveEmbed())
}

func (v MediaView) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.editing = false
		v.input.Blur()
		return v, nil
	case "enter":
		v.editing = false
		v.input.Blur()
		if _, changed := v.embed.Load(v.input.Value()); !changed {
			return v, statusCmd("Not a YouTube video or playlist link, keeping the current player")
		}
		return v, tea.Batch(v.persist(), statusCmd("Player updated"))
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// View renders the media panel
func (v MediaView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}

	styles := theme.Current.Styles
	sections := []string{styles.Title.Render("Media")}
	if v.editing {
		sections = append(sections, styles.InputFocused.Render(v.input.View()))
	}
	sections = append(sections, v.renderPlayer(), v.renderMusic())
	return strings.Join(sections, "\n")
}

func (v MediaView) renderPlayer() string {
	t := theme.Current.Theme
	styles := theme.Current.Styles

	current := v.embed.Current()
	lines := []string{
		styles.PanelTitle.Render("Video player"),
		lipgloss.NewStyle().Foreground(t.Info).Render(truncate(current, v.width-8)),
		"",
	}
	for i, track := range media.Presets {
		marker := "  "
		style := styles.ItemNormal
		if i == v.presetCursor {
			marker = "> "
			style = styles.ItemSelected
		}
		if track.EmbedURL == current {
			marker = strings.Replace(marker, " ", "♪", 1)
		}
		lines = append(lines, marker+style.Render(fmt.Sprintf("%d. %s", i+1, track.Title)))
	}
	return styles.Panel.Width(v.width - 4).Render(strings.Join(lines, "\n"))
}

func (v MediaView) renderMusic() string {
	t := theme.Current.Theme
	styles := theme.Current.Styles
	subtle := lipgloss.NewStyle().Foreground(t.Subtle).Italic(true)

	lines := []string{styles.PanelTitle.Render("Spotify")}
	switch {
	case v.music == nil || !v.music.Configured():
		lines = append(lines, subtle.Render("Not configured. Set spotify.client_id and spotify.client_secret."))
	case !v.music.Authenticated():
		lines = append(lines, subtle.Render("Not connected. Run `zenith spotify login` to connect your account."))
	case v.musicErr != nil:
		msg := v.musicErr.Error()
		if errors.Is(v.musicErr, music.ErrNotAuthenticated) {
			msg = "Session expired. Run `zenith spotify login` again."
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Error).Render(msg))
	case v.playback == nil:
		lines = append(lines, subtle.Render("Nothing playing"))
	default:
		p := v.playback
		state := "⏸"
		if p.IsPlaying {
			state = "▶"
		}
		lines = append(lines,
			lipgloss.NewStyle().Bold(true).Foreground(t.Foreground).Render(state+" "+p.Track),
			lipgloss.NewStyle().Foreground(t.Secondary).Render(p.Artists+" · "+p.Album),
		)
		if p.DurationMs > 0 {
			lines = append(lines, progressBar(float64(p.ProgressMs)/float64(p.DurationMs), 30, t.Success)+" "+
				FormatClock(p.ProgressMs/1000)+" / "+FormatClock(p.DurationMs/1000))
		}
	}
	return styles.Panel.Width(v.width - 4).Render(strings.Join(lines, "\n"))
}

// IsInputMode returns whether the view is in input mode
func (v MediaView) IsInputMode() bool {
	return v.editing
}
