// Package media turns video links into embeddable player URLs.
package media

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/dori/zenith/internal/logger"
)

// ErrUnsupportedURL is returned for links that are not YouTube videos or playlists
var ErrUnsupportedURL = errors.New("unsupported video url")

const (
	embedBase = "https://www.youtube.com/embed/"
	// DefaultEmbed is the player shown before anything is loaded
	DefaultEmbed = embedBase + "jfKfPfyJRdk"
)

// Track is a preset focus-music stream
type Track struct {
	Title    string `json:"title"`
	ID       string `json:"id"`
	EmbedURL string `json:"embedUrl"`
}

// Presets are the built-in focus music streams
var Presets = []Track{
	{Title: "Pomodoro with Lofi Girl", ID: "1oDrJba2PSs", EmbedURL: embedBase + "1oDrJba2PSs"},
	{Title: "Lofi Hip Hop Radio", ID: "jfKfPfyJRdk", EmbedURL: embedBase + "jfKfPfyJRdk"},
	{Title: "Gentle Rain Sounds", ID: "-OekvEFm1lo", EmbedURL: embedBase + "-OekvEFm1lo"},
	{Title: "Peaceful Piano Radio", ID: "TtkFsfOP9QI", EmbedURL: embedBase + "TtkFsfOP9QI"},
}

// EmbedURL extracts a playlist or video id from raw and returns the
// embeddable URL. Playlists win over videos when both are present.
func EmbedURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return embedBase + id, nil
		}
	case strings.Contains(host, "youtube.com"):
		q := u.Query()
		if list := q.Get("list"); list != "" {
			return embedBase + "videoseries?list=" + url.QueryEscape(list), nil
		}
		if v := q.Get("v"); v != "" {
			return embedBase + v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
}

// Embed holds the currently shown embed URL
type Embed struct {
	mu      sync.RWMutex
	current string
	log     *logger.Logger
}

// NewEmbed starts with initial, or DefaultEmbed when empty
func NewEmbed(initial string, log *logger.Logger) *Embed {
	if initial == "" {
		initial = DefaultEmbed
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Embed{current: initial, log: log.WithComponent("media")}
}

// Current returns the embed URL being shown
func (e *Embed) Current() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Load replaces the embed when raw parses. An invalid link is logged and
// the previous embed stays; the returned bool reports whether it changed.
func (e *Embed) Load(raw string) (string, bool) {
	embed, err := EmbedURL(raw)
	if err != nil {
		e.log.Warnw("Invalid YouTube URL", "url", raw, "error", err.Error())
		return e.Current(), false
	}
	e.mu.Lock()
	e.current = embed
	e.mu.Unlock()
	return embed, true
}

// Select shows a preset by index or id
func (e *Embed) Select(ref string) (Track, bool) {
	for i, t := range Presets {
		if t.ID == ref || fmt.Sprint(i+1) == ref {
			e.mu.Lock()
			e.current = t.EmbedURL
			e.mu.Unlock()
			return t, true
		}
	}
	return Track{}, false
}
