// Package music controls an external music account. Playback sits behind
// MusicPlaybackProvider so the UI and API never depend on one vendor.
package music

import (
	"context"
	"errors"
)

var (
	// ErrNotAuthenticated is returned when no usable credentials are cached
	ErrNotAuthenticated = errors.New("music account not connected")
	// ErrNotConfigured is returned when the OAuth client id is missing
	ErrNotConfigured = errors.New("music provider not configured")
)

// Scopes requested during login
var Scopes = []string{
	"streaming",
	"user-read-email",
	"user-read-private",
	"user-modify-playback-state",
	"user-read-playback-state",
}

// Playback is what is currently playing on the account
type Playback struct {
	Track      string `json:"track"`
	Artists    string `json:"artists"`
	Album      string `json:"album"`
	ArtURL     string `json:"artUrl,omitempty"`
	IsPlaying  bool   `json:"isPlaying"`
	ProgressMs int    `json:"progressMs"`
	DurationMs int    `json:"durationMs"`
}

// MusicPlaybackProvider drives playback on the connected account
type MusicPlaybackProvider interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	// Current returns nil when nothing is playing
	Current(ctx context.Context) (*Playback, error)
	// Token returns a valid access token, refreshing it if needed
	Token(ctx context.Context) (string, error)
}
