package music

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dori/zenith/internal/config"
	"github.com/dori/zenith/internal/logger"
	"github.com/dori/zenith/internal/snapshot"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// Spotify implements MusicPlaybackProvider over the Web API client. The token is
// cached in the snapshot store and refreshed lazily before each call.
type Spotify struct {
	mu        sync.Mutex
	oauth     *oauth2.Config
	apiURL    string
	timeout   time.Duration
	snapshots snapshot.Store
	token     *oauth2.Token
	log       *logger.Logger
}

// NewSpotify builds the provider and loads any cached token
func NewSpotify(cfg config.SpotifyConfig, snapshots snapshot.Store, log *logger.Logger) *Spotify {
	if log == nil {
		log = logger.Nop()
	}
	s := &Spotify{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		apiURL:    strings.TrimRight(cfg.APIURL, "/") + "/",
		timeout:   15 * time.Second,
		snapshots: snapshots,
		log:       log.WithComponent("spotify"),
	}
	s.loadToken()
	return s
}

func (s *Spotify) loadToken() {
	if s.snapshots == nil {
		return
	}
	raw, err := s.snapshots.Load(snapshot.KeySpotifyToken)
	if err != nil {
		s.log.Warnw("Failed to load cached token", "error", err.Error())
		return
	}
	if raw == nil {
		return
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil || tok.AccessToken == "" {
		s.log.Warnw("Discarding unreadable cached token")
		return
	}
	s.token = &tok
}

// Configured reports whether an OAuth client id is set
func (s *Spotify) Configured() bool {
	return s.oauth.ClientID != ""
}

// Authenticated reports whether credentials are cached
func (s *Spotify) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != nil
}

// AuthURL is the consent page to send the user to
func (s *Spotify) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// Exchange trades the callback code for a token and caches it
func (s *Spotify) Exchange(ctx context.Context, code string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	start := time.Now()
	tok, err := s.oauth.Exchange(ctx, code)
	s.log.LogExternalCall("spotify", "exchange", float64(time.Since(start).Milliseconds()), err)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
	return s.saveLocked()
}

// Logout forgets cached credentials
func (s *Spotify) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *Spotify) saveLocked() error {
	if s.snapshots == nil {
		return nil
	}
	raw, err := json.Marshal(s.token)
	if err != nil {
		return err
	}
	err = s.snapshots.Save(snapshot.KeySpotifyToken, raw)
	s.log.LogStoreWrite(snapshot.KeySpotifyToken, len(raw), err)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", snapshot.KeySpotifyToken, err)
	}
	return nil
}

func (s *Spotify) clearLocked() error {
	s.token = nil
	if s.snapshots == nil {
		return nil
	}
	return s.snapshots.Delete(snapshot.KeySpotifyToken)
}

// Token returns a valid access token. An expired token is refreshed; when
// the refresh fails the cached credentials are cleared.
func (s *Spotify) Token(ctx context.Context) (string, error) {
	tok, err := s.validToken(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (s *Spotify) validToken(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		return nil, ErrNotAuthenticated
	}
	if s.token.Valid() {
		return s.token, nil
	}

	refreshToken := s.token.RefreshToken
	start := time.Now()
	fresh, err := s.oauth.TokenSource(ctx, s.token).Token()
	s.log.LogExternalCall("spotify", "refresh", float64(time.Since(start).Milliseconds()), err)
	if err != nil {
		if clearErr := s.clearLocked(); clearErr != nil {
			s.log.Errorw("Failed to clear credentials", "error", clearErr.Error())
		}
		return nil, fmt.Errorf("%w: refresh failed: %v", ErrNotAuthenticated, err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = refreshToken
	}
	s.token = fresh
	if err := s.saveLocked(); err != nil {
		s.log.Warnw("Refreshed token not cached", "error", err.Error())
	}
	return fresh, nil
}

// api returns a Web API client authorized with the current token
func (s *Spotify) api(ctx context.Context) (*spotify.Client, error) {
	tok, err := s.validToken(ctx)
	if err != nil {
		return nil, err
	}
	httpClient := s.oauth.Client(ctx, tok)
	httpClient.Timeout = s.timeout
	return spotify.New(httpClient, spotify.WithBaseURL(s.apiURL)), nil
}

// do runs one Web API call. A 401 from the API means the grant was revoked.
func (s *Spotify) do(ctx context.Context, op string, fn func(c *spotify.Client) error) error {
	c, err := s.api(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	err = fn(c)
	s.log.LogExternalCall("spotify", op, float64(time.Since(start).Milliseconds()), err)
	if err == nil {
		return nil
	}
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return fmt.Errorf("%w: spotify %s: %s", ErrNotAuthenticated, op, apiErr.Message)
	}
	return fmt.Errorf("spotify %s: %w", op, err)
}

func (s *Spotify) Play(ctx context.Context) error {
	return s.do(ctx, "play", func(c *spotify.Client) error { return c.Play(ctx) })
}

func (s *Spotify) Pause(ctx context.Context) error {
	return s.do(ctx, "pause", func(c *spotify.Client) error { return c.Pause(ctx) })
}

func (s *Spotify) Next(ctx context.Context) error {
	return s.do(ctx, "next", func(c *spotify.Client) error { return c.Next(ctx) })
}

func (s *Spotify) Previous(ctx context.Context) error {
	return s.do(ctx, "previous", func(c *spotify.Client) error { return c.Previous(ctx) })
}

// Current returns nil, nil when the account has no active playback
func (s *Spotify) Current(ctx context.Context) (*Playback, error) {
	var state *spotify.PlayerState
	err := s.do(ctx, "player", func(c *spotify.Client) error {
		var err error
		state, err = c.PlayerState(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if state == nil || state.Item == nil {
		return nil, nil
	}

	item := state.Item
	names := make([]string, 0, len(item.Artists))
	for _, a := range item.Artists {
		names = append(names, a.Name)
	}
	p := &Playback{
		Track:      item.Name,
		Artists:    strings.Join(names, ", "),
		Album:      item.Album.Name,
		IsPlaying:  state.Playing,
		ProgressMs: int(state.Progress),
		DurationMs: int(item.Duration),
	}
	if len(item.Album.Images) > 0 {
		p.ArtURL = item.Album.Images[0].URL
	}
	return p, nil
}
