package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dori/zenith/internal/device"
	"github.com/dori/zenith/internal/media"
	"github.com/dori/zenith/internal/music"
)

const loginStateTTL = 10 * time.Minute

// EmbedRequest is the body of PUT /api/media/embed. Preset takes a 1-based
// index or a preset id.
type EmbedRequest struct {
	URL    string `json:"url" validate:"required_without=Preset"`
	Preset string `json:"preset"`
}

// EmbedResponse is the player state
type EmbedResponse struct {
	EmbedURL string        `json:"embedUrl"`
	Changed  bool          `json:"changed"`
	Presets  []media.Track `json:"presets,omitempty"`
}

// MusicStatus reports whether a music account can be used
type MusicStatus struct {
	Configured    bool `json:"configured"`
	Authenticated bool `json:"authenticated"`
}

func (s *Server) currentEmbed(c echo.Context) error {
	if s.services.Embed == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Media player is not available")
	}
	return c.JSON(http.StatusOK, EmbedResponse{EmbedURL: s.services.Embed.Current(), Presets: media.Presets})
}

// loadEmbed swaps the player. An unusable link keeps the current embed and
// reports changed=false.
func (s *Server) loadEmbed(c echo.Context) error {
	var req EmbedRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if s.services.Embed == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Media player is not available")
	}

	if req.Preset != "" {
		track, ok := s.services.Embed.Select(req.Preset)
		if !ok {
			return notFound("Preset")
		}
		return c.JSON(http.StatusOK, EmbedResponse{EmbedURL: track.EmbedURL, Changed: true})
	}
	embed, changed := s.services.Embed.Load(req.URL)
	return c.JSON(http.StatusOK, EmbedResponse{EmbedURL: embed, Changed: changed})
}

func (s *Server) musicProvider() (Music, error) {
	if s.services.Music == nil || !s.services.Music.Configured() {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "Spotify is not configured")
	}
	return s.services.Music, nil
}

// musicError maps provider failures to HTTP errors
func musicError(err error) error {
	switch {
	case errors.Is(err, music.ErrNotAuthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "Connect your Spotify account first").SetInternal(err)
	case errors.Is(err, music.ErrNotConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Spotify is not configured").SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusBadGateway, err.Error())
}

func (s *Server) musicStatus(c echo.Context) error {
	if s.services.Music == nil {
		return c.JSON(http.StatusOK, MusicStatus{})
	}
	return c.JSON(http.StatusOK, MusicStatus{
		Configured:    s.services.Music.Configured(),
		Authenticated: s.services.Music.Authenticated(),
	})
}

func (s *Server) musicCurrent(c echo.Context) error {
	p, err := s.musicProvider()
	if err != nil {
		return err
	}
	playback, err := p.Current(c.Request().Context())
	if err != nil {
		return musicError(err)
	}
	if playback == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, playback)
}

func (s *Server) musicControl(fn func(music.MusicPlaybackProvider, context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := s.musicProvider()
		if err != nil {
			return err
		}
		if err := fn(p, c.Request().Context()); err != nil {
			return musicError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func (s *Server) musicLogout(c echo.Context) error {
	p, err := s.musicProvider()
	if err != nil {
		return err
	}
	if err := p.Logout(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to forget credentials").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// issueState records a one-time OAuth state value
func (s *Server) issueState() string {
	state := uuid.NewString()
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	now := time.Now()
	for k, at := range s.states {
		if now.Sub(at) > loginStateTTL {
			delete(s.states, k)
		}
	}
	s.states[state] = now
	return state
}

func (s *Server) consumeState(state string) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	at, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return time.Since(at) <= loginStateTTL
}

func (s *Server) login(c echo.Context) error {
	p, err := s.musicProvider()
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, p.AuthURL(s.issueState()))
}

func (s *Server) callback(c echo.Context) error {
	p, err := s.musicProvider()
	if err != nil {
		return err
	}
	if e := c.QueryParam("error"); e != "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Spotify login failed: "+e)
	}
	code := c.QueryParam("code")
	if code == "" {
		return c.Redirect(http.StatusFound, "/health")
	}
	if !s.consumeState(c.QueryParam("state")) {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown or expired login state")
	}
	if err := p.Exchange(c.Request().Context(), code); err != nil {
		s.logger.Errorw("Spotify token exchange failed", "error", err.Error())
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to retrieve Spotify access token.")
	}
	return c.HTML(http.StatusOK, "<p>Spotify connected. You can close this window.</p>")
}

func (s *Server) deviceStatus(c echo.Context) error {
	status := device.StatusDisconnected
	if s.services.Device != nil {
		status = s.services.Device.Status()
	}
	return c.JSON(http.StatusOK, map[string]string{"status": string(status)})
}

func (s *Server) deviceToggle(c echo.Context) error {
	if s.services.Device == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Device control is disabled")
	}
	if err := s.services.Device.ToggleConnection(c.Request().Context()); err != nil {
		if errors.Is(err, device.ErrBusy) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": string(s.services.Device.Status())})
}
