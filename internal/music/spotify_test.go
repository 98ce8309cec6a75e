package music

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dori/zenith/internal/config"
	"github.com/dori/zenith/internal/snapshot"
	"golang.org/x/oauth2"
)

var _ MusicPlaybackProvider = (*Spotify)(nil)

type fakeSpotify struct {
	mu         sync.Mutex
	srv        *httptest.Server
	refreshErr bool
	revoked    bool
	grants     []string
	calls      []string
	auth       []string
}

func newFakeSpotify(t *testing.T) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		f.mu.Lock()
		f.grants = append(f.grants, r.PostForm.Get("grant_type"))
		fail := f.refreshErr
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("grant_type") == "refresh_token" && fail {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant","error_description":"Refresh token revoked"}`)
			return
		}
		access := "access-" + r.PostForm.Get("grant_type")
		io.WriteString(w, `{"access_token":"`+access+`","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh-1"}`)
	})
	mux.HandleFunc("/v1/me/player", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"is_playing":true,"progress_ms":1000,"item":{"name":"Snowfall","duration_ms":180000,"artists":[{"name":"Oneheart"},{"name":"Reidenshi"}],"album":{"name":"Snowfall","images":[{"url":"https://i.scdn.co/a.jpg"}]}}}`)
	})
	for _, p := range []string{"/v1/me/player/play", "/v1/me/player/pause", "/v1/me/player/next", "/v1/me/player/previous"} {
		mux.HandleFunc(p, func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			f.mu.Lock()
			revoked := f.revoked
			f.mu.Unlock()
			if revoked {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"error":{"status":401,"message":"The access token expired"}}`)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeSpotify) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
}

func (f *fakeSpotify) config() config.SpotifyConfig {
	return config.SpotifyConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:8888/callback",
		AuthURL:      f.srv.URL + "/authorize",
		TokenURL:     f.srv.URL + "/api/token",
		APIURL:       f.srv.URL + "/v1",
	}
}

func seedToken(t *testing.T, store snapshot.Store, tok *oauth2.Token) {
	t.Helper()
	raw, err := json.Marshal(tok)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(snapshot.KeySpotifyToken, raw); err != nil {
		t.Fatal(err)
	}
}

func TestAuthURLCarriesScopesAndState(t *testing.T) {
	f := newFakeSpotify(t)
	s := NewSpotify(f.config(), snapshot.NewMemory(), nil)

	u, err := url.Parse(s.AuthURL("xyz"))
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("state") != "xyz" || q.Get("client_id") != "client" {
		t.Errorf("unexpected query %v", q)
	}
	if q.Get("scope") != strings.Join(Scopes, " ") {
		t.Errorf("unexpected scope %q", q.Get("scope"))
	}
	if q.Get("redirect_uri") != "http://127.0.0.1:8888/callback" {
		t.Errorf("unexpected redirect %q", q.Get("redirect_uri"))
	}
}

func TestExchangeCachesToken(t *testing.T) {
	f := newFakeSpotify(t)
	store := snapshot.NewMemory()
	s := NewSpotify(f.config(), store, nil)

	if s.Authenticated() {
		t.Fatal("expected no credentials before login")
	}
	if err := s.Exchange(context.Background(), "code-1"); err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if !s.Authenticated() {
		t.Fatal("expected credentials after exchange")
	}

	// a second instance picks up the cached token
	again := NewSpotify(f.config(), store, nil)
	tok, err := again.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "access-authorization_code" {
		t.Errorf("unexpected token %q", tok)
	}
}

func TestTokenRefreshesWhenExpired(t *testing.T) {
	f := newFakeSpotify(t)
	store := snapshot.NewMemory()
	seedToken(t, store, &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh-0",
		Expiry:       time.Now().Add(-time.Hour),
	})
	s := NewSpotify(f.config(), store, nil)

	tok, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "access-refresh_token" {
		t.Errorf("expected refreshed token, got %q", tok)
	}

	raw, _ := store.Load(snapshot.KeySpotifyToken)
	var cached oauth2.Token
	json.Unmarshal(raw, &cached)
	if cached.AccessToken != "access-refresh_token" {
		t.Errorf("refreshed token not cached: %+v", cached)
	}
}

func TestRefreshFailureClearsCredentials(t *testing.T) {
	f := newFakeSpotify(t)
	f.refreshErr = true
	store := snapshot.NewMemory()
	seedToken(t, store, &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Hour),
	})
	s := NewSpotify(f.config(), store, nil)

	if _, err := s.Token(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if s.Authenticated() {
		t.Error("credentials must be cleared after a failed refresh")
	}
	if raw, _ := store.Load(snapshot.KeySpotifyToken); raw != nil {
		t.Errorf("cached token must be deleted, got %s", raw)
	}
}

func TestPlaybackControls(t *testing.T) {
	f := newFakeSpotify(t)
	store := snapshot.NewMemory()
	seedToken(t, store, &oauth2.Token{AccessToken: "live", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)})
	s := NewSpotify(f.config(), store, nil)
	ctx := context.Background()

	for _, fn := range []func(context.Context) error{s.Play, s.Pause, s.Next, s.Previous} {
		if err := fn(ctx); err != nil {
			t.Fatalf("control failed: %v", err)
		}
	}
	want := []string{
		"PUT /v1/me/player/play",
		"PUT /v1/me/player/pause",
		"POST /v1/me/player/next",
		"POST /v1/me/player/previous",
	}
	for i, w := range want {
		if f.calls[i] != w {
			t.Errorf("call %d = %q, want %q", i, f.calls[i], w)
		}
		if f.auth[i] != "Bearer live" {
			t.Errorf("call %d auth = %q", i, f.auth[i])
		}
	}

	p, err := s.Current(ctx)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if p == nil || p.Track != "Snowfall" || p.Artists != "Oneheart, Reidenshi" || !p.IsPlaying {
		t.Errorf("unexpected playback %+v", p)
	}
	if p.ArtURL != "https://i.scdn.co/a.jpg" || p.DurationMs != 180000 {
		t.Errorf("unexpected playback details %+v", p)
	}
}

func TestControlsNeedLogin(t *testing.T) {
	f := newFakeSpotify(t)
	s := NewSpotify(f.config(), snapshot.NewMemory(), nil)
	if err := s.Play(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
	if len(f.calls) != 0 {
		t.Errorf("no API calls expected, got %v", f.calls)
	}
}

func TestRevokedGrantIsNotAuthenticated(t *testing.T) {
	f := newFakeSpotify(t)
	f.revoked = true
	store := snapshot.NewMemory()
	seedToken(t, store, &oauth2.Token{AccessToken: "live", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)})
	s := NewSpotify(f.config(), store, nil)

	err := s.Next(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if !strings.Contains(err.Error(), "The access token expired") {
		t.Errorf("expected the API message, got %v", err)
	}
	if len(f.calls) != 1 || f.calls[0] != "POST /v1/me/player/next" {
		t.Errorf("unexpected calls %v", f.calls)
	}
}

func TestExchangeNeedsClientID(t *testing.T) {
	s := NewSpotify(config.SpotifyConfig{}, snapshot.NewMemory(), nil)
	if err := s.Exchange(context.Background(), "c"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
