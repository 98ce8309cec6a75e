package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dori/zenith/internal/config"
)

type fakeGenerator struct {
	output string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, schema *Schema, out interface{}) error {
	f.prompt = prompt
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.output), out)
}

func TestChat(t *testing.T) {
	gen := &fakeGenerator{output: `{"response":"Try spaced repetition."}`}
	a := NewAssistant(gen, nil)

	got, err := a.Chat(context.Background(), "How do I memorize?")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if got != "Try spaced repetition." {
		t.Errorf("unexpected response %q", got)
	}
	if !strings.Contains(gen.prompt, "How do I memorize?") {
		t.Errorf("prompt does not contain message: %q", gen.prompt)
	}
}

func TestChatBlankMessage(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("should not be called")}
	got, err := NewAssistant(gen, nil).Chat(context.Background(), "   ")
	if got != "" || err != nil {
		t.Errorf("expected no-op, got %q, %v", got, err)
	}
	if gen.prompt != "" {
		t.Error("generator must not be called for blank messages")
	}
}

func TestFallbacks(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	a := NewAssistant(gen, nil)
	ctx := context.Background()

	if got, err := a.Chat(ctx, "hi"); err == nil || got != ChatFallback {
		t.Errorf("chat fallback = %q, %v", got, err)
	}

	s, err := a.SuggestPriorities(ctx, PriorityRequest{TaskList: "- a (pending)", PomodoroMinutes: 25})
	if err == nil || s.PrioritizedTasks != "" || s.Reasoning != PriorityFallback {
		t.Errorf("priority fallback = %+v, %v", s, err)
	}

	if got, err := a.PlaylistDuration(ctx, "https://youtu.be/x"); err == nil || got != 0 {
		t.Errorf("duration fallback = %d, %v", got, err)
	}
}

func TestSuggestPrioritiesPrompt(t *testing.T) {
	gen := &fakeGenerator{output: `{"prioritizedTasks":"1. Essay","reasoning":"Due soonest"}`}
	s, err := NewAssistant(gen, nil).SuggestPriorities(context.Background(), PriorityRequest{
		TaskList:        "- Essay (pending)",
		CalendarEvents:  "No calendar connected. Current focus is on the task list.",
		PomodoroMinutes: 30,
	})
	if err != nil {
		t.Fatalf("SuggestPriorities failed: %v", err)
	}
	if s.PrioritizedTasks != "1. Essay" || s.Reasoning != "Due soonest" {
		t.Errorf("unexpected suggestion %+v", s)
	}
	if !strings.Contains(gen.prompt, "Pomodoro Interval: 30 minutes") {
		t.Errorf("prompt missing interval: %q", gen.prompt)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{0: "0s", 6843: "1h 54m 3s", 60: "1m", 3600: "1h"}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody struct {
		GenerationConfig struct {
			ResponseMimeType string                 `json:"responseMimeType"`
			ResponseSchema   map[string]interface{} `json:"responseSchema"`
		} `json:"generationConfig"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"totalDurationSeconds\": 6843}"}]}}]}`)
	}))
	defer srv.Close()

	g := NewGemini(config.AIConfig{APIKey: "k", Model: "gemini-2.5-flash", Endpoint: srv.URL, RatePerMinute: 600}, nil)
	seconds, err := NewAssistant(g, nil).PlaylistDuration(context.Background(), "https://www.youtube.com/playlist?list=PL1")
	if err != nil {
		t.Fatalf("PlaylistDuration failed: %v", err)
	}
	if seconds != 6843 {
		t.Errorf("expected 6843, got %d", seconds)
	}
	if !strings.HasSuffix(gotPath, "/models/gemini-2.5-flash:generateContent") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotKey != "k" {
		t.Errorf("expected api key header, got %q", gotKey)
	}
	if gotBody.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("expected JSON response mime type, got %+v", gotBody.GenerationConfig)
	}
	if _, ok := gotBody.GenerationConfig.ResponseSchema["properties"]; !ok {
		t.Errorf("expected response schema, got %+v", gotBody.GenerationConfig.ResponseSchema)
	}
}

func TestGeminiErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"code":403,"message":"API key invalid","status":"PERMISSION_DENIED"}}`)
	}))
	defer srv.Close()

	g := NewGemini(config.AIConfig{APIKey: "bad", Model: "m", Endpoint: srv.URL}, nil)
	var out struct{}
	err := g.Generate(context.Background(), "hi", chatSchema, &out)
	if err == nil || !strings.Contains(err.Error(), "API key invalid") {
		t.Errorf("expected API error, got %v", err)
	}

	noKey := NewGemini(config.AIConfig{Model: "m", Endpoint: srv.URL}, nil)
	if err := noKey.Generate(context.Background(), "hi", chatSchema, &out); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}
