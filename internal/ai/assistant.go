// Package ai wraps the hosted language model behind three study-hub
// operations. Every failure is logged and replaced by a neutral fallback.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/dori/zenith/internal/logger"
)

// Fallback messages shown when the model cannot be reached
const (
	ChatFallback     = "An error occurred while communicating with the AI. Please try again."
	PriorityFallback = "An error occurred while generating task priorities. Please check your inputs and try again."
	DurationFallback = 0
)

// PriorityRequest is the prioritizer input
type PriorityRequest struct {
	TaskList        string `json:"taskList" validate:"required"`
	CalendarEvents  string `json:"calendarEvents"`
	PomodoroMinutes int    `json:"pomodoroInterval" validate:"gte=1"`
}

// PrioritySuggestion is the prioritizer output
type PrioritySuggestion struct {
	PrioritizedTasks string `json:"prioritizedTasks"`
	Reasoning        string `json:"reasoning"`
}

// Assistant runs chat, prioritization and playlist-duration prompts
type Assistant struct {
	gen Generator
	log *logger.Logger
}

// NewAssistant returns an Assistant using gen
func NewAssistant(gen Generator, log *logger.Logger) *Assistant {
	if log == nil {
		log = logger.Nop()
	}
	return &Assistant{gen: gen, log: log.WithComponent("ai")}
}

// Chat answers a free-text message. On failure the fallback text is
// returned together with the error. Blank messages return "", nil.
func (a *Assistant) Chat(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", nil
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := a.gen.Generate(ctx, chatPrompt(message), chatSchema, &out); err != nil {
		a.log.Errorw("Chat failed", "error", err.Error())
		return ChatFallback, err
	}
	return out.Response, nil
}

// SuggestPriorities orders the task list with reasoning
func (a *Assistant) SuggestPriorities(ctx context.Context, req PriorityRequest) (PrioritySuggestion, error) {
	var out PrioritySuggestion
	if err := a.gen.Generate(ctx, priorityPrompt(req), prioritySchema, &out); err != nil {
		a.log.Errorw("Priority suggestion failed", "error", err.Error())
		return PrioritySuggestion{Reasoning: PriorityFallback}, err
	}
	return out, nil
}

// PlaylistDuration estimates the total length of a video or playlist in
// seconds. Returns 0 on failure or for URLs the model rejects.
func (a *Assistant) PlaylistDuration(ctx context.Context, url string) (int, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return DurationFallback, fmt.Errorf("playlist url is required")
	}

	var out struct {
		TotalDurationSeconds float64 `json:"totalDurationSeconds"`
	}
	if err := a.gen.Generate(ctx, durationPrompt(url), durationSchema, &out); err != nil {
		a.log.Errorw("Playlist duration failed", "url", url, "error", err.Error())
		return DurationFallback, err
	}
	if out.TotalDurationSeconds < 0 {
		return DurationFallback, nil
	}
	return int(out.TotalDurationSeconds), nil
}

// FormatDuration renders seconds as "1h 54m 3s"
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0s"
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	if s > 0 {
		parts = append(parts, fmt.Sprintf("%ds", s))
	}
	return strings.Join(parts, " ")
}
