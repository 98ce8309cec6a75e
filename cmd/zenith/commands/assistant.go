package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dori/zenith/internal/ai"
	"github.com/dori/zenith/internal/calendar"
)

const assistantTimeout = 60 * time.Second

// warnAI reports an AI failure on stderr. The fallback text has already
// been printed.
func warnAI(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, ai.ErrNoAPIKey) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Set GEMINI_API_KEY to enable the assistant.")
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "AI request failed: %v\n", err)
}

func newChatCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the study assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(true, false)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), assistantTimeout)
			defer cancel()

			reply, err := s.Assistant.Chat(ctx, strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			warnAI(cmd, err)
			return nil
		},
	}
}

func newPrioritizeCommand(opts *Options) *cobra.Command {
	var minutes int

	cmd := &cobra.Command{
		Use:   "prioritize",
		Short: "Ask the assistant to order pending tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(true, false)
			if err != nil {
				return err
			}
			defer s.Close()

			tasks := s.Store.Tasks()
			list := calendar.TaskListText(tasks)
			if strings.TrimSpace(list) == "" {
				return fmt.Errorf("no tasks to prioritize")
			}
			if minutes <= 0 {
				minutes = s.Timer.Snapshot().Durations.Work
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), assistantTimeout)
			defer cancel()

			suggestion, err := s.Assistant.SuggestPriorities(ctx, ai.PriorityRequest{
				TaskList:        list,
				CalendarEvents:  calendar.EventsText(tasks, time.Now()),
				PomodoroMinutes: minutes,
			})
			w := cmd.OutOrStdout()
			if suggestion.PrioritizedTasks != "" {
				fmt.Fprintln(w, suggestion.PrioritizedTasks)
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, suggestion.Reasoning)
			warnAI(cmd, err)
			return nil
		},
	}

	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "Pomodoro length to plan around (default: current work duration)")
	return cmd
}

func newDurationCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "duration <url>",
		Short: "Estimate the total length of a video or playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(true, false)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), assistantTimeout)
			defer cancel()

			seconds, err := s.Assistant.PlaylistDuration(ctx, args[0])
			fmt.Fprintln(cmd.OutOrStdout(), ai.FormatDuration(seconds))
			warnAI(cmd, err)
			return nil
		},
	}
}
