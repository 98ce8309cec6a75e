package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dori/zenith/internal/calendar"
	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/store"
)

func newAddCommand(opts *Options) *cobra.Command {
	var date, subject string

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := calendar.ParseDay(date, time.Now())
			if err != nil {
				return err
			}

			s, err := opts.open(false, false)
			if err != nil {
				return err
			}
			defer s.Close()

			var subjectID *string
			if subject != "" {
				sub, ok := s.Store.FindSubject(subject)
				if !ok {
					return fmt.Errorf("no subject named %q", subject)
				}
				subjectID = &sub.ID
			}

			task, err := s.Store.AddTask(strings.Join(args, " "), day, subjectID)
			if err != nil {
				return err
			}
			if task == nil {
				return fmt.Errorf("task text is empty")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", task.Text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Calendar day (today, tomorrow or YYYY-MM-DD)")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject name or id")
	return cmd
}

func newTasksCommand(opts *Options) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keep, err := taskFilter(filter)
			if err != nil {
				return err
			}

			s, err := opts.open(true, false)
			if err != nil {
				return err
			}
			defer s.Close()

			printTasks(cmd.OutOrStdout(), s.Store, keep, time.Now())
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "Which tasks to show (all, pending, completed)")
	return cmd
}

func taskFilter(name string) (func(model.Task) bool, error) {
	switch strings.ToLower(name) {
	case "", "all":
		return func(model.Task) bool { return true }, nil
	case "pending":
		return func(t model.Task) bool { return !t.Completed }, nil
	case "completed", "done":
		return func(t model.Task) bool { return t.Completed }, nil
	}
	return nil, fmt.Errorf("unknown filter %q", name)
}

func printTasks(w io.Writer, st *store.Store, keep func(model.Task) bool, now time.Time) {
	tasks := st.Tasks()
	shown := 0
	for i, t := range tasks {
		if !keep(t) {
			continue
		}
		shown++
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		line := fmt.Sprintf("%3d %s %s", i+1, check, t.Text)
		if t.Date != nil {
			line += "  " + t.Date.Format("2006-01-02")
			if t.IsOverdue(now) {
				line += " (overdue)"
			}
		}
		if sub, ok := st.LookupSubject(t.SubjectID); ok {
			line += "  #" + sub.Name
		}
		fmt.Fprintln(w, line)
	}
	if shown == 0 {
		fmt.Fprintln(w, "No tasks")
	}
}

func newDoneCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "done <ref>",
		Short: "Toggle a task by list number or id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(false, false)
			if err != nil {
				return err
			}
			defer s.Close()

			task, ok := s.Store.ResolveTask(args[0])
			if !ok {
				return fmt.Errorf("no task %q", args[0])
			}
			updated, err := s.Store.ToggleTask(task.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", updated.Text, updated.StatusLabel())
			return nil
		},
	}
}

func newRemoveCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <ref>",
		Aliases: []string{"delete"},
		Short:   "Delete a task by list number or id prefix",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(false, false)
			if err != nil {
				return err
			}
			defer s.Close()

			task, ok := s.Store.ResolveTask(args[0])
			if !ok {
				return fmt.Errorf("no task %q", args[0])
			}
			if _, err := s.Store.DeleteTask(task.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", task.Text)
			return nil
		},
	}
}

func newClearCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(false, false)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.Store.ClearCompleted()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed task(s)\n", n)
			return nil
		},
	}
}
