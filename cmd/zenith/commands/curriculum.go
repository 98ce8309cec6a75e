package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dori/zenith/internal/model"
)

func newSubjectCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subject",
		Short: "Manage curriculum subjects",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a subject",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := opts.open(false, false)
				if err != nil {
					return err
				}
				defer s.Close()

				sub, err := s.Store.AddSubject(strings.Join(args, " "))
				if err != nil {
					return err
				}
				if sub == nil {
					return fmt.Errorf("subject name is empty")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added subject %s\n", sub.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List subjects with their chapters",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := opts.open(true, false)
				if err != nil {
					return err
				}
				defer s.Close()

				w := cmd.OutOrStdout()
				subjects := s.Store.Subjects()
				if len(subjects) == 0 {
					fmt.Fprintln(w, "No subjects")
					return nil
				}
				for _, sub := range subjects {
					fmt.Fprintf(w, "%s  %d/%d (%.0f%%)\n", sub.Name, sub.CompletedChapters(), len(sub.Chapters), sub.Progress())
					for i, c := range sub.Chapters {
						check := "[ ]"
						if c.Completed {
							check = "[x]"
						}
						fmt.Fprintf(w, "  %2d %s %s\n", i+1, check, c.Name)
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm <subject>",
			Short: "Delete a subject and its chapters",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := opts.open(false, false)
				if err != nil {
					return err
				}
				defer s.Close()

				sub, ok := s.Store.FindSubject(args[0])
				if !ok {
					return fmt.Errorf("no subject named %q", args[0])
				}
				if _, err := s.Store.DeleteSubject(sub.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted subject %s\n", sub.Name)
				return nil
			},
		},
	)
	return cmd
}

func newChapterCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapter",
		Short: "Manage chapters of a subject",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <subject> <name>",
			Short: "Add a chapter",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := opts.open(false, false)
				if err != nil {
					return err
				}
				defer s.Close()

				sub, ok := s.Store.FindSubject(args[0])
				if !ok {
					return fmt.Errorf("no subject named %q", args[0])
				}
				chapter, err := s.Store.AddChapter(sub.ID, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				if chapter == nil {
					return fmt.Errorf("chapter name is empty")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", chapter.Name, sub.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "done <subject> <number>",
			Short: "Toggle a chapter by its number in the subject",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := opts.open(false, false)
				if err != nil {
					return err
				}
				defer s.Close()

				sub, ok := s.Store.FindSubject(args[0])
				if !ok {
					return fmt.Errorf("no subject named %q", args[0])
				}
				chapter, err := chapterAt(sub, args[1])
				if err != nil {
					return err
				}
				updated, err := s.Store.ToggleChapter(sub.ID, chapter.ID)
				if err != nil {
					return err
				}
				state := "pending"
				if updated != nil && updated.Completed {
					state = "completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", chapter.Name, state)
				return nil
			},
		},
	)
	return cmd
}

func chapterAt(sub model.Subject, ref string) (model.Chapter, error) {
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > len(sub.Chapters) {
		return model.Chapter{}, fmt.Errorf("%s has no chapter %q", sub.Name, ref)
	}
	return sub.Chapters[n-1], nil
}
