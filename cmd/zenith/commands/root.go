// Package commands builds the zenith command tree.
package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dori/zenith/internal/app"
	"github.com/dori/zenith/internal/config"
	"github.com/dori/zenith/internal/logger"
	"github.com/dori/zenith/internal/server"
	"github.com/dori/zenith/internal/ui"
	"github.com/dori/zenith/internal/ui/theme"
)

// Options holds the persistent flags shared by every command
type Options struct {
	ConfigPath string
	Ephemeral  bool
}

// session is an opened application with its logger
type session struct {
	*app.App
	log *logger.Logger
}

func (s *session) Close() {
	s.App.Close()
	s.log.Close()
}

// open loads configuration and opens the application. Commands that only
// read pass readOnly so they do not contend for the instance lock. With tui
// set, logs go to <data_dir>/zenith.log instead of the terminal.
func (o *Options) open(readOnly, tui bool) (*session, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logger
	if tui {
		logCfg.Output = "file"
		logCfg.Filename = filepath.Join(cfg.App.DataDir, config.AppName+".log")
	} else if logCfg.Output != "file" {
		logCfg.Output = "stderr"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a, err := app.New(cfg, log, app.Options{Ephemeral: o.Ephemeral, ReadOnly: readOnly})
	if err != nil {
		log.Close()
		return nil, err
	}
	return &session{App: a, log: log}, nil
}

// NewRootCommand creates the zenith command tree. Without a subcommand it
// starts the terminal UI.
func NewRootCommand(version string) *cobra.Command {
	opts := &Options{}
	var viewName, themeName string
	var serve bool

	rootCmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "A study hub for the terminal",
		Long:          "Zenith combines a Pomodoro timer, tasks, a curriculum tracker, a file classroom, a calendar and an AI study assistant.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts, viewName, themeName, serve)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to a config file (default: config.yaml in the data directory)")
	rootCmd.PersistentFlags().BoolVar(&opts.Ephemeral, "ephemeral", false, "Keep everything in memory for this run")
	rootCmd.Flags().StringVar(&viewName, "view", "timer", "Starting view (timer, tasks, curriculum, calendar, classroom, media, assistant, stats)")
	rootCmd.Flags().StringVar(&themeName, "theme", "", "Theme name (nord, dracula, gruvbox, catppuccin)")
	rootCmd.Flags().BoolVar(&serve, "serve", false, "Also run the HTTP API while the UI is open")

	rootCmd.AddCommand(
		newAddCommand(opts),
		newTasksCommand(opts),
		newDoneCommand(opts),
		newRemoveCommand(opts),
		newClearCommand(opts),
		newSubjectCommand(opts),
		newChapterCommand(opts),
		newChatCommand(opts),
		newPrioritizeCommand(opts),
		newDurationCommand(opts),
		newEmbedCommand(opts),
		newSpotifyCommand(opts),
		newServeCommand(opts),
		newDataCommand(opts),
		newVersionCommand(version),
	)
	return rootCmd
}

func runTUI(ctx context.Context, opts *Options, viewName, themeName string, serve bool) error {
	start, err := ui.ParseView(viewName)
	if err != nil {
		return err
	}

	s, err := opts.open(false, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if themeName == "" {
		themeName = s.Config.App.Theme
	}
	if t, ok := theme.ByName(themeName); ok {
		theme.SetTheme(t)
	} else {
		s.log.Warnw("Unknown theme, using default", "theme", themeName)
	}

	s.StartServices(ctx)

	if serve {
		srv, err := server.New(s.Config, s.ServerServices(), s.log)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Start(s.Config.Server.GetAddr()); err != nil {
				s.log.Errorw("HTTP API stopped", "error", err.Error())
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	p := tea.NewProgram(
		ui.NewRootModel(s.App, start),
		tea.WithAltScreen(),
	)
	_, err = p.Run()
	return err
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the zenith version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", config.AppName, version)
		},
	}
}
