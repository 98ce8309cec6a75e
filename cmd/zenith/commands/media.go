package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dori/zenith/internal/media"
	"github.com/dori/zenith/internal/music"
	"github.com/dori/zenith/internal/server"
)

func newEmbedCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "embed [url|preset]",
		Short: "Show or change the focus music player",
		Long:  "Without arguments prints the current embed and the presets. A preset is chosen by number or id, anything else is read as a YouTube link.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				s, err := opts.open(true, false)
				if err != nil {
					return err
				}
				defer s.Close()

				current := s.Embed.Current()
				fmt.Fprintf(w, "Now playing: %s\n\n", current)
				for i, t := range media.Presets {
					marker := " "
					if t.EmbedURL == current {
						marker = "*"
					}
					fmt.Fprintf(w, "%s %d. %s (%s)\n", marker, i+1, t.Title, t.ID)
				}
				return nil
			}

			s, err := opts.open(false, false)
			if err != nil {
				return err
			}
			defer s.Close()

			if track, ok := s.Embed.Select(args[0]); ok {
				fmt.Fprintf(w, "Selected %s\n", track.Title)
			} else if embed, changed := s.Embed.Load(args[0]); changed {
				fmt.Fprintf(w, "Loaded %s\n", embed)
			} else {
				return fmt.Errorf("could not read a video or playlist id from %q", args[0])
			}
			return s.SaveEmbed()
		},
	}
}

func newSpotifyCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spotify",
		Short: "Connect and control a Spotify account",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Authorize zenith in the browser",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return spotifyLogin(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the connection and current playback",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := opts.open(true, false)
				if err != nil {
					return err
				}
				defer s.Close()

				w := cmd.OutOrStdout()
				if !s.Spotify.Configured() {
					fmt.Fprintln(w, "Spotify is not configured. Set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET.")
					return nil
				}
				if !s.Spotify.Authenticated() {
					fmt.Fprintln(w, "Not connected. Run `zenith spotify login`.")
					return nil
				}

				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				p, err := s.Spotify.Current(ctx)
				if errors.Is(err, music.ErrNotAuthenticated) {
					fmt.Fprintln(w, "Session expired. Run `zenith spotify login` again.")
					return nil
				}
				if err != nil {
					return err
				}
				if p == nil {
					fmt.Fprintln(w, "Connected. Nothing is playing.")
					return nil
				}
				state := "Paused"
				if p.IsPlaying {
					state = "Playing"
				}
				fmt.Fprintf(w, "%s: %s by %s\n", state, p.Track, p.Artists)
				return nil
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the stored Spotify credentials",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := opts.open(false, false)
				if err != nil {
					return err
				}
				defer s.Close()

				if err := s.Spotify.Logout(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out of Spotify")
				return nil
			},
		},
	)

	for _, c := range []struct {
		use, short string
		fn         func(*music.Spotify, context.Context) error
	}{
		{"play", "Resume playback", (*music.Spotify).Play},
		{"pause", "Pause playback", (*music.Spotify).Pause},
		{"next", "Skip to the next track", (*music.Spotify).Next},
		{"prev", "Go back to the previous track", (*music.Spotify).Previous},
	} {
		fn := c.fn
		cmd.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := opts.open(true, false)
				if err != nil {
					return err
				}
				defer s.Close()

				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				return fn(s.Spotify, ctx)
			},
		})
	}
	return cmd
}

// spotifyLogin serves the OAuth redirect until the account is connected
func spotifyLogin(cmd *cobra.Command, opts *Options) error {
	s, err := opts.open(false, false)
	if err != nil {
		return err
	}
	defer s.Close()

	if !s.Spotify.Configured() {
		return music.ErrNotConfigured
	}

	srv, err := server.New(s.Config, s.ServerServices(), s.log)
	if err != nil {
		return err
	}
	addr := s.Config.Server.GetAddr()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	host := addr
	if strings.HasPrefix(host, "0.0.0.0:") {
		host = "127.0.0.1" + strings.TrimPrefix(host, "0.0.0.0")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Open http://%s/login to connect Spotify\n", host)

	ctx := cmd.Context()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if err == nil {
				err = fmt.Errorf("server stopped before login finished")
			}
			return err
		case <-ticker.C:
			if s.Spotify.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Spotify connected")
				return nil
			}
		}
	}
}
