package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dori/zenith/internal/db"
	"github.com/dori/zenith/internal/snapshot"
)

func newDataCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Export or import the local database",
		Long:  "Copies collection snapshots and session history. Spotify credentials are never exported.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "export [file]",
			Short: "Write a JSON dump to file, or stdout",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := opts.open(true, false)
				if err != nil {
					return err
				}
				defer s.Close()

				database, err := requireDB(s)
				if err != nil {
					return err
				}
				dump, err := database.Export(snapshot.KeySpotifyToken)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if len(args) == 1 {
					f, err := os.Create(args[0])
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(dump); err != nil {
					return fmt.Errorf("failed to write dump: %w", err)
				}
				if len(args) == 1 {
					fmt.Fprintf(cmd.OutOrStdout(), "Exported %d snapshot(s) and %d session(s) to %s\n", len(dump.Snapshots), len(dump.Sessions), args[0])
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "import <file>",
			Short: "Restore a JSON dump written by export",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				raw, err := readDump(args[0], cmd.InOrStdin())
				if err != nil {
					return err
				}
				var dump db.Dump
				if err := json.Unmarshal(raw, &dump); err != nil {
					return fmt.Errorf("failed to parse dump: %w", err)
				}

				s, err := opts.open(false, false)
				if err != nil {
					return err
				}
				defer s.Close()

				database, err := requireDB(s)
				if err != nil {
					return err
				}
				if err := database.Import(&dump); err != nil {
					return err
				}
				if s.Config.Storage.Backend != "sqlite" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Storage backend is %s, imported snapshots are only read with sqlite.\n", s.Config.Storage.Backend)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d snapshot(s) and %d session(s)\n", len(dump.Snapshots), len(dump.Sessions))
				return nil
			},
		},
	)
	return cmd
}

func requireDB(s *session) (*db.DB, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("no database in an ephemeral run")
	}
	return s.DB, nil
}

// readDump reads path, or stdin for "-"
func readDump(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
