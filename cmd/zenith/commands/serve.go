package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dori/zenith/internal/server"
)

func newServeCommand(opts *Options) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API without the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(false, false)
			if err != nil {
				return err
			}
			defer s.Close()

			if cmd.Flags().Changed("host") {
				s.Config.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				s.Config.Server.Port = port
			}

			ctx := cmd.Context()
			s.StartServices(ctx)

			srv, err := server.New(s.Config, s.ServerServices(), s.log)
			if err != nil {
				return err
			}

			addr := s.Config.Server.GetAddr()
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(addr)
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", addr)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			s.log.Infow("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default from config)")
	return cmd
}
