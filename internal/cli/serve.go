package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"facility-planner/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.Config.Server.Addr = addr
			}

			srv, err := server.New(c.Config, c.Logger)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			actualAddr, err := srv.Start()
			if err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
			c.Logger.Info("listening", "url", "http://"+actualAddr)

			<-cmd.Context().Done()
			c.Logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), c.Config.Server.ShutdownTimeout.Duration)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("could not gracefully shutdown the server: %w", err)
			}
			c.Logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
