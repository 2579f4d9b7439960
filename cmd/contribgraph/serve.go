package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/benoitkugler/contribgraph/server"
)

var (
	listenFlag string
	devFlag    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the graphs of the user over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true, true)
		if err != nil {
			return err
		}
		addr := a.cfg.Listen
		if listenFlag != "" {
			addr = listenFlag
		}
		srv := server.New(server.Config{Addr: addr, AllowAll: devFlag}, a.graphs, a.pipeline, a.logger)

		errc := make(chan error, 1)
		go func() { errc <- srv.Start() }()

		select {
		case err := <-errc:
			return err
		case <-cmd.Context().Done():
		}
		a.logger.Info("server: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "listen address, overriding the config")
	serveCmd.Flags().BoolVar(&devFlag, "dev", false, "allow all CORS origins")
	rootCmd.AddCommand(serveCmd)
}
