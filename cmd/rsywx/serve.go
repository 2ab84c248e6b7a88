package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/rsywx-client/internal/app"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the home page data and serve it over HTTP",
		Long:  "Starts a load session, schedules the daily content refresh and serves the stores, book pages and performance reports.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg.Server.Addr, func(ctx context.Context) (*app.App, error) {
				return app.New(ctx, cfg)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "override server.addr")
	return cmd
}

func runServe(ctx context.Context, addr string, build func(context.Context) (*app.App, error)) error {
	a, err := build(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := newServer(a)
	if _, _, err := srv.startLoad(ctx); err != nil {
		return err
	}

	scheduler := newDailyScheduler(a.Config.Daily.RefreshSchedule, a.Config.Gateway.Timeout*2, a.Daily.FetchAll)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	srv.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
