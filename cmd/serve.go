package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dharmaverse/config"
	"dharmaverse/database"
	"dharmaverse/logger"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		Long: `Run the HTTP API and background jobs until SIGINT or SIGTERM.

Examples:
  dharmaverse serve
  dharmaverse serve --addr :9090 --config /etc/dharmaverse/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(true)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := database.Initialize(cfg.Database.Driver, cfg.Database.DSN); err != nil {
				return err
			}
			defer database.Close()

			if err := database.Seed(ctx, database.DB); err != nil {
				return err
			}

			listener, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return err
			}
			return serve(ctx, cfg, newApp(cfg, database.DB), listener)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// serve runs the HTTP server and the scheduler until ctx ends, then shuts both down.
func serve(ctx context.Context, cfg *config.Config, a *app, listener net.Listener) error {
	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Info("🕉  DharmaVerse Server Starting")
	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if cfg.Auth.JWTSecret == config.DevJWTSecret {
		logger.Warn("auth.jwt_secret is the development default; set DHARMA_AUTH_JWT_SECRET in production")
	}

	srv := &http.Server{
		Handler:           a.routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("✅ Server listening on %s", listener.Addr())
		logger.Info("📚 Swagger UI: http://%s/swagger/index.html", listener.Addr())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🛑 Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		a.videos.Wait()
		if err != nil {
			logger.Error("Server forced to shutdown: %v", err)
			return err
		}
		logger.Info("Server stopped gracefully")
		return nil
	})

	return g.Wait()
}
