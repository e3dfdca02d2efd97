package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bahjat/structured-web-auditor/internal/analyzer"
	"github.com/Bahjat/structured-web-auditor/internal/platform/middleware"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the audit HTTP API",
	Long: `Serves:
  POST /audit        {"url": "..."}                 audit one page
  POST /audit/site   {"domain": "..."} | {"urls": [...]} audit a site
  GET  /sites/{domain}                              latest site report`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	mux := http.NewServeMux()
	analyzer.NewTransport(a.service, a.logger).RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = middleware.Recover(a.logger)(handler)
	handler = middleware.Logging(a.logger)(handler)
	handler = middleware.RequestID(handler)

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", "port", a.cfg.Port, "env", a.cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
