package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"chatgate/internal/config"
	"chatgate/internal/logger"
)

// App is a wired server ready to listen.
type App struct {
	*Wire
	settings *config.Config
	srv      *http.Server
}

// New wires the dependency graph and prepares the HTTP server.
func New(cfg Config) (*App, error) {
	w, err := NewWire(cfg)
	if err != nil {
		return nil, err
	}
	return &App{
		Wire:     w,
		settings: cfg.Settings,
		srv: &http.Server{
			Addr:              cfg.Settings.Server.Addr,
			Handler:           w.Handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully and stops
// every session watcher.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.srv.Addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	log := a.Logger.With(logger.Component("app"))
	defer func() { _ = a.Logger.Sync() }()
	defer a.Sessions.Close()

	log.Info("starting chatgate",
		logger.String("env", a.settings.Env),
		logger.String("addr", ln.Addr().String()),
		logger.String("pubkey", a.settings.PubKey),
		logger.String("fingerprint", string(a.Fingerprint)),
	)

	// The assistant profile is also fetched on the first turn; a failure
	// here only means the backend is not reachable yet.
	if _, err := a.Assistant.Profile(ctx); err != nil {
		log.Warn("assistant profile unavailable", logger.Error(err))
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.Sessions.RunSweeper(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.settings.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", logger.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
