package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/app"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/config"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/logging"
)

func main() {
	ctx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	//Create App with all initialization
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("initialise app", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("initiating graceful shutdown", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown", "error", err)
		}
		// Cancel root context so ALL goroutines & requests stop
		logger.Info("shutdown done, cancelling remaining goroutines")
		rootCancel()
		close(idleConnsClosed)
	}()

	logger.Info("starting server", "addr", cfg.Addr(), "store", cfg.Store.Driver, "push", cfg.Push.Transport)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	<-idleConnsClosed
	logger.Info("server stopped")
}
