// Command interviewd serves interview definitions over HTTP. It holds no
// session state: progress travels in a signed token the client echoes back
// on every update.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rendis/intake/internal/expressions"
	"github.com/rendis/intake/internal/fields"
	"github.com/rendis/intake/internal/interp"
	"github.com/rendis/intake/internal/loader"
	"github.com/rendis/intake/internal/logging"
	"github.com/rendis/intake/internal/server"
	"github.com/rendis/intake/internal/token"
)

func main() {
	cfg := loadConfig()

	logger := slog.New(logging.NewCorrelationHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.slogLevel()}),
	))

	if err := run(cfg, logger); err != nil {
		logger.Error("interviewd exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	if cfg.TokenSecret == "" {
		return errors.New("INTAKE_TOKEN_SECRET is required")
	}

	types := fields.Builtin()
	ldr, err := loader.New(expressions.New(), types)
	if err != nil {
		return err
	}

	// Any definition error refuses startup; authoring bugs must never be
	// discovered by a live interview.
	defs, err := ldr.LoadDir(cfg.DefsDir)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		logger.Warn("no interview definitions found", "dir", cfg.DefsDir)
	}
	for _, def := range defs {
		for _, warn := range def.Warnings {
			logger.Warn("definition lint",
				"interview", def.ID, "path", warn.Path, "code", warn.Code, "message", warn.Message)
		}
		logger.Info("definition loaded", "interview", def.ID, "questions", len(def.Questions))
	}

	codec, err := token.NewCodec([]byte(cfg.TokenSecret), cfg.tokenTTL())
	if err != nil {
		return err
	}

	srv := server.New(logger, loader.NewRegistry(defs), interp.NewResolver(types), codec)
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
