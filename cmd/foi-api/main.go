package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/foi-request-api/internal/app"
	"github.com/noah-isme/foi-request-api/internal/router"
	"github.com/noah-isme/foi-request-api/pkg/config"
	"github.com/noah-isme/foi-request-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title FOI Request Tracking API
// @version 1.0.0
// @description Tracks freedom of information requests filed under PHIPA, FIPPA and MFIPPA.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		return fmt.Errorf("assemble app: %w", err)
	}
	defer a.Close()

	if cfg.Store.SeedSample {
		if _, err := a.SeedSample(ctx); err != nil {
			return fmt.Errorf("seed sample data: %w", err)
		}
	}
	if cfg.Auth.Enabled {
		if err := a.EnsureAdmin(ctx); err != nil {
			return fmt.Errorf("bootstrap coordinator: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.New(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Workers must accept jobs before the first request can enqueue one.
	a.Queue.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.Queue.Run(gctx)
	})
	g.Go(func() error {
		return a.ExportJobs.RunCleanup(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logr.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
