// cmd/api/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpin "mintx/internal/adapters/in/http"
	"mintx/internal/infra/config"
	"mintx/internal/infra/logging"
	"mintx/internal/infra/metrics"
	"mintx/internal/platform/di"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, cfgErr := config.Load()
	level, format := "info", "json"
	if cfg != nil {
		level, format = cfg.LogLevel, cfg.LogFormat
	}
	logger := logging.MustNew(level, format)
	defer func() { _ = logger.Sync() }()
	log := logger.Named("boot")

	// ─────────────────────────────────────────────────────────────
	// Lightweight healthz first so PORT is LISTENed quickly
	// ─────────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ─────────────────────────────────────────────────────────────
	// DI container & heavy deps; keep /healthz even on failure
	// ─────────────────────────────────────────────────────────────
	var cont *di.Container
	switch {
	case cfgErr != nil:
		log.Warn("config invalid (serving /healthz only)", zap.Error(cfgErr))
	default:
		c, err := di.NewContainer(ctx, cfg, logger)
		if err != nil {
			log.Warn("di init failed (serving /healthz only)", zap.Error(err))
			break
		}
		cont = c
		mux.Handle("/", httpin.NewRouter(cont.RouterDeps()))
	}

	// ─────────────────────────────────────────────────────────────
	// Port resolution: config → env:PORT → 8080
	// ─────────────────────────────────────────────────────────────
	port := ""
	if cfg != nil {
		port = cfg.Port
	}
	if port == "" {
		if p := os.Getenv("PORT"); p != "" {
			port = p
		} else {
			port = "8080"
		}
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		// 画像付き multipart を受けるので Read は長め
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *metrics.Server
	if cont != nil {
		metricsSrv = metrics.NewServer(cfg.MetricsAddr, cont.Metrics, logger)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		return metricsSrv.Run()
	})

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown for Cloud Run
	// ─────────────────────────────────────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", zap.Error(err))
		}
		if err := metricsSrv.Close(shutdownCtx); err != nil {
			log.Error("metrics shutdown", zap.Error(err))
		}
		if err := cont.Close(shutdownCtx); err != nil {
			log.Error("container close", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}
