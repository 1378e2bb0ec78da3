package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/aegis-api/internal/application"
	appevents "github.com/bryanwahyu/aegis-api/internal/application/events"
	"github.com/bryanwahyu/aegis-api/internal/config"
	"github.com/bryanwahyu/aegis-api/internal/infra/db"
	"github.com/bryanwahyu/aegis-api/internal/infra/httpserver"
	"github.com/bryanwahyu/aegis-api/internal/logging"
	"github.com/bryanwahyu/aegis-api/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Log.Env, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	// connect database
	gw, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("database connect error", zap.Error(err))
	}
	defer gw.Close()

	// create table + indexes kalau belum ada
	if err := gw.EnsureSchema(ctx); err != nil {
		logger.Fatal("ensure schema error", zap.Error(err))
	}

	// init service
	svc := appevents.NewService(gw, application.SystemClock{})

	// init router
	handler := httpserver.NewRouter(svc, httpserver.Options{
		Logger:    logger,
		Metrics:   middleware.NewMetrics(),
		Readiness: gw,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// run server
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("dialect", string(gw.Dialect())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
}
