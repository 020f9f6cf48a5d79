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

	_ "github.com/chenglin1712/deming-rollcall/api/swagger"
	"github.com/chenglin1712/deming-rollcall/internal/app"
	"github.com/chenglin1712/deming-rollcall/pkg/cache"
	"github.com/chenglin1712/deming-rollcall/pkg/config"
	"github.com/chenglin1712/deming-rollcall/pkg/database"
	"github.com/chenglin1712/deming-rollcall/pkg/logger"
)

// @title Deming Dormitory Roll Call API
// @version 1.0.0
// @description Nightly room-check records for the Deming dormitory: roster import, submissions, history and exports.
// @BasePath /
// @schemes http

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

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(db, logr); err != nil {
		logr.Fatal("failed to migrate database", zap.Error(err))
	}

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close() //nolint:errcheck
	}

	api, err := app.New(cfg, db, rdb, logr)
	if err != nil {
		logr.Fatal("failed to build api", zap.Error(err))
	}
	if err := api.Start(context.Background()); err != nil {
		logr.Fatal("failed to start api", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("db", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	if err := api.Stop(ctx); err != nil {
		logr.Warn("audit queue did not drain", zap.Error(err))
	}
	logr.Info("server stopped")
}
