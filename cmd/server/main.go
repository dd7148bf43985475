package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quillpost/core/internal/app"
	"github.com/quillpost/core/internal/config"
	"github.com/quillpost/core/internal/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, *configPath == config.DefaultConfigPath)
	if err != nil {
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("failed to load config", zap.String("path", *configPath), zap.Error(err))
	}

	level := "info"
	if cfg.IsDev() {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Dir: cfg.LogDir(), Level: level})
	if err != nil {
		log, _ = zap.NewProduction()
		log.Warn("file logging unavailable, falling back to stdout", zap.Error(err))
	}
	defer log.Sync()

	application, err := app.New(log, cfg)
	if err != nil {
		log.Fatal("failed to initialize app", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              application.Addr(),
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	application.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
}
