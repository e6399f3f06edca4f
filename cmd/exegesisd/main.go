package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"exegesisai/internal/app"
	"exegesisai/internal/config"
	"exegesisai/internal/ratelimit"
	"exegesisai/internal/server"
	"exegesisai/internal/store"
	"exegesisai/internal/util"
	"exegesisai/pkg/ai"
	"exegesisai/pkg/auth"
	"exegesisai/pkg/storage"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	retryBaseDelay, err := config.ParseRetryBaseDelay(cfg.RetryBaseDelay)
	if err != nil {
		util.Fatal("failed to parse retry base delay", "err", err)
	}
	aiClient, err := ai.NewClient(ai.Config{
		APIKey:          cfg.GeminiAPIKey,
		GenerationModel: cfg.GenerationModel,
		ImageModel:      cfg.ImageModel,
		TTSModel:        cfg.TTSModel,
		ThinkingBudget:  cfg.ThinkingBudget,
		Grounding:       cfg.Grounding,
		MaxAttempts:     cfg.RetryMaxAttempts,
		BaseDelay:       retryBaseDelay,
	})
	if err != nil {
		util.Fatal("failed to init ai client", "err", err)
	}

	dataStore, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		util.Fatal("failed to init data store", "err", err)
	}

	var images storage.ImageStore
	switch cfg.Storage {
	case "minio":
		images, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		images, err = storage.NewDiskStore(filepath.Join(cfg.DataDir, "images"), "/api/images")
	}
	if err != nil {
		util.Fatal("failed to init image storage", "err", err)
	}

	sessions, err := auth.NewSessions(cfg.SessionSecret, 0)
	if err != nil {
		util.Fatal("failed to init sessions", "err", err)
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "exegesis:ratelimit",
			cfg.RateLimitPerMinute, time.Minute,
		)
		if err != nil {
			util.Fatal("failed to init rate limiter", "err", err)
		}
	}

	appCore, err := app.New(app.Config{Store: dataStore, AI: aiClient, Images: images})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	httpServer := server.New(server.Config{
		App:      appCore,
		Sessions: sessions,
		Images:   images,
		Limiter:  limiter,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("exegesis server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := group.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
