package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/qctrack/qctrack-backend/config"
	"github.com/qctrack/qctrack-backend/internal/auth"
	"github.com/qctrack/qctrack-backend/internal/bootstrap"
	"github.com/qctrack/qctrack-backend/internal/jobs"
	"github.com/qctrack/qctrack-backend/internal/logging"
	"github.com/qctrack/qctrack-backend/internal/storage/blob"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	bootstrap.SetGinMode(&cfg.App)

	db, err := bootstrap.OpenDB(ctx, &cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	pool, err := bootstrap.OpenPool(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Warn("REDIS_URL not set, lookup cache disabled")
	}

	var verifier auth.TokenVerifier
	if cfg.Auth.Mode == config.AuthModeFirebase {
		client, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			return err
		}
		verifier = client
	} else {
		log.Warn("header auth mode, identities are trusted from request headers", zap.String("dev_role", cfg.Auth.DevRole))
	}

	var blobs *blob.Store
	if cfg.Storage.Bucket != "" {
		blobs, err = blob.NewFromConfig(ctx, &cfg.Storage)
		if err != nil {
			return err
		}
	} else {
		log.Warn("S3_BUCKET not set, discrepancy attachments disabled")
	}

	infra := bootstrap.Infra{Config: cfg, Log: log, DB: db, Pool: pool, Redis: rdb, Blobs: blobs}
	services := bootstrap.NewServices(infra)

	router, err := bootstrap.BuildRouter(bootstrap.RouterDeps{Infra: infra, Services: services, Verifier: verifier})
	if err != nil {
		return err
	}

	scheduler := jobs.NewScheduler(log.Named("cron"))
	if err := jobs.Register(scheduler, &cfg.Cron, services.Lookups, services.Reports, log); err != nil {
		return err
	}
	scheduler.Start()

	go func() {
		if err := services.Lookups.Listen(ctx); err != nil {
			log.Warn("lookup invalidation listener stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("http server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("auth_mode", cfg.Auth.Mode),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("cron jobs still running at shutdown")
	}

	log.Info("server stopped")
	return nil
}
