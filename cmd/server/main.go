package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/store-ratings/internal/auth"
	"github.com/Clark-Hu/store-ratings/internal/config"
	httpserver "github.com/Clark-Hu/store-ratings/internal/http"
	"github.com/Clark-Hu/store-ratings/internal/logging"
	"github.com/Clark-Hu/store-ratings/internal/metrics"
	"github.com/Clark-Hu/store-ratings/internal/repository"
	"github.com/Clark-Hu/store-ratings/internal/service"
	"github.com/Clark-Hu/store-ratings/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Fatal("load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config error")
	}

	logger := logging.New("store-ratings", cfg.LogLevel, cfg.LogFormat)

	if cfg.DBAutoMigrate {
		if err := store.Migrate(cfg.DBURL, logger); err != nil {
			logger.WithError(err).Fatal("apply migrations")
		}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		logger.WithError(err).Fatal("connect database")
	}
	defer st.Close()

	m := metrics.New()
	m.RegisterPool(st.Stats)
	repo := repository.New(st)
	svc := service.New(repo, auth.NewHasher(cfg.BcryptCost), auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL), m, logger)

	if cfg.SeedAdmin() {
		if _, err := svc.SeedAdmin(dbCtx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.WithError(err).Fatal("seed admin account")
		}
	}

	server := httpserver.New(cfg, st, svc, m, logger)
	logger.WithField("port", cfg.Port).Info("server starting")

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("graceful shutdown error")
	}
	logger.Info("server stopped")
}
