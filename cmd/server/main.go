package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"jacareparts/backend/internal/cache"
	"jacareparts/backend/internal/config"
	"jacareparts/backend/internal/httpapi"
	"jacareparts/backend/internal/service"
	"jacareparts/backend/internal/store"
	"jacareparts/backend/internal/store/memory"
	"jacareparts/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)

	var repo store.Repository
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("postgres connection failed")
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("schema setup failed")
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("using postgres store")
	} else {
		repo = memory.NewSeeded()
		logger.Warn("DATABASE_URL not set, using seeded in-memory store")
	}

	var productCache cache.ProductCache = cache.NoopProductCache{}
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisProductCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.WithError(err).Warn("redis unreachable, catalog cache disabled")
			_ = redisCache.Close()
		} else {
			productCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("catalog cache on redis")
		}
	}

	svc := service.New(repo, productCache, logger, service.Options{
		ShopName:        cfg.ShopName,
		CatalogCacheTTL: time.Duration(cfg.CatalogCacheTTLSeconds) * time.Second,
		RestockOnCancel: cfg.RestockOnCancel,
	})

	api := httpapi.New(svc, logger, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.WithError(err).Error("close error")
		}
	}
}
