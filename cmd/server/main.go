package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/social-graph/internal/app"
	"github.com/oggyb/social-graph/internal/cache"
	"github.com/oggyb/social-graph/internal/config"
	"github.com/oggyb/social-graph/internal/db"
	"github.com/oggyb/social-graph/internal/logger"
	"github.com/oggyb/social-graph/internal/server"
	"github.com/oggyb/social-graph/internal/service"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}

	appCtx := app.New(cfg, database, redisCache, log)
	services := service.New(appCtx)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	health := server.NewHealthRegistrar()
	checker := server.NewChecker(appCtx, health)
	checker.Check(ctx)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		return server.StartGRPCServer(gCtx, cfg, health)
	})
	g.Go(func() error {
		log.Info("starting admin http server", "addr", cfg.HTTP.Host+":"+cfg.HTTP.Port)
		return server.StartHTTPServer(gCtx, cfg, server.NewHTTPServer(checker))
	})

	g.Go(func() error {
		log.Info("starting counter reconciler", "interval", cfg.Reconcile.Interval)
		return services.Engagement.RunReconciler(gCtx, cfg.Reconcile.Interval, cfg.Reconcile.BatchSize)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
