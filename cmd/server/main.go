package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/unimeet/match-core/internal/app"
	"github.com/unimeet/match-core/internal/cache"
	"github.com/unimeet/match-core/internal/config"
	"github.com/unimeet/match-core/internal/db"
	"github.com/unimeet/match-core/internal/logger"
	"github.com/unimeet/match-core/internal/server"
	"github.com/unimeet/match-core/internal/service/chat"
	"github.com/unimeet/match-core/internal/service/matching"
	"github.com/unimeet/match-core/internal/session"
)

func main() {
	loaded := config.LoadDotEnv()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()
	if len(loaded) > 0 {
		log.Info("loaded env files", "files", loaded)
	}

	if cfg.Auth.JWTSecret == "" {
		log.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	appCtx, err := app.New(cfg, database, redisCache, log)
	if err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	grpcServer := server.NewGRPCServer(log, session.NewManager(cfg.Auth.JWTSecret),
		matching.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
	)
	probes := server.NewHTTPServer(server.ReadinessChecks(appCtx))

	errCh := make(chan error, 2)
	go func() {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port, "reciprocity", appCtx.Reciprocity)
		errCh <- server.StartGRPCServer(cfg, grpcServer)
	}()
	go func() {
		log.Info("starting http probes", "port", cfg.HTTP.Port)
		errCh <- server.StartHTTPServer(cfg.HTTP.Port, probes)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		log.Error("server stopped", "err", err)
	}

	grpcServer.GracefulStop()
	if err := probes.Shutdown(); err != nil {
		log.Warn("http shutdown failed", "err", err)
	}
}
