// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiktok-scraping-service/internal/config"
	"tiktok-scraping-service/internal/domain/ports/repository"
	"tiktok-scraping-service/internal/infra/engine"
	"tiktok-scraping-service/internal/infra/logging"
	"tiktok-scraping-service/internal/infra/memstore"
	"tiktok-scraping-service/internal/infra/metrics"
	"tiktok-scraping-service/internal/infra/poll"
	red "tiktok-scraping-service/internal/infra/redis"
	"tiktok-scraping-service/internal/infra/web"
	"tiktok-scraping-service/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	// .env keeps webhook URLs out of the config file; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Store ----
	var (
		repo repository.SessionRepository
		pool repository.ResultPool
	)
	switch cfg.Store.Backend {
	case "redis":
		client, err := red.NewClient(ctx, &cfg.Store.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		repo = red.NewSessionRepo(client)
		pool = red.NewResultPool(client)
		logger.Info().Str("addr", cfg.Store.Redis.Addr).Msg("using redis session store")
	default:
		mem := memstore.NewSessionRepo()
		repo = mem
		pool = memstore.NewResultPool()
		logger.Info().Msg("using in-memory session store (data is lost on restart)")
	}

	// ---- Engine + poller ----
	eng := engine.NewClient(cfg.Engine, logger)
	poller := poll.New(cfg.Poll, repo, eng, logger)
	poller.Start(ctx)

	// ---- Use cases ----
	triggerUC := usecase.NewTriggerUseCase(repo, eng, poller, cfg.Engine.CallbackURL, logger)
	ingestUC := usecase.NewIngestUseCase(repo, pool, logger)
	sessionUC := usecase.NewSessionUseCase(repo, pool, poller, logger)

	// ---- HTTP server ----
	srv := web.NewServer(triggerUC, ingestUC, sessionUC, eng, cfg.Server.MaxBodyBytes, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Routes(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
	poller.Stop()
}
