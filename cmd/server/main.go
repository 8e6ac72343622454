package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jourdash/internal/config"
	"jourdash/internal/infra"
	"jourdash/internal/repository"
	"jourdash/internal/router"
	"jourdash/internal/unitgen"
	"jourdash/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The barcode allocator lives in Redis; after a Redis reset it must not
	// reissue serials already stored in Postgres.
	unitRepo := repository.NewUnitRepository(db)
	maxBarcode, err := unitRepo.MaxBarcode(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read highest barcode")
	}
	if err := unitgen.SeedFromIndex(ctx, infra.NewRedisSequencer(rdb), maxBarcode); err != nil {
		log.Fatal().Err(err).Msg("failed to seed barcode sequence")
	}

	store, err := infra.NewReportStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open report store")
	}

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	mailer := infra.NewMailer(cfg)
	mailCB := infra.NewCircuitBreaker("mail", infra.DefaultCBConfig())
	dispatcher := worker.NewDispatcher(rdb)
	dlq := worker.NewRedisDLQ(rdb)
	reportRepo := repository.NewReportRepository(db)

	workerHandlers := &worker.WorkerHandlers{
		Report: worker.NewReportWorker(worker.ReportWorkerDeps{
			Reports:  reportRepo,
			Receipts: repository.NewReceiptRepository(db),
			Lines:    repository.NewLineRepository(db),
			Units:    unitRepo,
			Store:    store,
			Emails:   dispatcher,
			NotifyTo: cfg.ReportNotifyEmail,
		}),
		Email: worker.NewEmailWorker(mailer, store, mailCB),
	}
	worker.StartWorkerPool(ctx, rdb, workerHandlers, dlq, cfg.WorkerPoolSize)
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		Reports:    reportRepo,
		Queue:      dispatcher,
		DLQ:        dlq,
		MaxRetries: cfg.MaxReportRetries,
	})

	r, err := router.New(cfg, db, rdb, store, mailCB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("jourdash goods-receipt service listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
