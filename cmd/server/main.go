package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cajas/internal/config"
	"cajas/internal/infra"
	"cajas/internal/repository"
	"cajas/internal/router"
	"cajas/internal/service"
	"cajas/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger — dev: pretty console, prod: zerolog's default JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Start goroutine worker pool for async post-close tasks (caja general
	// consolidation, PDF, webhook notification, alert email). Worker handlers
	// are wired here (composition root) so the pool has full access to all
	// infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notificador := infra.NewNotificadorCierres(cfg.WebhookCierresURL)
	webhookCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)

	corteRepo := repository.NewCorteRepository(db)
	usuarioRepo := repository.NewUsuarioRepository(db)
	movimientoRepo := repository.NewMovimientoRepository(db)
	cajaGeneralSvc := service.NewCajaGeneralService(corteRepo, usuarioRepo, movimientoRepo, dispatcher, cfg.ToleranciaCajaGeneralDecimal())

	handlers := worker.Handlers{
		Cierre: worker.NewCierreWorker(corteRepo, cajaGeneralSvc, notificador, webhookCB, dispatcher, cfg.PDFStoragePath, cfg.AlertasEmail),
		Email:  worker.NewEmailWorker(mailer),
	}
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)

	// Re-deliver webhook notifications that failed their inline retries.
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		CorteRepo:   corteRepo,
		Notificador: notificador,
		CB:          webhookCB,
		RDB:         rdb,
	})

	r := router.New(cfg, db, rdb, webhookCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("cajas backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
