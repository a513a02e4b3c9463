package worker

// retry_cron.go
// Background goroutine that periodically re-attempts webhook delivery for
// cortes stuck in estado_notificacion='pendiente' with a next_retry_at in
// the past. Uses the Circuit Breaker to avoid hammering a downed endpoint.

import (
	"context"
	"fmt"
	"time"

	"cajas/internal/infra"
	"cajas/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10

	// MaxNotificacionRetries caps cron re-attempts before the corte is
	// marked estado_notificacion='error' and parked in the DLQ.
	MaxNotificacionRetries = 5
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	CorteRepo   repository.CorteRepository
	Notificador *infra.NotificadorCierres
	CB          *infra.CircuitBreaker
	RDB         *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries cortes with pending notifications, and re-attempts webhook
// delivery through the CB. It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed endpoint
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	now := time.Now()
	cortes, err := cfg.CorteRepo.ListNotificacionesPendientes(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending notifications")
		return
	}

	if len(cortes) == 0 {
		return
	}

	log.Info().Int("count", len(cortes)).Msg("retry_cron: processing pending notifications")

	for i := range cortes {
		corte := &cortes[i]

		// Check CB state before each call — it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		cbErr := cfg.CB.Execute(func() error {
			_, err := cfg.Notificador.Notificar(ctx, cierrePayload(corte))
			return err
		})

		if cbErr != nil {
			// Failure — increment retry count, schedule next attempt
			corte.RetryCount++
			errMsg := cbErr.Error()
			corte.LastError = &errMsg
			nextRetry := time.Now().Add(computeRetryBackoff(corte.RetryCount))
			corte.NextRetryAt = &nextRetry

			if corte.RetryCount >= MaxNotificacionRetries {
				corte.EstadoNotificacion = "error"
				corte.NextRetryAt = nil
				log.Error().
					Str("corte_id", corte.ID.String()).
					Int("retries", corte.RetryCount).
					Msg("retry_cron: max retries exceeded, moving to error/DLQ")

				// Send to DLQ for manual inspection
				payload := fmt.Sprintf(`{"corte_id":"%s"}`, corte.ID)
				SendToDLQ(ctx, cfg.RDB, QueueCierres, "cierre", []byte(payload),
					fmt.Sprintf("max retries (%d) exceeded: %s", MaxNotificacionRetries, errMsg),
					corte.RetryCount)
			} else {
				log.Warn().
					Str("corte_id", corte.ID.String()).
					Int("retry_count", corte.RetryCount).
					Time("next_retry_at", *corte.NextRetryAt).
					Msg("retry_cron: webhook retry failed, scheduled next attempt")
			}

			_ = cfg.CorteRepo.Update(ctx, corte)
			continue
		}

		// Success path
		corte.EstadoNotificacion = "enviada"
		corte.NextRetryAt = nil
		corte.LastError = nil
		_ = cfg.CorteRepo.Update(ctx, corte)

		log.Info().
			Str("corte_id", corte.ID.String()).
			Int("total_retries", corte.RetryCount).
			Msg("retry_cron: webhook delivered after retry")
	}
}

// computeRetryBackoff: 1m, 2m, 4m, 8m … capped at 30m.
func computeRetryBackoff(retryCount int) time.Duration {
	backoff := time.Minute * time.Duration(1<<uint(retryCount-1))
	if backoff > 30*time.Minute {
		backoff = 30 * time.Minute
	}
	return backoff
}
