package worker

// cierre_worker.go
// Processes post-close jobs from QueueCierres. For a closed drawer cut it
// folds the counted cash into the branch's caja general, then generates the
// reconciliation PDF, notifies the accounting webhook (with exponential
// backoff), and raises an email alert when the corte closed with a
// difference outside tolerance.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cajas/internal/infra"
	"cajas/internal/model"
	"cajas/internal/repository"
	"cajas/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CierreJobPayload is the job envelope sent to QueueCierres.
type CierreJobPayload struct {
	CorteID string `json:"corte_id"`
}

type CierreWorker struct {
	corteRepo      repository.CorteRepository
	cajaGeneral    service.CajaGeneralService
	notificador    *infra.NotificadorCierres
	cb             *infra.CircuitBreaker
	dispatcher     *Dispatcher
	pdfStoragePath string
	alertasEmail   string
}

func NewCierreWorker(
	corteRepo repository.CorteRepository,
	cajaGeneral service.CajaGeneralService,
	notificador *infra.NotificadorCierres,
	cb *infra.CircuitBreaker,
	dispatcher *Dispatcher,
	pdfStoragePath string,
	alertasEmail string,
) *CierreWorker {
	return &CierreWorker{
		corteRepo:      corteRepo,
		cajaGeneral:    cajaGeneral,
		notificador:    notificador,
		cb:             cb,
		dispatcher:     dispatcher,
		pdfStoragePath: pdfStoragePath,
		alertasEmail:   alertasEmail,
	}
}

// Process handles a single cierre job:
//  1. Parse CierreJobPayload from the job envelope
//  2. Fetch the Corte (with movimientos) from DB
//  3. Fold a drawer cut into the branch's caja general
//  4. Generate the reconciliation PDF
//  5. Notify the accounting webhook with exponential backoff (max 3 retries)
//  6. Enqueue an alert email when the corte closed CON_DIFERENCIA
func (w *CierreWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload CierreJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("cierre_worker: invalid payload")
		return
	}

	corteID, err := uuid.Parse(payload.CorteID)
	if err != nil {
		log.Error().Str("corte_id", payload.CorteID).Msg("cierre_worker: invalid corte_id")
		return
	}

	corte, err := w.corteRepo.FindByID(ctx, corteID)
	if err != nil {
		log.Error().Err(err).Str("corte_id", payload.CorteID).Msg("cierre_worker: corte not found")
		return
	}
	if corte.Estado != model.EstadoCerrado {
		// Cancelled between enqueue and processing — nothing to deliver.
		log.Warn().Str("corte_id", payload.CorteID).Str("estado", corte.Estado).Msg("cierre_worker: corte no longer closed, skipping")
		return
	}

	// Fold the drawer cut's counted cash into the day's caja general.
	if corte.Ambito == model.AmbitoCorteUsuario {
		if err := w.cajaGeneral.IncorporarCorte(ctx, corte); err != nil {
			log.Error().Err(err).Str("corte_id", payload.CorteID).Msg("cierre_worker: failed to fold into caja general")
		}
	}

	pdfPath, pdfErr := infra.GenerateCortePDF(corte, w.pdfStoragePath)
	if pdfErr != nil {
		log.Warn().Err(pdfErr).Str("corte_id", payload.CorteID).Msg("cierre_worker: PDF generation failed")
	}

	// Webhook notification with exponential backoff: attempt 1 immediate,
	// then 1s, 2s. The retry cron picks up anything still pending after.
	notifErr := withRetry(ctx, 3, func(attempt int) error {
		return w.cb.Execute(func() error {
			_, err := w.notificador.Notificar(ctx, cierrePayload(corte))
			if err != nil {
				log.Warn().
					Err(err).
					Int("attempt", attempt+1).
					Str("corte_id", payload.CorteID).
					Msg("cierre_worker: webhook attempt failed, retrying")
			}
			return err
		})
	})

	if notifErr != nil {
		log.Error().Err(notifErr).Str("corte_id", payload.CorteID).Msg("cierre_worker: webhook failed after all retries")
		errMsg := notifErr.Error()
		corte.LastError = &errMsg
		next := time.Now().Add(computeRetryBackoff(corte.RetryCount + 1))
		corte.NextRetryAt = &next
	} else {
		corte.EstadoNotificacion = "enviada"
		corte.NextRetryAt = nil
		corte.LastError = nil
		log.Info().Str("corte_id", payload.CorteID).Msg("cierre_worker: webhook notified")
	}
	if err := w.corteRepo.Update(ctx, corte); err != nil {
		log.Error().Err(err).Str("corte_id", payload.CorteID).Msg("cierre_worker: failed to update notification state")
	}

	// Difference outside tolerance: alert supervision with the PDF attached.
	if w.alertasEmail != "" && corte.EstadoFinal != nil && *corte.EstadoFinal == model.CuadreConDiferencia {
		emailJob := EmailJobPayload{
			ToEmail: w.alertasEmail,
			Subject: fmt.Sprintf("Corte con diferencia — %s %s", corte.Ambito, corte.Fecha.Format("02/01/2006")),
			Body: fmt.Sprintf("El corte %s cerró con diferencia de $%s.\nEsperado: $%s\nContado: $%s",
				corte.ID, corte.Diferencia.StringFixed(2),
				corte.SaldoEsperado.StringFixed(2), corte.SaldoReal.StringFixed(2)),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("corte_id", payload.CorteID).Msg("cierre_worker: failed to enqueue alert email")
		}
	}
}

// cierrePayload flattens a closed corte into the webhook wire format.
func cierrePayload(corte *model.Corte) infra.CierrePayload {
	p := infra.CierrePayload{
		CorteID:      corte.ID.String(),
		Ambito:       corte.Ambito,
		SucursalID:   corte.SucursalID.String(),
		Fecha:        corte.Fecha.Format("2006-01-02"),
		SaldoInicial: corte.SaldoInicial.StringFixed(2),
	}
	if corte.SaldoEsperado != nil {
		p.SaldoEsperado = corte.SaldoEsperado.StringFixed(2)
	}
	if corte.SaldoReal != nil {
		p.SaldoReal = corte.SaldoReal.StringFixed(2)
	}
	if corte.Diferencia != nil {
		p.Diferencia = corte.Diferencia.StringFixed(2)
	}
	if corte.EstadoFinal != nil {
		p.EstadoFinal = *corte.EstadoFinal
	}
	if corte.FechaCierre != nil {
		p.FechaCierre = corte.FechaCierre.Format(time.RFC3339)
	}
	return p
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			// 1s, 2s … (exponential backoff)
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
